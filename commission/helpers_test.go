package commission_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const (
	modelPure   = "پورسانت خالص"
	modelSalary = "حقوق ثابت + پورسانت"

	planStandard = "استاندارد"
	planPro      = "حرفه‌ای"
	planVIP      = "VIP"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func testConfig() *commission.Config {
	return &commission.Config{
		CurrencyFactor:     dec("0.1"),
		RenewalRate:        dec("0.05"),
		MinCollectionRatio: dec("0.3"),
		AgentMultiplier:    dec("0.5"),
		DefaultModel:       modelPure,
		AgentKeywords:      []string{"نمایندگان", "نماینده"},
		Bonus: commission.BonusPercentages{
			Collective: dec("0.05"),
			Individual: dec("0.03"),
			TopSeller:  dec("0.02"),
		},
		MinQualifyingValues: map[string]decimal.Decimal{
			planStandard:           dec("12000000"),
			planPro:                dec("40000000"),
			planVIP:                dec("60000000"),
			commission.DefaultPlan: dec("12000000"),
		},
	}
}

func testRules() []commission.Rule {
	return []commission.Rule{
		{ID: 1, Model: modelPure, MinSales: dec("0"), MaxSales: dec("250000000"),
			MarketerRate: dec("0.05"), NegotiatorRate: dec("0.10"), CoordinatorRate: dec("0.02")},
		{ID: 2, Model: modelPure, MinSales: dec("250000000"), MaxSales: dec("500000000"),
			MarketerRate: dec("0.06"), NegotiatorRate: dec("0.12"), CoordinatorRate: dec("0.04")},
		{ID: 3, Model: modelSalary, MinSales: dec("0"), MaxSales: dec("150000000"),
			MarketerRate: dec("0"), NegotiatorRate: dec("0"), CoordinatorRate: dec("0")},
		{ID: 4, Model: modelSalary, MinSales: dec("150000000"), MaxSales: dec("250000000"),
			MarketerRate: dec("0.05"), NegotiatorRate: dec("0.05"), CoordinatorRate: dec("0.01")},
	}
}

func newTestEngine() *commission.Engine {
	return commission.NewEngine(testConfig(), commission.NewRuleTable(testRules()), nil)
}

// sale builds a fully collected row: net, collected and base are the same
// raw amount.
func sale(line int, negotiator, coordinator, raw, month, year, plan string) commission.SalesRow {
	return commission.SalesRow{
		Line:             line,
		SeniorNegotiator: negotiator,
		SalesCoordinator: coordinator,
		BuyerCompany:     "Company",
		NetAmount:        raw,
		CollectedAmount:  raw,
		CommissionBase:   raw,
		Month:            month,
		Year:             year,
		PlanVersion:      plan,
	}
}

func renewal(row commission.SalesRow) commission.SalesRow {
	row.Renewal = commission.RenewalMarker
	return row
}

package commission_test

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// RULE TABLE
// =============================================================================

func TestRuleTable_UpperBoundIsExclusive(t *testing.T) {
	// GIVEN: Pure-commission brackets [0, 250M) and [250M, 500M)
	// WHEN: Looking up exactly 250M
	// THEN: The second bracket matches

	table := commission.NewRuleTable(testRules())

	rule, ok := table.Lookup(modelPure, dec("250000000"))
	require.True(t, ok)
	assert.Equal(t, int64(2), rule.ID)

	rule, ok = table.Lookup(modelPure, dec("249999999.99"))
	require.True(t, ok)
	assert.Equal(t, int64(1), rule.ID)
}

func TestRuleTable_NoMatch(t *testing.T) {
	table := commission.NewRuleTable(testRules())

	_, ok := table.Lookup(modelPure, dec("500000000"))
	assert.False(t, ok, "above the last bracket")

	_, ok = table.Lookup("unknown model", dec("0"))
	assert.False(t, ok, "unknown model")
}

func TestRuleTable_FirstMatchInStoreOrderWins(t *testing.T) {
	rules := []commission.Rule{
		{ID: 10, Model: "m", MinSales: dec("0"), MaxSales: dec("100")},
		{ID: 11, Model: "m", MinSales: dec("50"), MaxSales: dec("200")},
	}
	rule, ok := commission.NewRuleTable(rules).Lookup("m", dec("75"))
	require.True(t, ok)
	assert.Equal(t, int64(10), rule.ID)
}

func TestRuleTable_Models(t *testing.T) {
	models := commission.NewRuleTable(testRules()).Models()
	sort.Strings(models)
	assert.Equal(t, []string{modelSalary, modelPure}, models)
	assert.Len(t, commission.NewRuleTable(testRules()).Rules(modelPure), 2)
}

func TestRule_RateFor(t *testing.T) {
	rule := testRules()[1]
	assertDecimal(t, "0.06", rule.RateFor(commission.RoleMarketer))
	assertDecimal(t, "0.12", rule.RateFor(commission.RoleNegotiator))
	assertDecimal(t, "0.04", rule.RateFor(commission.RoleCoordinator))
	assert.True(t, rule.RateFor(commission.Role("other")).IsZero())
}

func TestRule_Label(t *testing.T) {
	assert.Equal(t, "250 - 500 M", testRules()[1].Label())

	open := commission.Rule{MinSales: dec("500000000"), MaxSales: commission.UnboundedSales}
	assert.Equal(t, "500 - ∞ M", open.Label())
}

// =============================================================================
// MONTH KEY
// =============================================================================

func TestMonthKey_NumericOrdering(t *testing.T) {
	// GIVEN: Months whose string forms sort differently from their numbers
	// WHEN: Sorting
	// THEN: Order is by (year, month) numerically

	keys := []commission.MonthKey{
		commission.NewMonthKey(1404, 10),
		commission.NewMonthKey(1405, 1),
		commission.NewMonthKey(1404, 2),
	}
	commission.SortMonthKeys(keys)

	assert.Equal(t, []commission.MonthKey{
		commission.NewMonthKey(1404, 2),
		commission.NewMonthKey(1404, 10),
		commission.NewMonthKey(1405, 1),
	}, keys)
}

func TestMonthKey_ParseAndText(t *testing.T) {
	key, err := commission.ParseMonthKey("1404-7")
	require.NoError(t, err)
	assert.Equal(t, commission.NewMonthKey(1404, 7), key)

	_, err = commission.ParseMonthKey("1404/7")
	assert.ErrorIs(t, err, commission.ErrInvalidPeriod)

	data, err := json.Marshal(map[commission.MonthKey]int{key: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"1404-7": 1}`, string(data))
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	cfg := testConfig()
	cfg.CurrencyFactor = dec("0")
	assert.ErrorIs(t, cfg.Validate(), commission.ErrInvalidSetting)

	cfg = testConfig()
	cfg.DefaultModel = " "
	assert.ErrorIs(t, cfg.Validate(), commission.ErrInvalidSetting)

	cfg = testConfig()
	cfg.RenewalRate = dec("-0.01")
	assert.ErrorIs(t, cfg.Validate(), commission.ErrInvalidSetting)
}

/*
normalize.go - Sales row parsing

PURPOSE:
  Converts a SalesRow (text cells) into a Transaction or a skip decision.
  Every default the engine applies to a missing or malformed cell lives
  here, so the passes only ever see typed values.

DEFAULTS:
  Monetary cells:  commas stripped, parsed, multiplied by CurrencyFactor;
                   empty / NaN / non-numeric -> 0
  Month, year:     must be integers, otherwise the row is skipped
  Renewal:         true only for the exact RenewalMarker text
  Plan version:    trimmed text, or DefaultPlan when empty
  Asanito percent: missing -> 100 (not an agent sale)

QUALIFICATION (all must hold):
  1. not a renewal
  2. paid/net >= MinCollectionRatio   (ratio is 0 when net is 0)
  3. paid >= MinQualifyingValue(plan)
*/
package commission

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Normalizer parses rows against one Config snapshot.
type Normalizer struct {
	cfg *Config
}

func NewNormalizer(cfg *Config) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Normalize parses one row. A *RowError wrapping ErrInvalidPeriod means the
// row must be skipped entirely. A row naming nobody comes back parsed,
// together with a *RowError wrapping ErrNoParticipants.
func (n *Normalizer) Normalize(row SalesRow) (Transaction, error) {
	month, ok := ParseWholeNumber(row.Month)
	if !ok {
		return Transaction{}, &RowError{Line: row.Line, Field: "month", Value: row.Month, Err: ErrInvalidPeriod}
	}
	year, ok := ParseWholeNumber(row.Year)
	if !ok {
		return Transaction{}, &RowError{Line: row.Line, Field: "year", Value: row.Year, Err: ErrInvalidPeriod}
	}

	tx := Transaction{
		Line:           row.Line,
		Month:          NewMonthKey(year, month),
		Company:        strings.TrimSpace(row.BuyerCompany),
		InvoiceLink:    strings.TrimSpace(row.InvoiceLink),
		NetValue:       n.cfg.Money(row.NetAmount),
		CommissionBase: n.cfg.Money(row.CommissionBase),
		PaidAmount:     n.cfg.Money(row.CollectedAmount),
		IsRenewal:      strings.TrimSpace(row.Renewal) == RenewalMarker,
		PlanVersion:    planVersion(row.PlanVersion),
	}
	tx.IsAgentSale = n.isAgentSale(row)
	tx.Qualification = n.qualify(tx)

	for _, role := range Roles {
		name := strings.TrimSpace(row.PersonFor(role))
		if name == "" || strings.ToLower(name) == "nan" {
			continue
		}
		tx.Participants = append(tx.Participants, Participant{Name: name, Role: role})
	}
	if len(tx.Participants) == 0 {
		return tx, &RowError{Line: row.Line, Field: "participants", Err: ErrNoParticipants}
	}
	return tx, nil
}

func (n *Normalizer) isAgentSale(row SalesRow) bool {
	if n.cfg.IsAgentMarketer(strings.TrimSpace(row.Marketer)) {
		return true
	}
	// Only exactly 50 marks an agent sale; other discount levels do not.
	percent, ok := ParseNumber(row.AsanitoPlanPercent)
	if !ok {
		percent = hundred
	}
	return percent.Equal(AgentPlanPercent)
}

func (n *Normalizer) qualify(tx Transaction) Qualification {
	q := Qualification{
		NotRenewal:      !tx.IsRenewal,
		CollectionRatio: ratio(tx.PaidAmount, tx.NetValue, decimal.Zero),
		MinValue:        n.cfg.MinQualifyingValue(tx.PlanVersion),
	}
	q.CollectionRatioOK = q.CollectionRatio.GreaterThanOrEqual(n.cfg.MinCollectionRatio)
	q.MinValueOK = tx.PaidAmount.GreaterThanOrEqual(q.MinValue)
	return q
}

func planVersion(text string) string {
	plan := strings.TrimSpace(text)
	if IsMissing(plan) {
		return DefaultPlan
	}
	return plan
}

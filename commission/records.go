/*
records.go - Calculation state: month records and person-month records

KEY TYPES:
  Results:      Month records keyed by MonthKey, plus diagnostics and stage
  Month:        Persons active in one month, in first-seen order
  PersonMonth:  One person in one month; bracket base and contributions
  Contribution: One role registration of one transaction, with its commission

INVARIANTS:
  - A PersonMonth is created the first time its person appears in any role
    of any row of that month, and is never removed.
  - Contributions keep row order.
  - BracketBase only grows during pass 1 and is frozen afterwards.
  - After pass 3: TotalCommission == sum(payable) + Bonus.
*/
package commission

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Stage is the last pass completed over a Results.
type Stage int

const (
	StageEmpty Stage = iota
	StageAccumulated
	StageCalculated
	StageBonused
)

func (s Stage) String() string {
	switch s {
	case StageAccumulated:
		return "accumulated"
	case StageCalculated:
		return "calculated"
	case StageBonused:
		return "bonused"
	}
	return "empty"
}

// =============================================================================
// CONTRIBUTION
// =============================================================================

// Contribution is one person's share of one transaction under one role.
// Commission fields are zero until pass 2.
type Contribution struct {
	Role        Role
	Transaction *Transaction

	BaseRate            decimal.Decimal // tier or renewal rate before the agent multiplier
	RateUsed            decimal.Decimal
	CollectionRatio     decimal.Decimal // paid/net, 1 when net is 0
	FullCommission      decimal.Decimal
	PayableCommission   decimal.Decimal
	RemainingCommission decimal.Decimal

	// Details is the human-readable audit trail of the calculation.
	Details []string
}

// =============================================================================
// PERSON-MONTH
// =============================================================================

type PersonMonth struct {
	Name          string
	Model         string
	BracketBase   decimal.Decimal
	Contributions []*Contribution

	Tier            *Rule // matched bracket, nil when none matched
	BracketLabel    string
	TotalCommission decimal.Decimal
	Bonus           decimal.Decimal
	BonusDetails    []string
}

// OriginalCommission is the pre-bonus total.
func (p *PersonMonth) OriginalCommission() decimal.Decimal {
	return p.TotalCommission.Sub(p.Bonus)
}

// RoleSummary aggregates a person-month's contributions under one role.
type RoleSummary struct {
	Role             Role            `json:"role"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalCommission  decimal.Decimal `json:"total_commission"`
	TransactionCount int             `json:"transaction_count"`
}

// RoleSummaries returns one entry per role the person held, in Roles order.
func (p *PersonMonth) RoleSummaries() []RoleSummary {
	byRole := make(map[Role]*RoleSummary)
	for _, c := range p.Contributions {
		s, ok := byRole[c.Role]
		if !ok {
			s = &RoleSummary{Role: c.Role}
			byRole[c.Role] = s
		}
		s.TotalSales = s.TotalSales.Add(c.Transaction.CommissionBase)
		s.TotalCommission = s.TotalCommission.Add(c.PayableCommission)
		s.TransactionCount++
	}
	var out []RoleSummary
	for _, role := range Roles {
		if s, ok := byRole[role]; ok {
			out = append(out, *s)
		}
	}
	return out
}

// TotalNetValue sums net invoice value over all contributions.
func (p *PersonMonth) TotalNetValue() decimal.Decimal {
	total := decimal.Zero
	for _, c := range p.Contributions {
		total = total.Add(c.Transaction.NetValue)
	}
	return total
}

// UnpaidCommission sums the uncollected share of commission.
func (p *PersonMonth) UnpaidCommission() decimal.Decimal {
	total := decimal.Zero
	for _, c := range p.Contributions {
		total = total.Add(c.RemainingCommission)
	}
	return total
}

// FullCommission sums commission as if everything were collected.
func (p *PersonMonth) FullCommission() decimal.Decimal {
	total := decimal.Zero
	for _, c := range p.Contributions {
		total = total.Add(c.FullCommission)
	}
	return total
}

// =============================================================================
// MONTH
// =============================================================================

// BonusSummary records how a month's bonuses were decided.
type BonusSummary struct {
	CollectiveTarget decimal.Decimal  `json:"collective_target"`
	IndividualTarget decimal.Decimal  `json:"individual_target"`
	TotalBracketBase decimal.Decimal  `json:"total_bracket_base"`
	CollectiveAmount decimal.Decimal  `json:"collective_amount"`
	IndividualAmount decimal.Decimal  `json:"individual_amount"`
	TopSellerAmount  decimal.Decimal  `json:"top_seller_amount"`
	TopSellerName    string           `json:"top_seller_name"`
	TopSellerSales   decimal.Decimal  `json:"top_seller_sales"`
	Percentages      BonusPercentages `json:"percentages"`
}

type Month struct {
	Key     MonthKey
	persons map[string]*PersonMonth
	order   []string

	// Bonus is nil when the month had no positive target.
	Bonus *BonusSummary
}

func newMonth(key MonthKey) *Month {
	return &Month{Key: key, persons: make(map[string]*PersonMonth)}
}

// Person returns the record of name, or nil.
func (m *Month) Person(name string) *PersonMonth { return m.persons[name] }

// People returns the month's records in first-seen order.
func (m *Month) People() []*PersonMonth {
	out := make([]*PersonMonth, len(m.order))
	for i, name := range m.order {
		out[i] = m.persons[name]
	}
	return out
}

func (m *Month) ensurePerson(name, model string) *PersonMonth {
	if p, ok := m.persons[name]; ok {
		return p
	}
	p := &PersonMonth{Name: name, Model: model}
	m.persons[name] = p
	m.order = append(m.order, name)
	return p
}

// TotalBracketBase sums bracket base of everyone active in the month.
func (m *Month) TotalBracketBase() decimal.Decimal {
	total := decimal.Zero
	for _, p := range m.persons {
		total = total.Add(p.BracketBase)
	}
	return total
}

// =============================================================================
// RESULTS
// =============================================================================

// Results is the state carried across passes.
type Results struct {
	months      map[MonthKey]*Month
	Diagnostics []Diagnostic
	stage       Stage
}

func newResults() *Results {
	return &Results{months: make(map[MonthKey]*Month)}
}

// Stage returns the last completed pass.
func (r *Results) Stage() Stage { return r.stage }

// Month returns the record for key, or nil.
func (r *Results) Month(key MonthKey) *Month { return r.months[key] }

// Months returns all month records in ascending (year, month) order.
func (r *Results) Months() []*Month {
	keys := make([]MonthKey, 0, len(r.months))
	for k := range r.months {
		keys = append(keys, k)
	}
	SortMonthKeys(keys)
	out := make([]*Month, len(keys))
	for i, k := range keys {
		out[i] = r.months[k]
	}
	return out
}

// Period returns "<first> to <last>", or "N/A" when there are no months.
func (r *Results) Period() string {
	months := r.Months()
	if len(months) == 0 {
		return "N/A"
	}
	return months[0].Key.String() + " to " + months[len(months)-1].Key.String()
}

func (r *Results) ensureMonth(key MonthKey) *Month {
	m, ok := r.months[key]
	if !ok {
		m = newMonth(key)
		r.months[key] = m
	}
	return m
}

func (r *Results) require(pass string, want Stage) error {
	if r.stage != want {
		return &PassOrderError{Pass: pass, Expected: want, Actual: r.stage}
	}
	return nil
}

// PersonNames returns every person in the results, sorted.
func (r *Results) PersonNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range r.months {
		for name := range m.persons {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

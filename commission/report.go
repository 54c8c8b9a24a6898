package commission

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DETAILED VIEW - serializable form of Results
// =============================================================================

// ContributionView is one transaction line of a person-month.
type ContributionView struct {
	Line                int             `json:"line"`
	Role                Role            `json:"role"`
	Company             string          `json:"company"`
	InvoiceLink         string          `json:"invoice_link,omitempty"`
	PlanVersion         string          `json:"plan_version"`
	NetValue            decimal.Decimal `json:"net_value"`
	CommissionBase      decimal.Decimal `json:"commission_base"`
	PaidAmount          decimal.Decimal `json:"paid_amount"`
	IsRenewal           bool            `json:"is_renewal"`
	IsAgentSale         bool            `json:"is_agent_sale"`
	QualifiesForBracket bool            `json:"qualifies_for_bracket"`
	RateUsed            decimal.Decimal `json:"rate_used"`
	CollectionRatio     decimal.Decimal `json:"collection_ratio"`
	FullCommission      decimal.Decimal `json:"full_commission"`
	PayableCommission   decimal.Decimal `json:"payable_commission"`
	RemainingCommission decimal.Decimal `json:"commission_remaining"`
	Details             []string        `json:"calculation_details"`
}

// PersonMonthView is one person in one month.
type PersonMonthView struct {
	Name               string             `json:"name"`
	Model              string             `json:"model"`
	BracketBase        decimal.Decimal    `json:"bracket_base"`
	BracketLabel       string             `json:"bracket_label"`
	OriginalCommission decimal.Decimal    `json:"original_commission"`
	Bonus              decimal.Decimal    `json:"additional_bonus"`
	TotalCommission    decimal.Decimal    `json:"total_commission"`
	TotalNetValue      decimal.Decimal    `json:"total_net_value"`
	UnpaidCommission   decimal.Decimal    `json:"unpaid_commission"`
	Roles              []RoleSummary      `json:"roles"`
	BonusDetails       []string           `json:"bonus_details,omitempty"`
	Transactions       []ContributionView `json:"transactions"`
}

// MonthView is one month of results. The totals sum the persons' totals,
// so a deal shared across roles counts once per role.
type MonthView struct {
	Month           MonthKey          `json:"month"`
	TotalNetSales   decimal.Decimal   `json:"total_net_sales"`
	TotalCommission decimal.Decimal   `json:"total_commission"`
	Persons         []PersonMonthView `json:"persons"`
	Bonus           *BonusSummary     `json:"bonus_summary,omitempty"`
}

// DetailedResults is the full per-month breakdown of a run.
type DetailedResults struct {
	Period      string       `json:"report_period"`
	Months      []MonthView  `json:"months"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Detailed builds the serializable view. Months are ascending, persons in
// first-seen order.
func (r *Results) Detailed() DetailedResults {
	out := DetailedResults{
		Period:      r.Period(),
		Months:      []MonthView{},
		Diagnostics: r.Diagnostics,
	}
	for _, m := range r.Months() {
		mv := MonthView{Month: m.Key, Bonus: m.Bonus}
		for _, p := range m.People() {
			pv := p.view()
			mv.TotalNetSales = mv.TotalNetSales.Add(pv.TotalNetValue)
			mv.TotalCommission = mv.TotalCommission.Add(pv.TotalCommission)
			mv.Persons = append(mv.Persons, pv)
		}
		out.Months = append(out.Months, mv)
	}
	return out
}

func (p *PersonMonth) view() PersonMonthView {
	v := PersonMonthView{
		Name:               p.Name,
		Model:              p.Model,
		BracketBase:        p.BracketBase,
		BracketLabel:       p.BracketLabel,
		OriginalCommission: p.OriginalCommission(),
		Bonus:              p.Bonus,
		TotalCommission:    p.TotalCommission,
		TotalNetValue:      p.TotalNetValue(),
		UnpaidCommission:   p.UnpaidCommission(),
		Roles:              p.RoleSummaries(),
		BonusDetails:       p.BonusDetails,
	}
	for _, c := range p.Contributions {
		tx := c.Transaction
		v.Transactions = append(v.Transactions, ContributionView{
			Line:                tx.Line,
			Role:                c.Role,
			Company:             tx.Company,
			InvoiceLink:         tx.InvoiceLink,
			PlanVersion:         tx.PlanVersion,
			NetValue:            tx.NetValue,
			CommissionBase:      tx.CommissionBase,
			PaidAmount:          tx.PaidAmount,
			IsRenewal:           tx.IsRenewal,
			IsAgentSale:         tx.IsAgentSale,
			QualifiesForBracket: tx.QualifiesForBracket(),
			RateUsed:            c.RateUsed,
			CollectionRatio:     c.CollectionRatio,
			FullCommission:      c.FullCommission,
			PayableCommission:   c.PayableCommission,
			RemainingCommission: c.RemainingCommission,
			Details:             c.Details,
		})
	}
	return v
}

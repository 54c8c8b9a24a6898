package commission

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// SUMMARY - one record per person across the whole run
// =============================================================================

// Summary folds every PersonMonth of one person.
//
//	Payable   = OriginalCommission + Bonus
//	Remaining = Payable - Paid
type Summary struct {
	PersonName         string          `json:"person_name"`
	CommissionModel    string          `json:"commission_model"`
	OriginalCommission decimal.Decimal `json:"total_original_commission"`
	Bonus              decimal.Decimal `json:"total_additional_bonus"`
	Payable            decimal.Decimal `json:"total_payable_commission"`
	Paid               decimal.Decimal `json:"total_paid_commission"`
	Remaining          decimal.Decimal `json:"remaining_balance"`
	FullCommission     decimal.Decimal `json:"total_full_commission"`
	PendingCommission  decimal.Decimal `json:"total_pending_commission"`
}

// PaymentTotals sums payments per exact name and converts them. Names are
// not trimmed or folded; blank names are dropped.
func PaymentTotals(payments []Payment, cfg *Config) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, p := range payments {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		totals[p.Name] = totals[p.Name].Add(cfg.Money(p.Amount))
	}
	return totals
}

// Summarize folds results into one Summary per person. It reads only
// fields finalized by pass 3.
func (e *Engine) Summarize(res *Results, payments []Payment) (map[string]*Summary, error) {
	if err := res.require("summarize", StageBonused); err != nil {
		return nil, err
	}

	summaries := make(map[string]*Summary)
	for _, month := range res.Months() {
		for _, p := range month.People() {
			s, ok := summaries[p.Name]
			if !ok {
				s = &Summary{PersonName: p.Name, CommissionModel: p.Model}
				summaries[p.Name] = s
			}
			s.OriginalCommission = s.OriginalCommission.Add(p.OriginalCommission())
			s.Bonus = s.Bonus.Add(p.Bonus)
			s.FullCommission = s.FullCommission.Add(p.FullCommission())
			s.PendingCommission = s.PendingCommission.Add(p.UnpaidCommission())
		}
	}

	paid := PaymentTotals(payments, e.config)
	for name, s := range summaries {
		s.Payable = s.OriginalCommission.Add(s.Bonus)
		s.Paid = paid[name]
		s.Remaining = s.Payable.Sub(s.Paid)
	}

	e.log.Info("summarization complete", zap.Int("people", len(summaries)))
	return summaries, nil
}

// SortedSummaries returns summaries ordered by person name.
func SortedSummaries(m map[string]*Summary) []*Summary {
	out := make([]*Summary, 0, len(m))
	for _, s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonName < out[j].PersonName })
	return out
}

/*
bonus.go - Pass 3: monthly bonuses against carried-forward targets

PURPOSE:
  Adds up to three bonus components to each person's month, on top of the
  pass-2 total. Every component is a percentage of the person's bracket
  base, never of their commission.

TARGETS (carry-forward):
  Months are visited in ascending (year, month) order. The last seen
  collective and individual targets start at 0. A target row for the
  month overwrites only the components it actually carries; an empty
  cell keeps the carried value. Only months present in the results
  advance the schedule.

GATES (independent):
  collective:  month total bracket base >= collective target > 0
  individual:  person bracket base       >= individual target > 0
  top seller:  person is the month's top performer and base > 0

  Top performer = strictly greatest bracket base; ties go to the person
  seen first in the month. A base of 0 never wins.

ZERO TARGETS:
  If both converted targets are 0, every bonus of the month is 0 and the
  month gets no BonusSummary and no audit lines.
*/
package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TargetSchedule resolves carried-forward targets. Amounts stay in raw
// export currency; the engine converts them.
type TargetSchedule struct {
	byMonth    map[MonthKey]MonthlyTarget
	collective decimal.Decimal
	individual decimal.Decimal
}

// NewTargetSchedule indexes targets by month. When a month appears more
// than once, the first row wins.
func NewTargetSchedule(targets []MonthlyTarget) *TargetSchedule {
	s := &TargetSchedule{byMonth: make(map[MonthKey]MonthlyTarget)}
	for _, t := range targets {
		if _, dup := s.byMonth[t.Key()]; !dup {
			s.byMonth[t.Key()] = t
		}
	}
	return s
}

// Advance moves the schedule to key and returns the targets in effect.
// Calls must come in ascending month order.
func (s *TargetSchedule) Advance(key MonthKey) (collective, individual decimal.Decimal, found bool) {
	t, found := s.byMonth[key]
	if found {
		if t.Collective != nil {
			s.collective = *t.Collective
		}
		if t.Individual != nil {
			s.individual = *t.Individual
		}
	}
	return s.collective, s.individual, found
}

type bonusPart struct {
	name   string
	rate   decimal.Decimal
	amount decimal.Decimal
}

// ApplyBonuses runs pass 3 over results at StageCalculated.
func (e *Engine) ApplyBonuses(res *Results, targets []MonthlyTarget) error {
	if err := res.require("apply bonuses", StageCalculated); err != nil {
		return err
	}
	e.log.Info("pass 3: calculating additional bonuses")

	schedule := NewTargetSchedule(targets)
	for _, month := range res.Months() {
		rawCollective, rawIndividual, found := schedule.Advance(month.Key)
		collective := e.config.Convert(rawCollective)
		individual := e.config.Convert(rawIndividual)
		e.log.Info("month targets",
			zap.String("month", month.Key.String()),
			zap.Bool("explicit", found),
			zap.String("collective", collective.String()),
			zap.String("individual", individual.String()),
		)

		if collective.IsZero() && individual.IsZero() {
			for _, p := range month.People() {
				p.Bonus = decimal.Zero
			}
			res.warn(e.log, Diagnostic{
				Code:    DiagZeroTargets,
				Month:   month.Key.String(),
				Message: fmt.Sprintf("skipping bonus calculation for %s due to zero targets", month.Key),
			})
			continue
		}

		e.applyMonthBonuses(month, collective, individual)
	}

	res.stage = StageBonused
	e.log.Info("pass 3 finished")
	return nil
}

func (e *Engine) applyMonthBonuses(month *Month, collective, individual decimal.Decimal) {
	people := month.People()
	total := month.TotalBracketBase()

	topName, topSales := "", decimal.Zero
	for _, p := range people {
		if p.BracketBase.GreaterThan(topSales) {
			topName, topSales = p.Name, p.BracketBase
		}
	}

	pct := e.config.Bonus
	summary := &BonusSummary{
		CollectiveTarget: collective,
		IndividualTarget: individual,
		TotalBracketBase: total,
		TopSellerName:    topName,
		TopSellerSales:   topSales,
		Percentages:      pct,
	}
	month.Bonus = summary

	for _, p := range people {
		base := p.BracketBase
		var parts []bonusPart

		if collective.IsPositive() && total.GreaterThanOrEqual(collective) {
			part := bonusPart{name: "Collective", rate: pct.Collective, amount: base.Mul(pct.Collective)}
			summary.CollectiveAmount = summary.CollectiveAmount.Add(part.amount)
			parts = append(parts, part)
		}
		if individual.IsPositive() && base.GreaterThanOrEqual(individual) {
			part := bonusPart{name: "Individual", rate: pct.Individual, amount: base.Mul(pct.Individual)}
			summary.IndividualAmount = summary.IndividualAmount.Add(part.amount)
			parts = append(parts, part)
		}
		if p.Name == topName && base.IsPositive() {
			part := bonusPart{name: "Top seller", rate: pct.TopSeller, amount: base.Mul(pct.TopSeller)}
			summary.TopSellerAmount = summary.TopSellerAmount.Add(part.amount)
			parts = append(parts, part)
		}

		bonus := decimal.Zero
		for _, part := range parts {
			bonus = bonus.Add(part.amount)
		}
		p.Bonus = bonus
		p.TotalCommission = p.TotalCommission.Add(bonus)

		e.log.Info("person bonus",
			zap.String("month", month.Key.String()),
			zap.String("person", p.Name),
			zap.String("bracket_base", base.String()),
			zap.Int("components", len(parts)),
			zap.String("bonus", bonus.String()),
			zap.String("total_commission", p.TotalCommission.String()),
		)

		if bonus.IsPositive() {
			p.BonusDetails = bonusDetails(base, parts, bonus)
			for _, c := range p.Contributions {
				c.Details = append(c.Details, p.BonusDetails...)
			}
		}
	}
}

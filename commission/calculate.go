/*
calculate.go - Pass 2: tier lookup and per-transaction commission

PURPOSE:
  Runs only after pass 1 has seen every row, so each PersonMonth's
  bracket base is final. The base selects one bracket of the person's
  commission model; that bracket's role rates price every contribution
  of the person-month.

PER CONTRIBUTION:
  1. base rate      = RenewalRate if renewal, else bracket rate of the role
  2. effective rate = base rate x AgentMultiplier if agent sale
  3. collection     = paid/net, or 1 when net is 0
  4. full           = commission_base x effective rate
  5. payable        = full x collection
  6. remaining      = full - payable

  TotalCommission = sum(payable). Bracket base is not touched.

NOTE:
  Step 3 treats a zero net value as fully collected, while the pass-1
  qualification check treats it as ratio 0. Both behaviors are kept.
*/
package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Calculate runs pass 2 over results at StageAccumulated.
func (e *Engine) Calculate(res *Results) error {
	if err := res.require("calculate", StageAccumulated); err != nil {
		return err
	}
	e.log.Info("pass 2: calculating base commissions")

	for _, month := range res.Months() {
		for _, person := range month.People() {
			rule, ok := e.rules.Lookup(person.Model, person.BracketBase)
			if ok {
				tier := rule
				person.Tier = &tier
				person.BracketLabel = rule.Label()
			} else {
				person.BracketLabel = UnknownBracket
				res.warn(e.log, Diagnostic{
					Code:    DiagNoBracket,
					Month:   month.Key.String(),
					Person:  person.Name,
					Message: fmt.Sprintf("no commission bracket for model %q with base %s", person.Model, amount(person.BracketBase)),
				})
			}

			person.TotalCommission = decimal.Zero
			for _, c := range person.Contributions {
				e.price(c, rule)
				person.TotalCommission = person.TotalCommission.Add(c.PayableCommission)
			}
		}
	}

	res.stage = StageCalculated
	e.log.Info("pass 2 finished")
	return nil
}

// price fills the commission fields of c. An unmatched bracket is the zero
// Rule, whose rates are all zero.
func (e *Engine) price(c *Contribution, tier Rule) {
	tx := c.Transaction

	if tx.IsRenewal {
		c.BaseRate = e.config.RenewalRate
	} else {
		c.BaseRate = tier.RateFor(c.Role)
	}
	c.RateUsed = c.BaseRate
	if tx.IsAgentSale {
		c.RateUsed = c.BaseRate.Mul(e.config.AgentMultiplier)
	}

	c.CollectionRatio = ratio(tx.PaidAmount, tx.NetValue, one)
	c.FullCommission = tx.CommissionBase.Mul(c.RateUsed)
	c.PayableCommission = c.FullCommission.Mul(c.CollectionRatio)
	c.RemainingCommission = c.FullCommission.Sub(c.PayableCommission)
	c.Details = commissionDetails(c, e.config)

	e.log.Debug("commission priced",
		zap.Int("line", tx.Line),
		zap.String("role", string(c.Role)),
		zap.String("rate", c.RateUsed.String()),
		zap.String("payable", c.PayableCommission.String()),
	)
}

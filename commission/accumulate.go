/*
accumulate.go - Pass 1: bracket base accumulation

PURPOSE:
  Walks the sales rows once, in order. For every role registration it
  makes sure a PersonMonth exists and appends the transaction to it.
  Only a qualifying transaction registered under BracketRole adds to the
  person's bracket base:

      bracket_base += commission_base x (AgentMultiplier if agent sale else 1)

  Logging the transaction and growing bracket base are independent: a
  non-qualifying row is still logged for all its roles.

FAN-OUT:
  The same name may appear in several role columns of one row. Each
  column is a separate registration, so one person can collect
  marketer, negotiator and coordinator commission on the same deal.
*/
package commission

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Accumulate runs pass 1 and returns fresh Results at StageAccumulated.
func (e *Engine) Accumulate(rows []SalesRow, employeeModels map[string]string) *Results {
	res := newResults()
	e.log.Info("pass 1: accumulating bracket bases", zap.Int("rows", len(rows)))

	for _, row := range rows {
		tx, err := e.normalizer.Normalize(row)
		var rowErr *RowError
		switch {
		case err == nil:
		case errors.As(err, &rowErr) && errors.Is(err, ErrInvalidPeriod):
			res.warn(e.log, Diagnostic{
				Code:    DiagRowSkipped,
				Line:    row.Line,
				Message: fmt.Sprintf("skipping row %d: invalid or missing %s %q", row.Line, rowErr.Field, rowErr.Value),
			})
			continue
		case errors.Is(err, ErrNoParticipants):
			res.warn(e.log, Diagnostic{
				Code:    DiagNoParticipants,
				Line:    tx.Line,
				Month:   tx.Month.String(),
				Message: fmt.Sprintf("no person was assigned any role in row %d", tx.Line),
			})
			continue
		default:
			continue
		}
		e.logQualification(tx)

		month := res.ensureMonth(tx.Month)
		txn := &tx
		for _, part := range txn.Participants {
			person := month.ensurePerson(part.Name, e.modelFor(part.Name, employeeModels))

			if part.Role == BracketRole && txn.QualifiesForBracket() {
				value := txn.BracketValue(e.config)
				person.BracketBase = person.BracketBase.Add(value)
				e.log.Debug("bracket base increased",
					zap.String("person", part.Name),
					zap.String("month", txn.Month.String()),
					zap.String("added", value.String()),
					zap.String("bracket_base", person.BracketBase.String()),
				)
			}

			person.Contributions = append(person.Contributions, &Contribution{
				Role:        part.Role,
				Transaction: txn,
			})
		}
	}

	res.stage = StageAccumulated
	e.log.Info("pass 1 finished", zap.Int("months", len(res.months)))
	return res
}

func (e *Engine) modelFor(name string, employeeModels map[string]string) string {
	if model, ok := employeeModels[name]; ok && model != "" {
		return model
	}
	return e.config.DefaultModel
}

func (e *Engine) logQualification(tx Transaction) {
	if ce := e.log.Check(zap.DebugLevel, "row qualification"); ce != nil {
		q := tx.Qualification
		ce.Write(
			zap.Int("line", tx.Line),
			zap.String("company", tx.Company),
			zap.String("net_value", tx.NetValue.String()),
			zap.String("paid_amount", tx.PaidAmount.String()),
			zap.String("plan", tx.PlanVersion),
			zap.Bool("not_renewal", q.NotRenewal),
			zap.String("collection_ratio", q.CollectionRatio.String()),
			zap.Bool("collection_ratio_ok", q.CollectionRatioOK),
			zap.String("min_value", q.MinValue.String()),
			zap.Bool("min_value_ok", q.MinValueOK),
			zap.Bool("qualifies", q.Qualifies()),
		)
	}
}

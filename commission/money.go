/*
Package commission provides the sales-commission calculation engine.

PURPOSE:
  Turns raw per-transaction rows from a sales export into per-person,
  per-month commission results. The same engine serves every commission
  model: rate schedules are data (a RuleTable), business constants are
  data (a Config snapshot), and the engine only knows the passes.

KEY CONCEPTS IN THIS FILE (money.go):
  - All money, rates and ratios are decimal.Decimal
  - Spreadsheet numbers arrive as text with thousands separators
  - Missing or NaN-like cells degrade to zero, never to an error

PASSES:
  1. Accumulate:    bracket base per person-month (accumulate.go)
  2. Calculate:     tier lookup + per-transaction commission (calculate.go)
  3. ApplyBonuses:  monthly collective/individual/top-seller bonus (bonus.go)
  4. Summarize:     one record per person, net of payments made (summary.go)

  Each pass completes over the whole dataset before the next starts.
  Results tracks which pass ran last and rejects out-of-order calls.

USAGE:
  engine := commission.NewEngine(cfg, commission.NewRuleTable(rules), log)
  report, err := engine.Run(input)

SEE ALSO:
  - config.go: Configuration snapshot
  - rules.go: Commission brackets
  - engine.go: Orchestration
*/
package commission

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// MustParseDecimal parses s, returning zero when s is not a number.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseNumber parses a spreadsheet cell. Thousands separators are stripped.
// ok is false for empty, NaN-like or non-numeric text.
func ParseNumber(text string) (d decimal.Decimal, ok bool) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if s == "" || IsMissing(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IsMissing reports whether a cell holds one of the placeholder values
// spreadsheet exports use for an empty cell.
func IsMissing(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "nan", "none", "null", "<na>":
		return true
	}
	return false
}

// ratio returns num/den, or whenZero if den is not positive.
func ratio(num, den, whenZero decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return whenZero
	}
	return num.Div(den)
}

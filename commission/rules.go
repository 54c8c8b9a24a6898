/*
rules.go - Commission brackets and tier lookup

PURPOSE:
  A commission model (e.g., pure commission, salary plus commission) is an
  ordered list of brackets. Each bracket covers [MinSales, MaxSales) of
  bracket base and carries one rate per role.

LOOKUP:
  Brackets of a model are scanned in the order the rule store returned
  them; the first bracket with MinSales <= base < MaxSales wins. No match
  is not an error: all three rates are zero and the caller records a
  diagnostic.

EXAMPLE:
  pure commission:  [0, 250M)    marketer 5%  negotiator 10%  coordinator 2%
                    [250M, 500M) marketer 6%  negotiator 12%  coordinator 4%

  base 250M -> second bracket (upper bound exclusive)
*/
package commission

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UnboundedSales is the MaxSales value the seeded tables use for the open
// top bracket. Labels render anything at or above it as infinity.
var UnboundedSales = decimal.NewFromInt(999_999_999_999)

// Rule is one commission bracket.
type Rule struct {
	ID              int64           `json:"id"`
	Model           string          `json:"model"`
	MinSales        decimal.Decimal `json:"min_sales"`
	MaxSales        decimal.Decimal `json:"max_sales"`
	MarketerRate    decimal.Decimal `json:"marketer_rate"`
	NegotiatorRate  decimal.Decimal `json:"negotiator_rate"`
	CoordinatorRate decimal.Decimal `json:"coordinator_rate"`
}

// Contains reports MinSales <= base < MaxSales.
func (r Rule) Contains(base decimal.Decimal) bool {
	return r.MinSales.LessThanOrEqual(base) && base.LessThan(r.MaxSales)
}

// RateFor returns the bracket rate of a role.
func (r Rule) RateFor(role Role) decimal.Decimal {
	switch role {
	case RoleMarketer:
		return r.MarketerRate
	case RoleNegotiator:
		return r.NegotiatorRate
	case RoleCoordinator:
		return r.CoordinatorRate
	}
	return decimal.Zero
}

// Label renders the bracket range in millions, e.g. "250 - 500 M".
func (r Rule) Label() string {
	p := message.NewPrinter(language.English)
	million := decimal.NewFromInt(1_000_000)
	minStr := p.Sprintf("%.0f", r.MinSales.Div(million).InexactFloat64())
	maxStr := "∞"
	if r.MaxSales.LessThan(UnboundedSales) {
		maxStr = p.Sprintf("%.0f", r.MaxSales.Div(million).InexactFloat64())
	}
	return minStr + " - " + maxStr + " M"
}

// UnknownBracket labels a person-month whose base matched no bracket.
const UnknownBracket = "unknown"

// =============================================================================
// RULE TABLE
// =============================================================================

// RuleTable groups brackets by model, preserving store order. Read-only
// once built.
type RuleTable struct {
	byModel map[string][]Rule
}

func NewRuleTable(rules []Rule) *RuleTable {
	t := &RuleTable{byModel: make(map[string][]Rule)}
	for _, r := range rules {
		t.byModel[r.Model] = append(t.byModel[r.Model], r)
	}
	return t
}

// Lookup returns the first bracket of model containing base.
func (t *RuleTable) Lookup(model string, base decimal.Decimal) (Rule, bool) {
	for _, r := range t.byModel[model] {
		if r.Contains(base) {
			return r, true
		}
	}
	return Rule{}, false
}

// Models returns the model names present in the table.
func (t *RuleTable) Models() []string {
	names := make([]string, 0, len(t.byModel))
	for name := range t.byModel {
		names = append(names, name)
	}
	return names
}

// Rules returns the brackets of one model in lookup order.
func (t *RuleTable) Rules(model string) []Rule {
	return append([]Rule(nil), t.byModel[model]...)
}

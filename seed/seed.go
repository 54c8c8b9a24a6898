/*
Package seed populates a fresh store with default settings and brackets.

PURPOSE:
  A new database has no settings and no bracket tables, and a run against
  an empty settings store is refused. Seeding inserts the documented
  defaults so the system works out of the box.

IDEMPOTENCE:
  Settings:  each default key is inserted only when absent; edited values
             are never overwritten
  Brackets:  the default tables are inserted only when the rule table is
             empty

DEFAULT TABLES (Toman):
  پورسانت خالص (pure commission)
    0 - 250M       5%   10%   2%
    ...
    1,250M - open  10%  20%   10%

  حقوق ثابت + پورسانت (salary plus commission)
    0 - 150M       0%   0%    0%
    ...
    1,250M - open  10%  10%   5%

USAGE:
  commission seed
  or seed.Run(ctx, store, log) on server start
*/
package seed

import (
	"context"
	"fmt"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/settings"
	"go.uber.org/zap"
)

// Store is what seeding writes to.
type Store interface {
	InsertSettingIfAbsent(ctx context.Context, s settings.Setting) (bool, error)
	CountRules(ctx context.Context) (int, error)
	SaveRule(ctx context.Context, r commission.Rule) (commission.Rule, error)
}

// ModelSalaryPlusCommission is the second seeded commission model.
const ModelSalaryPlusCommission = "حقوق ثابت + پورسانت"

// bracket is (min, max, marketer, negotiator, coordinator).
type bracket [5]string

var defaultBrackets = map[string][]bracket{
	settings.DefaultModel: {
		{"0", "250000000", "0.05", "0.10", "0.02"},
		{"250000000", "500000000", "0.06", "0.12", "0.04"},
		{"500000000", "750000000", "0.07", "0.14", "0.06"},
		{"750000000", "1000000000", "0.08", "0.16", "0.08"},
		{"1000000000", "1250000000", "0.09", "0.18", "0.09"},
		{"1250000000", "999999999999", "0.10", "0.20", "0.10"},
	},
	ModelSalaryPlusCommission: {
		{"0", "150000000", "0.00", "0.00", "0.00"},
		{"150000000", "250000000", "0.05", "0.05", "0.01"},
		{"250000000", "500000000", "0.06", "0.06", "0.02"},
		{"500000000", "750000000", "0.07", "0.07", "0.03"},
		{"750000000", "1000000000", "0.08", "0.08", "0.04"},
		{"1000000000", "1250000000", "0.09", "0.09", "0.045"},
		{"1250000000", "999999999999", "0.10", "0.10", "0.05"},
	},
}

// DefaultRules returns the default bracket tables in insertion order.
func DefaultRules() []commission.Rule {
	var rules []commission.Rule
	for _, model := range []string{settings.DefaultModel, ModelSalaryPlusCommission} {
		for _, b := range defaultBrackets[model] {
			rules = append(rules, commission.Rule{
				Model:           model,
				MinSales:        commission.MustParseDecimal(b[0]),
				MaxSales:        commission.MustParseDecimal(b[1]),
				MarketerRate:    commission.MustParseDecimal(b[2]),
				NegotiatorRate:  commission.MustParseDecimal(b[3]),
				CoordinatorRate: commission.MustParseDecimal(b[4]),
			})
		}
	}
	return rules
}

// Result reports what a seeding pass wrote.
type Result struct {
	SettingsInserted int
	RulesInserted    int
}

// Run seeds defaults into store. Safe to call on every start.
func Run(ctx context.Context, store Store, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var res Result

	for _, s := range settings.Defaults() {
		inserted, err := store.InsertSettingIfAbsent(ctx, s)
		if err != nil {
			return res, fmt.Errorf("seed setting %s: %w", s.Key, err)
		}
		if inserted {
			res.SettingsInserted++
			log.Info("seeded setting", zap.String("key", s.Key))
		}
	}

	n, err := store.CountRules(ctx)
	if err != nil {
		return res, fmt.Errorf("count rules: %w", err)
	}
	if n == 0 {
		for _, r := range DefaultRules() {
			if _, err := store.SaveRule(ctx, r); err != nil {
				return res, fmt.Errorf("seed rule %s [%s, %s): %w", r.Model, r.MinSales, r.MaxSales, err)
			}
			res.RulesInserted++
		}
		log.Info("seeded default commission brackets", zap.Int("rules", res.RulesInserted))
	}

	return res, nil
}

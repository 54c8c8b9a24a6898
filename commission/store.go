/*
store.go - Read interfaces the engine's collaborators provide

PURPOSE:
  The engine itself never performs I/O. Callers load rules and stored
  targets through these interfaces before a run, then hand plain values
  to the Engine.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - commission/store/memory.go: In-memory for tests and dry runs
*/
package commission

import "context"

// RuleStore lists commission brackets in their defined scan order.
type RuleStore interface {
	ListRules(ctx context.Context) ([]Rule, error)
}

// TargetStore lists monthly targets kept outside the uploaded dataset.
type TargetStore interface {
	ListTargets(ctx context.Context) ([]MonthlyTarget, error)
}

// LoadRuleTable reads every rule and builds a RuleTable.
func LoadRuleTable(ctx context.Context, store RuleStore) (*RuleTable, error) {
	rules, err := store.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	return NewRuleTable(rules), nil
}

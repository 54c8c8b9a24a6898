// Package store provides in-memory implementations of the commission stores.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/settings"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dry runs)
// =============================================================================

// Memory keeps settings, rules and targets in maps. Rules keep insertion
// order, which is their lookup order.
type Memory struct {
	mu       sync.RWMutex
	settings map[string]settings.Setting
	rules    []commission.Rule
	targets  map[commission.MonthKey]commission.MonthlyTarget
	nextID   int64
}

func NewMemory() *Memory {
	return &Memory{
		settings: make(map[string]settings.Setting),
		targets:  make(map[commission.MonthKey]commission.MonthlyTarget),
	}
}

// NewSeededMemory returns a store holding the default settings and rows.
func NewSeededMemory(rules []commission.Rule) *Memory {
	m := NewMemory()
	for _, s := range settings.Defaults() {
		m.settings[s.Key] = s
	}
	for _, r := range rules {
		m.nextID++
		r.ID = m.nextID
		m.rules = append(m.rules, r)
	}
	return m
}

// =============================================================================
// SETTINGS
// =============================================================================

// ListSettings returns every setting ordered by key.
func (m *Memory) ListSettings(_ context.Context) ([]settings.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]settings.Setting, 0, len(m.settings))
	for _, s := range m.settings {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) GetSetting(_ context.Context, key string) (settings.Setting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[key]
	if !ok {
		return settings.Setting{}, commission.ErrSettingNotFound
	}
	return s, nil
}

// SaveSetting inserts or replaces a setting.
func (m *Memory) SaveSetting(_ context.Context, s settings.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.Key] = s
	return nil
}

// =============================================================================
// RULES
// =============================================================================

func (m *Memory) ListRules(_ context.Context) ([]commission.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]commission.Rule(nil), m.rules...), nil
}

// SaveRule inserts a rule when ID is 0, otherwise replaces it in place.
func (m *Memory) SaveRule(_ context.Context, r commission.Rule) (commission.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == 0 {
		m.nextID++
		r.ID = m.nextID
		m.rules = append(m.rules, r)
		return r, nil
	}
	for i := range m.rules {
		if m.rules[i].ID == r.ID {
			m.rules[i] = r
			return r, nil
		}
	}
	return commission.Rule{}, commission.ErrRuleNotFound
}

func (m *Memory) DeleteRule(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.rules {
		if m.rules[i].ID == id {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return nil
		}
	}
	return commission.ErrRuleNotFound
}

// =============================================================================
// TARGETS
// =============================================================================

// ListTargets returns targets in ascending month order.
func (m *Memory) ListTargets(_ context.Context) ([]commission.MonthlyTarget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]commission.MonthlyTarget, 0, len(m.targets))
	for _, t := range m.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Before(out[j].Key()) })
	return out, nil
}

// SaveTarget upserts by (year, month); at most one target exists per month.
func (m *Memory) SaveTarget(_ context.Context, t commission.MonthlyTarget) (commission.MonthlyTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.targets[t.Key()]; ok {
		t.ID = existing.ID
	} else {
		m.nextID++
		t.ID = m.nextID
	}
	m.targets[t.Key()] = t
	return t, nil
}

func (m *Memory) DeleteTarget(_ context.Context, year, month int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := commission.NewMonthKey(year, month)
	if _, ok := m.targets[key]; !ok {
		return commission.ErrTargetNotFound
	}
	delete(m.targets, key)
	return nil
}

/*
Package settings turns stored business settings into commission.Config.

PURPOSE:
  Business constants (currency factor, rates, thresholds, bonus
  percentages) are edited by administrators and kept as typed key/value
  rows. This package decodes those rows into one immutable Config
  snapshot and caches it for the calculation runs.

ROW FORMAT:
  key         CURRENCY_CONVERSION_FACTOR
  value       "0.1"
  value_type  float | int | string | json
  description free text shown in the admin panel

DECODING RULES:
  - An empty row list is fatal (ErrSettingsUnavailable)
  - A known key that is absent takes its default
  - A present value that does not decode is fatal (ErrInvalidSetting)
  - Unknown keys are ignored

SEE ALSO:
  - provider.go: Cached snapshots with invalidation
  - redis.go: Cross-process cache of the raw rows
*/
package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/commission-engine/commission"
)

// ValueType declares how a setting value is decoded.
type ValueType string

const (
	TypeFloat  ValueType = "float"
	TypeInt    ValueType = "int"
	TypeString ValueType = "string"
	TypeJSON   ValueType = "json"
)

// Valid reports whether t is one of the known value types.
func (t ValueType) Valid() bool {
	switch t {
	case TypeFloat, TypeInt, TypeString, TypeJSON:
		return true
	}
	return false
}

// Setting is one stored key/value row.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	ValueType   ValueType `json:"value_type"`
	Description string    `json:"description,omitempty"`
}

// Typed decodes Value according to ValueType, for display.
func (s Setting) Typed() (interface{}, error) {
	v := strings.TrimSpace(s.Value)
	switch s.ValueType {
	case TypeFloat:
		return strconv.ParseFloat(v, 64)
	case TypeInt:
		return strconv.Atoi(v)
	case TypeJSON:
		var out interface{}
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return s.Value, nil
}

// =============================================================================
// KEYS AND DEFAULTS
// =============================================================================

const (
	KeyCurrencyFactor      = "CURRENCY_CONVERSION_FACTOR"
	KeyRenewalRate         = "RENEWAL_COMMISSION_RATE"
	KeyMinCollectionRatio  = "BRACKET_QUALIFICATION_MIN_COLLECTION_PERCENT"
	KeyAgentMultiplier     = "AGENT_SALE_MULTIPLIER"
	KeyDefaultModel        = "DEFAULT_COMMISSION_MODEL"
	KeyAgentKeywords       = "AGENT_KEYWORDS"
	KeyBonusPercentages    = "BONUS_PERCENTAGES"
	KeyMinQualifyingValues = "BRACKET_QUALIFICATION_MIN_VALUES"
)

// DefaultModel is the commission model assigned to unlisted employees.
const DefaultModel = "پورسانت خالص"

// Defaults returns the default row of every known key, in a stable order.
// Seeding inserts these; Build falls back to them for absent keys.
func Defaults() []Setting {
	return []Setting{
		{KeyCurrencyFactor, "0.1", TypeFloat, "Rial to Toman conversion factor"},
		{KeyRenewalRate, "0.05", TypeFloat, "Flat commission rate for renewals (0.05 = 5%)"},
		{KeyMinCollectionRatio, "0.30", TypeFloat, "Minimum collected share for a sale to count toward the bracket (0.30 = 30%)"},
		{KeyAgentMultiplier, "0.5", TypeFloat, "Commission multiplier for agent sales (0.5 = 50%)"},
		{KeyDefaultModel, DefaultModel, TypeString, "Commission model for employees without one"},
		{KeyAgentKeywords, `["نمایندگان","نماینده"]`, TypeJSON, "Marketer keywords that identify an agent sale (JSON list)"},
		{KeyBonusPercentages, `{"collective":0.05,"individual":0.03,"top_seller":0.02}`, TypeJSON, "Bonus percentages: collective, individual, top seller (JSON)"},
		{KeyMinQualifyingValues, `{"استاندارد":12000000,"حرفه‌ای":40000000,"VIP":60000000,"default":12000000}`, TypeJSON, "Minimum collected amount per plan to count toward the bracket, in Toman (JSON)"},
	}
}

// DefaultFor returns the default row of key.
func DefaultFor(key string) (Setting, bool) {
	for _, s := range Defaults() {
		if s.Key == key {
			return s, true
		}
	}
	return Setting{}, false
}

// =============================================================================
// BUILD
// =============================================================================

// Build decodes rows into a validated Config snapshot.
func Build(rows []Setting) (*commission.Config, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: settings store is empty", commission.ErrSettingsUnavailable)
	}

	byKey := make(map[string]Setting, len(rows))
	for _, r := range rows {
		byKey[r.Key] = r
	}
	for _, d := range Defaults() {
		if _, ok := byKey[d.Key]; !ok {
			byKey[d.Key] = d
		}
	}

	cfg := &commission.Config{}
	var err error
	if cfg.CurrencyFactor, err = decodeDecimal(byKey[KeyCurrencyFactor]); err != nil {
		return nil, err
	}
	if cfg.RenewalRate, err = decodeDecimal(byKey[KeyRenewalRate]); err != nil {
		return nil, err
	}
	if cfg.MinCollectionRatio, err = decodeDecimal(byKey[KeyMinCollectionRatio]); err != nil {
		return nil, err
	}
	if cfg.AgentMultiplier, err = decodeDecimal(byKey[KeyAgentMultiplier]); err != nil {
		return nil, err
	}
	cfg.DefaultModel = strings.TrimSpace(byKey[KeyDefaultModel].Value)

	if err := decodeJSON(byKey[KeyAgentKeywords], &cfg.AgentKeywords); err != nil {
		return nil, err
	}
	if err := decodeJSON(byKey[KeyBonusPercentages], &cfg.Bonus); err != nil {
		return nil, err
	}
	if err := decodeJSON(byKey[KeyMinQualifyingValues], &cfg.MinQualifyingValues); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that a single row decodes the way Build would decode it.
func Validate(s Setting) error {
	if !s.ValueType.Valid() {
		return &commission.SettingError{Key: s.Key, Value: string(s.ValueType), Err: fmt.Errorf("unknown value type")}
	}
	if _, err := s.Typed(); err != nil {
		return &commission.SettingError{Key: s.Key, Value: s.Value, Err: err}
	}
	_, err := Build([]Setting{s})
	return err
}

func decodeDecimal(s Setting) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s.Value))
	if err != nil {
		return decimal.Zero, &commission.SettingError{Key: s.Key, Value: s.Value, Err: err}
	}
	return d, nil
}

func decodeJSON(s Setting, target interface{}) error {
	if err := json.Unmarshal([]byte(s.Value), target); err != nil {
		return &commission.SettingError{Key: s.Key, Value: s.Value, Err: err}
	}
	return nil
}

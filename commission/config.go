/*
config.go - Configuration snapshot for one calculation run

PURPOSE:
  Holds every business constant the passes consult: currency factor,
  renewal rate, qualification thresholds, agent multiplier, bonus
  percentages and the default commission model.

LIFECYCLE:
  Built once per run by the settings package from the settings store.
  The same *Config is handed to every pass and to the summarizer.
  Nothing in this package writes to it. When settings change, callers
  discard the snapshot and build a new one; a snapshot is never patched.

UNITS:
  Raw spreadsheet amounts are in the export currency (Rial). Multiplying
  by CurrencyFactor converts them to the working unit (Toman). Rule
  ranges and MinQualifyingValues are already in the working unit.
*/
package commission

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPlan is the plan version used when a row has none, and the
// fallback key of MinQualifyingValues.
const DefaultPlan = "default"

// BonusPercentages are applied to a person's bracket base.
type BonusPercentages struct {
	Collective decimal.Decimal `json:"collective"`
	Individual decimal.Decimal `json:"individual"`
	TopSeller  decimal.Decimal `json:"top_seller"`
}

// Config is the immutable configuration snapshot of a run.
type Config struct {
	CurrencyFactor      decimal.Decimal
	RenewalRate         decimal.Decimal
	MinCollectionRatio  decimal.Decimal
	AgentMultiplier     decimal.Decimal
	DefaultModel        string
	AgentKeywords       []string
	Bonus               BonusPercentages
	MinQualifyingValues map[string]decimal.Decimal
}

// Validate checks the invariants the passes rely on.
func (c *Config) Validate() error {
	if !c.CurrencyFactor.IsPositive() {
		return fmt.Errorf("%w: currency factor must be positive, got %s", ErrInvalidSetting, c.CurrencyFactor)
	}
	if strings.TrimSpace(c.DefaultModel) == "" {
		return fmt.Errorf("%w: default commission model is empty", ErrInvalidSetting)
	}
	for name, v := range map[string]decimal.Decimal{
		"renewal rate":         c.RenewalRate,
		"min collection ratio": c.MinCollectionRatio,
		"agent multiplier":     c.AgentMultiplier,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s is negative (%s)", ErrInvalidSetting, name, v)
		}
	}
	return nil
}

// Convert turns a raw export amount into the working currency unit.
func (c *Config) Convert(raw decimal.Decimal) decimal.Decimal {
	return raw.Mul(c.CurrencyFactor)
}

// Money parses a monetary cell and converts it. Unparseable text is 0.
func (c *Config) Money(text string) decimal.Decimal {
	d, _ := ParseNumber(text)
	return c.Convert(d)
}

// MinQualifyingValue returns the minimum collected amount for a plan
// version, falling back to the DefaultPlan entry, then to zero.
func (c *Config) MinQualifyingValue(plan string) decimal.Decimal {
	if v, ok := c.MinQualifyingValues[plan]; ok {
		return v
	}
	if v, ok := c.MinQualifyingValues[DefaultPlan]; ok {
		return v
	}
	return decimal.Zero
}

// IsAgentMarketer reports whether the marketer field names a reseller.
func (c *Config) IsAgentMarketer(marketer string) bool {
	for _, kw := range c.AgentKeywords {
		if kw != "" && strings.Contains(marketer, kw) {
			return true
		}
	}
	return false
}

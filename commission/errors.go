/*
errors.go - Centralized error types for the commission engine

ERROR CATEGORIES:
  1. Configuration errors - the only fatal condition of a run
  2. Row errors - never fatal; turned into Diagnostics by the passes
  3. Store errors - missing records behind the admin API
  4. Pass ordering - a pass called before its predecessor finished

USAGE:
  cfg, err := provider.Snapshot(ctx)
  if errors.Is(err, commission.ErrSettingsUnavailable) {
      // abort the run
  }
*/
package commission

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSettingsUnavailable is returned when no configuration snapshot can
	// be built: the settings store is unreachable or empty.
	ErrSettingsUnavailable = errors.New("settings unavailable")

	// ErrInvalidSetting is returned when a stored setting cannot be decoded
	// into its declared type or violates a Config invariant.
	ErrInvalidSetting = errors.New("invalid setting")

	// ErrInvalidPeriod is returned when a row's month or year is not an integer.
	ErrInvalidPeriod = errors.New("invalid month or year")

	// ErrNoParticipants is returned when a row names nobody in any role.
	ErrNoParticipants = errors.New("no person assigned in any role")

	// ErrPassOrder is returned when a pass runs before the previous one completed.
	ErrPassOrder = errors.New("calculation pass called out of order")

	ErrRunNotFound     = errors.New("calculation run not found")
	ErrRuleNotFound    = errors.New("commission rule not found")
	ErrTargetNotFound  = errors.New("monthly target not found")
	ErrSettingNotFound = errors.New("setting not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RowError locates a problem in the sales export.
type RowError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// SettingError names the setting that failed to decode.
type SettingError struct {
	Key   string
	Value string
	Err   error
}

func (e *SettingError) Error() string {
	return fmt.Sprintf("setting %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *SettingError) Unwrap() error { return ErrInvalidSetting }

// PassOrderError reports which pass was attempted and what state was found.
type PassOrderError struct {
	Pass     string
	Expected Stage
	Actual   Stage
}

func (e *PassOrderError) Error() string {
	return fmt.Sprintf("%s requires stage %s, results are at %s", e.Pass, e.Expected, e.Actual)
}

func (e *PassOrderError) Unwrap() error { return ErrPassOrder }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound) ||
		errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrTargetNotFound) ||
		errors.Is(err, ErrSettingNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSetting) ||
		errors.Is(err, ErrInvalidPeriod)
}

package commission

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// MONTH KEY - (year, month) ordered numerically
// =============================================================================

// MonthKey identifies one calendar month of the sales export. The year is
// whatever calendar the export uses (1404 for the Solar Hijri exports).
//
// Ordering is numeric on (Year, Month). The string form "YYYY-M" must never
// be sorted as text: "1404-10" would land before "1404-2".
type MonthKey struct {
	Year  int
	Month int
}

func NewMonthKey(year, month int) MonthKey {
	return MonthKey{Year: year, Month: month}
}

// ParseMonthKey parses the "YYYY-M" form produced by String.
func ParseMonthKey(s string) (MonthKey, error) {
	year, month, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return MonthKey{}, fmt.Errorf("%w: year %q", ErrInvalidPeriod, year)
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return MonthKey{}, fmt.Errorf("%w: month %q", ErrInvalidPeriod, month)
	}
	return MonthKey{Year: y, Month: m}, nil
}

func (k MonthKey) String() string { return fmt.Sprintf("%d-%d", k.Year, k.Month) }

// Compare returns -1, 0 or +1.
func (k MonthKey) Compare(other MonthKey) int {
	switch {
	case k.Year < other.Year:
		return -1
	case k.Year > other.Year:
		return 1
	case k.Month < other.Month:
		return -1
	case k.Month > other.Month:
		return 1
	}
	return 0
}

func (k MonthKey) Before(other MonthKey) bool { return k.Compare(other) < 0 }

// MarshalText lets MonthKey be used as a JSON object key.
func (k MonthKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *MonthKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SortMonthKeys sorts keys ascending by (year, month).
func SortMonthKeys(keys []MonthKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
}

// ParseWholeNumber parses a month or year cell. Spreadsheet exports often
// carry integers as "1.0", so any integral decimal is accepted.
func ParseWholeNumber(text string) (int, bool) {
	d, ok := ParseNumber(text)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return int(d.IntPart()), true
}

package commission_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// NUMBER PARSING
// =============================================================================

func TestParseNumber_StripsThousandsSeparators(t *testing.T) {
	d, ok := commission.ParseNumber(" 1,250,000 ")
	require.True(t, ok)
	assertDecimal(t, "1250000", d)
}

func TestParseNumber_MissingValues(t *testing.T) {
	for _, text := range []string{"", "  ", "nan", "NaN", "None", "null", "<NA>", "abc"} {
		d, ok := commission.ParseNumber(text)
		assert.False(t, ok, "text %q", text)
		assert.True(t, d.IsZero(), "text %q", text)
	}
}

// =============================================================================
// NORMALIZER
// =============================================================================

func TestNormalize_ConvertsMoneyWithCurrencyFactor(t *testing.T) {
	// GIVEN: A row of 500,000,000 Rial, half collected
	// WHEN: Normalizing with factor 0.1
	// THEN: Amounts are in Toman and the qualification checks pass

	n := commission.NewNormalizer(testConfig())
	row := sale(2, "Amanj", "", "500,000,000", "1", "1404", planStandard)
	row.CollectedAmount = "250,000,000"

	tx, err := n.Normalize(row)
	require.NoError(t, err)

	assert.Equal(t, commission.NewMonthKey(1404, 1), tx.Month)
	assertDecimal(t, "50000000", tx.NetValue)
	assertDecimal(t, "25000000", tx.PaidAmount)
	assertDecimal(t, "50000000", tx.CommissionBase)
	assertDecimal(t, "0.5", tx.Qualification.CollectionRatio)
	assert.True(t, tx.QualifiesForBracket())
}

func TestNormalize_AcceptsFloatPeriodCells(t *testing.T) {
	n := commission.NewNormalizer(testConfig())
	tx, err := n.Normalize(sale(2, "Amanj", "", "1", "3.0", "1404.0", ""))
	require.NoError(t, err)
	assert.Equal(t, commission.NewMonthKey(1404, 3), tx.Month)
}

func TestNormalize_InvalidPeriod_ReturnsRowError(t *testing.T) {
	// GIVEN: Rows with missing or non-integer month / year
	// WHEN: Normalizing
	// THEN: A RowError wrapping ErrInvalidPeriod names the field

	n := commission.NewNormalizer(testConfig())
	cases := []struct {
		month, year, field string
	}{
		{"", "1404", "month"},
		{"nan", "1404", "month"},
		{"1.5", "1404", "month"},
		{"1", "abc", "year"},
	}
	for _, tc := range cases {
		_, err := n.Normalize(sale(7, "Amanj", "", "1", tc.month, tc.year, ""))
		require.Error(t, err)
		assert.True(t, errors.Is(err, commission.ErrInvalidPeriod))

		var rowErr *commission.RowError
		require.True(t, errors.As(err, &rowErr))
		assert.Equal(t, 7, rowErr.Line)
		assert.Equal(t, tc.field, rowErr.Field)
	}
}

func TestNormalize_RenewalRequiresExactMarker(t *testing.T) {
	n := commission.NewNormalizer(testConfig())

	tx, err := n.Normalize(renewal(sale(2, "A", "", "1", "1", "1404", "")))
	require.NoError(t, err)
	assert.True(t, tx.IsRenewal)
	assert.False(t, tx.Qualification.NotRenewal)

	row := sale(3, "A", "", "1", "1", "1404", "")
	row.Renewal = "خیر"
	tx, err = n.Normalize(row)
	require.NoError(t, err)
	assert.False(t, tx.IsRenewal)
}

func TestNormalize_DefaultsEmptyPlan(t *testing.T) {
	n := commission.NewNormalizer(testConfig())
	tx, err := n.Normalize(sale(2, "A", "", "1", "1", "1404", "  "))
	require.NoError(t, err)
	assert.Equal(t, commission.DefaultPlan, tx.PlanVersion)
	assertDecimal(t, "12000000", tx.Qualification.MinValue)
}

func TestNormalize_UnknownPlanFallsBackToDefaultMinimum(t *testing.T) {
	n := commission.NewNormalizer(testConfig())
	tx, err := n.Normalize(sale(2, "A", "", "1", "1", "1404", "Enterprise"))
	require.NoError(t, err)
	assert.Equal(t, "Enterprise", tx.PlanVersion)
	assertDecimal(t, "12000000", tx.Qualification.MinValue)
}

func TestNormalize_AgentSaleDetection(t *testing.T) {
	// GIVEN: Rows flagged as agent sales by marketer keyword or plan percent
	// WHEN: Normalizing
	// THEN: Only a keyword match or exactly 50 percent marks an agent sale

	n := commission.NewNormalizer(testConfig())
	cases := []struct {
		name     string
		marketer string
		percent  string
		want     bool
	}{
		{"keyword plural", "نمایندگان شمال", "", true},
		{"keyword singular", "نماینده تهران", "100", true},
		{"percent fifty", "Sara", "50", true},
		{"percent fifty float", "Sara", "50.0", true},
		{"percent missing", "Sara", "", false},
		{"percent nan", "Sara", "nan", false},
		{"percent seventy", "Sara", "70", false},
		{"percent full", "Sara", "100", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := sale(2, "A", "", "1", "1", "1404", "")
			row.Marketer = tc.marketer
			row.AsanitoPlanPercent = tc.percent
			tx, err := n.Normalize(row)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tx.IsAgentSale)
		})
	}
}

func TestNormalize_ZeroNetValue_QualificationRatioIsZero(t *testing.T) {
	n := commission.NewNormalizer(testConfig())
	row := sale(2, "A", "", "0", "1", "1404", "")
	row.CommissionBase = "1,000,000,000"

	tx, err := n.Normalize(row)
	require.NoError(t, err)
	assert.True(t, tx.Qualification.CollectionRatio.IsZero())
	assert.False(t, tx.Qualification.CollectionRatioOK)
	assert.False(t, tx.QualifiesForBracket())
}

func TestNormalize_MinimumValueCheck(t *testing.T) {
	// GIVEN: A fully collected VIP sale of 50M Toman (minimum is 60M)
	// THEN: The minimum-value check fails even though the ratio passes

	n := commission.NewNormalizer(testConfig())
	tx, err := n.Normalize(sale(2, "A", "", "500,000,000", "1", "1404", planVIP))
	require.NoError(t, err)
	assert.True(t, tx.Qualification.CollectionRatioOK)
	assert.False(t, tx.Qualification.MinValueOK)
	assert.False(t, tx.QualifiesForBracket())
}

func TestNormalize_ParticipantsFanOutInRoleOrder(t *testing.T) {
	n := commission.NewNormalizer(testConfig())
	row := sale(2, "Amanj", "Amanj", "1", "1", "1404", "")
	row.Marketer = "Sara"

	tx, err := n.Normalize(row)
	require.NoError(t, err)
	assert.Equal(t, []commission.Participant{
		{Name: "Sara", Role: commission.RoleMarketer},
		{Name: "Amanj", Role: commission.RoleNegotiator},
		{Name: "Amanj", Role: commission.RoleCoordinator},
	}, tx.Participants)
}

func TestNormalize_SkipsEmptyAndNaNNames(t *testing.T) {
	n := commission.NewNormalizer(testConfig())
	row := sale(2, "nan", " ", "1", "1", "1404", "")
	row.Marketer = "NaN"

	tx, err := n.Normalize(row)
	assert.ErrorIs(t, err, commission.ErrNoParticipants)
	assert.False(t, commission.IsClientError(err))
	assert.Empty(t, tx.Participants)
	assert.Equal(t, commission.NewMonthKey(1404, 1), tx.Month, "the row is still parsed")

	var rowErr *commission.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Line)
	assert.Equal(t, "participants", rowErr.Field)
}

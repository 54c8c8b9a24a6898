package calculation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/dataset"
	"github.com/warp/commission-engine/seed"
	"github.com/warp/commission-engine/settings"
	"github.com/warp/commission-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type recordingObserver struct {
	runs   int
	rows   int
	failed int
}

func (o *recordingObserver) ObserveRun(_ time.Duration, rows int, _ *commission.Results, err error) {
	o.runs++
	o.rows += rows
	if err != nil {
		o.failed++
	}
}

func newSeededService(t *testing.T) (*Service, *sqlite.Store, *recordingObserver) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = seed.Run(context.Background(), store, nil)
	require.NoError(t, err)

	obs := &recordingObserver{}
	svc := &Service{
		Config:  settings.NewProvider(store),
		Rules:   store,
		Targets: store,
		Runs:    store,
		Observe: obs,
		now:     func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) },
	}
	return svc, store, obs
}

// A partly collected 100M Toman sale: full 10M at 10%, 4M payable.
func partialSale() commission.SalesRow {
	return commission.SalesRow{
		Line:             2,
		SeniorNegotiator: "Sara",
		BuyerCompany:     "Company",
		NetAmount:        "1,000,000,000",
		CollectedAmount:  "400,000,000",
		CommissionBase:   "1,000,000,000",
		Month:            "1",
		Year:             "1404",
		PlanVersion:      "استاندارد",
	}
}

// =============================================================================
// TESTS
// =============================================================================

func TestCalculate_PersistsRun(t *testing.T) {
	// GIVEN: A seeded store and one sales row
	// WHEN: Calculating with Persist
	// THEN: The run is stored with its summary rows and detailed JSON

	ctx := context.Background()
	svc, store, obs := newSeededService(t)

	ds := &dataset.Dataset{Input: commission.Input{Sales: []commission.SalesRow{partialSale()}}, HasTargets: true}
	out, err := svc.Calculate(ctx, Request{Dataset: ds, Filename: "sales.csv", Persist: true})
	require.NoError(t, err)

	require.NotEmpty(t, out.RunID)
	require.Len(t, out.Summaries, 1)
	sara := out.Summaries[0]
	assert.True(t, decimal.NewFromInt(4_000_000).Equal(sara.Payable))
	assert.True(t, decimal.NewFromInt(6_000_000).Equal(sara.PendingCommission))
	assert.Equal(t, "1404-1 to 1404-1", out.Details.Period)

	run, err := store.GetRun(ctx, out.RunID)
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", run.Filename)
	assert.Equal(t, "1404-1 to 1404-1", run.ReportPeriod)
	assert.True(t, out.CreatedAt.Equal(run.CreatedAt))
	require.Len(t, run.People, 1)
	assert.True(t, sara.Remaining.Equal(run.People[0].Remaining))
	assert.True(t, decimal.NewFromInt(10_000_000).Equal(run.People[0].FullCommission))
	assert.True(t, decimal.NewFromInt(6_000_000).Equal(run.People[0].PendingCommission))

	var details commission.DetailedResults
	require.NoError(t, json.Unmarshal(run.DetailedResults, &details))
	require.Len(t, details.Months, 1)
	assert.Equal(t, "Sara", details.Months[0].Persons[0].Name)

	assert.Equal(t, 1, obs.runs)
	assert.Equal(t, 1, obs.rows)
}

func TestCalculate_DryRunDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newSeededService(t)

	ds := &dataset.Dataset{Input: commission.Input{Sales: []commission.SalesRow{partialSale()}}, HasTargets: true}
	out, err := svc.Calculate(ctx, Request{Dataset: ds})
	require.NoError(t, err)
	assert.Empty(t, out.RunID)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestCalculate_FallsBackToStoredTargets(t *testing.T) {
	// GIVEN: A stored target and a dataset without a targets sheet
	// THEN: The stored target is used; a dataset with a sheet keeps its own

	ctx := context.Background()
	svc, store, _ := newSeededService(t)

	collective := decimal.NewFromInt(500_000_000)
	_, err := store.SaveTarget(ctx, commission.MonthlyTarget{Year: 1404, Month: 1, Collective: &collective})
	require.NoError(t, err)

	ds := &dataset.Dataset{Input: commission.Input{Sales: []commission.SalesRow{partialSale()}}}
	out, err := svc.Calculate(ctx, Request{Dataset: ds})
	require.NoError(t, err)
	require.Len(t, out.Targets, 1)
	assert.True(t, collective.Equal(*out.Targets[0].Collective))

	ds.HasTargets = true
	out, err = svc.Calculate(ctx, Request{Dataset: ds})
	require.NoError(t, err)
	assert.Empty(t, out.Targets)
}

func TestCalculate_EmptySettingsIsFatal(t *testing.T) {
	// GIVEN: A store that was never seeded
	// THEN: The run is refused with ErrSettingsUnavailable and counted as failed

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	obs := &recordingObserver{}
	svc := &Service{Config: settings.NewProvider(store), Rules: store, Observe: obs}

	_, err = svc.Calculate(context.Background(), Request{Dataset: &dataset.Dataset{}})
	assert.True(t, errors.Is(err, commission.ErrSettingsUnavailable))
	assert.Equal(t, 1, obs.failed)
}

func TestCalculate_PersistWithoutStore(t *testing.T) {
	svc, _, _ := newSeededService(t)
	svc.Runs = nil

	_, err := svc.Calculate(context.Background(), Request{Dataset: &dataset.Dataset{}, Persist: true})
	assert.Error(t, err)
}

package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission/store"
	"github.com/warp/commission-engine/settings"
)

func TestRefresher_PicksUpDirectEdits(t *testing.T) {
	// GIVEN: A running refresher over a seeded store
	// WHEN: A setting is edited behind the provider's back
	// THEN: A later snapshot carries the new value without explicit invalidation

	ctx := context.Background()
	st := store.NewSeededMemory(nil)
	p := settings.NewProvider(st)

	before, err := p.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, dec("0.05").Equal(before.RenewalRate))

	r := settings.NewRefresher(p, 10*time.Millisecond, nil)
	r.Start()
	defer r.Stop()

	require.NoError(t, st.SaveSetting(ctx, settings.Setting{
		Key: settings.KeyRenewalRate, Value: "0.07", ValueType: settings.TypeFloat,
	}))

	assert.Eventually(t, func() bool {
		cfg, err := p.Snapshot(ctx)
		return err == nil && dec("0.07").Equal(cfg.RenewalRate)
	}, time.Second, 5*time.Millisecond)
}

func TestRefresher_DisabledAndIdempotentStop(t *testing.T) {
	r := settings.NewRefresher(settings.NewProvider(store.NewSeededMemory(nil)), 0, nil)
	r.Start()
	r.Stop()
	r.Stop()
}

func TestRefresher_RefreshFailureLeavesProviderRetrying(t *testing.T) {
	// GIVEN: A store whose settings disappear
	// THEN: Refresh logs, and the next snapshot is refused until settings return

	ctx := context.Background()
	st := &countingStore{Memory: store.NewSeededMemory(nil)}
	p := settings.NewProvider(st)
	_, err := p.Snapshot(ctx)
	require.NoError(t, err)

	r := settings.NewRefresher(p, time.Hour, nil)
	st.err = assert.AnError
	r.Refresh(ctx)

	_, err = p.Snapshot(ctx)
	assert.Error(t, err)

	st.err = nil
	_, err = p.Snapshot(ctx)
	assert.NoError(t, err)
}

package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/commission/store"
	"github.com/warp/commission-engine/settings"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// BUILD
// =============================================================================

func TestBuild_Defaults(t *testing.T) {
	// GIVEN: The default rows
	// WHEN: Building a snapshot
	// THEN: Every field carries its documented default

	cfg, err := settings.Build(settings.Defaults())
	require.NoError(t, err)

	assert.True(t, dec("0.1").Equal(cfg.CurrencyFactor))
	assert.True(t, dec("0.05").Equal(cfg.RenewalRate))
	assert.True(t, dec("0.3").Equal(cfg.MinCollectionRatio))
	assert.True(t, dec("0.5").Equal(cfg.AgentMultiplier))
	assert.Equal(t, settings.DefaultModel, cfg.DefaultModel)
	assert.Equal(t, []string{"نمایندگان", "نماینده"}, cfg.AgentKeywords)
	assert.True(t, dec("0.05").Equal(cfg.Bonus.Collective))
	assert.True(t, dec("0.03").Equal(cfg.Bonus.Individual))
	assert.True(t, dec("0.02").Equal(cfg.Bonus.TopSeller))
	assert.True(t, dec("60000000").Equal(cfg.MinQualifyingValues["VIP"]))
	assert.True(t, dec("12000000").Equal(cfg.MinQualifyingValue("unknown plan")))
}

func TestBuild_AbsentKeysTakeDefaults(t *testing.T) {
	cfg, err := settings.Build([]settings.Setting{
		{Key: settings.KeyRenewalRate, Value: "0.07", ValueType: settings.TypeFloat},
	})
	require.NoError(t, err)
	assert.True(t, dec("0.07").Equal(cfg.RenewalRate))
	assert.True(t, dec("0.1").Equal(cfg.CurrencyFactor))
}

func TestBuild_EmptyStoreIsFatal(t *testing.T) {
	_, err := settings.Build(nil)
	assert.ErrorIs(t, err, commission.ErrSettingsUnavailable)
}

func TestBuild_UndecodableValueIsFatal(t *testing.T) {
	cases := []settings.Setting{
		{Key: settings.KeyCurrencyFactor, Value: "ten", ValueType: settings.TypeFloat},
		{Key: settings.KeyBonusPercentages, Value: "{not json", ValueType: settings.TypeJSON},
		{Key: settings.KeyAgentKeywords, Value: `{"a":1}`, ValueType: settings.TypeJSON},
	}
	for _, s := range cases {
		_, err := settings.Build([]settings.Setting{s})
		require.Error(t, err, s.Key)
		assert.ErrorIs(t, err, commission.ErrInvalidSetting, s.Key)

		var settingErr *commission.SettingError
		require.True(t, errors.As(err, &settingErr), s.Key)
		assert.Equal(t, s.Key, settingErr.Key)
	}
}

func TestBuild_InvariantViolationIsFatal(t *testing.T) {
	_, err := settings.Build([]settings.Setting{
		{Key: settings.KeyCurrencyFactor, Value: "0", ValueType: settings.TypeFloat},
	})
	assert.ErrorIs(t, err, commission.ErrInvalidSetting)
}

func TestValidate_RejectsUnknownValueType(t *testing.T) {
	err := settings.Validate(settings.Setting{Key: "X", Value: "1", ValueType: "decimal"})
	assert.ErrorIs(t, err, commission.ErrInvalidSetting)

	err = settings.Validate(settings.Setting{Key: "X", Value: "1.5", ValueType: settings.TypeInt})
	assert.ErrorIs(t, err, commission.ErrInvalidSetting)

	assert.NoError(t, settings.Validate(settings.Setting{Key: "X", Value: "3", ValueType: settings.TypeInt}))
}

func TestSetting_Typed(t *testing.T) {
	v, err := settings.Setting{Value: "0.25", ValueType: settings.TypeFloat}.Typed()
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	v, err = settings.Setting{Value: `["a"]`, ValueType: settings.TypeJSON}.Typed()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a"}, v)
}

// =============================================================================
// PROVIDER
// =============================================================================

type countingStore struct {
	*store.Memory
	calls int
	err   error
}

func (s *countingStore) ListSettings(ctx context.Context) ([]settings.Setting, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.Memory.ListSettings(ctx)
}

func TestProvider_CachesUntilInvalidated(t *testing.T) {
	// GIVEN: A provider over a seeded store
	// WHEN: Taking snapshots before and after a settings edit
	// THEN: The store is read once per invalidation and old snapshots stay intact

	ctx := context.Background()
	st := &countingStore{Memory: store.NewSeededMemory(nil)}
	p := settings.NewProvider(st)

	first, err := p.Snapshot(ctx)
	require.NoError(t, err)
	again, err := p.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, st.calls)

	require.NoError(t, st.SaveSetting(ctx, settings.Setting{
		Key: settings.KeyRenewalRate, Value: "0.08", ValueType: settings.TypeFloat,
	}))
	require.NoError(t, p.Invalidate(ctx))

	second, err := p.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.calls)
	assert.True(t, dec("0.08").Equal(second.RenewalRate))
	assert.True(t, dec("0.05").Equal(first.RenewalRate), "old snapshot is never patched")
}

func TestProvider_StoreErrorIsSettingsUnavailable(t *testing.T) {
	st := &countingStore{Memory: store.NewMemory(), err: errors.New("disk on fire")}
	_, err := settings.NewProvider(st).Snapshot(context.Background())
	assert.ErrorIs(t, err, commission.ErrSettingsUnavailable)
}

func TestProvider_EmptyStoreIsSettingsUnavailable(t *testing.T) {
	_, err := settings.NewProvider(store.NewMemory()).Snapshot(context.Background())
	assert.ErrorIs(t, err, commission.ErrSettingsUnavailable)
}

// =============================================================================
// REDIS CACHE
// =============================================================================

func newRedisCache(t *testing.T) (*settings.RedisCache, *miniredis.Miniredis) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return settings.NewRedisCache(client, 0), s
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := newRedisCache(t)

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, settings.Defaults()))
	rows, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, settings.Defaults(), rows)

	require.NoError(t, cache.Delete(ctx))
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProvider_SharedCache(t *testing.T) {
	// GIVEN: Two providers sharing one Redis cache
	// WHEN: The first loads settings
	// THEN: The second is served from Redis without touching its store,
	//       and invalidation removes the shared entry

	ctx := context.Background()
	cache, mr := newRedisCache(t)

	st1 := &countingStore{Memory: store.NewSeededMemory(nil)}
	st2 := &countingStore{Memory: store.NewMemory()}
	p1 := settings.NewProvider(st1, settings.WithCache(cache))
	p2 := settings.NewProvider(st2, settings.WithCache(cache))

	_, err := p1.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(settings.DefaultCacheKey))

	cfg, err := p2.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st2.calls)
	assert.Equal(t, settings.DefaultModel, cfg.DefaultModel)

	require.NoError(t, p1.Invalidate(ctx))
	assert.False(t, mr.Exists(settings.DefaultCacheKey))
}

func TestProvider_CacheOutageFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	cache := settings.NewRedisCache(client, 0)
	mr.Close()

	st := &countingStore{Memory: store.NewSeededMemory(nil)}
	cfg, err := settings.NewProvider(st, settings.WithCache(cache)).Snapshot(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, 1, st.calls)
}

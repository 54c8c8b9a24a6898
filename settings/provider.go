package settings

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/warp/commission-engine/commission"
	"go.uber.org/zap"
)

// Store lists every stored setting row.
type Store interface {
	ListSettings(ctx context.Context) ([]Setting, error)
}

// Cache holds raw setting rows shared between processes.
type Cache interface {
	Get(ctx context.Context) ([]Setting, bool, error)
	Set(ctx context.Context, rows []Setting) error
	Delete(ctx context.Context) error
}

// =============================================================================
// PROVIDER - one cached Config snapshot, rebuilt after Invalidate
// =============================================================================

// Provider hands out the current Config snapshot. A run takes one
// snapshot at its start and keeps it; editing settings calls Invalidate so
// the next run rebuilds from the store.
type Provider struct {
	store  Store
	remote Cache
	log    *zap.Logger

	current atomic.Pointer[commission.Config]
	mu      sync.Mutex // serializes loads and invalidation
}

// Option configures a Provider.
type Option func(*Provider)

// WithCache adds a shared cache in front of the store.
func WithCache(c Cache) Option {
	return func(p *Provider) { p.remote = c }
}

// WithLogger sets the provider's logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Provider) { p.log = log }
}

func NewProvider(store Store, opts ...Option) *Provider {
	p := &Provider{store: store, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot returns the cached Config, building it on first use.
func (p *Provider) Snapshot(ctx context.Context) (*commission.Config, error) {
	if cfg := p.current.Load(); cfg != nil {
		return cfg, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cfg := p.current.Load(); cfg != nil {
		return cfg, nil
	}

	rows, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := Build(rows)
	if err != nil {
		return nil, err
	}
	p.current.Store(cfg)
	p.log.Info("configuration snapshot built", zap.Int("settings", len(rows)))
	return cfg, nil
}

// Invalidate discards the cached snapshot and the shared cache entry.
func (p *Provider) Invalidate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current.Store(nil)
	if p.remote != nil {
		if err := p.remote.Delete(ctx); err != nil {
			return fmt.Errorf("invalidate settings cache: %w", err)
		}
	}
	p.log.Info("configuration snapshot invalidated")
	return nil
}

func (p *Provider) load(ctx context.Context) ([]Setting, error) {
	if p.remote != nil {
		rows, ok, err := p.remote.Get(ctx)
		switch {
		case err != nil:
			p.log.Warn("settings cache read failed, using store", zap.Error(err))
		case ok:
			return rows, nil
		}
	}

	rows, err := p.store.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commission.ErrSettingsUnavailable, err)
	}

	if p.remote != nil && len(rows) > 0 {
		if err := p.remote.Set(ctx, rows); err != nil {
			p.log.Warn("settings cache write failed", zap.Error(err))
		}
	}
	return rows, nil
}

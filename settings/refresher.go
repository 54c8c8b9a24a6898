package settings

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// REFRESHER - periodic snapshot rebuild
// =============================================================================

// Refresher invalidates and rebuilds the provider's snapshot on an
// interval, so edits made directly in the database (not through the admin
// API) reach new runs without a restart. A failed rebuild leaves the
// provider empty; the next run retries and is refused if settings are
// still unusable.
//
// USAGE:
//
//	r := settings.NewRefresher(provider, 5*time.Minute, log)
//	r.Start()
//	defer r.Stop()
type Refresher struct {
	Provider *Provider
	Interval time.Duration

	log    *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRefresher creates a refresher. A zero interval disables it.
func NewRefresher(p *Provider, interval time.Duration, log *zap.Logger) *Refresher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Refresher{Provider: p, Interval: interval, log: log}
}

// Start begins refreshing. It is a no-op when disabled or already running.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Interval <= 0 {
		r.log.Info("settings refresher disabled")
		return
	}
	if r.ticker != nil {
		return
	}

	r.ticker = time.NewTicker(r.Interval)
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go r.run(r.ticker, r.stop)

	r.log.Info("settings refresher started", zap.Duration("interval", r.Interval))
}

// Stop halts refreshing and waits for an in-flight refresh.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.wg.Wait()
	r.ticker = nil
	r.log.Info("settings refresher stopped")
}

func (r *Refresher) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer r.wg.Done()
	for {
		select {
		case <-ticker.C:
			r.Refresh(context.Background())
		case <-stop:
			return
		}
	}
}

// Refresh rebuilds the snapshot once.
func (r *Refresher) Refresh(ctx context.Context) {
	if err := r.Provider.Invalidate(ctx); err != nil {
		r.log.Warn("settings refresh: invalidate failed", zap.Error(err))
	}
	if _, err := r.Provider.Snapshot(ctx); err != nil {
		r.log.Error("settings refresh: rebuild failed", zap.Error(err))
		return
	}
	r.log.Debug("settings snapshot refreshed")
}

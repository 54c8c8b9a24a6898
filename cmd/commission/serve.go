package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/commission-engine/api"
	"github.com/warp/commission-engine/metrics"
	"github.com/warp/commission-engine/settings"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(false)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Initialize store
			store, err := openStore(ctx, cfg.Database.Path, cfg.Database.Seed, log)
			if err != nil {
				return err
			}
			defer store.Close()

			// Settings snapshot, optionally shared through Redis
			providerOpts := []settings.Option{settings.WithLogger(log)}
			if cfg.Redis.Enabled {
				client, err := settings.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
				if err != nil {
					return err
				}
				defer client.Close()
				providerOpts = append(providerOpts, settings.WithCache(settings.NewRedisCache(client, cfg.Settings.CacheTTL)))
				log.Info("settings cache enabled", zap.String("addr", cfg.Redis.Addr))
			}
			provider := settings.NewProvider(store, providerOpts...)

			refresher := settings.NewRefresher(provider, cfg.Settings.RefreshInterval, log)
			refresher.Start()
			defer refresher.Stop()

			// Handler and router
			h := api.NewHandler(store, provider, metrics.New(), log)
			if cfg.Server.MaxUploadBytes > 0 {
				h.MaxUploadBytes = cfg.Server.MaxUploadBytes
			}
			router := api.NewRouter(h, api.RouterOptions{AllowedOrigins: cfg.Server.AllowedOrigins})

			server := &http.Server{
				Addr:         cfg.Server.Addr(),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("commission engine listening", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}
			log.Info("server stopped")
			return nil
		},
	}
}

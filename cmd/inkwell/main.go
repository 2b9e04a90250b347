package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/platinummonkey/inkwell/pkg/api"
	"github.com/platinummonkey/inkwell/pkg/auth"
	"github.com/platinummonkey/inkwell/pkg/config"
	"github.com/platinummonkey/inkwell/pkg/maintenance"
	"github.com/platinummonkey/inkwell/pkg/middleware"
	"github.com/platinummonkey/inkwell/pkg/observability"
	"github.com/platinummonkey/inkwell/pkg/storage/objstore"
	"github.com/platinummonkey/inkwell/pkg/storage/sqlstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "inkwell: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"driver": cfg.Storage.DatabaseDriver,
		"port":   cfg.Server.Port,
	}).Info("starting inkwell")

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	store, err := sqlstore.New(cfg.Storage, metrics)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		store.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var objects *objstore.Client
	if cfg.Storage.S3Bucket != "" {
		objects, err = objstore.NewClient(cfg.Storage)
		if err != nil {
			store.Close()
			return fmt.Errorf("failed to open object storage: %w", err)
		}
	} else {
		logger.Warn("no S3 bucket configured, file routes disabled")
	}

	sessions, err := auth.NewManager(cfg.Auth.SessionSecret, store, cfg.Auth.SessionTTL)
	if err != nil {
		store.Close()
		return err
	}

	rewriter := middleware.NewRewriter(middleware.RewriterConfig{
		ProxyFiles:      cfg.Rewrite.ProxyFiles,
		AliasSettingKey: cfg.Rewrite.AliasSettingKey,
		Timeout:         cfg.Rewrite.Timeout,
	}, store, store, metrics, logger)

	server := api.NewServer(api.ServerConfig{
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
	}, store, objects, sessions, rewriter, metrics, logger)

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return store.Close()
	})

	if cfg.Maintenance.Enabled {
		sweeper := maintenance.NewService(maintenance.Config{
			Schedule:          cfg.Maintenance.Schedule,
			UploadGracePeriod: cfg.Maintenance.UploadGracePeriod,
		}, store, objects, metrics, logger)
		if err := sweeper.Start(); err != nil {
			store.Close()
			return fmt.Errorf("failed to start maintenance sweep: %w", err)
		}
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			sweeper.Stop()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- shutdown.WaitForShutdown()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case err := <-shutdownErr:
		return err
	}
}

// Package observability provides structured logging, Prometheus metrics, and graceful shutdown.
//
// # Overview
//
// This package carries the service's ambient operational concerns: a
// slog-based structured logger, a Prometheus metrics registry with HTTP
// instrumentation, and a signal-driven shutdown manager.
//
// # Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("slug", slug).Info("resolved")
//	logger.WithError(err).Error("sweep failed")
//
// Loggers ride the request context:
//
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).Debug("...")
//
// # Metrics
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	router.Handle("/metrics", metrics.Handler())
//	handler = metrics.HTTPMiddleware(routeTemplate)(handler)
//
// Domain counters cover rewrite outcomes, fail-open resolver errors, storage
// operation latency, and article/user totals.
//
// # Graceful Shutdown
//
//	shutdown := observability.NewShutdownManager(logger, httpServer, 30*time.Second)
//	shutdown.RegisterShutdownFunc(func(ctx context.Context) error { return store.Close() })
//	err := shutdown.WaitForShutdown() // blocks until SIGINT/SIGTERM
//
// # Related Packages
//
//   - pkg/httputil: Request logging and recovery middleware built on Logger
package observability

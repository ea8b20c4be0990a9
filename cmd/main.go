package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/compass/internal/adapters/http/api"
	"github.com/okian/compass/internal/adapters/http/swagger"
	"github.com/okian/compass/internal/adapters/source"
	service "github.com/okian/compass/internal/app"
	"github.com/okian/compass/internal/config"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel), logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
}

// newService maps configuration onto service options.
func newService(cfg *config.Config, log logger.Logger) *service.Service {
	return service.New(
		service.WithLogger(log.Named("service")),
		service.WithDBPath(cfg.DBPath),
		service.WithSources(cfg.WorkLogSource, cfg.TestCycleSource),
		service.WithLoadTimeout(time.Duration(cfg.LoadTimeoutMS)*time.Millisecond),
		service.WithBusyTimeout(time.Duration(cfg.BusyTimeoutMS)*time.Millisecond),
		service.WithThresholds(cfg.ApprovedMin, cfg.ReservationsMin),
		service.WithAutoGenerate(cfg.AutoGenerate),
	)
}

// newMux registers the API and documentation routes.
func newMux(ctx context.Context, svc *service.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, cfg.MaxRankingLimit).Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater periodically refreshes the dataset gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateServiceMetrics publishes the in-memory and persisted dataset sizes.
func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.GetStats()
	if n, ok := stats["workLogs"].(int); ok {
		metrics.UpdateDatasetSize(source.CollectionWorkLogs, n)
	}
	if n, ok := stats["cycles"].(int); ok {
		metrics.UpdateDatasetSize(source.CollectionCycles, n)
	}
	// Loading the audits refreshes their gauge.
	if audits := svc.Audits(); audits != nil {
		_, _ = audits.All(ctx)
	}
}

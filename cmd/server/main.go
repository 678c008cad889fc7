package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/arl/statsviz"
	"github.com/exaring/otelpgx"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "go.uber.org/automaxprocs"

	"github.com/perimeterlabs/tenantgrid/internal/application/events"
	"github.com/perimeterlabs/tenantgrid/internal/application/insights"
	"github.com/perimeterlabs/tenantgrid/internal/application/orchestrator"
	"github.com/perimeterlabs/tenantgrid/internal/domain/provider"
	"github.com/perimeterlabs/tenantgrid/internal/infra/adapters/cloud"
	httpServer "github.com/perimeterlabs/tenantgrid/internal/infra/adapters/http"
	handler "github.com/perimeterlabs/tenantgrid/internal/infra/adapters/http/handler"
	lifecyclePG "github.com/perimeterlabs/tenantgrid/internal/infra/storage/lifecycle/postgres"
	"github.com/perimeterlabs/tenantgrid/internal/infra/metrics"
	"github.com/perimeterlabs/tenantgrid/pkg/common"
	"github.com/perimeterlabs/tenantgrid/pkg/common/logger"
	"github.com/perimeterlabs/tenantgrid/pkg/common/otel"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), cfg.ServiceName, otel.GetTraceID)
	log.Info(ctx, "starting tenant infrastructure orchestrator", "service", cfg.ServiceName)

	tp, otelCleanup, err := otel.InitTelemetry(log, otel.Config{
		ServiceName:      cfg.ServiceName,
		ExporterEndpoint: cfg.OTLPEndpoint,
		ExcludedRoutes: map[string]struct{}{
			"/v1/health":    {},
			"/v1/readiness": {},
		},
		Probability: cfg.TraceProbability,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		otelCleanup(shutdownCtx)
	}()
	tracer := tp.Tracer(cfg.ServiceName)

	metricsRegistry, err := metrics.NewRegistry(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MinConns = 5
	poolCfg.MaxConns = 20
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(ctx, pool, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	registry, err := provider.NewRegistry(cfg.Providers)
	if err != nil {
		return fmt.Errorf("building provider registry: %w", err)
	}
	log.Info(ctx, "provider registry initialized", "enabled", registry.Enabled())

	bus := events.NewBus()
	defer bus.Close()
	startEventLogger(ctx, bus, log)

	adapters := cloud.NewSimulatedFleet()

	orchestratorSvc := orchestrator.NewService(registry, adapters, bus, log, tracer, metricsRegistry.Provisioning)
	insightsEngine := insights.NewEngine(registry, log, tracer)

	lifecycleRepo := lifecyclePG.NewLifecycleStore(pool, tracer)

	provisioningHandler := handler.NewProvisioningHandler(orchestratorSvc, lifecycleRepo, log)
	insightsHandler := handler.NewInsightsHandler(insightsEngine, log)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpServer.NewServer(provisioningHandler, insightsHandler),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info(ctx, "http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http server error", "error", err)
			cancel()
		}
	}()

	var ready atomic.Bool
	healthServer := common.NewHealthServer(cfg.HealthAddr, &ready)
	ready.Store(true)

	debugServer, err := startDebugServer(cfg.DebugAddr)
	if err != nil {
		return fmt.Errorf("starting debug server: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info(ctx, "shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}
	ready.Store(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "http server forced to shut down", "error", err)
	}
	if err := healthServer.Server().Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "health server forced to shut down", "error", err)
	}
	if err := debugServer.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "debug server forced to shut down", "error", err)
	}

	log.Info(shutdownCtx, "server exited gracefully")
	return nil
}

// startEventLogger consumes the event bus and mirrors every lifecycle event
// into the structured log. It keeps consuming until the bus closes so
// publishers never block on a full buffer.
func startEventLogger(ctx context.Context, bus *events.Bus, log *logger.Logger) {
	ch, _ := bus.Subscribe(events.DefaultSubscriberBuffer)
	go func() {
		for ev := range ch {
			log.Info(ctx, "lifecycle event",
				"event_type", string(ev.Type),
				"occurred_at", ev.OccurredAt,
				"payload", ev.Payload,
			)
		}
	}()
}

// startDebugServer exposes statsviz runtime visualizations on a separate
// listener. Not reachable through the API server.
func startDebugServer(addr string) (*http.Server, error) {
	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		return nil, err
	}

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "debug server error: %v\n", err)
		}
	}()
	return server, nil
}

// runMigrations applies all up migrations before the server accepts traffic.
// It borrows a database/sql handle from the pgx pool for golang-migrate.
func runMigrations(ctx context.Context, pool *pgxpool.Pool, migrationsPath string) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("could not acquire connection: %w", err)
	}
	defer conn.Release()

	db := stdlib.OpenDBFromPool(pool)

	driver, err := pgx.WithInstance(db, &pgx.Config{})
	if err != nil {
		return fmt.Errorf("could not create pgx driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up failed: %w", err)
	}

	return nil
}

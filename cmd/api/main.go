package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadflow_backend/internal/adapters"
	automationhandler "leadflow_backend/internal/automation/handler"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/internal/http/router"
	"leadflow_backend/internal/inference"
	inferencehandler "leadflow_backend/internal/inference/handler"
	inventoryrepo "leadflow_backend/internal/inventory/repository"
	"leadflow_backend/internal/leads"
	"leadflow_backend/internal/matching"
	matchinghandler "leadflow_backend/internal/matching/handler"
	"leadflow_backend/internal/notification"
	"leadflow_backend/migrations"
	"leadflow_backend/platform/clock"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/db"
	"leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/storage"
	"leadflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.MigrationsEnabled {
		if err := withRetry(ctx, log, "database migrations", 3, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool, migrations.FS)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	clk := clock.Real{}

	completer, err := inference.NewCompleterFromConfig(cfg)
	if err != nil {
		log.Error("failed to initialize inference provider", "error", err)
		panic("failed to initialize inference provider: " + err.Error())
	}
	gateway := inference.New(completer, cfg, log)

	presigner, err := storage.NewPresigner(cfg)
	if err != nil {
		log.Error("failed to initialize media presigner", "error", err)
		panic("failed to initialize media presigner: " + err.Error())
	}

	// ========================================================================
	// Domain Modules
	// ========================================================================

	leadsModule := leads.NewModule(pool, eventBus, gateway, clk, val, cfg, log)
	leadsModule.SetDispatcher(adapters.NewChannelDispatcher(leadsModule.Repository(), cfg, log))

	notificationModule := notification.New(leadsModule.Repository(), adapters.NewEmailSender(cfg), cfg.GetAlertEmailAddress(), log)
	notificationModule.RegisterHandlers(eventBus)

	matchEngine := matching.NewEngine(gateway, cfg, log)
	if presigner != nil {
		matchEngine.WithMediaSigner(presigner)
	}
	matchService := matching.NewService(
		leadsModule.Repository(),
		adapters.NewInventoryCandidateReader(inventoryrepo.New(pool)),
		matchEngine,
		cfg,
	)

	decayRunner := adapters.NewDecayRunner(pool, eventBus, clk, cfg, log)

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: pool,
		Modules: []apphttp.Module{
			leadsModule,
			matchinghandler.NewModule(matchService, val),
			inferencehandler.NewModule(gateway),
			automationhandler.NewModule(decayRunner),
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

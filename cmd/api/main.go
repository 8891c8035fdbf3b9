package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-assist/internal/api/dto"
	httptransport "github.com/spec-kit/campus-assist/internal/api/http"
	"github.com/spec-kit/campus-assist/internal/api/http/handlers"
	"github.com/spec-kit/campus-assist/internal/auth"
	"github.com/spec-kit/campus-assist/internal/config"
	"github.com/spec-kit/campus-assist/internal/domain"
	"github.com/spec-kit/campus-assist/internal/events"
	"github.com/spec-kit/campus-assist/internal/lifecycle"
	"github.com/spec-kit/campus-assist/internal/observability"
	"github.com/spec-kit/campus-assist/internal/persistence"
	"github.com/spec-kit/campus-assist/internal/repository"
	"github.com/spec-kit/campus-assist/internal/service"
	"github.com/spec-kit/campus-assist/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App.Env, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	clk := clockwork.NewRealClock()
	dependencies := map[string]handlers.Pinger{}

	var requestRepo repository.HelpRequestRepository
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		requestRepo = repository.NewPostgresHelpRequestRepository(pg.Pool)
		dependencies["postgres"] = pg
	default:
		requestRepo = repository.NewMemoryHelpRequestRepository()
	}

	var userRepo repository.UserRepository
	switch cfg.Store.UserDirectory {
	case config.DirectoryRedis:
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		userRepo = repository.NewRedisUserRepository(rdb.Client)
		dependencies["redis"] = rdb
	default:
		userRepo = repository.NewMemoryUserRepository()
	}

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()

	policy := policyFromConfig(cfg.SLA)
	if cfg.Store.SeedDemoData {
		if cfg.Store.Driver == config.StoreMemory {
			if _, err := service.SeedDemoRequests(ctx, requestRepo, policy, clk.Now(), logger); err != nil {
				logger.Fatal("failed to seed demo data", zap.Error(err))
			}
		} else {
			logger.Warn("SEED_DEMO_DATA ignored for persistent store", zap.String("store", cfg.Store.Driver))
		}
	}

	engine := lifecycle.NewEngine(policy, clk)
	requestService := service.NewRequestService(service.RequestDependencies{
		Engine:      engine,
		RequestRepo: requestRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
		Clock:       clk,
	})
	dashboardService := service.NewDashboardService(requestRepo, engine, cfg.SLA.AckTarget)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	authService := service.NewAuthService(userRepo, tokens, logger)
	validate := dto.NewValidator()

	app := httptransport.NewApp(cfg.App, logger, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:           handlers.NewAuthHandler(authService, validate),
		Requests:       handlers.NewRequestsHandler(requestService, validate),
		Dashboard:      handlers.NewDashboardHandler(dashboardService, requestService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo),
		Metrics:        metrics,
	})

	var monitor *worker.SLAMonitor
	if cfg.Monitor.Enabled {
		monitor, err = worker.NewSLAMonitor(requestService, clk, cfg.Monitor.Schedule, logger)
		if err != nil {
			logger.Fatal("failed to init sla monitor", zap.Error(err))
		}
		monitor.Start(ctx)
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if monitor != nil {
		monitor.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func policyFromConfig(cfg config.SLAConfig) lifecycle.Policy {
	return lifecycle.Policy{
		SLA: map[domain.Priority]time.Duration{
			domain.PriorityEmergency: cfg.Emergency,
			domain.PriorityHigh:      cfg.High,
			domain.PriorityNormal:    cfg.Normal,
		},
		EmergencyCooldown:   cfg.EmergencyCooldown,
		NearDeadline:        cfg.NearDeadline,
		StampAllSubmissions: cfg.StampAll,
	}
}

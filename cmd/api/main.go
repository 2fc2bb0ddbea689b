// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelamos/blux-portal/internal/admin"
	"github.com/angelamos/blux-portal/internal/config"
	"github.com/angelamos/blux-portal/internal/core"
	"github.com/angelamos/blux-portal/internal/health"
	"github.com/angelamos/blux-portal/internal/middleware"
	"github.com/angelamos/blux-portal/internal/platform"
	"github.com/angelamos/blux-portal/internal/quest"
	"github.com/angelamos/blux-portal/internal/reward"
	"github.com/angelamos/blux-portal/internal/server"
	"github.com/angelamos/blux-portal/internal/stats"
	"github.com/angelamos/blux-portal/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"ledger_driver", cfg.Ledger.Driver,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	healthHandler := health.NewHandler()

	var (
		ledger  user.Repository
		db      *core.Database
		adminCfg = admin.HandlerConfig{}
	)

	switch cfg.Ledger.Driver {
	case "postgres":
		db, err = core.NewDatabase(ctx, cfg.Ledger)
		if err != nil {
			return err
		}
		logger.Info("database connected",
			"max_open_conns", cfg.Ledger.MaxOpenConns,
			"max_idle_conns", cfg.Ledger.MaxIdleConns,
		)

		ledger = user.NewPostgresRepository(db.DB)
		healthHandler.AddChecker("database", db)
		adminCfg.DBStats = db.Stats
		adminCfg.DBPing = db.Ping
	default:
		ledger = user.NewMemoryRepository()
		logger.Info("using in-memory ledger")
	}

	var (
		redisConn   *core.Redis
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisConn, err = core.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)

		redisClient = redisConn.Client
		healthHandler.AddChecker("redis", redisConn)
		adminCfg.RedisStats = redisConn.PoolStats
	}

	platformClient := platform.NewHTTPClient(cfg.Platform)
	engine := quest.Engine{
		AdsRequired: cfg.Quest.AdsRequired,
		DailyLimit:  cfg.Quest.DailyLimit,
	}
	locks := user.NewLocker()

	userSvc := user.NewService(
		ledger,
		platformClient,
		engine,
		locks,
		cfg.Reward.VIPDuration,
	)
	userHandler := user.NewHandler(userSvc)

	rewardSvc := reward.NewService(
		ledger,
		locks,
		reward.Generator{Prefix: cfg.Reward.CodePrefix},
		cfg.Reward.Cost,
		cfg.Reward.VIPCost,
	)
	rewardHandler := reward.NewHandler(rewardSvc)

	statsSvc := stats.NewService(ledger)

	if err := userSvc.SeedOwner(
		ctx,
		cfg.Owner.Username,
		cfg.Owner.Password,
	); err != nil {
		return err
	}
	if cfg.Owner.Username != "" {
		logger.Info("owner account ensured", "username", cfg.Owner.Username)
	}

	adminCfg.Users = userSvc
	adminCfg.Stats = statsSvc
	adminHandler := admin.NewHandler(adminCfg)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	authenticator := middleware.Authenticator(userSvc)
	staffOnly := middleware.RequireStaff

	router.Route("/v1", func(r chi.Router) {
		userHandler.RegisterRoutes(r)
		rewardHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r, authenticator, staffOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if redisConn != nil {
		if err := redisConn.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

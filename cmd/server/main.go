// Package main is the entry point of the wallet ledger service.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"tripwallet/internal/config"
	"tripwallet/internal/logging"
	"tripwallet/internal/repositories"
	"tripwallet/internal/repositories/cache"
	"tripwallet/internal/routes"
	"tripwallet/internal/services/notification"
	"tripwallet/internal/services/recon"
	"tripwallet/internal/services/refundquote"
	"tripwallet/internal/services/settlement"
	"tripwallet/internal/services/topup"
	"tripwallet/internal/services/wallet"
)

const shutdownTimeout = 15 * time.Second

func main() {
	config.LoadEnv()
	cfg := config.Load()
	log := logging.NewLogger(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	db, err := repositories.Open(cfg.DB, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			log.WithError(err).Warn("Failed to close database connection")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		rdb          *redis.Client
		balanceCache wallet.BalanceCache
	)
	if cfg.Redis.Enabled {
		rdb = cache.NewRedisClient(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := cache.Ping(pingCtx, rdb)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, balances will be read from the database")
		}
		cacheService := cache.NewCacheService(rdb, cfg.Redis.BalanceTTL)
		defer func() {
			if err := cacheService.Close(); err != nil {
				log.WithError(err).Warn("Failed to close Redis connection")
			}
		}()
		balanceCache = cacheService
	}

	walletRepo := repositories.NewWalletRepository(db)
	ledger := wallet.NewService(
		walletRepo,
		balanceCache,
		wallet.WalletConfig{
			Currency:        cfg.Wallet.Currency,
			DefaultPageSize: cfg.Wallet.DefaultPageSize,
			MaxPageSize:     cfg.Wallet.MaxPageSize,
		},
		wallet.NewPrometheusMetrics(reg),
		log,
	)

	topupCfg := topup.Config{
		Packages:          cfg.Wallet.TopupPackages,
		Currency:          cfg.Wallet.Currency,
		MinorUnitExponent: cfg.Wallet.MinorUnitExponent,
	}
	topups := topup.NewService(repositories.NewTopupRepository(db), ledger, notification.NewService(log), topupCfg, log)
	settlements := settlement.NewService(repositories.NewSettlementRepository(db), ledger, log)
	reconciler := recon.NewReconciler(recon.Config{
		Repo:    walletRepo,
		Metrics: recon.NewMetrics(reg),
		Logger:  log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Recon.Enabled {
		scheduler := recon.NewScheduler(recon.SchedulerConfig{
			Reconciler: reconciler,
			RunHour:    cfg.Recon.RunHour,
			RunMinute:  cfg.Recon.RunMinute,
			Location:   refundquote.Location,
			Logger:     log,
		})
		go scheduler.Start(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      "tripwallet",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,HEAD",
	}))

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Output: log.Writer(),
	}))

	app.Use("/api", limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		DB:          db,
		Redis:       rdb,
		Gatherer:    reg,
		JWTSecret:   cfg.JWTSecret,
		Logger:      log,
		Wallet:      ledger,
		Settlements: settlements,
		Quotes:      refundquote.NewCalculator(),
		Topups:      topups,
		TopupConfig: topupCfg,
		Reconciler:  reconciler,
	})

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("Starting HTTP server")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("HTTP server stopped")
		}
	case <-ctx.Done():
		log.Info("Shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.WithError(err).Warn("Graceful shutdown failed")
		}
	}
}

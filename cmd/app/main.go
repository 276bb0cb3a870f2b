// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4"

	"telegram-vpn-subscription/internal/config"
	"telegram-vpn-subscription/internal/infra/adapters/pricing"
	"telegram-vpn-subscription/internal/infra/api"
	"telegram-vpn-subscription/internal/infra/db/migrations"
	pg "telegram-vpn-subscription/internal/infra/db/postgres"
	"telegram-vpn-subscription/internal/infra/logging"
	"telegram-vpn-subscription/internal/infra/metrics"
	red "telegram-vpn-subscription/internal/infra/redis"
	"telegram-vpn-subscription/internal/infra/sched"
	"telegram-vpn-subscription/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted codes)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	// ---- Postgres ----
	if cfg.Database.RunMigrations {
		if err := migrations.Run(cfg.Database.URL, logger); err != nil {
			logger.Fatal().Err(err).Msg("migrations")
		}
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	limiter := red.NewRateLimiter(redisClient, cfg.Promo.RateLimit, cfg.Promo.RateWindow)

	// ---- Repositories ----
	promoRepo := pg.NewPromoRepoCacheDecorator(pg.NewPromoCodeRepo(pool), redisClient, cfg.Promo.CacheTTL, logger)
	userPromoRepo := pg.NewUserPromoRepo(pool)
	auditRepo := pg.NewRedemptionLogRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Pricing ----
	prices, err := pricing.NewTableCalculator(cfg.Pricing.Monthly)
	if err != nil {
		logger.Fatal().Err(err).Msg("pricing table")
	}

	// ---- Use cases ----
	promoUC := usecase.NewPromoUseCase(promoRepo, userPromoRepo, auditRepo, txManager, usecase.PromoOptions{
		MaxAttempts: cfg.Promo.RedeemMaxAttempts,
		TxOptions:   pgx.TxOptions{IsoLevel: pg.IsoLevel(cfg.Promo.Isolation)},
		Dev:         cfg.Runtime.Dev,
	}, logger)
	discountUC := usecase.NewDiscountUseCase(promoRepo, userPromoRepo, logger)
	tariffUC := usecase.NewTariffUseCase(discountUC, prices)
	adminUC := usecase.NewPromoAdminUseCase(promoRepo, txManager, logger)

	// ---- HTTP ----
	srv := api.NewServer(promoUC, discountUC, tariffUC, adminUC, api.Options{
		Limiter:  limiter,
		LimitKey: red.PromoRedeemKey,
		Auth:     api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL),
		Timeout:  cfg.HTTP.RequestTimeout,
	}, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Pool stats ----
	poolStats := sched.NewPoolStatsWorker(15*time.Second, sched.PgxStats(pool), logger)
	go func() { _ = poolStats.Run(ctx) }()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

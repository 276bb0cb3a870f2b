package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"telegram-vpn-subscription/internal/config"
	"telegram-vpn-subscription/internal/infra/api"
	"telegram-vpn-subscription/internal/infra/db/migrations"
	pg "telegram-vpn-subscription/internal/infra/db/postgres"
	"telegram-vpn-subscription/internal/infra/logging"
	"telegram-vpn-subscription/internal/usecase"
)

// seed creates a few sample promo codes and prints an admin token for the API.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := migrations.Run(cfg.Database.URL, logger); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	adminUC := usecase.NewPromoAdminUseCase(pg.NewPromoCodeRepo(pool), pg.NewTxManager(pool), logger)

	// If codes already exist, do nothing
	existing, err := adminUC.List(ctx, 0, 10)
	if err != nil {
		log.Fatalf("list promo codes: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d promo codes already present. No changes.\n", len(existing))
		for _, p := range existing {
			fmt.Printf("  - %s (%d%%, active=%t, used=%d)\n", p.Code, p.DiscountPercent, p.Active, p.UsedCount)
		}
	} else {
		nextMonth := time.Now().AddDate(0, 1, 0)
		hundred := 100
		seed := []usecase.PromoCodeInput{
			{Code: "WELCOME10", DiscountPercent: 10},
			{Code: "LAUNCH20", DiscountPercent: 20, MaxUses: &hundred},
			{Code: "MONTH25", DiscountPercent: 25, ExpiresAt: &nextMonth},
		}
		for _, in := range seed {
			p, err := adminUC.Create(ctx, in)
			if err != nil {
				log.Fatalf("create promo %q: %v", in.Code, err)
			}
			fmt.Printf("seeded: %s (%d%%)\n", p.Code, p.DiscountPercent)
		}
	}

	if cfg.Admin.JWTSecret != "" {
		tok, err := api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL).Mint("seed")
		if err != nil {
			log.Fatalf("mint admin token: %v", err)
		}
		fmt.Printf("admin token (valid %s):\n%s\n", cfg.Admin.TokenTTL, tok)
	}
}

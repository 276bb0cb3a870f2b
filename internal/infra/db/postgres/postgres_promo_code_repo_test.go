//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"telegram-vpn-subscription/internal/domain"
	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/domain/ports/repository"
)

func intPtr(v int) *int { return &v }

func TestPromoCodeRepo_Integration(t *testing.T) {
	repo := NewPromoCodeRepo(testPool)
	txm := NewTxManager(testPool)
	ctx := context.Background()
	cleanup(t)

	promo, err := model.NewPromoCode("summer", 20, nil, intPtr(2))
	if err != nil {
		t.Fatalf("NewPromoCode: %v", err)
	}

	t.Run("should create and read a code", func(t *testing.T) {
		if err := repo.Save(ctx, repository.NoTX, promo); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := repo.FindByCode(ctx, repository.NoTX, "SUMMER")
		if err != nil {
			t.Fatalf("FindByCode: %v", err)
		}
		if got.DiscountPercent != 20 || !got.Active || got.MaxUses == nil || *got.MaxUses != 2 || got.UsedCount != 0 {
			t.Errorf("unexpected row: %+v", got)
		}
	})

	t.Run("Create refuses an existing code", func(t *testing.T) {
		dup, _ := model.NewPromoCode("SUMMER", 5, nil, nil)
		if err := repo.Create(ctx, repository.NoTX, dup); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		got, _ := repo.FindByCode(ctx, repository.NoTX, "SUMMER")
		if got.DiscountPercent != 20 || got.MaxUses == nil {
			t.Errorf("existing definition overwritten: %+v", got)
		}

		fresh, _ := model.NewPromoCode("autumn", 12, nil, nil)
		fresh.CreatedAt = promo.CreatedAt.Add(-time.Hour)
		if err := repo.Create(ctx, repository.NoTX, fresh); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if got, err := repo.FindByCode(ctx, repository.NoTX, "AUTUMN"); err != nil || got.DiscountPercent != 12 {
			t.Fatalf("FindByCode after Create: %+v, %v", got, err)
		}
	})

	t.Run("missing code is ErrNotFound", func(t *testing.T) {
		if _, err := repo.FindByCode(ctx, repository.NoTX, "NOPE"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("LockByCode needs a transaction", func(t *testing.T) {
		if _, err := repo.LockByCode(ctx, repository.NoTX, "SUMMER"); !errors.Is(err, domain.ErrInvalidExecContext) {
			t.Fatalf("expected ErrInvalidExecContext, got %v", err)
		}
	})

	t.Run("MarkUsed stops at max_uses", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := repo.MarkUsed(ctx, repository.NoTX, "SUMMER"); err != nil {
				t.Fatalf("MarkUsed #%d: %v", i+1, err)
			}
		}
		if err := repo.MarkUsed(ctx, repository.NoTX, "SUMMER"); !errors.Is(err, domain.ErrPromoLimitReached) {
			t.Fatalf("expected ErrPromoLimitReached, got %v", err)
		}
		if err := repo.MarkUsed(ctx, repository.NoTX, "NOPE"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		got, _ := repo.FindByCode(ctx, repository.NoTX, "SUMMER")
		if got.UsedCount != 2 {
			t.Errorf("expected used_count 2, got %d", got.UsedCount)
		}
	})

	t.Run("Save keeps the usage counter", func(t *testing.T) {
		promo.Active = false
		promo.UsedCount = 0
		if err := repo.Save(ctx, repository.NoTX, promo); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if promo.UsedCount != 2 {
			t.Errorf("Save should read back used_count 2, got %d", promo.UsedCount)
		}
	})

	t.Run("max_uses cannot drop below used_count", func(t *testing.T) {
		lowered := *promo
		lowered.MaxUses = intPtr(1)
		if err := repo.Save(ctx, repository.NoTX, &lowered); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("check constraint rejects bad percent", func(t *testing.T) {
		bad := &model.PromoCode{Code: "BAD", DiscountPercent: 150, Active: true}
		if err := repo.Save(ctx, repository.NoTX, bad); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("List pages newest first", func(t *testing.T) {
		exp := time.Now().Add(time.Hour)
		second, _ := model.NewPromoCode("winter", 10, &exp, nil)
		second.CreatedAt = promo.CreatedAt.Add(time.Second)
		if err := repo.Save(ctx, repository.NoTX, second); err != nil {
			t.Fatalf("Save: %v", err)
		}
		list, err := repo.List(ctx, repository.NoTX, 0, 10)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 3 || list[0].Code != "WINTER" || list[0].ExpiresAt == nil || list[2].Code != "AUTUMN" {
			t.Fatalf("unexpected list: %+v", list)
		}
		page, _ := repo.List(ctx, repository.NoTX, 1, 10)
		if len(page) != 2 || page[0].Code != "SUMMER" {
			t.Fatalf("unexpected page: %+v", page)
		}
	})

	t.Run("rolled back MarkUsed leaves the counter", func(t *testing.T) {
		boom := errors.New("boom")
		err := txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if _, err := repo.LockByCode(ctx, tx, "WINTER"); err != nil {
				return err
			}
			if err := repo.MarkUsed(ctx, tx, "WINTER"); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		got, _ := repo.FindByCode(ctx, repository.NoTX, "WINTER")
		if got.UsedCount != 0 {
			t.Errorf("expected used_count 0 after rollback, got %d", got.UsedCount)
		}
	})
}

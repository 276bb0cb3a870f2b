//go:build !integration

package api

import (
	"context"
	"sync"

	"telegram-vpn-subscription/internal/domain"
	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/usecase"
)

type mockPromoUC struct {
	res   model.RedemptionResult
	err   error
	calls int
	code  string
}

func (m *mockPromoUC) Redeem(ctx context.Context, userID int64, code string) (model.RedemptionResult, error) {
	m.calls++
	m.code = code
	return m.res, m.err
}

type mockDiscountUC struct {
	percent int
	err     error
}

func (m *mockDiscountUC) EffectiveDiscount(months, promo int) int {
	return model.CombineDiscounts(months, promo)
}

func (m *mockDiscountUC) CurrentPromoPercent(ctx context.Context, userID int64) (int, error) {
	return m.percent, m.err
}

type mockTariffUC struct {
	filter usecase.TariffFilter
	out    []usecase.TariffOption
}

func (m *mockTariffUC) Quote(ctx context.Context, userID int64, f usecase.TariffFilter) ([]usecase.TariffOption, error) {
	m.filter = f
	return m.out, nil
}

type mockAdminUC struct {
	mu     sync.Mutex
	promos map[string]*model.PromoCode
}

func newMockAdminUC() *mockAdminUC {
	return &mockAdminUC{promos: map[string]*model.PromoCode{}}
}

func (m *mockAdminUC) Create(ctx context.Context, in usecase.PromoCodeInput) (*model.PromoCode, error) {
	p, err := model.NewPromoCode(in.Code, in.DiscountPercent, in.ExpiresAt, in.MaxUses)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.promos[p.Code]; ok {
		return nil, domain.ErrAlreadyExists
	}
	m.promos[p.Code] = p
	return p, nil
}

func (m *mockAdminUC) SetActive(ctx context.Context, code string, active bool) (*model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[model.NormalizePromoCode(code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Active = active
	return p, nil
}

func (m *mockAdminUC) Get(ctx context.Context, code string) (*model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.promos[model.NormalizePromoCode(code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockAdminUC) List(ctx context.Context, offset, limit int) ([]*model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.PromoCode, 0, len(m.promos))
	for _, p := range m.promos {
		out = append(out, p)
	}
	return out, nil
}

type mockLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (m *mockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allow, m.err
}

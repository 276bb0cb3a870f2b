//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/domain/ports/repository"
	red "telegram-vpn-subscription/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerPromoRepo mocks the database repository that the promo decorator wraps.
type mockInnerPromoRepo struct {
	FindByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error)
	LockByCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error)
	MarkUsedFunc   func(ctx context.Context, tx repository.Tx, code string) error
	CreateFunc     func(ctx context.Context, tx repository.Tx, p *model.PromoCode) error
	SaveFunc       func(ctx context.Context, tx repository.Tx, p *model.PromoCode) error
	ListFunc       func(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.PromoCode, error)
}

func (m *mockInnerPromoRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	return m.FindByCodeFunc(ctx, tx, code)
}
func (m *mockInnerPromoRepo) LockByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	return m.LockByCodeFunc(ctx, tx, code)
}
func (m *mockInnerPromoRepo) MarkUsed(ctx context.Context, tx repository.Tx, code string) error {
	return m.MarkUsedFunc(ctx, tx, code)
}
func (m *mockInnerPromoRepo) Create(ctx context.Context, tx repository.Tx, p *model.PromoCode) error {
	return m.CreateFunc(ctx, tx, p)
}
func (m *mockInnerPromoRepo) Save(ctx context.Context, tx repository.Tx, p *model.PromoCode) error {
	return m.SaveFunc(ctx, tx, p)
}
func (m *mockInnerPromoRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.PromoCode, error) {
	return m.ListFunc(ctx, tx, offset, limit)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc        func(ctx context.Context, key string) (string, error)
	SetFunc        func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc        func(ctx context.Context, keys ...string) error
	PingFunc       func(ctx context.Context) error
	IncrWindowFunc func(ctx context.Context, key string, window time.Duration) (int64, error)
	CloseFunc      func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return m.IncrWindowFunc(ctx, key, window)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }

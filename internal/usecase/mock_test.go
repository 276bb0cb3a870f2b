//go:build !integration

package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"telegram-vpn-subscription/internal/domain"
	"telegram-vpn-subscription/internal/domain/model"
	"telegram-vpn-subscription/internal/domain/ports/adapter"
	"telegram-vpn-subscription/internal/domain/ports/repository"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// =============================
// Repositories
// =============================

// memStore keeps promo codes, assignments and the audit log in memory.
// It implements all three promo repository ports so a MockTxManager can
// snapshot and restore the whole state on rollback.
type memStore struct {
	mu     sync.Mutex
	promos map[string]model.PromoCode
	users  map[int64]string
	audit  []model.PromoRedemption

	// stale overrides FindByCode answers the way an outdated cache entry
	// would. A nil value reports the code as absent.
	stale map[string]*model.PromoCode

	// ErrOn forces the named method to fail, e.g. "MarkUsed".
	ErrOn map[string]error
	// Calls counts invocations per method name.
	Calls map[string]int
}

var (
	_ repository.PromoCodeRepository     = (*memStore)(nil)
	_ repository.UserPromoRepository     = (*memStore)(nil)
	_ repository.RedemptionLogRepository = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		promos: map[string]model.PromoCode{},
		users:  map[int64]string{},
		stale:  map[string]*model.PromoCode{},
		ErrOn:  map[string]error{},
		Calls:  map[string]int{},
	}
}

func (s *memStore) hit(name string) error {
	s.Calls[name]++
	return s.ErrOn[name]
}

// seed stores p as-is, including its counter.
func (s *memStore) seed(p *model.PromoCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos[p.Code] = *p
}

func (s *memStore) promo(code string) model.PromoCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promos[code]
}

func (s *memStore) activeCode(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID]
}

// clearActiveCode empties the user's slot the way an external process would.
func (s *memStore) clearActiveCode(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

func (s *memStore) auditLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audit)
}

type memSnapshot struct {
	promos map[string]model.PromoCode
	users  map[int64]string
	audit  []model.PromoRedemption
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		promos: make(map[string]model.PromoCode, len(s.promos)),
		users:  make(map[int64]string, len(s.users)),
		audit:  append([]model.PromoRedemption(nil), s.audit...),
	}
	for k, v := range s.promos {
		snap.promos[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos, s.users, s.audit = snap.promos, snap.users, snap.audit
}

func (s *memStore) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("FindByCode"); err != nil {
		return nil, err
	}
	if sp, ok := s.stale[code]; ok {
		if sp == nil {
			return nil, domain.ErrNotFound
		}
		cp := *sp
		return &cp, nil
	}
	p, ok := s.promos[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *memStore) LockByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	if tx == nil {
		return nil, domain.ErrInvalidExecContext
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("LockByCode"); err != nil {
		return nil, err
	}
	p, ok := s.promos[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *memStore) MarkUsed(ctx context.Context, tx repository.Tx, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("MarkUsed"); err != nil {
		return err
	}
	p, ok := s.promos[code]
	if !ok {
		return domain.ErrNotFound
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return domain.ErrPromoLimitReached
	}
	p.UsedCount++
	s.promos[code] = p
	return nil
}

func (s *memStore) Create(ctx context.Context, tx repository.Tx, p *model.PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("Create"); err != nil {
		return err
	}
	if _, ok := s.promos[p.Code]; ok {
		return domain.ErrAlreadyExists
	}
	p.UsedCount = 0
	s.promos[p.Code] = *p
	return nil
}

func (s *memStore) Save(ctx context.Context, tx repository.Tx, p *model.PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("Save"); err != nil {
		return err
	}
	if old, ok := s.promos[p.Code]; ok {
		p.UsedCount = old.UsedCount
		p.CreatedAt = old.CreatedAt
	} else {
		p.UsedCount = 0
	}
	if p.MaxUses != nil && *p.MaxUses < p.UsedCount {
		return domain.ErrInvalidArgument
	}
	s.promos[p.Code] = *p
	return nil
}

func (s *memStore) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("List"); err != nil {
		return nil, err
	}
	all := make([]*model.PromoCode, 0, len(s.promos))
	for _, p := range s.promos {
		p := p
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Code < all[j].Code
	})
	if offset >= len(all) {
		return []*model.PromoCode{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *memStore) GetActiveCode(ctx context.Context, tx repository.Tx, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("GetActiveCode"); err != nil {
		return "", err
	}
	return s.users[userID], nil
}

func (s *memStore) SetActiveCode(ctx context.Context, tx repository.Tx, userID int64, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("SetActiveCode"); err != nil {
		return err
	}
	if s.users[userID] != "" {
		return domain.ErrPromoAlreadySet
	}
	s.users[userID] = code
	return nil
}

func (s *memStore) Append(ctx context.Context, tx repository.Tx, r *model.PromoRedemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hit("Append"); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = r.Code + "-" + time.Now().Format(time.RFC3339Nano)
	}
	s.audit = append(s.audit, *r)
	return nil
}

// =============================
// Transactions
// =============================

// MockTxManager runs one transaction at a time against a memStore and
// restores the snapshot when fn fails, like a rollback would.
type MockTxManager struct {
	mu    sync.Mutex
	store *memStore

	// Conflicts makes the next N transactions fail with domain.ErrTxConflict
	// after fn ran (and was rolled back).
	Conflicts int
	Begun     int
	Options   []pgx.TxOptions
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager(store *memStore) *MockTxManager {
	return &MockTxManager{store: store}
}

type memTx struct{ n int }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Begun++
	m.Options = append(m.Options, txOpt)

	snap := m.store.snapshot()
	hctx, runHooks := repository.WithCommitHooks(ctx)
	if err := fn(hctx, &memTx{n: m.Begun}); err != nil {
		m.store.restore(snap)
		return err
	}
	if m.Conflicts > 0 {
		m.Conflicts--
		m.store.restore(snap)
		return domain.ErrTxConflict
	}
	runHooks(ctx)
	return nil
}

// =============================
// Adapters
// =============================

// MockPriceCalculator prices every month at a flat rate per device.
type MockPriceCalculator struct {
	PerMonth decimal.Decimal
	Err      error
}

var _ adapter.PriceCalculator = (*MockPriceCalculator)(nil)

func (m *MockPriceCalculator) ComputePrice(months, devices, discountPercent int) (decimal.Decimal, error) {
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	gross := m.PerMonth.Mul(decimal.NewFromInt(int64(months * devices)))
	return gross.Mul(decimal.NewFromInt(int64(100 - discountPercent))).Div(decimal.NewFromInt(100)), nil
}

package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lcastillo/librarian/internal/domain"
	"github.com/lcastillo/librarian/internal/repo"
)

// ---- fake transaction runner -----------------------------------------------

// fakeTxRunner satisfies repo.TxRunner by calling fn directly with a Store
// assembled from mocks. There is nothing to roll back — the tests assert that
// the engine stops calling repos as soon as one of them fails, which is the
// behaviour the real rollback relies on.
type fakeTxRunner struct {
	store    repo.Store
	beginErr error
}

func (f *fakeTxRunner) InTx(_ context.Context, fn func(s repo.Store) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(f.store)
}

var _ repo.TxRunner = (*fakeTxRunner)(nil)

// ---- mock repos ------------------------------------------------------------

// mockItemRepo is a hand-written test double for repo.ItemRepo.
// Set only the method fields your test needs.
type mockItemRepo struct {
	create       func(ctx context.Context, item domain.Item) (domain.Item, error)
	getByCode    func(ctx context.Context, code string) (domain.Item, error)
	list         func(ctx context.Context, filter string) ([]domain.Item, error)
	decrement    func(ctx context.Context, code string, qty int) error
	increment    func(ctx context.Context, code string, qty int) error
	setActive    func(ctx context.Context, code string, active bool) error
	hasOpenLoans func(ctx context.Context, code string) (bool, error)
}

func (m *mockItemRepo) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	return m.create(ctx, item)
}
func (m *mockItemRepo) GetByCode(ctx context.Context, code string) (domain.Item, error) {
	return m.getByCode(ctx, code)
}
func (m *mockItemRepo) List(ctx context.Context, filter string) ([]domain.Item, error) {
	return m.list(ctx, filter)
}
func (m *mockItemRepo) Decrement(ctx context.Context, code string, qty int) error {
	return m.decrement(ctx, code, qty)
}
func (m *mockItemRepo) Increment(ctx context.Context, code string, qty int) error {
	return m.increment(ctx, code, qty)
}
func (m *mockItemRepo) SetActive(ctx context.Context, code string, active bool) error {
	return m.setActive(ctx, code, active)
}
func (m *mockItemRepo) HasOpenLoans(ctx context.Context, code string) (bool, error) {
	return m.hasOpenLoans(ctx, code)
}

var _ repo.ItemRepo = (*mockItemRepo)(nil)

// mockLoanRepo is a hand-written test double for repo.LoanRepo.
type mockLoanRepo struct {
	insert      func(ctx context.Context, loan domain.Loan) (domain.Loan, error)
	getByID     func(ctx context.Context, id uuid.UUID) (domain.Loan, error)
	claimReturn func(ctx context.Context, id uuid.UUID, returnedAt time.Time) (domain.Loan, error)
	extendDue   func(ctx context.Context, id uuid.UUID, days int) (domain.Loan, error)
	listOpen    func(ctx context.Context, filter string) ([]domain.Loan, error)
	history     func(ctx context.Context, q domain.HistoryQuery) ([]domain.Loan, error)
}

func (m *mockLoanRepo) Insert(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	return m.insert(ctx, loan)
}
func (m *mockLoanRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Loan, error) {
	return m.getByID(ctx, id)
}
func (m *mockLoanRepo) ClaimReturn(ctx context.Context, id uuid.UUID, returnedAt time.Time) (domain.Loan, error) {
	return m.claimReturn(ctx, id, returnedAt)
}
func (m *mockLoanRepo) ExtendDue(ctx context.Context, id uuid.UUID, days int) (domain.Loan, error) {
	return m.extendDue(ctx, id, days)
}
func (m *mockLoanRepo) ListOpen(ctx context.Context, filter string) ([]domain.Loan, error) {
	return m.listOpen(ctx, filter)
}
func (m *mockLoanRepo) History(ctx context.Context, q domain.HistoryQuery) ([]domain.Loan, error) {
	return m.history(ctx, q)
}

var _ repo.LoanRepo = (*mockLoanRepo)(nil)

// recordingAuditRepo collects appended events. It is safe for concurrent use
// so the racing-issue test can share one instance between goroutines.
type recordingAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	err    error
}

func (m *recordingAuditRepo) Append(_ context.Context, ev domain.AuditEvent) (domain.AuditEvent, error) {
	if m.err != nil {
		return domain.AuditEvent{}, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = int64(len(m.events) + 1)
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *recordingAuditRepo) ListRecent(_ context.Context, _ int) ([]domain.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditEvent, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *recordingAuditRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

var _ repo.AuditRepo = (*recordingAuditRepo)(nil)

// fakeLedger is an in-memory ItemRepo holding one item, with the same
// conditional-decrement contract as the Postgres implementation. The mutex
// makes the check-and-decrement a single atomic step, mirroring what the
// guarded UPDATE provides in the database.
type fakeLedger struct {
	mu   sync.Mutex
	item domain.Item
}

func (f *fakeLedger) Create(_ context.Context, item domain.Item) (domain.Item, error) {
	return item, nil
}

func (f *fakeLedger) GetByCode(_ context.Context, code string) (domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code != f.item.Code {
		return domain.Item{}, domain.ErrNotFound
	}
	return f.item, nil
}

func (f *fakeLedger) List(_ context.Context, _ string) ([]domain.Item, error) {
	return []domain.Item{f.item}, nil
}

func (f *fakeLedger) Decrement(_ context.Context, code string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code != f.item.Code {
		return domain.ErrNotFound
	}
	if f.item.AvailableQty < qty {
		return domain.ErrInsufficientStock
	}
	f.item.AvailableQty -= qty
	return nil
}

func (f *fakeLedger) Increment(_ context.Context, code string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code != f.item.Code {
		return domain.ErrNotFound
	}
	f.item.AvailableQty += qty
	return nil
}

func (f *fakeLedger) SetActive(_ context.Context, code string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code != f.item.Code {
		return domain.ErrNotFound
	}
	f.item.Active = active
	return nil
}

func (f *fakeLedger) HasOpenLoans(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (f *fakeLedger) qty() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.item.AvailableQty
}

var _ repo.ItemRepo = (*fakeLedger)(nil)

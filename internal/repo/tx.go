package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Store bundles the three repos the transaction coordinator composes.
// A Store built over a pgx.Tx gives every repo the same transactional view.
type Store struct {
	Items ItemRepo
	Loans LoanRepo
	Audit AuditRepo
}

// NewStore constructs all repos over the same db connection — pass a pool for
// autocommit reads or a pgx.Tx for a shared transactional scope.
func NewStore(db db) Store {
	return Store{
		Items: NewItemRepo(db),
		Loans: NewLoanRepo(db),
		Audit: NewAuditRepo(db),
	}
}

// TxRunner runs a function against a Store inside a single database
// transaction. The service layer depends on this interface so unit tests can
// substitute a fake that wires mock repos into fn.
type TxRunner interface {
	// InTx begins a transaction, calls fn with a Store bound to it, and
	// commits. If fn returns an error, or the commit fails, every write made
	// through the Store is rolled back and the error is returned — no partial
	// effect is ever observable outside the scope.
	InTx(ctx context.Context, fn func(s Store) error) error
}

// beginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxStore is the pgx-backed TxRunner.
type TxStore struct {
	db beginner
}

// NewTxStore constructs a TxRunner over the provided pool.
func NewTxStore(db beginner) *TxStore {
	return &TxStore{db: db}
}

// InTx implements TxRunner. The deferred rollback is a no-op once the
// transaction has committed.
func (s *TxStore) InTx(ctx context.Context, fn func(s Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo.TxStore.InTx: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TxStore.InTx: commit: %w", err)
	}
	return nil
}

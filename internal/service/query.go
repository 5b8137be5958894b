package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lcastillo/librarian/internal/domain"
	"github.com/lcastillo/librarian/internal/repo"
)

// Query is the read-only listing surface consumed by UI views and reports.
// It has no side effects and never participates in a transaction.
type Query struct {
	loans repo.LoanRepo
	audit repo.AuditRepo
}

// NewQuery constructs the Query service over pool-bound repos.
func NewQuery(loans repo.LoanRepo, audit repo.AuditRepo) *Query {
	return &Query{loans: loans, audit: audit}
}

// Loan returns a single loan by id, in whatever state it is in.
// Fails with domain.ErrNotFound for an unknown id.
func (q *Query) Loan(ctx context.Context, id uuid.UUID) (domain.Loan, error) {
	loan, err := q.loans.GetByID(ctx, id)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("service.Query.Loan: %w", err)
	}
	return loan, nil
}

// OpenLoans returns OPEN loans ordered by due date ascending, optionally
// filtered by text over item title/author and recipient.
// Always returns a non-nil slice so callers can safely range over it.
func (q *Query) OpenLoans(ctx context.Context, filter string) ([]domain.Loan, error) {
	loans, err := q.loans.ListOpen(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service.Query.OpenLoans: %w", err)
	}
	if loans == nil {
		return []domain.Loan{}, nil
	}
	return loans, nil
}

// History returns loans issued inside the query's date range, most recent
// first, with the same text filter semantics as OpenLoans.
func (q *Query) History(ctx context.Context, hq domain.HistoryQuery) ([]domain.Loan, error) {
	loans, err := q.loans.History(ctx, hq)
	if err != nil {
		return nil, fmt.Errorf("service.Query.History: %w", err)
	}
	if loans == nil {
		return []domain.Loan{}, nil
	}
	return loans, nil
}

// RecentAudit returns the newest audit events, most recent first.
// A non-positive limit falls back to the default of 50.
func (q *Query) RecentAudit(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	events, err := q.audit.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service.Query.RecentAudit: %w", err)
	}
	if events == nil {
		return []domain.AuditEvent{}, nil
	}
	return events, nil
}

package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lcastillo/librarian/internal/domain"
)

// AuditRepo is the append-only trail of committed domain transitions.
// Append is the only write path; rows are never updated or deleted.
// Append has no domain failure modes — only infrastructure errors, which must
// abort the enclosing transaction.
type AuditRepo interface {
	// Append inserts one audit event and returns it with the DB-assigned,
	// monotonically increasing id.
	Append(ctx context.Context, ev domain.AuditEvent) (domain.AuditEvent, error)

	// ListRecent returns events ordered most-recent-first.
	// A non-positive limit falls back to domain.DefaultAuditLimit.
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}

// pgAuditRepo is the Postgres implementation of AuditRepo.
type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs an AuditRepo backed by the provided db connection.
func NewAuditRepo(db db) AuditRepo {
	return &pgAuditRepo{db: db}
}

// Append inserts one event row and returns the persisted record.
func (r *pgAuditRepo) Append(ctx context.Context, ev domain.AuditEvent) (domain.AuditEvent, error) {
	const q = `
		INSERT INTO audit_events (ts, operator_id, event_type, item_code, loan_id, quantity, recipient, detail)
		VALUES (@ts, @operator_id, @event_type, @item_code, @loan_id, @quantity, @recipient, @detail)
		RETURNING id, ts, operator_id, event_type, item_code, loan_id, quantity, recipient, detail`

	args := pgx.NamedArgs{
		"ts":          ev.Timestamp,
		"operator_id": ev.OperatorID,
		"event_type":  string(ev.EventType),
		"item_code":   nullIfEmpty(ev.ItemCode),
		"loan_id":     ev.LoanID, // nil becomes NULL
		"quantity":    ev.Quantity,
		"recipient":   nullIfEmpty(ev.Recipient),
		"detail":      nullIfEmpty(ev.Detail),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanAuditEvent(row)
	if err != nil {
		return domain.AuditEvent{}, fmt.Errorf("repo.AuditRepo.Append: %w", err)
	}
	return result, nil
}

// ListRecent returns the newest events first. The id is the tiebreaker so the
// order stays stable when several events share a timestamp.
func (r *pgAuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	const q = `
		SELECT id, ts, operator_id, event_type, item_code, loan_id, quantity, recipient, detail
		FROM audit_events
		ORDER BY ts DESC, id DESC
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": domain.NormalizeAuditLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.ListRecent: %w", err)
	}
	defer rows.Close()

	events := []domain.AuditEvent{}
	for rows.Next() {
		ev, err := scanAuditEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.AuditRepo.ListRecent: scan: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.ListRecent: rows: %w", err)
	}
	return events, nil
}

// nullIfEmpty maps an empty optional string to SQL NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// scanAuditEvent maps a single database row into a domain.AuditEvent,
// converting the nullable columns.
func scanAuditEvent(s scanner) (domain.AuditEvent, error) {
	var (
		ev        domain.AuditEvent
		eventType string
		itemCode  pgtype.Text
		loanID    pgtype.UUID
		quantity  pgtype.Int4
		recipient pgtype.Text
		detail    pgtype.Text
	)

	err := s.Scan(&ev.ID, &ev.Timestamp, &ev.OperatorID, &eventType,
		&itemCode, &loanID, &quantity, &recipient, &detail)
	if err != nil {
		return domain.AuditEvent{}, err
	}

	ev.EventType = domain.EventType(eventType)
	ev.ItemCode = itemCode.String
	ev.Recipient = recipient.String
	ev.Detail = detail.String
	if loanID.Valid {
		id := uuid.UUID(loanID.Bytes)
		ev.LoanID = &id
	}
	if quantity.Valid {
		qty := int(quantity.Int32)
		ev.Quantity = &qty
	}
	return ev, nil
}

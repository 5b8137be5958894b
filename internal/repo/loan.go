package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lcastillo/librarian/internal/domain"
)

// LoanRepo defines the persistence operations for loans.
//
// The two state transitions (ClaimReturn, ExtendDue) are conditional updates:
// the `state = 'OPEN'` predicate is part of the UPDATE statement itself, so a
// loan can only be claimed or renewed once no matter how many callers race.
type LoanRepo interface {
	// Insert persists a new loan and returns it with the DB-generated id.
	Insert(ctx context.Context, loan domain.Loan) (domain.Loan, error)

	// GetByID retrieves a single loan by primary key.
	// Returns domain.ErrNotFound if no loan with that id exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Loan, error)

	// ClaimReturn atomically transitions an OPEN loan to RETURNED, stamping
	// returnedAt, and returns the updated record — including the quantity,
	// item code, operator, and recipient captured at issue time, which the
	// caller needs for the stock restore and the audit entry.
	// Returns domain.ErrInvalidState if the loan is not OPEN or does not exist.
	ClaimReturn(ctx context.Context, id uuid.UUID, returnedAt time.Time) (domain.Loan, error)

	// ExtendDue atomically advances an OPEN loan's due date by days and returns
	// the updated record.
	// Returns domain.ErrInvalidState if the loan is not OPEN or does not exist.
	ExtendDue(ctx context.Context, id uuid.UUID, days int) (domain.Loan, error)

	// ListOpen returns OPEN loans ordered by due date ascending. The filter is
	// matched case-insensitively against item title, item author, and loan
	// recipient; an empty filter matches everything.
	ListOpen(ctx context.Context, filter string) ([]domain.Loan, error)

	// History returns loans issued inside the query's date range (both bounds
	// inclusive, nil means unbounded), ordered by issue time descending, with
	// the same text filter semantics as ListOpen.
	History(ctx context.Context, q domain.HistoryQuery) ([]domain.Loan, error)
}

// pgLoanRepo is the Postgres implementation of LoanRepo.
type pgLoanRepo struct {
	db db
}

// NewLoanRepo constructs a LoanRepo backed by the provided db connection.
func NewLoanRepo(db db) LoanRepo {
	return &pgLoanRepo{db: db}
}

// loanColumns is the SELECT/RETURNING column list every loan query shares,
// in the order scanLoan expects.
const loanColumns = `id, item_code, operator_id, recipient, quantity, issued_at, due_at, returned_at, state`

// Insert persists a new loan row and returns the full persisted record.
func (r *pgLoanRepo) Insert(ctx context.Context, loan domain.Loan) (domain.Loan, error) {
	const q = `
		INSERT INTO loans (item_code, operator_id, recipient, quantity, issued_at, due_at, state)
		VALUES (@item_code, @operator_id, @recipient, @quantity, @issued_at, @due_at, @state)
		RETURNING ` + loanColumns

	args := pgx.NamedArgs{
		"item_code":   loan.ItemCode,
		"operator_id": loan.OperatorID,
		"recipient":   loan.Recipient,
		"quantity":    loan.Quantity,
		"issued_at":   loan.IssuedAt,
		"due_at":      loan.DueAt,
		"state":       string(loan.State),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanLoan(row)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.Insert: %w", err)
	}
	return result, nil
}

// GetByID retrieves a loan by primary key.
func (r *pgLoanRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Loan, error) {
	const q = `SELECT ` + loanColumns + ` FROM loans WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanLoan(row)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.GetByID: %w", err)
	}
	return result, nil
}

// ClaimReturn transitions the loan to RETURNED in a single conditional update.
// A second concurrent return of the same loan matches zero rows and fails.
func (r *pgLoanRepo) ClaimReturn(ctx context.Context, id uuid.UUID, returnedAt time.Time) (domain.Loan, error) {
	const q = `
		UPDATE loans
		SET state = 'RETURNED', returned_at = @returned_at
		WHERE id = @id AND state = 'OPEN'
		RETURNING ` + loanColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "returned_at": returnedAt})
	result, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Loan{}, fmt.Errorf("repo.LoanRepo.ClaimReturn: %w", domain.ErrInvalidState)
		}
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.ClaimReturn: %w", err)
	}
	return result, nil
}

// ExtendDue advances the due date of an OPEN loan in a single conditional update.
// The parameter is cast explicitly: due_at is a DATE, and an untyped parameter
// leaves `date + unknown` ambiguous between the integer, interval, and time
// overloads of the + operator.
func (r *pgLoanRepo) ExtendDue(ctx context.Context, id uuid.UUID, days int) (domain.Loan, error) {
	const q = `
		UPDATE loans
		SET due_at = due_at + (@days)::integer
		WHERE id = @id AND state = 'OPEN'
		RETURNING ` + loanColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "days": days})
	result, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Loan{}, fmt.Errorf("repo.LoanRepo.ExtendDue: %w", domain.ErrInvalidState)
		}
		return domain.Loan{}, fmt.Errorf("repo.LoanRepo.ExtendDue: %w", err)
	}
	return result, nil
}

// ListOpen returns OPEN loans with the soonest due date first.
func (r *pgLoanRepo) ListOpen(ctx context.Context, filter string) ([]domain.Loan, error) {
	const q = `
		SELECT l.id, l.item_code, l.operator_id, l.recipient, l.quantity,
		       l.issued_at, l.due_at, l.returned_at, l.state
		FROM loans l
		JOIN items i ON i.code = l.item_code
		WHERE l.state = 'OPEN'
		  AND (@filter = ''
		       OR i.title     ILIKE '%' || @filter || '%'
		       OR i.author    ILIKE '%' || @filter || '%'
		       OR l.recipient ILIKE '%' || @filter || '%')
		ORDER BY l.due_at ASC`

	return r.queryLoans(ctx, "ListOpen", q, pgx.NamedArgs{"filter": filter})
}

// History returns loans issued inside the date range, most recent first.
func (r *pgLoanRepo) History(ctx context.Context, hq domain.HistoryQuery) ([]domain.Loan, error) {
	const q = `
		SELECT l.id, l.item_code, l.operator_id, l.recipient, l.quantity,
		       l.issued_at, l.due_at, l.returned_at, l.state
		FROM loans l
		JOIN items i ON i.code = l.item_code
		WHERE (@from_date::date IS NULL OR l.issued_at::date >= @from_date)
		  AND (@to_date::date   IS NULL OR l.issued_at::date <= @to_date)
		  AND (@filter = ''
		       OR i.title     ILIKE '%' || @filter || '%'
		       OR i.author    ILIKE '%' || @filter || '%'
		       OR l.recipient ILIKE '%' || @filter || '%')
		ORDER BY l.issued_at DESC`

	args := pgx.NamedArgs{
		"from_date": hq.From, // nil becomes NULL (unbounded)
		"to_date":   hq.To,
		"filter":    hq.Filter,
	}
	return r.queryLoans(ctx, "History", q, args)
}

// queryLoans runs a multi-row loan query and maps the results.
func (r *pgLoanRepo) queryLoans(ctx context.Context, op, q string, args pgx.NamedArgs) ([]domain.Loan, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.LoanRepo.%s: %w", op, err)
	}
	defer rows.Close()

	loans := []domain.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.LoanRepo.%s: scan: %w", op, err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.LoanRepo.%s: rows: %w", op, err)
	}
	return loans, nil
}

// scanLoan maps a single database row into a domain.Loan.
// It handles the UUID, the DATE due_at column, and the nullable returned_at.
func scanLoan(s scanner) (domain.Loan, error) {
	var (
		loan       domain.Loan
		id         pgtype.UUID
		dueAt      pgtype.Date
		returnedAt pgtype.Timestamptz
		state      string
	)

	err := s.Scan(&id, &loan.ItemCode, &loan.OperatorID, &loan.Recipient, &loan.Quantity,
		&loan.IssuedAt, &dueAt, &returnedAt, &state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Loan{}, domain.ErrNotFound
		}
		return domain.Loan{}, err
	}

	loan.ID = uuid.UUID(id.Bytes)
	loan.DueAt = dueAt.Time
	loan.State = domain.LoanState(state)
	if returnedAt.Valid {
		ret := returnedAt.Time
		loan.ReturnedAt = &ret
	}
	return loan, nil
}

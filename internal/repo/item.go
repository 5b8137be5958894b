// Package repo contains all database access logic for the lending engine.
// Each aggregate has its own file with an interface and a Postgres
// implementation. No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lcastillo/librarian/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly lets the
// transaction coordinator bind the same repo code to a pgx.Tx, and lets
// integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ItemRepo is the inventory ledger: it owns each item's available quantity and
// active flag, and provides the only legal mutation paths for the quantity.
// The service layer depends on this interface, not the Postgres implementation.
type ItemRepo interface {
	// Create inserts a new catalog item and returns the persisted record.
	// Returns domain.ErrInvalidInput if the code is already taken.
	Create(ctx context.Context, item domain.Item) (domain.Item, error)

	// GetByCode retrieves a single item by its business key.
	// Returns domain.ErrNotFound if no item with that code exists.
	GetByCode(ctx context.Context, code string) (domain.Item, error)

	// List returns items whose code, title, or author matches the filter
	// case-insensitively, ordered by title. An empty filter matches everything.
	List(ctx context.Context, filter string) ([]domain.Item, error)

	// Decrement atomically reduces available_qty by qty, but only if the
	// current quantity covers it — the guard is part of the UPDATE itself, so
	// two concurrent decrements can never both succeed past zero.
	// Returns domain.ErrInsufficientStock if stock is short, domain.ErrNotFound
	// if the item does not exist. Performs no mutation on failure.
	Decrement(ctx context.Context, code string, qty int) error

	// Increment unconditionally adds qty back to available_qty.
	// Returns domain.ErrNotFound if the item does not exist.
	Increment(ctx context.Context, code string, qty int) error

	// SetActive updates the item's active flag.
	// Returns domain.ErrNotFound if the item does not exist.
	// The open-loans integrity guard lives in the catalog service, which runs
	// it in the same transaction as this update.
	SetActive(ctx context.Context, code string, active bool) error

	// HasOpenLoans reports whether any OPEN loan references the item.
	HasOpenLoans(ctx context.Context, code string) (bool, error)
}

// pgItemRepo is the Postgres implementation of ItemRepo.
type pgItemRepo struct {
	db db
}

// NewItemRepo constructs an ItemRepo backed by the provided db connection.
// In production pass *pgxpool.Pool or a pgx.Tx bound by the transaction scope.
func NewItemRepo(db db) ItemRepo {
	return &pgItemRepo{db: db}
}

// uniqueViolation is the Postgres SQLSTATE for a unique constraint breach.
const uniqueViolation = "23505"

// Create inserts a new item row and returns the full persisted record.
func (r *pgItemRepo) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	const q = `
		INSERT INTO items (code, title, author, available_qty, active)
		VALUES (@code, @title, @author, @available_qty, @active)
		RETURNING code, title, author, available_qty, active, created_at`

	args := pgx.NamedArgs{
		"code":          item.Code,
		"title":         item.Title,
		"author":        item.Author,
		"available_qty": item.AvailableQty,
		"active":        item.Active,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanItem(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Item{}, fmt.Errorf("repo.ItemRepo.Create: %w: item code already exists", domain.ErrInvalidInput)
		}
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.Create: %w", err)
	}
	return result, nil
}

// GetByCode retrieves an item by its business key.
func (r *pgItemRepo) GetByCode(ctx context.Context, code string) (domain.Item, error) {
	const q = `
		SELECT code, title, author, available_qty, active, created_at
		FROM items
		WHERE code = @code`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"code": code})
	result, err := scanItem(row)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.GetByCode: %w", err)
	}
	return result, nil
}

// List returns items matching the filter case-insensitively, ordered by title.
func (r *pgItemRepo) List(ctx context.Context, filter string) ([]domain.Item, error) {
	const q = `
		SELECT code, title, author, available_qty, active, created_at
		FROM items
		WHERE @filter = ''
		   OR code   ILIKE '%' || @filter || '%'
		   OR title  ILIKE '%' || @filter || '%'
		   OR author ILIKE '%' || @filter || '%'
		ORDER BY title`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"filter": filter})
	if err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.List: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ItemRepo.List: scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.List: rows: %w", err)
	}
	return items, nil
}

// Decrement reduces available_qty with the stock guard inside the UPDATE.
// When no row is affected the failure cause is disambiguated with a follow-up
// read: a missing item is ErrNotFound, an existing one is ErrInsufficientStock.
func (r *pgItemRepo) Decrement(ctx context.Context, code string, qty int) error {
	const q = `
		UPDATE items
		SET available_qty = available_qty - @qty
		WHERE code = @code
		  AND available_qty >= @qty`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"code": code, "qty": qty})
	if err != nil {
		return fmt.Errorf("repo.ItemRepo.Decrement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByCode(ctx, code); err != nil {
			return fmt.Errorf("repo.ItemRepo.Decrement: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("repo.ItemRepo.Decrement: %w", domain.ErrInsufficientStock)
	}
	return nil
}

// Increment adds qty back to available_qty.
func (r *pgItemRepo) Increment(ctx context.Context, code string, qty int) error {
	const q = `
		UPDATE items
		SET available_qty = available_qty + @qty
		WHERE code = @code`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"code": code, "qty": qty})
	if err != nil {
		return fmt.Errorf("repo.ItemRepo.Increment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItemRepo.Increment: %w", domain.ErrNotFound)
	}
	return nil
}

// SetActive updates the item's active flag.
func (r *pgItemRepo) SetActive(ctx context.Context, code string, active bool) error {
	const q = `UPDATE items SET active = @active WHERE code = @code`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"code": code, "active": active})
	if err != nil {
		return fmt.Errorf("repo.ItemRepo.SetActive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItemRepo.SetActive: %w", domain.ErrNotFound)
	}
	return nil
}

// HasOpenLoans reports whether any OPEN loan references the item.
func (r *pgItemRepo) HasOpenLoans(ctx context.Context, code string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM loans WHERE item_code = @code AND state = 'OPEN')`

	var open bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"code": code}).Scan(&open); err != nil {
		return false, fmt.Errorf("repo.ItemRepo.HasOpenLoans: %w", err)
	}
	return open, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanItem maps a single database row into a domain.Item.
func scanItem(s scanner) (domain.Item, error) {
	var item domain.Item
	err := s.Scan(&item.Code, &item.Title, &item.Author, &item.AvailableQty, &item.Active, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, err
	}
	return item, nil
}

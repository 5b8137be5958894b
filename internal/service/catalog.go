package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lcastillo/librarian/internal/domain"
	"github.com/lcastillo/librarian/internal/repo"
)

// Catalog is the item boundary used by catalog management. Reads go straight
// to the item repo; SetActive runs in a transaction because the deactivation
// guard, the flag flip, and the audit entry must commit together.
type Catalog struct {
	items repo.ItemRepo
	store repo.TxRunner
	now   func() time.Time
}

// NewCatalog constructs a Catalog. items should be bound to the pool; store
// provides the transactional scope for SetActive.
func NewCatalog(items repo.ItemRepo, store repo.TxRunner) *Catalog {
	return &Catalog{items: items, store: store, now: time.Now}
}

// CreateItem validates and persists a new catalog item.
// Returns domain.ErrInvalidInput on blank identifiers or negative stock.
func (c *Catalog) CreateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	if err := validateItem(item); err != nil {
		return domain.Item{}, err
	}
	item.Code = strings.TrimSpace(item.Code)

	result, err := c.items.Create(ctx, item)
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.Catalog.CreateItem: %w", err)
	}
	return result, nil
}

// GetItem returns a single item by code.
func (c *Catalog) GetItem(ctx context.Context, code string) (domain.Item, error) {
	item, err := c.items.GetByCode(ctx, code)
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.Catalog.GetItem: %w", err)
	}
	return item, nil
}

// ListItems returns items matching the optional text filter.
// Always returns a non-nil slice so callers can safely range over it.
func (c *Catalog) ListItems(ctx context.Context, filter string) ([]domain.Item, error) {
	items, err := c.items.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service.Catalog.ListItems: %w", err)
	}
	if items == nil {
		return []domain.Item{}, nil
	}
	return items, nil
}

// HasOpenLoans reports whether the item has any OPEN loan, letting catalog
// management decide whether a deactivation is legal before attempting it.
// SetItemActive enforces the same rule itself as the last-resort guard.
func (c *Catalog) HasOpenLoans(ctx context.Context, code string) (bool, error) {
	open, err := c.items.HasOpenLoans(ctx, code)
	if err != nil {
		return false, fmt.Errorf("service.Catalog.HasOpenLoans: %w", err)
	}
	return open, nil
}

// SetItemActive flips the item's active flag and appends the matching
// ACTIVATE_ITEM / DEACTIVATE_ITEM audit event in one transaction.
// Deactivation is refused with domain.ErrIntegrityViolation while the item has
// open loans; the check runs inside the same transaction as the update, so a
// loan issued concurrently cannot slip between check and flip.
func (c *Catalog) SetItemActive(ctx context.Context, operatorID, code string, active bool) (domain.Item, error) {
	if strings.TrimSpace(operatorID) == "" {
		return domain.Item{}, fmt.Errorf("%w: operator is required", domain.ErrInvalidInput)
	}

	var updated domain.Item
	err := c.store.InTx(ctx, func(s repo.Store) error {
		if !active {
			open, err := s.Items.HasOpenLoans(ctx, code)
			if err != nil {
				return err
			}
			if open {
				return fmt.Errorf("item %s has open loans: %w", code, domain.ErrIntegrityViolation)
			}
		}

		if err := s.Items.SetActive(ctx, code, active); err != nil {
			return err
		}

		eventType := domain.EventActivateItem
		if !active {
			eventType = domain.EventDeactivateItem
		}
		if _, err := s.Audit.Append(ctx, domain.AuditEvent{
			Timestamp:  c.now(),
			OperatorID: operatorID,
			EventType:  eventType,
			ItemCode:   code,
		}); err != nil {
			return err
		}

		var err error
		updated, err = s.Items.GetByCode(ctx, code)
		return err
	})
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.Catalog.SetItemActive: %w", err)
	}
	return updated, nil
}

// validateItem enforces the rules common to item creation.
//   - Code, title, and author must be non-blank.
//   - Available quantity must not be negative.
func validateItem(item domain.Item) error {
	if strings.TrimSpace(item.Code) == "" {
		return fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(item.Author) == "" {
		return fmt.Errorf("%w: author is required", domain.ErrInvalidInput)
	}
	if item.AvailableQty < 0 {
		return fmt.Errorf("%w: available quantity must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcastillo/librarian/internal/domain"
	"github.com/lcastillo/librarian/internal/repo"
	"github.com/lcastillo/librarian/internal/service"
)

// ---- CreateItem ------------------------------------------------------------

func TestCatalog_CreateItem_OK(t *testing.T) {
	items := &mockItemRepo{
		create: func(_ context.Context, item domain.Item) (domain.Item, error) {
			return item, nil
		},
	}
	catalog := service.NewCatalog(items, nil)

	got, err := catalog.CreateItem(context.Background(), domain.Item{
		Code: " X1 ", Title: "Clean Code", Author: "Robert C. Martin", AvailableQty: 2, Active: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "X1", got.Code, "code is trimmed before persistence")
}

func TestCatalog_CreateItem_Invalid(t *testing.T) {
	catalog := service.NewCatalog(&mockItemRepo{}, nil)

	tests := []struct {
		name string
		item domain.Item
	}{
		{"blank code", domain.Item{Title: "t", Author: "a"}},
		{"blank title", domain.Item{Code: "X1", Author: "a"}},
		{"blank author", domain.Item{Code: "X1", Title: "t"}},
		{"negative stock", domain.Item{Code: "X1", Title: "t", Author: "a", AvailableQty: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := catalog.CreateItem(context.Background(), tc.item)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

// ---- SetItemActive ---------------------------------------------------------

func TestCatalog_SetItemActive_Deactivate_OK(t *testing.T) {
	audit := &recordingAuditRepo{}
	flipped := false
	items := &mockItemRepo{
		hasOpenLoans: func(_ context.Context, _ string) (bool, error) { return false, nil },
		setActive: func(_ context.Context, _ string, active bool) error {
			flipped = true
			assert.False(t, active)
			return nil
		},
		getByCode: func(_ context.Context, code string) (domain.Item, error) {
			item := activeItem(code, 4)
			item.Active = false
			return item, nil
		},
	}
	catalog := service.NewCatalog(items, &fakeTxRunner{store: repo.Store{Items: items, Audit: audit}})

	got, err := catalog.SetItemActive(context.Background(), "op", "X3", false)

	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.True(t, flipped)
	require.Equal(t, 1, audit.len())
	assert.Equal(t, domain.EventDeactivateItem, audit.events[0].EventType)
	assert.Equal(t, "X3", audit.events[0].ItemCode)
	assert.Nil(t, audit.events[0].LoanID)
}

func TestCatalog_SetItemActive_Deactivate_OpenLoans(t *testing.T) {
	audit := &recordingAuditRepo{}
	items := &mockItemRepo{
		hasOpenLoans: func(_ context.Context, _ string) (bool, error) { return true, nil },
		setActive: func(_ context.Context, _ string, _ bool) error {
			t.Fatal("setActive must not be called when the integrity guard fires")
			return nil
		},
	}
	catalog := service.NewCatalog(items, &fakeTxRunner{store: repo.Store{Items: items, Audit: audit}})

	_, err := catalog.SetItemActive(context.Background(), "op", "X3", false)

	assert.ErrorIs(t, err, domain.ErrIntegrityViolation)
	assert.Zero(t, audit.len())
}

func TestCatalog_SetItemActive_Activate_SkipsGuard(t *testing.T) {
	// Reactivation is always legal; the open-loans guard only gates
	// deactivation.
	audit := &recordingAuditRepo{}
	items := &mockItemRepo{
		hasOpenLoans: func(_ context.Context, _ string) (bool, error) {
			t.Fatal("hasOpenLoans must not be consulted when activating")
			return false, nil
		},
		setActive: func(_ context.Context, _ string, active bool) error {
			assert.True(t, active)
			return nil
		},
		getByCode: func(_ context.Context, code string) (domain.Item, error) {
			return activeItem(code, 4), nil
		},
	}
	catalog := service.NewCatalog(items, &fakeTxRunner{store: repo.Store{Items: items, Audit: audit}})

	got, err := catalog.SetItemActive(context.Background(), "op", "X3", true)

	require.NoError(t, err)
	assert.True(t, got.Active)
	require.Equal(t, 1, audit.len())
	assert.Equal(t, domain.EventActivateItem, audit.events[0].EventType)
}

func TestCatalog_SetItemActive_NotFound(t *testing.T) {
	items := &mockItemRepo{
		hasOpenLoans: func(_ context.Context, _ string) (bool, error) { return false, nil },
		setActive: func(_ context.Context, _ string, _ bool) error {
			return domain.ErrNotFound
		},
	}
	catalog := service.NewCatalog(items, &fakeTxRunner{store: repo.Store{Items: items, Audit: &recordingAuditRepo{}}})

	_, err := catalog.SetItemActive(context.Background(), "op", "NOPE", false)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalog_SetItemActive_BlankOperator(t *testing.T) {
	catalog := service.NewCatalog(&mockItemRepo{}, nil)

	_, err := catalog.SetItemActive(context.Background(), "  ", "X1", false)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ---- reads -----------------------------------------------------------------

func TestCatalog_ListItems_NeverNil(t *testing.T) {
	items := &mockItemRepo{
		list: func(_ context.Context, _ string) ([]domain.Item, error) { return nil, nil },
	}
	catalog := service.NewCatalog(items, nil)

	got, err := catalog.ListItems(context.Background(), "")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCatalog_HasOpenLoans(t *testing.T) {
	items := &mockItemRepo{
		hasOpenLoans: func(_ context.Context, code string) (bool, error) {
			return code == "X3", nil
		},
	}
	catalog := service.NewCatalog(items, nil)

	open, err := catalog.HasOpenLoans(context.Background(), "X3")
	require.NoError(t, err)
	assert.True(t, open)

	open, err = catalog.HasOpenLoans(context.Background(), "X1")
	require.NoError(t, err)
	assert.False(t, open)
}

package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcastillo/librarian/internal/domain"
)

// TestListAudit_LimitForwarded verifies ?limit= reaches the query service.
func TestListAudit_LimitForwarded(t *testing.T) {
	queries := &stubQueries{
		recentAudit: func(_ context.Context, limit int) ([]domain.AuditEvent, error) {
			assert.Equal(t, 10, limit)
			return []domain.AuditEvent{{ID: 1, EventType: domain.EventIssue, OperatorID: "clerk-1"}}, nil
		},
	}

	rec := doJSON(t, newTestRouter(nil, nil, queries), http.MethodGet, "/audit?limit=10", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var events []domain.AuditEvent
	decodeBody(t, rec, &events)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventIssue, events[0].EventType)
}

// TestListAudit_MalformedLimit verifies a garbage limit degrades to zero and
// the request still succeeds; the default kicks in downstream.
func TestListAudit_MalformedLimit(t *testing.T) {
	queries := &stubQueries{
		recentAudit: func(_ context.Context, limit int) ([]domain.AuditEvent, error) {
			assert.Zero(t, limit)
			return []domain.AuditEvent{}, nil
		},
	}

	rec := doJSON(t, newTestRouter(nil, nil, queries), http.MethodGet, "/audit?limit=abc", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
}

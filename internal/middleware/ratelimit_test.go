package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcastillo/librarian/internal/middleware"
)

// TestRateLimiter_WithinBurst_PassesThrough verifies that requests inside the
// burst allowance reach the handler.
func TestRateLimiter_WithinBurst_PassesThrough(t *testing.T) {
	h := middleware.NewRateLimiter(1, 3)(trivialHandler)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d inside burst", i)
	}
}

// TestRateLimiter_BeyondBurst_Returns429 verifies that once the burst is
// spent, further requests are rejected with 429 until tokens refill.
func TestRateLimiter_BeyondBurst_Returns429(t *testing.T) {
	// Near-zero refill rate so the burst cannot replenish mid-test.
	h := middleware.NewRateLimiter(0.0001, 1)(trivialHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

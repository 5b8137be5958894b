package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lcastillo/librarian/internal/domain"
	"github.com/lcastillo/librarian/internal/middleware"
)

// CreateItemRequest is the body for POST /items.
type CreateItemRequest struct {
	Code         string `json:"code"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	AvailableQty int    `json:"available_qty"`
	Active       *bool  `json:"active,omitempty"` // defaults to true
}

// SetActiveRequest is the body for PATCH /items/{code}/active.
type SetActiveRequest struct {
	Active *bool `json:"active"`
}

// CreateItem handles POST /items.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	item := domain.Item{
		Code:         req.Code,
		Title:        req.Title,
		Author:       req.Author,
		AvailableQty: req.AvailableQty,
		Active:       true,
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	created, err := s.catalog.CreateItem(r.Context(), item)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, created)
}

// GetItem handles GET /items/{code}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.catalog.GetItem(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

// ListItems handles GET /items with an optional ?q= text filter.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.ListItems(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, items)
}

// GetOpenLoanFlag handles GET /items/{code}/open-loans. Catalog management
// calls this before offering deactivation; the engine still enforces the same
// rule on the PATCH as the last-resort guard.
func (s *Server) GetOpenLoanFlag(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	// 404 for unknown items rather than a misleading "no open loans".
	if _, err := s.catalog.GetItem(r.Context(), code); err != nil {
		respondError(w, err)
		return
	}

	open, err := s.catalog.HasOpenLoans(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"has_open_loans": open})
}

// SetItemActive handles PATCH /items/{code}/active.
func (s *Server) SetItemActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		respondBadRequest(w, "body must be {\"active\": true|false}")
		return
	}

	item, err := s.catalog.SetItemActive(r.Context(), middleware.OperatorID(r.Context()), chi.URLParam(r, "code"), *req.Active)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, item)
}

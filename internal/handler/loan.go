package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lcastillo/librarian/internal/domain"
	"github.com/lcastillo/librarian/internal/middleware"
)

// IssueLoanRequest is the body for POST /loans.
type IssueLoanRequest struct {
	ItemCode  string `json:"item_code"`
	Recipient string `json:"recipient"`
	Quantity  int    `json:"quantity"`
	Days      int    `json:"days"`
}

// RenewLoanRequest is the body for POST /loans/{id}/renew.
type RenewLoanRequest struct {
	Days int `json:"days"`
}

// IssueLoan handles POST /loans. The operator comes from the identity
// middleware, never from the body.
func (s *Server) IssueLoan(w http.ResponseWriter, r *http.Request) {
	var req IssueLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	loan, err := s.engine.Issue(r.Context(), middleware.OperatorID(r.Context()),
		req.ItemCode, req.Recipient, req.Quantity, req.Days)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, loan)
}

// ReturnLoan handles POST /loans/{id}/return.
func (s *Server) ReturnLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondBadRequest(w, "invalid loan id")
		return
	}

	loan, err := s.engine.Return(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, loan)
}

// RenewLoan handles POST /loans/{id}/renew.
func (s *Server) RenewLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondBadRequest(w, "invalid loan id")
		return
	}

	var req RenewLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	loan, err := s.engine.Renew(r.Context(), id, req.Days)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, loan)
}

// GetLoan handles GET /loans/{id}.
func (s *Server) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondBadRequest(w, "invalid loan id")
		return
	}

	loan, err := s.queries.Loan(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, loan)
}

// ListOpenLoans handles GET /loans/open with an optional ?q= text filter.
func (s *Server) ListOpenLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.queries.OpenLoans(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, loans)
}

// LoanHistory handles GET /loans/history?from=&to=&q=.
// from and to are inclusive YYYY-MM-DD bounds; both are optional.
func (s *Server) LoanHistory(w http.ResponseWriter, r *http.Request) {
	q := domain.HistoryQuery{Filter: r.URL.Query().Get("q")}

	var err error
	if q.From, err = parseDateParam(r, "from"); err != nil {
		respondBadRequest(w, "from must be a YYYY-MM-DD date")
		return
	}
	if q.To, err = parseDateParam(r, "to"); err != nil {
		respondBadRequest(w, "to must be a YYYY-MM-DD date")
		return
	}

	loans, err := s.queries.History(r.Context(), q)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, loans)
}

// parseDateParam reads an optional YYYY-MM-DD query parameter.
// Returns nil when the parameter is absent.
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

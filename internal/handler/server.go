// Package handler implements the HTTP boundary of the lending engine.
// All handlers are methods on Server. Methods are split into domain-specific
// files (item.go, loan.go, audit.go) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lcastillo/librarian/internal/domain"
	"github.com/lcastillo/librarian/internal/middleware"
)

// LoanEngine defines the transaction-coordinator operations the loan handlers
// depend on. Defining the interface here (in the consumer package) follows the
// Go convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type LoanEngine interface {
	Issue(ctx context.Context, operatorID, itemCode, recipient string, quantity, days int) (domain.Loan, error)
	Return(ctx context.Context, loanID uuid.UUID) (domain.Loan, error)
	Renew(ctx context.Context, loanID uuid.UUID, extraDays int) (domain.Loan, error)
}

// CatalogServicer defines the item-boundary operations the item handlers
// depend on.
type CatalogServicer interface {
	CreateItem(ctx context.Context, item domain.Item) (domain.Item, error)
	GetItem(ctx context.Context, code string) (domain.Item, error)
	ListItems(ctx context.Context, filter string) ([]domain.Item, error)
	HasOpenLoans(ctx context.Context, code string) (bool, error)
	SetItemActive(ctx context.Context, operatorID, code string, active bool) (domain.Item, error)
}

// QueryServicer defines the read-only listing operations.
type QueryServicer interface {
	Loan(ctx context.Context, id uuid.UUID) (domain.Loan, error)
	OpenLoans(ctx context.Context, filter string) ([]domain.Loan, error)
	History(ctx context.Context, q domain.HistoryQuery) ([]domain.Loan, error)
	RecentAudit(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	engine  LoanEngine
	catalog CatalogServicer
	queries QueryServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(engine LoanEngine, catalog CatalogServicer, queries QueryServicer) *Server {
	return &Server{engine: engine, catalog: catalog, queries: queries}
}

// Router builds the chi router for the API. Mutating routes require an
// operator identity via the X-Operator-Id header; read paths do not.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.Health)
	r.Get("/audit", s.ListAudit)

	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.ListItems)
		r.Get("/{code}", s.GetItem)
		r.Get("/{code}/open-loans", s.GetOpenLoanFlag)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOperator)
			r.Post("/", s.CreateItem)
			r.Patch("/{code}/active", s.SetItemActive)
		})
	})

	r.Route("/loans", func(r chi.Router) {
		r.Get("/open", s.ListOpenLoans)
		r.Get("/history", s.LoanHistory)
		r.Get("/{id}", s.GetLoan)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOperator)
			r.Post("/", s.IssueLoan)
			r.Post("/{id}/return", s.ReturnLoan)
			r.Post("/{id}/renew", s.RenewLoan)
		})
	})

	return r
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

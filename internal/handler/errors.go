package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lcastillo/librarian/internal/domain"
)

// ErrorResponse is the JSON error envelope every endpoint uses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respond writes v as JSON with the given status code.
func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError maps a service error onto the HTTP taxonomy:
// NotFound → 404, InvalidInput → 422, the four domain conflicts → 409,
// anything else → 500 with a generic message (infrastructure details never
// leak to clients; the error is logged instead).
func respondError(w http.ResponseWriter, err error) {
	status, code := errStatus(err)
	msg := unwrapMessage(err)
	if status == http.StatusInternalServerError {
		slog.Error("internal error", "error", err)
		msg = "internal error"
	}
	respond(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}

// respondBadRequest rejects a request before it reaches the service layer
// (missing or malformed body, bad path parameter).
func respondBadRequest(w http.ResponseWriter, message string) {
	respond(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error: ErrorDetail{Code: "invalid_input", Message: message},
	})
}

// errStatus resolves a domain sentinel to its HTTP status and error code.
func errStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity, "invalid_input"
	case errors.Is(err, domain.ErrItemInactive):
		return http.StatusConflict, "item_inactive"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrIntegrityViolation):
		return http.StatusConflict, "integrity_violation"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// unwrapMessage strips the layer prefixes the service and repo add while
// wrapping, e.g. "service.Engine.Issue: repo.ItemRepo.Decrement: insufficient
// stock" → "insufficient stock". A prefix is recognized by its package-dotted
// shape so the human-readable tail survives untouched.
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for {
		head, tail, found := strings.Cut(msg, ": ")
		if !found || !strings.Contains(head, ".") || strings.ContainsAny(head, " ") {
			return msg
		}
		msg = tail
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// OperatorHeader is the request header that identifies the person performing
// a mutating operation. Its value ends up on loans and audit events.
const OperatorHeader = "X-Operator-Id"

type ctxKey int

const operatorKey ctxKey = 0

// RequireOperator rejects requests that carry no operator identity and places
// the identity in the request context for downstream handlers. Mount it on
// mutating route groups only; read paths stay anonymous.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operator := strings.TrimSpace(r.Header.Get(OperatorHeader))
		if operator == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{
					"code":    "missing_operator",
					"message": OperatorHeader + " header is required",
				},
			})
			return
		}
		ctx := context.WithValue(r.Context(), operatorKey, operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperatorID returns the operator identity stored by RequireOperator, or the
// empty string when the middleware did not run for this request.
func OperatorID(ctx context.Context) string {
	operator, _ := ctx.Value(operatorKey).(string)
	return operator
}

package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	request "vitrine/pkg/platform/middleware/request"
	"vitrine/pkg/requestcontext"
)

// RequireReviewer admits requests whose bearer token carries the reviewer role,
// or back-office calls presenting the shared X-Admin-Token. An empty
// expectedToken disables the token path.
func RequireReviewer(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.HasRole(ctx, requestcontext.RoleReviewer) {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get("X-Admin-Token")
			// Use constant-time comparison to prevent timing attacks
			if expectedToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			logger.WarnContext(ctx, "reviewer access denied",
				"request_id", request.GetRequestID(ctx),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"reviewer role required"}`))
		})
	}
}

package middleware

import (
	"net/http"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/auth"
)

// RequireUser rejects requests without a reviewer identity with 401.
// Must be applied after Identify.
func RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.IdentityFromContext(r.Context()).IsUser() {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing credentials")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests without the admin identity. status is the
// code written on failure: the user roster answers 403, everything else 401.
// Must be applied after Identify.
func RequireAdmin(status int) func(http.Handler) http.Handler {
	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.IdentityFromContext(r.Context()).IsAdmin() {
				writeError(w, status, code, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

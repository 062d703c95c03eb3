package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/auth"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/metrics"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
)

// Identity headers presented by the review front end.
const (
	UserEmailHeader  = "X-User-Email"
	APITokenHeader   = "X-Api-Token"
	AdminTokenHeader = "X-Admin-Token"
)

// IdentityResolver maps presented credentials to an identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, creds auth.Credentials) (model.Identity, error)
}

// AuthConfig holds configuration for the identity middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Resolver IdentityResolver
	Metrics  metrics.Recorder
}

// Identify returns a middleware that resolves the identity headers and
// injects the result into the request context. It never rejects a request
// for bad credentials; RequireUser and RequireAdmin do that. Store failures
// during resolution end the request with 500.
func Identify(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds := credentialsFromRequest(r)

			identity, err := cfg.Resolver.Resolve(r.Context(), creds)
			if err != nil {
				cfg.Logger.Error("identity resolution failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
				return
			}

			presented := creds.AdminToken != "" || creds.Email != "" || creds.Token != ""
			if identity.Level == model.Unauthorized && presented {
				kind := "user"
				if creds.AdminToken != "" {
					kind = "admin"
				}
				recorder.IncAuthFailure(kind)
				cfg.Logger.Warn("authentication failed",
					slog.String("kind", kind),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// credentialsFromRequest reads the identity headers.
func credentialsFromRequest(r *http.Request) auth.Credentials {
	return auth.Credentials{
		Email:      strings.TrimSpace(r.Header.Get(UserEmailHeader)),
		Token:      strings.TrimSpace(r.Header.Get(APITokenHeader)),
		AdminToken: strings.TrimSpace(r.Header.Get(AdminTokenHeader)),
	}
}

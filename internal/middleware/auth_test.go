package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/auth"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/metrics"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
)

type fakeResolver struct {
	identity model.Identity
	err      error
	got      auth.Credentials
}

func (f *fakeResolver) Resolve(ctx context.Context, creds auth.Credentials) (model.Identity, error) {
	f.got = creds
	return f.identity, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIdentify_InjectsIdentity(t *testing.T) {
	resolver := &fakeResolver{identity: model.UserIdentity("a@x.com")}

	var seen model.Identity
	handler := Identify(AuthConfig{Logger: discardLogger(), Resolver: resolver})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
	req.Header.Set(UserEmailHeader, " a@x.com ")
	req.Header.Set(APITokenHeader, "T1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if resolver.got.Email != "a@x.com" || resolver.got.Token != "T1" || resolver.got.AdminToken != "" {
		t.Errorf("resolver got %+v", resolver.got)
	}
	if seen != model.UserIdentity("a@x.com") {
		t.Errorf("identity = %+v", seen)
	}
}

func TestIdentify_RecordsFailures(t *testing.T) {
	testCases := []struct {
		name      string
		headers   map[string]string
		wantUser  uint64
		wantAdmin uint64
	}{
		{"no credentials is not a failure", nil, 0, 0},
		{"bad reviewer token", map[string]string{UserEmailHeader: "a@x.com", APITokenHeader: "WRONG"}, 1, 0},
		{"bad admin token", map[string]string{AdminTokenHeader: "nope"}, 0, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := metrics.NewInMemory()
			var logs bytes.Buffer
			cfg := AuthConfig{
				Logger:   slog.New(slog.NewJSONHandler(&logs, nil)),
				Resolver: &fakeResolver{identity: model.Identity{Level: model.Unauthorized}},
				Metrics:  recorder,
			}

			var called bool
			handler := Identify(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if !called {
				t.Error("Identify must not reject requests itself")
			}
			snap := recorder.Snapshot()
			if snap.UserAuthFailures != tc.wantUser || snap.AdminAuthFailures != tc.wantAdmin {
				t.Errorf("failures user=%d admin=%d, want %d/%d", snap.UserAuthFailures, snap.AdminAuthFailures, tc.wantUser, tc.wantAdmin)
			}
			for _, h := range []string{APITokenHeader, AdminTokenHeader} {
				if v := tc.headers[h]; v != "" && bytes.Contains(logs.Bytes(), []byte(v)) {
					t.Errorf("log contains %s value", h)
				}
			}
		})
	}
}

func TestIdentify_ResolverError(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("connection refused")}

	handler := Identify(AuthConfig{Logger: discardLogger(), Resolver: resolver})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
	req.Header.Set(UserEmailHeader, "a@x.com")
	req.Header.Set(APITokenHeader, "T1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	assertErrorCode(t, rec, "INTERNAL_ERROR")
}

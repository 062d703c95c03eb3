package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/auth"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/handler/dto"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/repository"
)

func newTestAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	store := repository.NewMemoryStore()
	if err := store.CreateUser(context.Background(), &model.User{Name: "Ada", Email: "ada@x.com", APIToken: "T1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	resolver := auth.NewResolver(store, auth.AdminSecret{Token: "admin-secret"}, nil)
	return NewAuthHandler(resolver, discardLogger())
}

func TestAuthHandler_Login(t *testing.T) {
	h := newTestAuthHandler(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid token", `{"apiToken":"T1"}`, http.StatusOK},
		{"valid token and email", `{"apiToken":"T1","email":"ada@x.com"}`, http.StatusOK},
		{"token of another email", `{"apiToken":"T1","email":"bob@x.com"}`, http.StatusUnauthorized},
		{"unknown token", `{"apiToken":"nope"}`, http.StatusUnauthorized},
		{"missing token", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth", jsonBody(t, tt.body)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if user := decodeJSON[model.User](t, rec); user.Email != "ada@x.com" || user.Name != "Ada" {
					t.Errorf("user = %+v", user)
				}
			}
		})
	}
}

func TestAuthHandler_AdminLogin(t *testing.T) {
	h := newTestAuthHandler(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"token":"admin-secret"}`, http.StatusOK},
		{"wrong", `{"token":"guess"}`, http.StatusUnauthorized},
		{"missing", `{}`, http.StatusUnauthorized},
		{"malformed", `{"token"`, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.AdminLogin(rec, httptest.NewRequest(http.MethodPost, "/api/admin/auth", jsonBody(t, tt.body)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if got := decodeJSON[dto.AdminAuthResponse](t, rec); !got.Authenticated {
					t.Error("expected authenticated:true")
				}
			}
		})
	}
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/handler/dto"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
)

// TokenResolver checks login credentials.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.User, model.Identity, error)
	ResolveAdmin(token string) model.Identity
}

// AuthHandler serves the login endpoints the front end uses to check
// credentials before storing them.
type AuthHandler struct {
	resolver TokenResolver
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(resolver TokenResolver, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// Login handles POST /api/auth. It returns the reviewer owning the token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, identity, err := h.resolver.ResolveToken(r.Context(), strings.TrimSpace(req.APIToken))
	if err != nil {
		h.logger.Error("failed to resolve token", "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	email := strings.TrimSpace(req.Email)
	if !identity.IsUser() || (email != "" && email != user.Email) {
		writeErrorJSON(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API token")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// AdminLogin handles POST /api/admin/auth.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.AdminAuthRequest
	if err := decodeRequest(r, &req); err != nil {
		// A missing token is a failed login, not a malformed request.
		writeErrorJSON(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid admin token")
		return
	}

	if !h.resolver.ResolveAdmin(req.Token).IsAdmin() {
		writeErrorJSON(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid admin token")
		return
	}

	writeJSON(w, http.StatusOK, dto.AdminAuthResponse{Authenticated: true})
}

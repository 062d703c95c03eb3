package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/handler/dto"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/service"
)

// UserHandler handles the admin-only reviewer roster.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/users. Tokens are included so the admin can hand
// them out.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	users, err := h.svc.List(ctx)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := h.svc.Create(r.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		APIToken: req.APIToken,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("user_created", "token_generated", req.APIToken == "")

	writeJSON(w, http.StatusCreated, user)
}

// Delete handles DELETE /api/users?email={email}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeErrorJSON(w, http.StatusBadRequest, "MISSING_EMAIL", "Email parameter required")
		return
	}

	if err := h.svc.Delete(r.Context(), email); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("user_deleted")

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "User deleted successfully"})
}

// Export handles GET /api/admin/export.
func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	export, err := h.svc.Export(ctx)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("data_exported",
		"users", len(export.Users),
		"reviews", len(export.Reviews),
	)

	writeJSON(w, http.StatusOK, export)
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrEmailRequired):
		writeErrorJSON(w, http.StatusBadRequest, "VALIDATION_ERROR", "email is required")
	case errors.Is(err, service.ErrUserExists):
		writeErrorJSON(w, http.StatusConflict, "USER_EXISTS", "User already exists")
	case errors.Is(err, service.ErrUserNotFound):
		writeErrorJSON(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	default:
		h.logger.Error("unexpected service error",
			"error", err,
			"path", r.URL.Path,
		)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

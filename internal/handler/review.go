package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/auth"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/handler/dto"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/service"
)

// adminQueryTimeout bounds full-table admin queries.
const adminQueryTimeout = 5 * time.Second

// ReviewHandler handles HTTP requests for review operations.
type ReviewHandler struct {
	svc    *service.ReviewService
	logger *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/reviews.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.svc.List(r.Context(), auth.EmailFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// Create handles POST /api/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateReviewRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	review, err := h.svc.Create(r.Context(), auth.EmailFromContext(r.Context()), service.CreateReviewInput{
		NotebookURI: req.NotebookURI,
		Responses:   req.Responses(),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("review_created",
		"review_id", review.ID,
		"responses", len(review.Review.Responses),
	)

	writeJSON(w, http.StatusCreated, review)
}

// Update handles PUT /api/reviews?id={notebook_uri}.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("id")
	if strings.TrimSpace(uri) == "" {
		writeErrorJSON(w, http.StatusBadRequest, "MISSING_ID", "query parameter 'id' is required")
		return
	}

	var req dto.UpdateReviewRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	review, err := h.svc.Update(r.Context(), auth.EmailFromContext(r.Context()), service.UpdateReviewInput{
		NotebookURI: uri,
		Responses:   req.Review.Responses,
		Status:      req.StatusPtr(),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("review_updated",
		"review_id", review.ID,
		"status", review.Review.Status,
	)

	writeJSON(w, http.StatusOK, review)
}

// Delete handles DELETE /api/reviews?id={notebook_uri}.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("id")
	if strings.TrimSpace(uri) == "" {
		writeErrorJSON(w, http.StatusBadRequest, "MISSING_ID", "query parameter 'id' is required")
		return
	}

	if err := h.svc.Delete(r.Context(), auth.EmailFromContext(r.Context()), uri); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("review_deleted")

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Review deleted successfully"})
}

// AdminList handles GET /api/admin/reviews[?status=pending,completed].
func (h *ReviewHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	statuses := parseStatuses(r.URL.Query().Get("status"))

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	reviews, err := h.svc.AdminList(ctx, statuses)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// AdminReassign handles PUT /api/admin/reviews.
func (h *ReviewHandler) AdminReassign(w http.ResponseWriter, r *http.Request) {
	var req dto.ReassignReviewRequest
	if err := decodeRequest(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	review, err := h.svc.AdminReassign(ctx, req.ID, req.ReviewerEmail)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("review_reassigned", "review_id", review.ID)

	writeJSON(w, http.StatusOK, review)
}

// parseStatuses splits a comma-separated status filter. Empty entries are
// skipped; unknown values are left for the service to reject.
func parseStatuses(raw string) []model.ReviewStatus {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []model.ReviewStatus
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, model.ReviewStatus(strings.ToLower(part)))
		}
	}
	return out
}

// handleServiceError maps service errors to HTTP responses.
func (h *ReviewHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeErrorJSON(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing credentials")
	case errors.Is(err, service.ErrReviewNotFound):
		writeErrorJSON(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "Review not found")
	case errors.Is(err, service.ErrReviewExists):
		writeErrorJSON(w, http.StatusConflict, "REVIEW_EXISTS", "A review already exists for this notebook")
	case errors.Is(err, service.ErrReviewLocked):
		writeErrorJSON(w, http.StatusConflict, "REVIEW_LOCKED", "Review is completed; set status to pending to edit it")
	case errors.Is(err, service.ErrNotebookURIRequired),
		errors.Is(err, service.ErrNotebookURITooLong),
		errors.Is(err, service.ErrReviewIDRequired),
		errors.Is(err, service.ErrReviewerEmailRequired):
		writeErrorJSON(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_STATUS", "status must be pending or completed")
	case errors.Is(err, service.ErrInvalidResponse), errors.Is(err, service.ErrUnknownQuestion):
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_RESPONSE", err.Error())
	default:
		h.logger.Error("unexpected service error",
			"error", err,
			"path", r.URL.Path,
		)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

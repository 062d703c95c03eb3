package handler

import (
	"fmt"
	"net/http"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
// GET /api/admin/metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "notebook_review_reviews_created_total %d\n", snap.ReviewsCreated)
	writeMetric(w, "notebook_review_reviews_updated_total %d\n", snap.ReviewsUpdated)
	writeMetric(w, "notebook_review_reviews_deleted_total %d\n", snap.ReviewsDeleted)
	writeMetric(w, "notebook_review_reviews_reassigned_total %d\n", snap.ReviewsReassigned)

	writeMetric(w, "notebook_review_status_changes_total{status=\"completed\"} %d\n", snap.ReviewsCompleted)
	writeMetric(w, "notebook_review_status_changes_total{status=\"pending\"} %d\n", snap.ReviewsReopened)

	writeMetric(w, "notebook_review_users_created_total %d\n", snap.UsersCreated)
	writeMetric(w, "notebook_review_users_deleted_total %d\n", snap.UsersDeleted)

	writeMetric(w, "notebook_review_auth_failures_total{kind=\"user\"} %d\n", snap.UserAuthFailures)
	writeMetric(w, "notebook_review_auth_failures_total{kind=\"admin\"} %d\n", snap.AdminAuthFailures)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

package dto

import (
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
)

// ReviewBodyRequest is the mutable part of a review as sent by the front end.
type ReviewBodyRequest struct {
	Status    *string          `json:"status,omitempty" validate:"omitempty,oneof=pending completed"`
	Responses []model.Response `json:"responses"`
}

// CreateReviewRequest represents the request body for creating a review.
// A status sent on create is ignored; new reviews start pending.
type CreateReviewRequest struct {
	NotebookURI string             `json:"notebook_uri" validate:"required,max=2048"`
	Review      *ReviewBodyRequest `json:"review,omitempty"`
}

// Responses returns the initial answers, empty when none were sent.
func (r *CreateReviewRequest) Responses() []model.Response {
	if r.Review == nil {
		return nil
	}
	return r.Review.Responses
}

// UpdateReviewRequest represents the request body for updating a review.
type UpdateReviewRequest struct {
	Review *ReviewBodyRequest `json:"review" validate:"required"`
}

// StatusPtr returns the requested status, or nil to keep the current one.
func (r *UpdateReviewRequest) StatusPtr() *model.ReviewStatus {
	if r.Review == nil || r.Review.Status == nil {
		return nil
	}
	st := model.ReviewStatus(*r.Review.Status)
	return &st
}

// ReassignReviewRequest represents the admin request to move a review.
type ReassignReviewRequest struct {
	ID            string `json:"id" validate:"required"`
	ReviewerEmail string `json:"reviewer_email" validate:"required,email"`
}

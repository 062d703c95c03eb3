// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/metrics"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/questionnaire"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/repository"
	"github.com/oklog/ulid/v2"
)

// Service errors.
var (
	ErrUnauthorized          = errors.New("reviewer identity required")
	ErrNotebookURIRequired   = errors.New("notebook_uri is required")
	ErrNotebookURITooLong    = errors.New("notebook_uri too long")
	ErrInvalidStatus         = errors.New("invalid review status")
	ErrInvalidResponse       = errors.New("invalid response")
	ErrUnknownQuestion       = errors.New("unknown question_id")
	ErrReviewIDRequired      = errors.New("review id is required")
	ErrReviewerEmailRequired = errors.New("reviewer_email is required")
	ErrReviewExists          = errors.New("a review already exists for this notebook")
	ErrReviewNotFound        = errors.New("review not found")
	ErrReviewLocked          = errors.New("review is completed; reopen it before editing")
)

const maxNotebookURILength = 2048 // characters, as counted by the request validator

// ReviewStore is the persistence surface the review service needs.
// Both repository.Repository and repository.MemoryStore satisfy it.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *model.Review) error
	ListReviewsByReviewer(ctx context.Context, email string) ([]*model.Review, error)
	ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]*model.Review, error)
	UpdateOwnedReview(ctx context.Context, upd repository.ReviewUpdate) (*model.Review, error)
	DeleteOwnedReview(ctx context.Context, notebookURI, reviewerEmail string) error
	ReassignReview(ctx context.Context, id, reviewerEmail string, editedAt time.Time) (*model.Review, error)
}

// ReviewService enforces review ownership and the status machine.
type ReviewService struct {
	store         ReviewStore
	questions     *questionnaire.Questionnaire
	lockCompleted bool
	metrics       metrics.Recorder
	now           func() time.Time
}

// NewReviewService creates a new ReviewService. questions may be nil, in
// which case any question_id is accepted. When lockCompleted is set,
// completed reviews reject edits until reopened.
func NewReviewService(store ReviewStore, questions *questionnaire.Questionnaire, lockCompleted bool, recorder metrics.Recorder) *ReviewService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ReviewService{
		store:         store,
		questions:     questions,
		lockCompleted: lockCompleted,
		metrics:       recorder,
		now:           utcNow,
	}
}

// utcNow returns the current time at the precision PostgreSQL stores.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// List returns the reviews owned by owner.
func (s *ReviewService) List(ctx context.Context, owner string) ([]*model.Review, error) {
	if owner == "" {
		return nil, ErrUnauthorized
	}
	return s.store.ListReviewsByReviewer(ctx, owner)
}

// CreateReviewInput defines input for creating a review.
type CreateReviewInput struct {
	NotebookURI string
	Responses   []model.Response
}

// Create starts a pending review of a notebook for owner. Only one review
// may exist per notebook across all reviewers.
func (s *ReviewService) Create(ctx context.Context, owner string, input CreateReviewInput) (*model.Review, error) {
	if owner == "" {
		return nil, ErrUnauthorized
	}

	uri, err := normalizeNotebookURI(input.NotebookURI)
	if err != nil {
		return nil, err
	}
	if err := s.validateResponses(input.Responses); err != nil {
		return nil, err
	}

	now := s.now()
	review := &model.Review{
		ID:            ulid.Make().String(),
		NotebookURI:   uri,
		ReviewerEmail: owner,
		Review: model.ReviewBody{
			Status:    model.ReviewStatusPending,
			Responses: model.CloneResponses(input.Responses),
		},
		CreatedAt: now,
		EditedAt:  now,
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			return nil, ErrReviewExists
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.metrics.IncReviewCreated()

	return review, nil
}

// UpdateReviewInput defines input for updating a review.
type UpdateReviewInput struct {
	NotebookURI string
	Responses   []model.Response
	Status      *model.ReviewStatus // nil keeps the current status
}

// Update replaces the responses of owner's review of a notebook and
// optionally moves its status. A review owned by someone else is reported
// as not found.
func (s *ReviewService) Update(ctx context.Context, owner string, input UpdateReviewInput) (*model.Review, error) {
	if owner == "" {
		return nil, ErrUnauthorized
	}

	uri, err := normalizeNotebookURI(input.NotebookURI)
	if err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if err := s.validateResponses(input.Responses); err != nil {
		return nil, err
	}

	review, err := s.store.UpdateOwnedReview(ctx, repository.ReviewUpdate{
		NotebookURI:   uri,
		ReviewerEmail: owner,
		Responses:     input.Responses,
		Status:        input.Status,
		EditedAt:      s.now(),
		LockCompleted: s.lockCompleted,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReviewNotFound):
			return nil, ErrReviewNotFound
		case errors.Is(err, repository.ErrReviewLocked):
			return nil, ErrReviewLocked
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.metrics.IncReviewUpdated()
	if input.Status != nil {
		switch *input.Status {
		case model.ReviewStatusCompleted:
			s.metrics.IncReviewCompleted()
		case model.ReviewStatusPending:
			s.metrics.IncReviewReopened()
		}
	}

	return review, nil
}

// Delete removes owner's review of a notebook.
func (s *ReviewService) Delete(ctx context.Context, owner, notebookURI string) error {
	if owner == "" {
		return ErrUnauthorized
	}

	uri, err := normalizeNotebookURI(notebookURI)
	if err != nil {
		return err
	}

	if err := s.store.DeleteOwnedReview(ctx, uri, owner); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.metrics.IncReviewDeleted()

	return nil
}

// AdminList returns every review, newest first, optionally restricted to
// the given statuses. The caller must be admin-authorized.
func (s *ReviewService) AdminList(ctx context.Context, statuses []model.ReviewStatus) ([]*model.Review, error) {
	for _, st := range statuses {
		if !st.IsValid() {
			return nil, ErrInvalidStatus
		}
	}
	return s.store.ListReviews(ctx, repository.ReviewFilter{Statuses: statuses})
}

// AdminReassign transfers the review with internal id to reviewerEmail.
// The caller must be admin-authorized.
func (s *ReviewService) AdminReassign(ctx context.Context, id, reviewerEmail string) (*model.Review, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrReviewIDRequired
	}
	reviewerEmail = strings.TrimSpace(reviewerEmail)
	if reviewerEmail == "" {
		return nil, ErrReviewerEmailRequired
	}

	review, err := s.store.ReassignReview(ctx, id, reviewerEmail, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to reassign review: %w", err)
	}

	s.metrics.IncReviewReassigned()

	return review, nil
}

// validateResponses checks every answer holds a value and, when a
// questionnaire is loaded, answers a known question.
func (s *ReviewService) validateResponses(responses []model.Response) error {
	for i, resp := range responses {
		id := strings.TrimSpace(resp.QuestionID)
		if id == "" {
			return fmt.Errorf("%w: responses[%d] has no question_id", ErrInvalidResponse, i)
		}
		if resp.Response.IsZero() {
			return fmt.Errorf("%w: responses[%d] has no value", ErrInvalidResponse, i)
		}
		if !s.questions.HasQuestion(id) {
			return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
		}
	}
	return nil
}

func normalizeNotebookURI(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return "", ErrNotebookURIRequired
	}
	if utf8.RuneCountInString(uri) > maxNotebookURILength {
		return "", ErrNotebookURITooLong
	}
	return uri, nil
}

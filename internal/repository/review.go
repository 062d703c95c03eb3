package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// Common errors for review repository operations.
var (
	ErrReviewNotFound = errors.New("review not found")
	ErrReviewExists   = errors.New("review already exists for notebook")
	ErrReviewLocked   = errors.New("review is completed")
)

// ReviewFilter narrows an admin listing.
type ReviewFilter struct {
	// Statuses restricts results to the given statuses. Empty means all.
	Statuses []model.ReviewStatus
}

// ReviewUpdate is an owner-scoped replacement of a review's mutable state.
type ReviewUpdate struct {
	NotebookURI   string
	ReviewerEmail string
	Responses     []model.Response
	// Status is left unchanged when nil.
	Status   *model.ReviewStatus
	EditedAt time.Time
	// LockCompleted rejects updates to completed reviews unless Status
	// reopens them.
	LockCompleted bool
}

// reopens reports whether the update moves the review back to pending.
func (u ReviewUpdate) reopens() bool {
	return u.Status != nil && *u.Status == model.ReviewStatusPending
}

const reviewColumns = `id, notebook_uri, reviewer_email, status, responses, timestamp_created, timestamp_edited`

// CreateReview inserts a new review. Any existing review for the same
// notebook, whoever owns it, yields ErrReviewExists.
func (r *Repository) CreateReview(ctx context.Context, review *model.Review) error {
	responses, err := encodeResponses(review.Review.Responses)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reviews (id, notebook_uri, reviewer_email, status, responses, timestamp_created, timestamp_edited)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.pool.Exec(ctx, query,
		review.ID,
		review.NotebookURI,
		review.ReviewerEmail,
		string(review.Review.Status),
		responses,
		review.CreatedAt,
		review.EditedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrReviewExists
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ListReviewsByReviewer returns the reviews owned by email, newest first.
func (r *Repository) ListReviewsByReviewer(ctx context.Context, email string) ([]*model.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE reviewer_email = $1
		ORDER BY timestamp_created DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return collectReviews(rows)
}

// ListReviews returns all reviews matching filter, newest first.
func (r *Repository) ListReviews(ctx context.Context, filter ReviewFilter) ([]*model.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
	`
	var args []any

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query += ` WHERE status = ANY($1::text[])`
		args = append(args, pq.Array(statuses))
	}

	query += ` ORDER BY timestamp_created DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list all reviews: %w", err)
	}
	return collectReviews(rows)
}

// GetReviewByNotebook retrieves a review by notebook URI regardless of owner.
func (r *Repository) GetReviewByNotebook(ctx context.Context, notebookURI string) (*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE notebook_uri = $1`

	review, err := scanReview(r.pool.QueryRow(ctx, query, notebookURI))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// UpdateOwnedReview replaces the responses (and optionally the status) of the
// review matching both notebook URI and owner, in a single statement.
// timestamp_edited always moves forward, even when the clock does not.
func (r *Repository) UpdateOwnedReview(ctx context.Context, upd ReviewUpdate) (*model.Review, error) {
	responses, err := encodeResponses(upd.Responses)
	if err != nil {
		return nil, err
	}

	var status *string
	if upd.Status != nil {
		s := string(*upd.Status)
		status = &s
	}

	query := `
		UPDATE reviews
		SET responses = $3,
		    status = COALESCE($4::text, status),
		    timestamp_edited = GREATEST($5::timestamptz, timestamp_edited + INTERVAL '1 microsecond')
		WHERE notebook_uri = $1
		  AND reviewer_email = $2
		  AND (NOT $6::boolean OR status <> 'completed' OR $4::text = 'pending')
		RETURNING ` + reviewColumns

	review, err := scanReview(r.pool.QueryRow(ctx, query,
		upd.NotebookURI,
		upd.ReviewerEmail,
		responses,
		status,
		upd.EditedAt,
		upd.LockCompleted,
	))
	if err == nil {
		return review, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	if !upd.LockCompleted {
		return nil, ErrReviewNotFound
	}

	// No row matched: either absent for this owner or held by the lock.
	var current string
	err = r.pool.QueryRow(ctx,
		`SELECT status FROM reviews WHERE notebook_uri = $1 AND reviewer_email = $2`,
		upd.NotebookURI, upd.ReviewerEmail,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to check review lock: %w", err)
	}
	return nil, ErrReviewLocked
}

// DeleteOwnedReview removes the review matching both notebook URI and owner.
func (r *Repository) DeleteOwnedReview(ctx context.Context, notebookURI, reviewerEmail string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM reviews WHERE notebook_uri = $1 AND reviewer_email = $2`,
		notebookURI, reviewerEmail,
	)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// ReassignReview transfers ownership of the review with the given internal id.
// Only reviewer_email and timestamp_edited change.
func (r *Repository) ReassignReview(ctx context.Context, id, reviewerEmail string, editedAt time.Time) (*model.Review, error) {
	query := `
		UPDATE reviews
		SET reviewer_email = $2,
		    timestamp_edited = GREATEST($3::timestamptz, timestamp_edited + INTERVAL '1 microsecond')
		WHERE id = $1
		RETURNING ` + reviewColumns

	review, err := scanReview(r.pool.QueryRow(ctx, query, id, reviewerEmail, editedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to reassign review: %w", err)
	}
	return review, nil
}

func collectReviews(rows pgx.Rows) ([]*model.Review, error) {
	defer rows.Close()

	reviews := make([]*model.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}
	return reviews, nil
}

// scanReview scans a single row into a Review model.
func scanReview(row pgx.Row) (*model.Review, error) {
	var (
		review    model.Review
		status    string
		responses []byte
	)
	err := row.Scan(
		&review.ID,
		&review.NotebookURI,
		&review.ReviewerEmail,
		&status,
		&responses,
		&review.CreatedAt,
		&review.EditedAt,
	)
	if err != nil {
		return nil, err
	}

	review.Review.Status = model.ReviewStatus(status)
	if err := json.Unmarshal(responses, &review.Review.Responses); err != nil {
		return nil, fmt.Errorf("decode responses of %s: %w", review.ID, err)
	}
	if review.Review.Responses == nil {
		review.Review.Responses = []model.Response{}
	}
	return &review, nil
}

func encodeResponses(responses []model.Response) ([]byte, error) {
	data, err := json.Marshal(model.CloneResponses(responses))
	if err != nil {
		return nil, fmt.Errorf("encode responses: %w", err)
	}
	return data, nil
}

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops the review and user tables and re-applies schema.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS reviews, users`); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// Now returns the current time at the precision PostgreSQL stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewTestUser creates a reviewer with a unique token.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	return &model.User{
		Name:      "Reviewer " + email,
		Email:     email,
		APIToken:  UniqueID("token"),
		CreatedAt: Now(),
	}
}

// NewTestReview creates a pending review with no responses.
func NewTestReview(t testing.TB, notebookURI, reviewerEmail string) *model.Review {
	t.Helper()
	now := Now()
	return &model.Review{
		ID:            ulid.Make().String(),
		NotebookURI:   notebookURI,
		ReviewerEmail: reviewerEmail,
		Review: model.ReviewBody{
			Status:    model.ReviewStatusPending,
			Responses: []model.Response{},
		},
		CreatedAt: now,
		EditedAt:  now,
	}
}

// SampleResponses returns one response of each value kind.
func SampleResponses(t testing.TB) []model.Response {
	t.Helper()
	structured, err := model.StructuredValue(json.RawMessage(`{"cells":[1,2]}`))
	if err != nil {
		t.Fatalf("structured value: %v", err)
	}
	return []model.Response{
		{QuestionID: "overall_quality", Response: model.NumberValue(4)},
		{QuestionID: "summary", Response: model.StringValue("clear"), Rationale: "well commented"},
		{QuestionID: "runs", Response: model.BoolValue(true)},
		{QuestionID: "details", Response: structured},
	}
}

// UniqueNotebookURI generates a unique notebook URI for tests.
func UniqueNotebookURI(prefix string) string {
	return fmt.Sprintf("https://github.com/dandi-ai-notebooks/%s/blob/main/%d.ipynb", prefix, time.Now().UnixNano())
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

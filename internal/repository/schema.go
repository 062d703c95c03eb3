package repository

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables the service needs.
// Safe to call multiple times - uses IF NOT EXISTS.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Schema is the bootstrap DDL. Review bodies are stored as JSONB documents.
const Schema = `
-- Reviewers
CREATE TABLE IF NOT EXISTS users (
    email TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    api_token TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Reviews
CREATE TABLE IF NOT EXISTS reviews (
    id TEXT PRIMARY KEY,
    notebook_uri TEXT NOT NULL UNIQUE,
    reviewer_email TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed')),
    responses JSONB NOT NULL DEFAULT '[]'::jsonb,
    timestamp_created TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    timestamp_edited TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_reviews_reviewer_email ON reviews(reviewer_email);
CREATE INDEX IF NOT EXISTS idx_reviews_created ON reviews(timestamp_created DESC, id DESC);
`

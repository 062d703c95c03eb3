package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
)

// MemoryStore is an in-process review and user store for development and
// tests. A single mutex makes every operation an atomic match-then-mutate,
// matching the guarantees of the PostgreSQL Repository.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[string]*model.User
	reviews map[string]*model.Review // keyed by notebook URI
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*model.User),
		reviews: make(map[string]*model.Review),
	}
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (m *MemoryStore) Close() {}

func (m *MemoryStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.Email]; ok {
		return ErrUserExists
	}
	for _, u := range m.users {
		if u.APIToken == user.APIToken {
			return ErrUserExists
		}
	}

	u := *user
	m.users[user.Email] = &u
	return nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (m *MemoryStore) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.APIToken == token {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		out := *u
		users = append(users, &out)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].Email < users[j].Email
	})
	return users, nil
}

func (m *MemoryStore) DeleteUser(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[email]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, email)
	return nil
}

func (m *MemoryStore) CreateReview(ctx context.Context, review *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reviews[review.NotebookURI]; ok {
		return ErrReviewExists
	}
	m.reviews[review.NotebookURI] = review.Clone()
	return nil
}

func (m *MemoryStore) ListReviewsByReviewer(ctx context.Context, email string) ([]*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.collect(func(r *model.Review) bool {
		return r.ReviewerEmail == email
	}), nil
}

func (m *MemoryStore) ListReviews(ctx context.Context, filter ReviewFilter) ([]*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.collect(func(r *model.Review) bool {
		if len(filter.Statuses) == 0 {
			return true
		}
		for _, s := range filter.Statuses {
			if r.Review.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (m *MemoryStore) GetReviewByNotebook(ctx context.Context, notebookURI string) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[notebookURI]
	if !ok {
		return nil, ErrReviewNotFound
	}
	return r.Clone(), nil
}

func (m *MemoryStore) UpdateOwnedReview(ctx context.Context, upd ReviewUpdate) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[upd.NotebookURI]
	if !ok || r.ReviewerEmail != upd.ReviewerEmail {
		return nil, ErrReviewNotFound
	}
	if upd.LockCompleted && r.IsCompleted() && !upd.reopens() {
		return nil, ErrReviewLocked
	}

	r.Review.Responses = model.CloneResponses(upd.Responses)
	if upd.Status != nil {
		r.Review.Status = *upd.Status
	}
	r.EditedAt = advance(r.EditedAt, upd.EditedAt)
	return r.Clone(), nil
}

func (m *MemoryStore) DeleteOwnedReview(ctx context.Context, notebookURI, reviewerEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[notebookURI]
	if !ok || r.ReviewerEmail != reviewerEmail {
		return ErrReviewNotFound
	}
	delete(m.reviews, notebookURI)
	return nil
}

func (m *MemoryStore) ReassignReview(ctx context.Context, id, reviewerEmail string, editedAt time.Time) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.reviews {
		if r.ID != id {
			continue
		}
		r.ReviewerEmail = reviewerEmail
		r.EditedAt = advance(r.EditedAt, editedAt)
		return r.Clone(), nil
	}
	return nil, ErrReviewNotFound
}

// collect returns clones of matching reviews, newest first. Callers hold mu.
func (m *MemoryStore) collect(match func(*model.Review) bool) []*model.Review {
	out := make([]*model.Review, 0)
	for _, r := range m.reviews {
		if match(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// advance returns now, or prev plus a microsecond when the clock has not moved
// past prev.
func advance(prev, now time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}

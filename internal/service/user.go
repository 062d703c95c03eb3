package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/auth"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/metrics"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/repository"
)

// User service errors.
var (
	ErrEmailRequired = errors.New("email is required")
	ErrUserExists    = errors.New("user already exists")
	ErrUserNotFound  = errors.New("user not found")
)

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context) ([]*model.User, error)
	DeleteUser(ctx context.Context, email string) error
}

// ReviewLister lists every review for exports.
type ReviewLister interface {
	ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]*model.Review, error)
}

// UserInvalidator drops cached user records.
type UserInvalidator interface {
	DeleteUser(ctx context.Context, email string) error
}

// UserService manages the reviewer roster. Every method assumes an
// admin-authorized caller.
type UserService struct {
	users   UserStore
	reviews ReviewLister
	cache   UserInvalidator
	metrics metrics.Recorder
	now     func() time.Time
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(users UserStore, reviews ReviewLister, cache UserInvalidator, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		users:   users,
		reviews: reviews,
		cache:   cache,
		metrics: recorder,
		now:     utcNow,
	}
}

// List returns every user including their tokens.
func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.users.ListUsers(ctx)
}

// CreateUserInput defines input for creating a user.
type CreateUserInput struct {
	Name     string
	Email    string
	APIToken string // generated when empty
}

// Create adds a reviewer. The returned user carries the token the reviewer
// must present.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	token := strings.TrimSpace(input.APIToken)
	if token == "" {
		var err error
		token, err = auth.GenerateUserToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
	}

	user := &model.User{
		Name:      strings.TrimSpace(input.Name),
		Email:     email,
		APIToken:  token,
		CreatedAt: s.now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserCreated()

	return user, nil
}

// Delete removes a reviewer. Their reviews are kept.
func (s *UserService) Delete(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}

	if err := s.users.DeleteUser(ctx, email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.metrics.IncUserDeleted()

	if s.cache != nil {
		if err := s.cache.DeleteUser(ctx, email); err != nil {
			// The entry expires on its own; log and carry on.
			slog.Warn("user_cache_invalidate_failed", "error", err)
		}
	}

	return nil
}

// Export is a full dump of users (without tokens) and reviews.
type Export struct {
	Users   []model.PublicUser `json:"users"`
	Reviews []*model.Review    `json:"reviews"`
}

// Export returns every user without credentials and every review.
func (s *UserService) Export(ctx context.Context) (*Export, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}

	reviews, err := s.reviews.ListReviews(ctx, repository.ReviewFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to export reviews: %w", err)
	}

	out := &Export{
		Users:   make([]model.PublicUser, 0, len(users)),
		Reviews: reviews,
	}
	for _, u := range users {
		out.Users = append(out.Users, u.Public())
	}
	return out, nil
}

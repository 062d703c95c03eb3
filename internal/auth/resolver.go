package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/repository"
)

// UserLookup reads reviewer accounts from the user store.
// Implementations return repository.ErrUserNotFound for unknown users.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByToken(ctx context.Context, token string) (*model.User, error)
}

// UserCache is an optional read-through cache of user records.
// GetUser returns (nil, nil) on a miss.
type UserCache interface {
	GetUser(ctx context.Context, email string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
}

// AdminSecret is the single process-wide admin credential. When Hash is set
// the presented token is verified against it, otherwise Token is compared
// with plain equality. An empty secret authorizes nobody.
type AdminSecret struct {
	Token string
	Hash  string
}

// Matches reports whether presented is the admin secret.
func (s AdminSecret) Matches(presented string) bool {
	if presented == "" {
		return false
	}
	if s.Hash != "" {
		ok, err := VerifyToken(presented, s.Hash)
		return err == nil && ok
	}
	return s.Token != "" && presented == s.Token
}

// Credentials are the identity headers presented with a request.
type Credentials struct {
	Email      string
	Token      string
	AdminToken string
}

// Resolver maps presented credentials to an authorization level. It keeps no
// session state: every call re-validates against the user store.
type Resolver struct {
	users UserLookup
	cache UserCache
	admin AdminSecret
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(users UserLookup, admin AdminSecret, cache UserCache) *Resolver {
	return &Resolver{
		users: users,
		cache: cache,
		admin: admin,
	}
}

// Resolve checks the admin token when one is presented, otherwise the
// reviewer email and token pair.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (model.Identity, error) {
	if creds.AdminToken != "" {
		return r.ResolveAdmin(creds.AdminToken), nil
	}
	return r.ResolveUser(ctx, creds.Email, creds.Token)
}

// ResolveAdmin returns AdminAuthorized iff token is the admin secret.
func (r *Resolver) ResolveAdmin(token string) model.Identity {
	if r.admin.Matches(token) {
		return model.AdminIdentity()
	}
	return model.Identity{Level: model.Unauthorized}
}

// ResolveUser returns UserAuthorized(email) iff a user with that email exists
// and its stored token equals token. Missing input, unknown email and wrong
// token all yield Unauthorized without an error; only store failures error.
func (r *Resolver) ResolveUser(ctx context.Context, email, token string) (model.Identity, error) {
	unauthorized := model.Identity{Level: model.Unauthorized}
	if email == "" || token == "" {
		return unauthorized, nil
	}

	user, err := r.lookupByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return unauthorized, nil
		}
		return unauthorized, fmt.Errorf("resolve user: %w", err)
	}

	if user.APIToken != token {
		return unauthorized, nil
	}
	return model.UserIdentity(user.Email), nil
}

// ResolveToken finds the reviewer owning token. It backs the login endpoint,
// where the front end presents only the token.
func (r *Resolver) ResolveToken(ctx context.Context, token string) (*model.User, model.Identity, error) {
	unauthorized := model.Identity{Level: model.Unauthorized}
	if token == "" {
		return nil, unauthorized, nil
	}

	user, err := r.users.GetUserByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, unauthorized, nil
		}
		return nil, unauthorized, fmt.Errorf("resolve token: %w", err)
	}
	return user, model.UserIdentity(user.Email), nil
}

func (r *Resolver) lookupByEmail(ctx context.Context, email string) (*model.User, error) {
	if r.cache != nil {
		// Cache errors degrade to a store lookup.
		if cached, _ := r.cache.GetUser(ctx, email); cached != nil {
			return cached, nil
		}
	}

	user, err := r.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		_ = r.cache.SetUser(ctx, user)
	}
	return user, nil
}

package auth

import (
	"context"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// identityContextKey is the context key for storing the request Identity.
	identityContextKey contextKey = "identity"
)

// ContextWithIdentity adds the resolved identity to the context.
func ContextWithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext retrieves the identity from the context.
// Returns an Unauthorized identity if none is present.
func IdentityFromContext(ctx context.Context) model.Identity {
	id, ok := ctx.Value(identityContextKey).(model.Identity)
	if !ok {
		return model.Identity{Level: model.Unauthorized}
	}
	return id
}

// EmailFromContext is a convenience function to get the reviewer email.
// Returns empty string unless a reviewer is authenticated.
func EmailFromContext(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if !id.IsUser() {
		return ""
	}
	return id.Email
}

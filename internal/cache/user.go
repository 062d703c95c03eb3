package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	// userCachePrefix is the Redis key prefix for cached user records.
	userCachePrefix = "user:"
	// deletedUserPrefix marks a recently deleted user so a lookup that read
	// the store before the delete cannot repopulate the cache.
	deletedUserPrefix = "user:deleted:"
	defaultUserTTL  = time.Minute
)

// cachedUser is the stored form of a user record.
type cachedUser struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	APIToken  string    `json:"api_token"`
	CreatedAt time.Time `json:"created_at"`
}

// userKey hashes the normalized email so addresses never appear in key names.
func userKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return userCachePrefix + hex.EncodeToString(sum[:16])
}

func deletedUserKey(email string) string {
	return deletedUserPrefix + strings.TrimPrefix(userKey(email), userCachePrefix)
}

// GetUser retrieves a cached user by email.
// Returns nil if not found (cache miss).
func (c *Cache) GetUser(ctx context.Context, email string) (*model.User, error) {
	data, err := c.client.Get(ctx, userKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached user: %w", err)
	}

	var cached cachedUser
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	// Keys are case-folded; the record must still match exactly.
	if cached.Email != email {
		return nil, nil
	}

	return &model.User{
		Name:      cached.Name,
		Email:     cached.Email,
		APIToken:  cached.APIToken,
		CreatedAt: cached.CreatedAt,
	}, nil
}

// SetUser caches a user record. The write is skipped while the user's
// deletion marker is live.
func (c *Cache) SetUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(cachedUser{
		Name:      user.Name,
		Email:     user.Email,
		APIToken:  user.APIToken,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	marker := deletedUserKey(user.Email)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, marker).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userKey(user.Email), data, c.userTTL)
			return nil
		})
		return err
	}, marker)
	if errors.Is(err, redis.TxFailedErr) {
		// Deleted while we were writing.
		return nil
	}
	return err
}

// DeleteUser removes a cached user record and leaves a deletion marker for
// one TTL, so stale credentials stop resolving.
func (c *Cache) DeleteUser(ctx context.Context, email string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, deletedUserKey(email), 1, c.userTTL)
		pipe.Del(ctx, userKey(email))
		return nil
	})
	return err
}

// Command seeduser bootstraps a reviewer account directly in PostgreSQL,
// for deployments where no admin front end is available yet.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/auth"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/repository"
)

type output struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	APIToken string `json:"apiToken"`
	Existing bool   `json:"existing"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "Reviewer email (required)")
		name        = flag.String("name", "", "Reviewer display name")
		token       = flag.String("token", "", "API token to assign; generated when empty")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ensure schema:", err)
		os.Exit(1)
	}

	user, existing, err := ensureUser(ctx, repo, strings.TrimSpace(*email), strings.TrimSpace(*name), *token)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	out := output{
		Name:     user.Name,
		Email:    user.Email,
		APIToken: user.APIToken,
		Existing: existing,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.APIToken)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// ensureUser returns the reviewer with email, creating it when missing.
// An existing reviewer is returned unchanged; a requested token that
// differs from the stored one is an error.
func ensureUser(ctx context.Context, repo *repository.Repository, email, name, token string) (*model.User, bool, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	if err == nil {
		if token != "" && existing.APIToken != token {
			return nil, true, fmt.Errorf("user %s exists with a different token", email)
		}
		return existing, true, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}

	if token == "" {
		token, err = auth.GenerateUserToken()
		if err != nil {
			return nil, false, fmt.Errorf("generate token: %w", err)
		}
	}

	user := &model.User{
		Name:      name,
		Email:     email,
		APIToken:  token,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, false, nil
}

// Package main is the entrypoint for the notebook review API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/auth"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/cache"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/config"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/handler"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/metrics"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/questionnaire"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/repository"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/server"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// store is the persistence surface shared by both drivers.
type store interface {
	auth.UserLookup
	service.ReviewStore
	service.UserStore
	handler.HealthChecker
	Close()
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		os.Exit(1)
	}

	// Optional Redis user cache. Interfaces stay untyped nil when absent.
	var (
		userCache   auth.UserCache
		invalidator service.UserInvalidator
		cacheHealth handler.HealthChecker
		cacheClient *cache.Cache
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL, cfg.UserCacheTTL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			st.Close()
			os.Exit(1)
		}
		userCache, invalidator, cacheHealth = cacheClient, cacheClient, cacheClient
		logger.Info("connected to Redis", "user_cache_ttl", cfg.UserCacheTTL)
	}

	questions := questionnaire.Empty()
	if cfg.QuestionnairePath != "" {
		questions, err = questionnaire.LoadFile(cfg.QuestionnairePath)
		if err != nil {
			logger.Error("failed to load questionnaire", "error", err)
			st.Close()
			os.Exit(1)
		}
		logger.Info("questionnaire loaded",
			"path", cfg.QuestionnairePath,
			"questions", len(questions.Questions),
		)
	}

	if !cfg.HasAdminSecret() {
		logger.Warn("no admin secret configured; admin endpoints will reject every request")
	}

	metricsRecorder := metrics.NewInMemory()
	resolver := auth.NewResolver(st, auth.AdminSecret{
		Token: cfg.AdminToken,
		Hash:  cfg.AdminTokenHash,
	}, userCache)
	reviewService := service.NewReviewService(st, questions, cfg.LockCompletedReviews, metricsRecorder)
	userService := service.NewUserService(st, st, invalidator, metricsRecorder)

	r := server.NewRouter(server.RouterConfig{
		Logger:         logger,
		Version:        version,
		Resolver:       resolver,
		Reviews:        reviewService,
		Users:          userService,
		Questions:      questions,
		Metrics:        metricsRecorder,
		DB:             st,
		Cache:          cacheHealth,
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
		IsDevelopment:  cfg.IsDevelopment(),
		MaxBodySize:    cfg.MaxRequestBodySize,
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// LIFO: the cache closes before the store.
	srv.OnShutdown("store", func(ctx context.Context) error {
		st.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"lock_completed_reviews", cfg.LockCompletedReviews,
		"version", version,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore connects the configured store driver. Errors are logged here.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return nil, err
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
		repo.Close()
		return nil, err
	}

	logger.Info("connected to database")
	return repo, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}

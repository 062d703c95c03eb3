package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/auth"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/handler"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/metrics"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/middleware"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/questionnaire"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/service"
)

// RouterConfig holds everything the HTTP surface is built from.
type RouterConfig struct {
	Logger    *slog.Logger
	Version   string
	Resolver  *auth.Resolver
	Reviews   *service.ReviewService
	Users     *service.UserService
	Questions *questionnaire.Questionnaire
	Metrics   *metrics.InMemoryRecorder

	// Readiness checks; Cache is nil when Redis is not configured.
	DB    handler.HealthChecker
	Cache handler.HealthChecker

	AllowedOrigins []string
	IsDevelopment  bool
	MaxBodySize    int64
}

const defaultMaxBodySize = 1 << 20

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewInMemory()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}

	h := handler.New(cfg.Version)
	healthHandler := handler.NewHealthHandler(cfg.DB, cfg.Cache, logger)
	authHandler := handler.NewAuthHandler(cfg.Resolver, logger)
	reviewHandler := handler.NewReviewHandler(cfg.Reviews, logger)
	userHandler := handler.NewUserHandler(cfg.Users, logger)
	questionHandler := handler.NewQuestionnaireHandler(cfg.Questions)
	metricsHandler := handler.NewMetricsHandler(cfg.Metrics)

	r := chi.NewRouter()

	// Global middleware. CORS runs before routing so preflight requests
	// are answered for every route.
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.MaxBodySize(cfg.MaxBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	r.Get("/", h.Info)

	authCfg := middleware.AuthConfig{
		Logger:   logger,
		Resolver: cfg.Resolver,
		Metrics:  cfg.Metrics,
	}

	r.Route("/api", func(r chi.Router) {
		// Login checks and the questionnaire need no identity.
		r.Post("/auth", authHandler.Login)
		r.Post("/admin/auth", authHandler.AdminLogin)
		r.Get("/questions", questionHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identify(authCfg))

			r.Route("/reviews", func(r chi.Router) {
				r.Use(middleware.RequireUser())
				r.Get("/", reviewHandler.List)
				r.Post("/", reviewHandler.Create)
				r.Put("/", reviewHandler.Update)
				r.Delete("/", reviewHandler.Delete)
			})

			// The user roster answers 403 to non-admins, the rest 401.
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(http.StatusForbidden))
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Delete("/", userHandler.Delete)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(http.StatusUnauthorized))
				r.Get("/reviews", reviewHandler.AdminList)
				r.Put("/reviews", reviewHandler.AdminReassign)
				r.Get("/export", userHandler.Export)
				r.Get("/metrics", metricsHandler.Metrics)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

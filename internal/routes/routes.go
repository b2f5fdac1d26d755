package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/imposter/internal/auth"
	"github.com/BradenHooton/imposter/internal/handlers"
	"github.com/BradenHooton/imposter/internal/middleware"
	pkghttp "github.com/BradenHooton/imposter/pkg/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Auth   *handlers.AuthHandler
	Game   *handlers.GameHandler
	Health *handlers.HealthHandler
}

// Options carries the router settings taken from configuration
type Options struct {
	Env            string
	AllowedOrigins []string
	IPConfig       *pkghttp.IPConfig
	AuthRateLimit  int // requests per minute per IP on /auth
	GameRateLimit  int // requests per minute per IP or user on /game
	RequestTimeout time.Duration
}

// NewRouter builds the chi router with the global middleware stack and all routes
func NewRouter(h Handlers, tokens auth.TokenValidator, opts Options, logger *slog.Logger) *chi.Mux {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: opts.Env}))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(opts.AllowedOrigins)))
	router.Use(middleware.SecureLogger(logger, opts.IPConfig))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(opts.RequestTimeout))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	RegisterRoutes(router, h, tokens, opts)
	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, tokens auth.TokenValidator, opts Options) {
	authLimit := middleware.RateLimitConfig{RequestsPerMinute: opts.AuthRateLimit, IPConfig: opts.IPConfig}
	gameLimit := middleware.RateLimitConfig{RequestsPerMinute: opts.GameRateLimit, IPConfig: opts.IPConfig}

	router.Get("/api/ping", h.Health.Ping)
	router.Get("/health", h.Health.Health)

	router.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(authLimit))

		r.Post("/register", h.Auth.Register)
		r.Post("/verify-email", h.Auth.VerifyEmail)
		r.Post("/resend-otp", h.Auth.ResendOTP)
		r.Post("/login", h.Auth.Login)

		r.With(auth.AuthMiddleware(tokens)).Get("/profile", h.Auth.Profile)
	})

	router.Route("/game", func(r chi.Router) {
		// Creating a game does not require an account
		r.With(middleware.RateLimitByIP(gameLimit)).Post("/create", h.Game.Create)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(tokens))
			r.Use(middleware.RateLimitByUserID(gameLimit))
			r.Get("/{gameId}", h.Game.Get)
		})
	})
}

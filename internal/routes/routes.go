package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smartstudy/smartstudy/internal/app"
	"github.com/smartstudy/smartstudy/internal/handler"
	"github.com/smartstudy/smartstudy/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.Ping)
	auth := handler.NewAuthHandler(app.AuthService, app.UserService)
	resources := handler.NewResourceHandler(app.ResourceService)
	discussions := handler.NewDiscussionHandler(app.DiscussionService)

	requireAuth := middleware.RequireAuth(app.AuthService)
	rateLimit := middleware.RateLimit("auth", app.AuthLimiter, app.Cfg.TrustedProxies)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /{$}", home.Home)
	mux.HandleFunc("GET /api/health", home.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Auth (rate limited)
	mux.Handle("POST /api/auth/register", middleware.Route(auth.Register, rateLimit))
	mux.Handle("POST /api/auth/login", middleware.Route(auth.Login, rateLimit))

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Account
	mux.Handle("GET /api/auth/user", middleware.Route(auth.User, requireAuth))
	mux.Handle("PUT /api/auth/profile", middleware.Route(auth.UpdateProfile, requireAuth))
	mux.Handle("PUT /api/auth/avatar", middleware.Route(auth.UploadAvatar, requireAuth))
	mux.Handle("PUT /api/auth/save/{resourceId}", middleware.Route(auth.ToggleSave, requireAuth))

	// Resources
	mux.Handle("POST /api/resources", middleware.Route(resources.Create, requireAuth))
	mux.Handle("GET /api/resources", middleware.Route(resources.List, requireAuth))
	mux.Handle("GET /api/resources/saved", middleware.Route(resources.Saved, requireAuth))
	mux.Handle("GET /api/resources/download/{id}", middleware.Route(resources.Download, requireAuth))
	mux.Handle("PUT /api/resources/like/{id}", middleware.Route(resources.ToggleLike, requireAuth))

	// Discussions
	mux.Handle("POST /api/discussions", middleware.Route(discussions.Create, requireAuth))
	mux.Handle("GET /api/discussions", middleware.Route(discussions.List, requireAuth))
	mux.Handle("GET /api/discussions/{id}", middleware.Route(discussions.Get, requireAuth))
	mux.Handle("POST /api/discussions/answer/{id}", middleware.Route(discussions.Answer, requireAuth))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", home.NotFound)

	// Global middleware - executed in order (top to bottom).
	// Metrics and CORS pass the request through unchanged so Metrics can
	// read the pattern the mux matched.
	handler := middleware.Chain(
		mux,
		middleware.Recover,
		middleware.RequestLogging,
		middleware.SecurityHeaders,
		middleware.Metrics,
		middleware.CORS(app.Cfg.AllowedOrigins),
	)

	return handler
}

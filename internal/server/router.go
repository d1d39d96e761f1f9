// Package server assembles the HTTP router: middleware stack, rate limits and routes.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portfolio-cms/backend/internal/analytics"
	analyticshandler "portfolio-cms/backend/internal/analytics/handler"
	"portfolio-cms/backend/internal/audit"
	backuphandler "portfolio-cms/backend/internal/backup/handler"
	"portfolio-cms/backend/internal/broadcast"
	contenthandler "portfolio-cms/backend/internal/content/handler"
	healthhandler "portfolio-cms/backend/internal/health/handler"
	identityhandler "portfolio-cms/backend/internal/identity/handler"
	inboxhandler "portfolio-cms/backend/internal/inbox/handler"
	"portfolio-cms/backend/internal/platform/httpx"
	"portfolio-cms/backend/internal/server/middleware"
	settingshandler "portfolio-cms/backend/internal/settings/handler"
	"portfolio-cms/backend/internal/upload"
)

// Deps holds the handlers and cross-cutting services mounted by NewRouter.
type Deps struct {
	// Tokens validates admin session tokens for the protected group.
	Tokens middleware.SessionValidator
	// Audit records admin mutations. If nil, nothing is audited.
	Audit audit.AuditLogger
	// Visits records page views. If nil, visits are not tracked.
	Visits *analytics.Recorder

	Health    *healthhandler.Handler
	Identity  *identityhandler.Handler
	Content   *contenthandler.Handler
	Settings  *settingshandler.Handler
	Inbox     *inboxhandler.Handler
	Broadcast *broadcast.Handler
	Upload    *upload.Handler
	Backup    *backuphandler.Handler
	Analytics *analyticshandler.Handler
}

// Options are the router settings taken from config.
type Options struct {
	CORSOrigins       []string
	RateLimitDisabled bool
	// TrustedProxies are the reverse proxies whose forwarding headers name the client.
	// Empty keys every limit on the socket address.
	TrustedProxies middleware.TrustedProxies
	// UploadDir is served at /static/uploads/.
	UploadDir string
	// StaticDir holds the built frontend.
	StaticDir string
}

// NewRouter returns the application handler.
//
// Limits per client IP: login 5/minute, forgot-password and contact 3/hour each, and every
// /api route 500/hour plus 2000/day. RateLimitDisabled turns all of them off.
func NewRouter(deps Deps, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP(opts.TrustedProxies))
	r.Use(middleware.AccessLog(map[string]bool{"/metrics": true, "/api/health": true}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if deps.Visits != nil {
		r.Use(deps.Visits.Middleware)
	}

	limit := func(n int, window time.Duration) func(http.Handler) http.Handler {
		if opts.RateLimitDisabled {
			return func(next http.Handler) http.Handler { return next }
		}
		return httprate.Limit(n, window,
			httprate.WithKeyFuncs(clientIPKey),
			httprate.WithLimitHandler(tooManyRequests),
		)
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Handle(uploadPrefix+"*", Uploads(uploadPrefix, opts.UploadDir))

	r.Route("/api", func(r chi.Router) {
		r.Use(limit(500, time.Hour))
		r.Use(limit(2000, 24*time.Hour))

		r.Get("/health", deps.Health.Health)

		r.With(limit(5, time.Minute)).Post("/auth/login", deps.Identity.Login)
		r.With(limit(3, time.Hour)).Post("/auth/forgot-password", deps.Identity.ForgotPassword)
		r.Post("/auth/verify-otp", deps.Identity.VerifyOTP)
		r.Post("/auth/reset-password", deps.Identity.ResetPassword)
		r.With(limit(3, time.Hour)).Post("/contact", deps.Inbox.Submit)
		r.Get("/content", deps.Content.List)
		r.Get("/settings_public", deps.Settings.GetPublic)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(deps.Tokens))
			r.Use(middleware.Audit(deps.Audit))

			r.Post("/auth/setup-2fa", deps.Identity.SetupMFA)
			r.Post("/auth/verify-2fa-setup", deps.Identity.ConfirmMFA)
			r.Post("/auth/disable-2fa", deps.Identity.DisableMFA)
			r.Post("/auth/request-mobile-change", deps.Identity.RequestMobileChange)
			r.Post("/auth/verify-mobile-change", deps.Identity.VerifyMobileChange)

			r.Post("/broadcast-message", deps.Broadcast.Send)
			r.Post("/content", deps.Content.Upsert)

			r.Get("/inbox", deps.Inbox.List)
			r.Patch("/inbox/{id}", deps.Inbox.UpdateStatus)
			r.Delete("/inbox/{id}", deps.Inbox.Delete)
			r.Get("/export-messages", deps.Inbox.Export)

			r.Get("/settings", deps.Settings.Get)
			r.Post("/settings", deps.Settings.Update)

			r.Post("/upload", deps.Upload.Upload)
			r.Get("/backup", deps.Backup.Backup)
			r.Get("/analytics", deps.Analytics.Summary)
			r.Get("/dashboard-stats", deps.Analytics.DashboardStats)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.Error(w, http.StatusNotFound, "not found")
		})
	})

	r.NotFound(SPA(opts.StaticDir).ServeHTTP)
	return r
}

const uploadPrefix = upload.URLPrefix

func clientIPKey(r *http.Request) (string, error) {
	if ip := middleware.ClientIPFromContext(r.Context()); ip != "" {
		return ip, nil
	}
	return middleware.ResolveClientIP(r), nil
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	httpx.Error(w, http.StatusTooManyRequests, "Too many requests, please try again later")
}

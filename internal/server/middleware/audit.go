package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"portfolio-cms/backend/internal/audit"
)

// Audit records an audit entry after each admin request that mutates state or exports data.
// Plain reads are skipped. Best-effort: the logger swallows persistence failures.
func Audit(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if logger == nil {
				return
			}
			pattern := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				pattern = rc.RoutePattern()
			}
			ar := audit.ParseRoute(r.Method, pattern)
			if ar.Action == "get" {
				return
			}
			mobile, _ := GetAdminMobile(r.Context())
			logger.LogEvent(r.Context(), mobile, ar.Action, ar.Resource, "status="+strconv.Itoa(ww.Status()))
		})
	}
}

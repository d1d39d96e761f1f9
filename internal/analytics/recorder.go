// Package analytics records page visits and builds the admin traffic views.
package analytics

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio-cms/backend/internal/analytics/domain"
	"portfolio-cms/backend/internal/analytics/repository"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/metrics"
	"portfolio-cms/backend/internal/server/middleware"
	"portfolio-cms/backend/internal/telemetry"
)

// GeoResolver maps an IP to a location. *geo.Client implements it.
type GeoResolver interface {
	Lookup(ctx context.Context, ip string) (domain.Geo, error)
}

// Sink receives each visit after it is stored.
type Sink interface {
	Publish(ctx context.Context, v *domain.Visit) error
}

var (
	skipPrefixes   = []string{"/static", "/api/auth", "/admin", "/api/broadcast-message"}
	skipExtensions = []string{".ico", ".png", ".jpg", ".css", ".js"}
)

// ShouldTrack reports whether r counts as a page visit. CORS preflights, static assets,
// auth, admin and broadcast calls are not tracked.
func ShouldTrack(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return false
	}
	p := r.URL.Path
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(p, prefix) {
			return false
		}
	}
	for _, ext := range skipExtensions {
		if strings.HasSuffix(p, ext) {
			return false
		}
	}
	return true
}

// Recorder stores visits off the request path.
type Recorder struct {
	repo  repository.Repository
	geo   GeoResolver
	async *telemetry.Async
	sinks []Sink
	now   func() time.Time
}

// NewRecorder returns a Recorder. geo may be nil to skip geolocation; nil sinks are ignored.
func NewRecorder(repo repository.Repository, geo GeoResolver, async *telemetry.Async, sinks ...Sink) *Recorder {
	r := &Recorder{repo: repo, geo: geo, async: async, now: time.Now}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	return r
}

// Record queues a visit for ip/userAgent/path and returns immediately. The visit is dropped
// when the background queue is full.
func (r *Recorder) Record(ip, userAgent, path string) {
	v := &domain.Visit{
		ID:        uuid.New().String(),
		IP:        ip,
		UserAgent: userAgent,
		Path:      path,
		CreatedAt: r.now().UTC(),
	}
	queued := r.async.Go("record visit", func(ctx context.Context) error {
		return r.store(ctx, v)
	})
	if !queued && r.async != nil {
		metrics.RecordVisitFailure("dropped")
	}
}

func (r *Recorder) store(ctx context.Context, v *domain.Visit) error {
	if r.geo != nil && lookupable(v.IP) {
		g, err := r.geo.Lookup(ctx, v.IP)
		if err != nil {
			metrics.RecordVisitFailure("geo")
			logging.Debug().Err(err).Msg("geo lookup failed")
		} else {
			v.Geo = g
		}
	}
	if err := r.repo.Create(ctx, v); err != nil {
		metrics.RecordVisitFailure("store")
		return err
	}
	metrics.RecordVisit()
	for _, s := range r.sinks {
		if err := s.Publish(ctx, v); err != nil {
			metrics.RecordVisitFailure("publish")
			logging.Debug().Err(err).Msg("visit publish failed")
		}
	}
	return nil
}

// Middleware records every trackable request before passing it on.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if ShouldTrack(req) {
			ip := middleware.ClientIPFromContext(req.Context())
			if ip == "" {
				ip = middleware.ResolveClientIP(req)
			}
			r.Record(ip, req.UserAgent(), req.URL.Path)
		}
		next.ServeHTTP(w, req)
	})
}

// lookupable is false for addresses a public geolocation service cannot place.
func lookupable(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !parsed.IsLoopback() && !parsed.IsPrivate() && !parsed.IsUnspecified() && !parsed.IsLinkLocalUnicast()
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	adminrepo "portfolio-cms/backend/internal/admin/repository"
	"portfolio-cms/backend/internal/analytics"
	analyticshandler "portfolio-cms/backend/internal/analytics/handler"
	analyticsrepo "portfolio-cms/backend/internal/analytics/repository"
	"portfolio-cms/backend/internal/backup"
	backuphandler "portfolio-cms/backend/internal/backup/handler"
	"portfolio-cms/backend/internal/broadcast"
	contenthandler "portfolio-cms/backend/internal/content/handler"
	contentrepo "portfolio-cms/backend/internal/content/repository"
	healthhandler "portfolio-cms/backend/internal/health/handler"
	identityhandler "portfolio-cms/backend/internal/identity/handler"
	"portfolio-cms/backend/internal/identity/service"
	"portfolio-cms/backend/internal/inbox"
	inboxhandler "portfolio-cms/backend/internal/inbox/handler"
	inboxrepo "portfolio-cms/backend/internal/inbox/repository"
	"portfolio-cms/backend/internal/mfa"
	"portfolio-cms/backend/internal/otp"
	otprepo "portfolio-cms/backend/internal/otp/repository"
	"portfolio-cms/backend/internal/security"
	"portfolio-cms/backend/internal/server/middleware"
	"portfolio-cms/backend/internal/settings"
	settingshandler "portfolio-cms/backend/internal/settings/handler"
	settingsrepo "portfolio-cms/backend/internal/settings/repository"
	"portfolio-cms/backend/internal/sms"
	"portfolio-cms/backend/internal/telemetry"
	"portfolio-cms/backend/internal/upload"
)

const (
	testMobile   = "9800000000"
	testPassword = "Admin@123"
)

type testApp struct {
	handler http.Handler
	visits  *analyticsrepo.MemoryRepository
	async   *telemetry.Async
}

func newTestApp(t *testing.T, opts Options) *testApp {
	t.Helper()
	ctx := context.Background()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	creds := adminrepo.NewMemoryRepository()
	sender := sms.NewAakashClient("", "", time.Second)
	auth := service.NewAuthService(creds, otp.NewManager(otprepo.NewMemoryRepository(), 5*time.Minute),
		mfa.NewAuthenticator("", ""), sender, security.NewHasher(4), tokens, nil, false)
	if _, err := auth.InitAdmin(ctx, testMobile, testPassword); err != nil {
		t.Fatalf("InitAdmin: %v", err)
	}

	content := contentrepo.NewMemoryRepository()
	settingsSvc := settings.NewService(settingsrepo.NewMemoryRepository(), creds)
	inboxRepo := inboxrepo.NewMemoryRepository()
	visits := analyticsrepo.NewMemoryRepository()
	async := telemetry.NewAsync(time.Second)

	if opts.UploadDir == "" {
		opts.UploadDir = t.TempDir()
	}
	if opts.StaticDir == "" {
		opts.StaticDir = t.TempDir()
	}
	h := NewRouter(Deps{
		Tokens:    tokens,
		Visits:    analytics.NewRecorder(visits, nil, async),
		Health:    healthhandler.NewHandler(nil),
		Identity:  identityhandler.NewHandler(auth),
		Content:   contenthandler.NewHandler(content),
		Settings:  settingshandler.NewHandler(settingsSvc),
		Inbox:     inboxhandler.NewHandler(inbox.NewService(inboxRepo, creds, sender)),
		Broadcast: broadcast.NewHandler(sender),
		Upload:    upload.NewHandler(opts.UploadDir, "http://localhost:5000", 1<<20),
		Backup:    backuphandler.NewHandler(backup.NewService(content, settingsSvc, inboxRepo)),
		Analytics: analyticshandler.NewHandler(analytics.NewService(visits, content)),
	}, opts)
	return &testApp{handler: h, visits: visits, async: async}
}

func (a *testApp) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(t *testing.T) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/login", `{"mobile":"`+testMobile+`","password":"`+testPassword+`"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Token == "" {
		t.Fatalf("login body = %s", rec.Body.String())
	}
	return body.Token
}

func TestRouter_PublicRoutes(t *testing.T) {
	app := newTestApp(t, Options{RateLimitDisabled: true})
	for _, path := range []string{"/api/health", "/api/content", "/api/settings_public", "/metrics"} {
		if rec := app.do(t, http.MethodGet, path, "", ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}
	if rec := app.do(t, http.MethodGet, "/api/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown api route = %d, want 404", rec.Code)
	}
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	app := newTestApp(t, Options{RateLimitDisabled: true})
	protected := []struct{ method, path string }{
		{http.MethodGet, "/api/inbox"},
		{http.MethodGet, "/api/settings"},
		{http.MethodPost, "/api/content"},
		{http.MethodPost, "/api/auth/setup-2fa"},
		{http.MethodPost, "/api/broadcast-message"},
		{http.MethodGet, "/api/backup"},
		{http.MethodGet, "/api/analytics"},
		{http.MethodGet, "/api/dashboard-stats"},
		{http.MethodGet, "/api/export-messages"},
		{http.MethodDelete, "/api/inbox/abc"},
	}
	for _, p := range protected {
		if rec := app.do(t, p.method, p.path, "", ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", p.method, p.path, rec.Code)
		}
	}

	token := app.login(t)
	for _, path := range []string{"/api/inbox", "/api/settings", "/api/backup", "/api/analytics", "/api/dashboard-stats"} {
		if rec := app.do(t, http.MethodGet, path, "", token); rec.Code != http.StatusOK {
			t.Errorf("GET %s with token = %d body=%s", path, rec.Code, rec.Body.String())
		}
	}
	if rec := app.do(t, http.MethodGet, "/api/inbox", "", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token = %d, want 401", rec.Code)
	}
}

func TestRouter_ContentRoundTrip(t *testing.T) {
	app := newTestApp(t, Options{RateLimitDisabled: true})
	token := app.login(t)
	rec := app.do(t, http.MethodPost, "/api/content", `{"section":"about","content":{"bio":"hello"}}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert = %d body=%s", rec.Code, rec.Body.String())
	}
	rec = app.do(t, http.MethodGet, "/api/content", "", "")
	if !strings.Contains(rec.Body.String(), `"bio":"hello"`) {
		t.Errorf("content = %s", rec.Body.String())
	}
}

func TestRouter_LoginRateLimit(t *testing.T) {
	app := newTestApp(t, Options{})
	body := `{"mobile":"` + testMobile + `","password":"wrong-password"}`
	for i := 0; i < 5; i++ {
		if rec := app.do(t, http.MethodPost, "/api/auth/login", body, ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d = %d, want 401", i+1, rec.Code)
		}
	}
	rec := app.do(t, http.MethodPost, "/api/auth/login", body, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("6th attempt = %d, want 429", rec.Code)
	}

	disabled := newTestApp(t, Options{RateLimitDisabled: true})
	for i := 0; i < 7; i++ {
		if rec := disabled.do(t, http.MethodPost, "/api/auth/login", body, ""); rec.Code == http.StatusTooManyRequests {
			t.Fatalf("attempt %d rate limited with limits disabled", i+1)
		}
	}
}

func TestRouter_LoginRateLimitIgnoresForwardedFor(t *testing.T) {
	app := newTestApp(t, Options{})
	body := `{"mobile":"` + testMobile + `","password":"wrong-password"}`
	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 15 {
		t.Errorf("rate limited %d of 20 logins from one socket, want 15", limited)
	}
}

func TestRouter_LoginRateLimitPerForwardedClientBehindTrustedProxy(t *testing.T) {
	proxies, err := middleware.ParseTrustedProxies([]string{"192.0.2.0/24"})
	if err != nil {
		t.Fatalf("ParseTrustedProxies: %v", err)
	}
	app := newTestApp(t, Options{TrustedProxies: proxies})
	body := `{"mobile":"` + testMobile + `","password":"wrong-password"}`
	send := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, req)
		return rec.Code
	}
	for i := 0; i < 5; i++ {
		if code := send("203.0.113.1"); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d = %d, want 401", i+1, code)
		}
	}
	if code := send("203.0.113.1"); code != http.StatusTooManyRequests {
		t.Errorf("6th attempt from same client = %d, want 429", code)
	}
	if code := send("203.0.113.2"); code != http.StatusUnauthorized {
		t.Errorf("first attempt from another client = %d, want 401", code)
	}
}

func TestRouter_ContactRateLimit(t *testing.T) {
	app := newTestApp(t, Options{})
	body := `{"name":"Ann","email":"ann@example.com","phone":"9811111111","reason":"Hire","message":"Hello"}`
	for i := 0; i < 3; i++ {
		if rec := app.do(t, http.MethodPost, "/api/contact", body, ""); rec.Code != http.StatusCreated && rec.Code != http.StatusOK {
			t.Fatalf("contact %d = %d body=%s", i+1, rec.Code, rec.Body.String())
		}
	}
	if rec := app.do(t, http.MethodPost, "/api/contact", body, ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("4th contact = %d, want 429", rec.Code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	app := newTestApp(t, Options{RateLimitDisabled: true, CORSOrigins: []string{"http://localhost:5173"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/content", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_TracksPageVisits(t *testing.T) {
	app := newTestApp(t, Options{RateLimitDisabled: true})
	app.do(t, http.MethodGet, "/", "", "")
	app.do(t, http.MethodGet, "/api/content", "", "")
	app.do(t, http.MethodPost, "/api/auth/login", `{"mobile":"x","password":"y"}`, "")
	app.do(t, http.MethodGet, "/assets/app.js", "", "")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.async.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	n, _ := app.visits.Total(context.Background())
	if n != 2 {
		t.Errorf("recorded %d visits, want 2", n)
	}
}

func TestRouter_SPAAndUploads(t *testing.T) {
	static := t.TempDir()
	uploads := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(static, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(static, "assets", "site.txt"), []byte("asset"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(uploads, "cv.pdf"), []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	app := newTestApp(t, Options{RateLimitDisabled: true, StaticDir: static, UploadDir: uploads})

	testCases := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, "app"},
		{"/admin/dashboard", http.StatusOK, "app"},
		{"/assets/site.txt", http.StatusOK, "asset"},
		{"/static/uploads/cv.pdf", http.StatusOK, "pdf"},
		{"/static/uploads/", http.StatusNotFound, ""},
		{"/static/uploads/missing.pdf", http.StatusNotFound, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, tc.path, "", "")
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantBody != "" && !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestSPA_NotBuilt(t *testing.T) {
	rec := httptest.NewRecorder()
	SPA(t.TempDir()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Frontend not built") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

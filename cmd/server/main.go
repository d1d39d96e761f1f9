// server runs the portfolio HTTP API, admin endpoints and the built frontend.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	adminrepo "portfolio-cms/backend/internal/admin/repository"
	"portfolio-cms/backend/internal/analytics"
	"portfolio-cms/backend/internal/analytics/geo"
	analyticshandler "portfolio-cms/backend/internal/analytics/handler"
	analyticsrepo "portfolio-cms/backend/internal/analytics/repository"
	"portfolio-cms/backend/internal/audit"
	auditrepo "portfolio-cms/backend/internal/audit/repository"
	"portfolio-cms/backend/internal/backup"
	backuphandler "portfolio-cms/backend/internal/backup/handler"
	"portfolio-cms/backend/internal/broadcast"
	"portfolio-cms/backend/internal/config"
	contenthandler "portfolio-cms/backend/internal/content/handler"
	contentrepo "portfolio-cms/backend/internal/content/repository"
	"portfolio-cms/backend/internal/db"
	healthhandler "portfolio-cms/backend/internal/health/handler"
	identityhandler "portfolio-cms/backend/internal/identity/handler"
	"portfolio-cms/backend/internal/identity/service"
	"portfolio-cms/backend/internal/inbox"
	inboxhandler "portfolio-cms/backend/internal/inbox/handler"
	inboxrepo "portfolio-cms/backend/internal/inbox/repository"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/mfa"
	"portfolio-cms/backend/internal/otp"
	otprepo "portfolio-cms/backend/internal/otp/repository"
	"portfolio-cms/backend/internal/security"
	"portfolio-cms/backend/internal/server"
	"portfolio-cms/backend/internal/server/middleware"
	"portfolio-cms/backend/internal/settings"
	settingshandler "portfolio-cms/backend/internal/settings/handler"
	settingsrepo "portfolio-cms/backend/internal/settings/repository"
	"portfolio-cms/backend/internal/sms"
	"portfolio-cms/backend/internal/telemetry"
	"portfolio-cms/backend/internal/telemetry/loki"
	telemetryotel "portfolio-cms/backend/internal/telemetry/otel"
	"portfolio-cms/backend/internal/upload"
)

const (
	serviceName     = "portfolio-cms"
	shutdownTimeout = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Timestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		return err
	}
	providers.SetGlobal()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return fmt.Errorf("load JWT key pair: %w", err)
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL())

	otpRepo, closeOTP, err := openOTPRepository(ctx, cfg, conn)
	if err != nil {
		return err
	}
	defer closeOTP()

	sender := sms.NewBreakerSender(
		sms.NewAakashClient(cfg.AakashSMSToken, cfg.SMSBaseURL, cfg.SMSRequestTimeout()),
		sms.DefaultBreakerConfig(),
	)
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), middleware.ClientIPFromContext)

	creds := adminrepo.NewPostgresRepository(conn)
	auth := service.NewAuthService(
		creds,
		otp.NewManager(otpRepo, cfg.ResetTokenTTL()),
		mfa.NewAuthenticator(cfg.TOTPIssuer, cfg.TOTPAccount),
		sender,
		security.NewHasher(cfg.BcryptCost),
		tokens,
		auditLogger,
		cfg.OTPReturnToClient,
	)
	if _, err := auth.InitAdmin(ctx, cfg.AdminMobile, cfg.AdminPassword); err != nil {
		return fmt.Errorf("init admin: %w", err)
	}

	content := contentrepo.NewPostgresRepository(conn)
	inboxRepo := inboxrepo.NewPostgresRepository(conn)
	settingsSvc := settings.NewService(settingsrepo.NewPostgresRepository(conn), creds)
	visits := analyticsrepo.NewPostgresRepository(conn)

	async := telemetry.NewAsync(telemetry.DefaultTaskTimeout)
	var lokiClient *loki.Client
	if cfg.LokiURL != "" {
		lokiClient = loki.NewClient(cfg.LokiURL, serviceName)
	}
	var emitter telemetryotel.EventEmitter
	if cfg.OTLPEndpoint != "" {
		emitter = telemetryotel.NewEventEmitter(providers.LoggerProvider, serviceName+"/visits")
	}
	recorder := analytics.NewRecorder(visits, geo.NewClient(cfg.GeoIPURL), async,
		analytics.NewLokiSink(lokiClient), analytics.NewOTelSink(emitter))

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxiesList())
	if err != nil {
		return fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
	}
	router := server.NewRouter(server.Deps{
		Tokens:    tokens,
		Audit:     auditLogger,
		Visits:    recorder,
		Health:    healthhandler.NewHandler(conn),
		Identity:  identityhandler.NewHandler(auth),
		Content:   contenthandler.NewHandler(content),
		Settings:  settingshandler.NewHandler(settingsSvc),
		Inbox:     inboxhandler.NewHandler(inbox.NewService(inboxRepo, creds, sender)),
		Broadcast: broadcast.NewHandler(sender),
		Upload:    upload.NewHandler(cfg.UploadDir, cfg.BaseURL, cfg.MaxUploadBytes),
		Backup:    backuphandler.NewHandler(backup.NewService(content, settingsSvc, inboxRepo)),
		Analytics: analyticshandler.NewHandler(analytics.NewService(visits, content)),
	}, server.Options{
		CORSOrigins:       cfg.CORSOriginsList(),
		RateLimitDisabled: cfg.RateLimitDisabled,
		TrustedProxies:    proxies,
		UploadDir:         cfg.UploadDir,
		StaticDir:         cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.HTTPAddr).Bool("sms_simulated", cfg.AakashSMSToken == "").Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("http shutdown")
	}
	if err := async.Wait(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("pending visit recordings dropped")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("otel shutdown")
	}
	logging.Info().Msg("http server stopped")
	return nil
}

// openOTPRepository returns the Redis challenge store when REDIS_URL is set, else Postgres.
func openOTPRepository(ctx context.Context, cfg *config.Config, conn *sql.DB) (otprepo.Repository, func(), error) {
	if cfg.RedisURL == "" {
		return otprepo.NewPostgresRepository(conn), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logging.Info().Msg("otp challenges stored in redis")
	return otprepo.NewRedisRepository(client, "portfolio:otp"), func() { _ = client.Close() }, nil
}

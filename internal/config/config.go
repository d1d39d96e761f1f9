// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :5000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL, when set, moves OTP challenges from Postgres to Redis (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`

	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim on session tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim on session tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTSessionTTL is the session token lifetime (e.g. "24h").
	JWTSessionTTL string `mapstructure:"JWT_SESSION_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// AdminMobile and AdminPassword seed the admin credential on first start only.
	AdminMobile   string `mapstructure:"ADMIN_MOBILE"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	// AakashSMSToken is the gateway auth token. Empty means sends are simulated and logged.
	AakashSMSToken string `mapstructure:"AAKASH_SMS_TOKEN"`
	// SMSBaseURL is the gateway send endpoint.
	SMSBaseURL string `mapstructure:"SMS_BASE_URL"`
	// SMSTimeout bounds a single gateway call (e.g. "5s").
	SMSTimeout string `mapstructure:"SMS_TIMEOUT"`

	// OTPReturnToClient when true echoes issued OTPs in API responses while the gateway is simulated.
	// Must not be true when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// ResetTokenTTLRaw is how long a password reset token minted after OTP verification stays usable.
	ResetTokenTTLRaw string `mapstructure:"RESET_TOKEN_TTL"`

	// TOTPIssuer and TOTPAccount label the otpauth URI shown during MFA enrollment.
	TOTPIssuer  string `mapstructure:"TOTP_ISSUER"`
	TOTPAccount string `mapstructure:"TOTP_ACCOUNT"`

	// CORSAllowedOrigins is a comma-separated list of allowed browser origins.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// RateLimitDisabled turns off all request rate limits (local testing only).
	RateLimitDisabled bool `mapstructure:"RATE_LIMIT_DISABLED"`
	// TrustedProxies is a comma-separated list of proxy CIDRs or IPs allowed to set
	// X-Forwarded-For. Empty means forwarding headers are ignored.
	TrustedProxies string `mapstructure:"TRUSTED_PROXIES"`

	// UploadDir is where admin uploads are written; served under /static/uploads.
	UploadDir string `mapstructure:"UPLOAD_DIR"`
	// BaseURL prefixes returned upload URLs.
	BaseURL string `mapstructure:"BASE_URL"`
	// StaticDir holds the built frontend (index.html + assets).
	StaticDir string `mapstructure:"STATIC_DIR"`
	// MaxUploadBytes caps a single upload request body.
	MaxUploadBytes int64 `mapstructure:"MAX_UPLOAD_BYTES"`

	// GeoIPURL is the ip-api style lookup endpoint used for visitor geolocation.
	GeoIPURL string `mapstructure:"GEOIP_URL"`
	// LokiURL, when set, receives one log line per recorded visit (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext gRPC to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// LogLevel and LogFormat configure zerolog (json or console).
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if .env cannot be
// parsed or required fields are invalid.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !configFileMissing(err) {
		return nil, fmt.Errorf("config: read %s: %w", envFile, err)
	}

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":5000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "portfolio-cms")
	v.SetDefault("JWT_AUDIENCE", "portfolio-admin")
	v.SetDefault("JWT_SESSION_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("ADMIN_MOBILE", "9860000000")
	v.SetDefault("ADMIN_PASSWORD", "Admin@123")
	v.SetDefault("AAKASH_SMS_TOKEN", "")
	v.SetDefault("SMS_BASE_URL", "https://sms.aakashsms.com/sms/v3/send")
	v.SetDefault("SMS_TIMEOUT", "5s")
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("RESET_TOKEN_TTL", "5m")
	v.SetDefault("TOTP_ISSUER", "Portfolio CMS")
	v.SetDefault("TOTP_ACCOUNT", "Admin")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("RATE_LIMIT_DISABLED", false)
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("UPLOAD_DIR", "static/uploads")
	v.SetDefault("BASE_URL", "http://localhost:5000")
	v.SetDefault("STATIC_DIR", "static/dist")
	v.SetDefault("MAX_UPLOAD_BYTES", 16<<20)
	v.SetDefault("GEOIP_URL", "http://ip-api.com/json")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.OTPReturnToClient && cfg.Env == "production" {
		return nil, errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.AdminMobile == "" || cfg.AdminPassword == "" {
		return nil, errors.New("config: ADMIN_MOBILE and ADMIN_PASSWORD must be set")
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, errors.New("config: MAX_UPLOAD_BYTES must be positive")
	}

	return &cfg, nil
}

// SessionTTL parses JWTSessionTTL as a time.Duration. Returns 24h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	return parseDurationOr(c.JWTSessionTTL, 24*time.Hour)
}

// ResetTokenTTL parses ResetTokenTTLRaw as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) ResetTokenTTL() time.Duration {
	return parseDurationOr(c.ResetTokenTTLRaw, 5*time.Minute)
}

// SMSRequestTimeout parses SMSTimeout as a time.Duration. Returns 5s if unset or invalid.
func (c *Config) SMSRequestTimeout() time.Duration {
	return parseDurationOr(c.SMSTimeout, 5*time.Second)
}

// CORSOriginsList returns the allowed origins from the comma-separated config.
func (c *Config) CORSOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxiesList returns the trusted proxy entries from the comma-separated config.
func (c *Config) TrustedProxiesList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.TrustedProxies)
}

// configFileMissing reports whether err only means there is no config file. With SetConfigFile
// viper surfaces a missing file as an fs error rather than ConfigFileNotFoundError.
func configFileMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

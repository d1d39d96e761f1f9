package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":5000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":5000")
	}
	if cfg.JWTIssuer != "portfolio-cms" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "portfolio-cms")
	}
	if cfg.JWTAudience != "portfolio-admin" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "portfolio-admin")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.AdminMobile != "9860000000" {
		t.Errorf("AdminMobile = %q, want %q", cfg.AdminMobile, "9860000000")
	}
	if cfg.SMSBaseURL != "https://sms.aakashsms.com/sms/v3/send" {
		t.Errorf("SMSBaseURL = %q, want default", cfg.SMSBaseURL)
	}
	if cfg.AakashSMSToken != "" {
		t.Errorf("AakashSMSToken = %q, want empty", cfg.AakashSMSToken)
	}
	if cfg.MaxUploadBytes != 16<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 16<<20)
	}
	if cfg.TOTPIssuer != "Portfolio CMS" {
		t.Errorf("TOTPIssuer = %q, want %q", cfg.TOTPIssuer, "Portfolio CMS")
	}
	if cfg.OTPReturnToClient {
		t.Error("OTPReturnToClient should default to false")
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL())
	}
	if cfg.ResetTokenTTL() != 5*time.Minute {
		t.Errorf("ResetTokenTTL = %v, want 5m", cfg.ResetTokenTTL())
	}
	if cfg.SMSRequestTimeout() != 5*time.Second {
		t.Errorf("SMSRequestTimeout = %v, want 5s", cfg.SMSRequestTimeout())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("ADMIN_MOBILE", "9811111111")
	os.Setenv("SMS_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.AdminMobile != "9811111111" {
		t.Errorf("AdminMobile = %q, want %q", cfg.AdminMobile, "9811111111")
	}
	if cfg.SMSRequestTimeout() != 3*time.Second {
		t.Errorf("SMSRequestTimeout = %v, want 3s", cfg.SMSRequestTimeout())
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 12, false}, // Should default to 12
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_OTPReturnToClientProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("OTP_RETURN_TO_CLIENT", "true")
	os.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should return error when OTP_RETURN_TO_CLIENT=true and APP_ENV=production")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
	if err.Error() != "config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production" {
		t.Errorf("error = %q, want production message", err.Error())
	}
}

func TestLoad_OTPReturnToClientDevelopment(t *testing.T) {
	os.Clearenv()
	os.Setenv("OTP_RETURN_TO_CLIENT", "true")
	os.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.OTPReturnToClient {
		t.Error("OTPReturnToClient should be true")
	}
}

func TestLoad_MaxUploadBytesMustBePositive(t *testing.T) {
	os.Clearenv()
	os.Setenv("MAX_UPLOAD_BYTES", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject a negative MAX_UPLOAD_BYTES")
	}
}

func TestDurations_FallBackOnInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		value string
	}{
		{"invalid", "invalid"},
		{"zero", "0"},
		{"negative", "-5m"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{JWTSessionTTL: tc.value, ResetTokenTTLRaw: tc.value, SMSTimeout: tc.value}
			if got := cfg.SessionTTL(); got != 24*time.Hour {
				t.Errorf("SessionTTL = %v, want 24h", got)
			}
			if got := cfg.ResetTokenTTL(); got != 5*time.Minute {
				t.Errorf("ResetTokenTTL = %v, want 5m", got)
			}
			if got := cfg.SMSRequestTimeout(); got != 5*time.Second {
				t.Errorf("SMSRequestTimeout = %v, want 5s", got)
			}
		})
	}
}

func TestCORSOriginsList(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"single", "https://example.com", []string{"https://example.com"}},
		{"trims and skips blanks", " https://a.com , ,https://b.com ", []string{"https://a.com", "https://b.com"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{CORSAllowedOrigins: tc.raw}
			got := cfg.CORSOriginsList()
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("CORSOriginsList() = %v, want %v", got, tc.want)
			}
		})
	}
	var nilCfg *Config
	if got := nilCfg.CORSOriginsList(); got != nil {
		t.Errorf("nil config CORSOriginsList() = %v, want nil", got)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()

	if _, err := load(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("load with missing .env: %v", err)
	}

	good := filepath.Join(dir, "good.env")
	if err := os.WriteFile(good, []byte("HTTP_ADDR=:7070\nTRUSTED_PROXIES=10.0.0.0/8\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := load(good)
	if err != nil {
		t.Fatalf("load good .env: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":7070")
	}
	if got := cfg.TrustedProxiesList(); !reflect.DeepEqual(got, []string{"10.0.0.0/8"}) {
		t.Errorf("TrustedProxiesList() = %v, want [10.0.0.0/8]", got)
	}

	bad := filepath.Join(dir, "bad.env")
	if err := os.WriteFile(bad, []byte("this line is not an assignment\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := load(bad); err == nil {
		t.Error("load with malformed .env should fail")
	}
}

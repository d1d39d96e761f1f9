package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	admindomain "portfolio-cms/backend/internal/admin/domain"
	adminrepo "portfolio-cms/backend/internal/admin/repository"
	"portfolio-cms/backend/internal/mfa"
	"portfolio-cms/backend/internal/otp"
	otpdomain "portfolio-cms/backend/internal/otp/domain"
	otprepo "portfolio-cms/backend/internal/otp/repository"
	"portfolio-cms/backend/internal/security"
	"portfolio-cms/backend/internal/sms"
)

const testMobile = "9800000000"

type sentSMS struct {
	to, text string
}

type memSender struct {
	mu     sync.Mutex
	status sms.Status
	sent   []sentSMS
}

func (s *memSender) Send(ctx context.Context, to, text string) sms.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentSMS{to, text})
	if s.status == sms.StatusFailed {
		return sms.Failed("gateway down")
	}
	return sms.Result{Status: s.status}
}

func (s *memSender) last() sentSMS {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentSMS{}
	}
	return s.sent[len(s.sent)-1]
}

type memAuditLogger struct {
	mu      sync.Mutex
	actions []string
}

func (l *memAuditLogger) LogEvent(ctx context.Context, actor, action, resource, metadata string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, action)
}

func (l *memAuditLogger) has(action string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.actions {
		if a == action {
			return true
		}
	}
	return false
}

type testEnv struct {
	svc    *AuthService
	creds  *adminrepo.MemoryRepository
	otps   *otp.Manager
	sender *memSender
	audit  *memAuditLogger
	tokens *security.TokenProvider
}

func newTestEnvOpt(t *testing.T, exposeOTP bool, status sms.Status) *testEnv {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	env := &testEnv{
		creds:  adminrepo.NewMemoryRepository(),
		otps:   otp.NewManager(otprepo.NewMemoryRepository(), 5*time.Minute),
		sender: &memSender{status: status},
		audit:  &memAuditLogger{},
		tokens: tokens,
	}
	env.svc = NewAuthService(env.creds, env.otps, mfa.NewAuthenticator("", ""), env.sender,
		security.NewHasher(4), tokens, env.audit, exposeOTP)
	if _, err := env.svc.InitAdmin(context.Background(), testMobile, "Admin@123"); err != nil {
		t.Fatalf("InitAdmin: %v", err)
	}
	return env
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvOpt(t, true, sms.StatusSimulated)
}

func (e *testEnv) enableMFA(t *testing.T) string {
	t.Helper()
	enr, err := e.svc.SetupMFA(context.Background())
	if err != nil {
		t.Fatalf("SetupMFA: %v", err)
	}
	code, err := totp.GenerateCode(enr.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if err := e.svc.ConfirmMFA(context.Background(), enr.Secret, code); err != nil {
		t.Fatalf("ConfirmMFA: %v", err)
	}
	return enr.Secret
}

func TestAuthService_InitAdminIdempotent(t *testing.T) {
	env := newTestEnv(t)
	created, err := env.svc.InitAdmin(context.Background(), "9811111111", "Other@123")
	if err != nil {
		t.Fatalf("InitAdmin: %v", err)
	}
	if created {
		t.Error("second InitAdmin should not create")
	}
	cred, _ := env.creds.Get(context.Background())
	if cred.Mobile != testMobile {
		t.Errorf("mobile = %q, want %q (unchanged)", cred.Mobile, testMobile)
	}
}

func TestAuthService_InitAdminInvalidMobile(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.InitAdmin(context.Background(), "12", "Admin@123"); !errors.Is(err, admindomain.ErrInvalidMobile) {
		t.Errorf("InitAdmin: want ErrInvalidMobile, got %v", err)
	}
}

func TestAuthService_LoginWithoutMFA(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.svc.Login(context.Background(), testMobile, "Admin@123", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" {
		t.Fatal("token empty")
	}
	mobile, err := env.tokens.ValidateSession(res.Token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if mobile != testMobile {
		t.Errorf("token mobile = %q, want %q", mobile, testMobile)
	}
	if !env.audit.has("login_success") {
		t.Error("login_success not audited")
	}
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	testCases := []struct {
		name, mobile, password string
	}{
		{"wrong password", testMobile, "wrong"},
		{"wrong mobile", "9811111111", "Admin@123"},
		{"empty", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := env.svc.Login(context.Background(), tc.mobile, tc.password, "")
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login: want ErrInvalidCredentials, got %v", err)
			}
			if res != nil {
				t.Error("no token should be issued")
			}
		})
	}
	if !env.audit.has("login_failure") {
		t.Error("login_failure not audited")
	}
}

func TestAuthService_LoginMFA(t *testing.T) {
	env := newTestEnv(t)
	secret := env.enableMFA(t)
	ctx := context.Background()

	if _, err := env.svc.Login(ctx, testMobile, "Admin@123", ""); !errors.Is(err, ErrMFARequired) {
		t.Errorf("Login without code: want ErrMFARequired, got %v", err)
	}
	current, _ := totp.GenerateCode(secret, time.Now())
	wrong := "000000"
	if current == wrong {
		wrong = "111111"
	}
	if _, err := env.svc.Login(ctx, testMobile, "Admin@123", wrong); !errors.Is(err, ErrInvalidMFACode) {
		t.Errorf("Login with wrong code: want ErrInvalidMFACode, got %v", err)
	}
	if _, err := env.svc.Login(ctx, testMobile, "wrong", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login wrong password with MFA: want ErrInvalidCredentials, got %v", err)
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	res, err := env.svc.Login(ctx, testMobile, "Admin@123", code)
	if err != nil {
		t.Fatalf("Login with code: %v", err)
	}
	if res.Mobile != testMobile {
		t.Errorf("Mobile = %q, want %q", res.Mobile, testMobile)
	}
}

func TestAuthService_LoginRehashesLowCostHash(t *testing.T) {
	env := newTestEnv(t)
	low, _ := security.NewHasher(4).Hash([]byte("Admin@123"))
	_ = env.creds.SetPassword(context.Background(), low)
	env.svc.hasher = security.NewHasher(5)

	if _, err := env.svc.Login(context.Background(), testMobile, "Admin@123", ""); err != nil {
		t.Fatalf("Login: %v", err)
	}
	cred, _ := env.creds.Get(context.Background())
	if env.svc.hasher.NeedsRehash(cred.PasswordHash) {
		t.Error("password hash should be upgraded to the configured cost")
	}
}

func TestAuthService_LoginNotInitialized(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(adminrepo.NewMemoryRepository(), env.otps, mfa.NewAuthenticator("", ""), env.sender,
		security.NewHasher(4), env.tokens, env.audit, true)
	if _, err := svc.Login(context.Background(), testMobile, "Admin@123", ""); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Login: want ErrNotInitialized, got %v", err)
	}
}

func TestAuthService_ConfirmMFAWrongCodeLeavesSecretUnset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	enr, err := env.svc.SetupMFA(ctx)
	if err != nil {
		t.Fatalf("SetupMFA: %v", err)
	}
	stale, _ := totp.GenerateCode(enr.Secret, time.Now().Add(-10*time.Minute))
	current, _ := totp.GenerateCode(enr.Secret, time.Now())
	if stale != current {
		if err := env.svc.ConfirmMFA(ctx, enr.Secret, stale); !errors.Is(err, ErrInvalidMFACode) {
			t.Errorf("ConfirmMFA stale: want ErrInvalidMFACode, got %v", err)
		}
	}
	if err := env.svc.ConfirmMFA(ctx, "NOT-BASE32!", "123456"); !errors.Is(err, ErrInvalidMFACode) {
		t.Errorf("ConfirmMFA bad secret: want ErrInvalidMFACode, got %v", err)
	}
	cred, _ := env.creds.Get(ctx)
	if cred.MFAEnabled() {
		t.Error("MFA secret should not be persisted after failed confirmation")
	}

	var ve *ValidationError
	if err := env.svc.ConfirmMFA(ctx, "", "123456"); !errors.As(err, &ve) {
		t.Errorf("ConfirmMFA empty secret: want ValidationError, got %v", err)
	}
}

func TestAuthService_SetupMFAPersistsNothing(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.SetupMFA(context.Background()); err != nil {
		t.Fatalf("SetupMFA: %v", err)
	}
	cred, _ := env.creds.Get(context.Background())
	if cred.MFAEnabled() {
		t.Error("SetupMFA must not persist the secret")
	}
}

func TestAuthService_ConfirmMFAPersistsSecret(t *testing.T) {
	env := newTestEnv(t)
	secret := env.enableMFA(t)
	cred, _ := env.creds.Get(context.Background())
	if cred.MFASecret != secret {
		t.Errorf("MFASecret = %q, want %q", cred.MFASecret, secret)
	}
	if !env.audit.has("mfa_enabled") {
		t.Error("mfa_enabled not audited")
	}
}

func TestAuthService_DisableMFA(t *testing.T) {
	env := newTestEnv(t)
	env.enableMFA(t)
	ctx := context.Background()

	if err := env.svc.DisableMFA(ctx, "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("DisableMFA wrong password: want ErrInvalidPassword, got %v", err)
	}
	cred, _ := env.creds.Get(ctx)
	if !cred.MFAEnabled() {
		t.Fatal("MFA should remain enabled after a failed disable")
	}
	if err := env.svc.DisableMFA(ctx, "Admin@123"); err != nil {
		t.Fatalf("DisableMFA: %v", err)
	}
	cred, _ = env.creds.Get(ctx)
	if cred.MFAEnabled() {
		t.Error("MFA should be disabled")
	}
	if _, err := env.svc.Login(ctx, testMobile, "Admin@123", ""); err != nil {
		t.Errorf("Login after disable: %v", err)
	}
}

func TestAuthService_ForgotPasswordFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	d, err := env.svc.RequestPasswordReset(ctx, testMobile)
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if !d.Issued || d.DevCode == "" {
		t.Fatalf("dispatch = %+v, want issued with dev code", d)
	}
	if got := env.sender.last(); got.to != testMobile {
		t.Errorf("OTP sent to %q, want %q", got.to, testMobile)
	}

	grant, err := env.svc.VerifyResetOTP(ctx, testMobile, d.DevCode)
	if err != nil {
		t.Fatalf("VerifyResetOTP: %v", err)
	}
	if grant.Token == "" || grant.Token == "verified" {
		t.Fatalf("reset token = %q, want a random token", grant.Token)
	}

	if err := env.svc.ResetPassword(ctx, testMobile, "verified", "NewPass@456"); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("ResetPassword with sentinel: want ErrInvalidResetToken, got %v", err)
	}
	if err := env.svc.ResetPassword(ctx, testMobile, grant.Token, "NewPass@456"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := env.svc.Login(ctx, testMobile, "NewPass@456", ""); err != nil {
		t.Errorf("Login with new password: %v", err)
	}
	if _, err := env.svc.Login(ctx, testMobile, "Admin@123", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login with old password: want ErrInvalidCredentials, got %v", err)
	}

	// The token and challenge are consumed.
	if err := env.svc.ResetPassword(ctx, testMobile, grant.Token, "Another@789"); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("ResetPassword replay: want ErrInvalidResetToken, got %v", err)
	}
	var oe *OTPError
	if _, err := env.svc.VerifyResetOTP(ctx, testMobile, d.DevCode); !errors.As(err, &oe) || oe.Outcome != otpdomain.NotFound {
		t.Errorf("VerifyResetOTP after reset: want not_found, got %v", err)
	}
	if !env.audit.has("password_reset") {
		t.Error("password_reset not audited")
	}
}

func TestAuthService_ForgotPasswordUnknownMobile(t *testing.T) {
	env := newTestEnv(t)
	d, err := env.svc.RequestPasswordReset(context.Background(), "9811111111")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if d.Issued {
		t.Error("no OTP should be issued for an unknown mobile")
	}
	if len(env.sender.sent) != 0 {
		t.Errorf("sent = %d messages, want 0", len(env.sender.sent))
	}
}

func TestAuthService_ForgotPasswordThreeMismatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	d, err := env.svc.RequestPasswordReset(ctx, testMobile)
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	wrong := "000000"
	if d.DevCode == wrong {
		wrong = "111111"
	}
	for i := 0; i < 3; i++ {
		var oe *OTPError
		if _, err := env.svc.VerifyResetOTP(ctx, testMobile, wrong); !errors.As(err, &oe) || oe.Outcome != otpdomain.Mismatch {
			t.Fatalf("attempt %d: want mismatch, got %v", i+1, err)
		}
	}
	var oe *OTPError
	if _, err := env.svc.VerifyResetOTP(ctx, testMobile, d.DevCode); !errors.As(err, &oe) || oe.Outcome != otpdomain.TooManyAttempts {
		t.Errorf("fourth attempt with correct code: want too_many_attempts, got %v", err)
	}
}

func TestAuthService_ResetPasswordValidation(t *testing.T) {
	env := newTestEnv(t)
	var ve *ValidationError
	if err := env.svc.ResetPassword(context.Background(), testMobile, "tok", "short"); !errors.As(err, &ve) {
		t.Errorf("ResetPassword short password: want ValidationError, got %v", err)
	}
	if err := env.svc.ResetPassword(context.Background(), "", "tok", "LongEnough1"); !errors.As(err, &ve) {
		t.Errorf("ResetPassword missing mobile: want ValidationError, got %v", err)
	}
}

func TestAuthService_DevCodeOnlyWhenSimulated(t *testing.T) {
	testCases := []struct {
		name   string
		expose bool
		status sms.Status
		want   bool
	}{
		{"simulated and enabled", true, sms.StatusSimulated, true},
		{"simulated but disabled", false, sms.StatusSimulated, false},
		{"real gateway", true, sms.StatusSent, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnvOpt(t, tc.expose, tc.status)
			d, err := env.svc.RequestPasswordReset(context.Background(), testMobile)
			if err != nil {
				t.Fatalf("RequestPasswordReset: %v", err)
			}
			if got := d.DevCode != ""; got != tc.want {
				t.Errorf("DevCode present = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAuthService_GatewayFailureKeepsOTP(t *testing.T) {
	env := newTestEnvOpt(t, false, sms.StatusFailed)
	ctx := context.Background()
	d, err := env.svc.RequestPasswordReset(ctx, testMobile)
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if d.Delivery.OK() {
		t.Error("delivery should be reported as failed")
	}
	if !d.Issued {
		t.Error("OTP should still be issued when delivery fails")
	}
	var oe *OTPError
	if _, err := env.svc.VerifyResetOTP(ctx, testMobile, "000000"); errors.As(err, &oe) && oe.Outcome == otpdomain.NotFound {
		t.Error("challenge should exist despite delivery failure")
	}
}

func TestAuthService_MobileChangeFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	d, err := env.svc.RequestMobileChange(ctx)
	if err != nil {
		t.Fatalf("RequestMobileChange: %v", err)
	}
	if got := env.sender.last(); got.to != testMobile {
		t.Errorf("OTP sent to %q, want current mobile %q", got.to, testMobile)
	}
	if d.MaskedMobile != "0000" {
		t.Errorf("MaskedMobile = %q", d.MaskedMobile)
	}
	if !d.ExpiresAt.After(time.Now().Add(90 * time.Second)) {
		t.Errorf("ExpiresAt = %v, want ~120s ahead", d.ExpiresAt)
	}

	wrong := "000000"
	if d.DevCode == wrong {
		wrong = "111111"
	}
	var oe *OTPError
	if err := env.svc.ConfirmMobileChange(ctx, wrong, "9811111111"); !errors.As(err, &oe) || oe.Outcome != otpdomain.Mismatch {
		t.Errorf("ConfirmMobileChange wrong code: want mismatch, got %v", err)
	}
	cred, _ := env.creds.Get(ctx)
	if cred.Mobile != testMobile {
		t.Fatalf("mobile changed before verification: %q", cred.Mobile)
	}

	if err := env.svc.ConfirmMobileChange(ctx, d.DevCode, "9811111111"); err != nil {
		t.Fatalf("ConfirmMobileChange: %v", err)
	}
	cred, _ = env.creds.Get(ctx)
	if cred.Mobile != "9811111111" {
		t.Errorf("mobile = %q, want 9811111111", cred.Mobile)
	}
	if err := env.svc.ConfirmMobileChange(ctx, d.DevCode, "9822222222"); !errors.As(err, &oe) || oe.Outcome != otpdomain.NotFound {
		t.Errorf("ConfirmMobileChange replay: want not_found, got %v", err)
	}
	if _, err := env.svc.Login(ctx, "9811111111", "Admin@123", ""); err != nil {
		t.Errorf("Login with new mobile: %v", err)
	}
}

func TestAuthService_MobileChangeInvalidNewMobile(t *testing.T) {
	env := newTestEnv(t)
	var ve *ValidationError
	for _, m := range []string{"", "98111", "98111111112", "98111abcde"} {
		if err := env.svc.ConfirmMobileChange(context.Background(), "123456", m); !errors.As(err, &ve) {
			t.Errorf("ConfirmMobileChange(%q): want ValidationError, got %v", m, err)
		}
	}
}

func TestAuthService_ResetOTPCannotConfirmMobileChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	change, err := env.svc.RequestMobileChange(ctx)
	if err != nil {
		t.Fatalf("RequestMobileChange: %v", err)
	}
	reset, err := env.svc.RequestPasswordReset(ctx, testMobile)
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if reset.DevCode != change.DevCode {
		var oe *OTPError
		if err := env.svc.ConfirmMobileChange(ctx, reset.DevCode, "9811111111"); !errors.As(err, &oe) {
			t.Errorf("reset OTP used for mobile change: want OTPError, got %v", err)
		}
	}
	if err := env.svc.ConfirmMobileChange(ctx, change.DevCode, "9811111111"); err != nil {
		t.Errorf("pending mobile change OTP should survive a reset request: %v", err)
	}
}

func TestOTPError_Messages(t *testing.T) {
	want := map[otpdomain.Outcome]string{
		otpdomain.NotFound:        "no OTP request found",
		otpdomain.Expired:         "OTP expired",
		otpdomain.TooManyAttempts: "too many attempts, request a new OTP",
		otpdomain.Mismatch:        "invalid OTP",
	}
	for o, msg := range want {
		if got := (&OTPError{Outcome: o}).Error(); got != msg {
			t.Errorf("OTPError(%s) = %q, want %q", o, got, msg)
		}
	}
}

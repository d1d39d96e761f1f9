package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	admindomain "portfolio-cms/backend/internal/admin/domain"
	"portfolio-cms/backend/internal/audit"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/metrics"
	"portfolio-cms/backend/internal/mfa"
	"portfolio-cms/backend/internal/otp"
	otpdomain "portfolio-cms/backend/internal/otp/domain"
	"portfolio-cms/backend/internal/security"
	"portfolio-cms/backend/internal/server/middleware"
	"portfolio-cms/backend/internal/sms"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status codes.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMFARequired        = errors.New("two-factor authentication code required")
	ErrInvalidMFACode     = errors.New("invalid two-factor code")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrMFANotEnabled      = errors.New("two-factor authentication is not enabled")
	ErrInvalidResetToken  = otp.ErrInvalidResetToken
	ErrNotInitialized     = admindomain.ErrNotInitialized
)

// OTPError reports a verification that did not return Accepted.
type OTPError struct {
	Outcome otpdomain.Outcome
}

func (e *OTPError) Error() string {
	switch e.Outcome {
	case otpdomain.NotFound:
		return "no OTP request found"
	case otpdomain.Expired:
		return "OTP expired"
	case otpdomain.TooManyAttempts:
		return "too many attempts, request a new OTP"
	default:
		return "invalid OTP"
	}
}

// ValidationError reports missing or malformed input. No state was changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// LoginResult holds the session token issued by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Mobile    string
}

// OTPDispatch describes an issued OTP and its delivery. Delivery failure never undoes the issue.
type OTPDispatch struct {
	// Issued is false when the request was accepted but no challenge was created
	// (forgot-password for an unknown mobile).
	Issued       bool
	ExpiresAt    time.Time
	MaskedMobile string
	Delivery     sms.Result
	// DevCode is the plaintext code, set only when echoing is enabled and delivery was simulated.
	DevCode string
}

// ResetGrant is the single-use token returned after a password reset OTP is accepted.
type ResetGrant struct {
	Token     string
	ExpiresAt time.Time
}

// CredentialRepo is the minimal admin credential repository needed by the auth service.
type CredentialRepo interface {
	Get(ctx context.Context) (*admindomain.Credential, error)
	EnsureInitialized(ctx context.Context, mobile, passwordHash string) (bool, error)
	SetPassword(ctx context.Context, passwordHash string) error
	SetMobile(ctx context.Context, mobile string) error
	SetMFASecret(ctx context.Context, secret string) error
}

// AuthService implements admin login, TOTP enrollment, OTP-gated password reset and mobile change.
type AuthService struct {
	creds       CredentialRepo
	otps        *otp.Manager
	totp        *mfa.Authenticator
	sender      sms.Sender
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	auditLogger audit.AuditLogger
	exposeOTP   bool
}

// NewAuthService returns an AuthService with the given dependencies. auditLogger may be nil.
// exposeOTP echoes issued codes in OTPDispatch.DevCode when the gateway is simulated.
func NewAuthService(
	creds CredentialRepo,
	otps *otp.Manager,
	totp *mfa.Authenticator,
	sender sms.Sender,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	auditLogger audit.AuditLogger,
	exposeOTP bool,
) *AuthService {
	return &AuthService{
		creds:       creds,
		otps:        otps,
		totp:        totp,
		sender:      sender,
		hasher:      hasher,
		tokens:      tokens,
		auditLogger: auditLogger,
		exposeOTP:   exposeOTP,
	}
}

// InitAdmin creates the admin credential from mobile and password if none exists. Safe to call on
// every start and from concurrent processes.
func (s *AuthService) InitAdmin(ctx context.Context, mobile, password string) (bool, error) {
	if err := admindomain.ValidateMobile(mobile); err != nil {
		return false, err
	}
	existing, err := s.creds.Get(ctx)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return false, err
	}
	created, err := s.creds.EnsureInitialized(ctx, mobile, hash)
	if err != nil {
		return false, err
	}
	if created {
		logging.Ctx(ctx).Info().Str("mobile", admindomain.MaskMobile(mobile)).Msg("admin credential initialized")
	}
	return created, nil
}

// Login checks mobile and password, then the TOTP code when MFA is enabled, and issues a session token.
// An empty totpCode with MFA enabled returns ErrMFARequired so the client can prompt for it.
func (s *AuthService) Login(ctx context.Context, mobile, password, totpCode string) (*LoginResult, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" || password == "" {
		s.loginFailed(ctx, mobile, "missing_credentials")
		return nil, ErrInvalidCredentials
	}
	cred, err := s.credential(ctx)
	if err != nil {
		return nil, err
	}
	if cred.Mobile != mobile || s.hasher.Compare(cred.PasswordHash, []byte(password)) != nil {
		s.loginFailed(ctx, mobile, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if cred.MFAEnabled() {
		code := strings.TrimSpace(totpCode)
		if code == "" {
			metrics.RecordAuth("login", "mfa_required")
			return nil, ErrMFARequired
		}
		ok, err := s.totp.Validate(cred.MFASecret, code)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.loginFailed(ctx, mobile, "invalid_mfa_code")
			return nil, ErrInvalidMFACode
		}
	}
	token, exp, err := s.tokens.IssueSession(cred.Mobile)
	if err != nil {
		return nil, err
	}
	if s.hasher.NeedsRehash(cred.PasswordHash) {
		s.rehash(ctx, password)
	}
	metrics.RecordAuth("login", "success")
	s.logAudit(ctx, cred.Mobile, "login_success", "authentication", "")
	return &LoginResult{Token: token, ExpiresAt: exp, Mobile: cred.Mobile}, nil
}

// SetupMFA generates a new TOTP secret for the admin to confirm. Nothing is persisted.
func (s *AuthService) SetupMFA(ctx context.Context) (*mfa.Enrollment, error) {
	if _, err := s.credential(ctx); err != nil {
		return nil, err
	}
	return s.totp.Generate()
}

// ConfirmMFA persists secret only if code validates against it. A wrong or stale code leaves MFA unchanged.
func (s *AuthService) ConfirmMFA(ctx context.Context, secret, code string) error {
	secret = strings.TrimSpace(secret)
	code = strings.TrimSpace(code)
	if secret == "" {
		return &ValidationError{Field: "secret", Reason: "is required"}
	}
	if code == "" {
		return &ValidationError{Field: "token", Reason: "is required"}
	}
	ok, err := s.totp.Validate(secret, code)
	if err != nil {
		// An undecodable secret cannot have produced a valid code.
		ok = false
	}
	if !ok {
		metrics.RecordAuth("mfa_confirm", "invalid_code")
		return ErrInvalidMFACode
	}
	if err := s.creds.SetMFASecret(ctx, secret); err != nil {
		return err
	}
	metrics.RecordAuth("mfa_confirm", "success")
	s.logAudit(ctx, s.actor(ctx), "mfa_enabled", "admin", "")
	return nil
}

// DisableMFA clears the TOTP secret after re-checking the current password.
func (s *AuthService) DisableMFA(ctx context.Context, password string) error {
	cred, err := s.credential(ctx)
	if err != nil {
		return err
	}
	if password == "" || s.hasher.Compare(cred.PasswordHash, []byte(password)) != nil {
		metrics.RecordAuth("mfa_disable", "invalid_password")
		s.logAudit(ctx, cred.Mobile, "mfa_disable_failure", "admin", "")
		return ErrInvalidPassword
	}
	if err := s.creds.SetMFASecret(ctx, ""); err != nil {
		return err
	}
	metrics.RecordAuth("mfa_disable", "success")
	s.logAudit(ctx, cred.Mobile, "mfa_disabled", "admin", "")
	return nil
}

// RequestPasswordReset issues a password reset OTP when mobile belongs to the admin and sends it there.
// For any other mobile it returns an un-issued dispatch so callers can respond identically.
func (s *AuthService) RequestPasswordReset(ctx context.Context, mobile string) (*OTPDispatch, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, &ValidationError{Field: "mobile", Reason: "is required"}
	}
	cred, err := s.credential(ctx)
	if err != nil {
		return nil, err
	}
	if cred.Mobile != mobile {
		logging.Ctx(ctx).Info().Str("mobile", admindomain.MaskMobile(mobile)).Msg("password reset requested for unknown mobile")
		return &OTPDispatch{}, nil
	}
	d, err := s.issueAndSend(ctx, otpdomain.PurposePasswordReset, mobile,
		func(code string) string {
			return fmt.Sprintf("Your OTP for password reset is %s. Valid for 60 seconds.", code)
		})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, mobile, "password_reset_requested", "admin", string(d.Delivery.Status))
	return d, nil
}

// VerifyResetOTP checks code against the password reset challenge and, when accepted, mints a
// single-use reset token bound to that challenge.
func (s *AuthService) VerifyResetOTP(ctx context.Context, mobile, code string) (*ResetGrant, error) {
	mobile = strings.TrimSpace(mobile)
	code = strings.TrimSpace(code)
	if mobile == "" || code == "" {
		return nil, &ValidationError{Field: "otp", Reason: "mobile and otp are required"}
	}
	outcome, err := s.otps.Verify(ctx, otpdomain.PurposePasswordReset, mobile, code)
	if err != nil {
		return nil, err
	}
	if outcome != otpdomain.Accepted {
		return nil, &OTPError{Outcome: outcome}
	}
	token, exp, err := s.otps.MintResetToken(ctx, mobile)
	if err != nil {
		return nil, err
	}
	return &ResetGrant{Token: token, ExpiresAt: exp}, nil
}

// ResetPassword redeems resetToken and replaces the admin password. The token and its challenge
// are consumed before the password changes, so a token can never be replayed.
func (s *AuthService) ResetPassword(ctx context.Context, mobile, resetToken, newPassword string) error {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return &ValidationError{Field: "mobile", Reason: "is required"}
	}
	if err := security.ValidatePassword(newPassword); err != nil {
		return &ValidationError{Field: "new_password", Reason: err.Error()}
	}
	cred, err := s.credential(ctx)
	if err != nil {
		return err
	}
	if cred.Mobile != mobile {
		return ErrInvalidResetToken
	}
	if err := s.otps.ConsumeResetToken(ctx, mobile, resetToken); err != nil {
		if errors.Is(err, otp.ErrInvalidResetToken) {
			metrics.RecordAuth("password_reset", "invalid_token")
		}
		return err
	}
	hash, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return err
	}
	if err := s.creds.SetPassword(ctx, hash); err != nil {
		return err
	}
	metrics.RecordAuth("password_reset", "success")
	s.logAudit(ctx, mobile, "password_reset", "admin", "")
	return nil
}

// RequestMobileChange issues a mobile change OTP for the current admin mobile and sends it there.
func (s *AuthService) RequestMobileChange(ctx context.Context) (*OTPDispatch, error) {
	cred, err := s.credential(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.issueAndSend(ctx, otpdomain.PurposeMobileChange, cred.Mobile,
		func(code string) string {
			return fmt.Sprintf("Your OTP to change admin mobile is %s. Do not share this.", code)
		})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, cred.Mobile, "mobile_change_requested", "admin", string(d.Delivery.Status))
	return d, nil
}

// ConfirmMobileChange verifies code against the current mobile's challenge and, when accepted,
// replaces the admin mobile with newMobile.
func (s *AuthService) ConfirmMobileChange(ctx context.Context, code, newMobile string) error {
	newMobile = strings.TrimSpace(newMobile)
	code = strings.TrimSpace(code)
	if err := admindomain.ValidateMobile(newMobile); err != nil {
		return &ValidationError{Field: "new_mobile", Reason: "must be a 10 digit mobile number"}
	}
	if code == "" {
		return &ValidationError{Field: "otp", Reason: "is required"}
	}
	cred, err := s.credential(ctx)
	if err != nil {
		return err
	}
	current := cred.Mobile
	outcome, err := s.otps.Verify(ctx, otpdomain.PurposeMobileChange, current, code)
	if err != nil {
		return err
	}
	if outcome != otpdomain.Accepted {
		return &OTPError{Outcome: outcome}
	}
	if err := s.creds.SetMobile(ctx, newMobile); err != nil {
		return err
	}
	if err := s.otps.Clear(ctx, otpdomain.PurposeMobileChange, current); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to clear mobile change challenge")
	}
	if err := s.otps.Clear(ctx, otpdomain.PurposePasswordReset, current); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to clear password reset challenge")
	}
	metrics.RecordAuth("mobile_change", "success")
	s.logAudit(ctx, current, "mobile_changed", "admin", admindomain.MaskMobile(newMobile))
	return nil
}

// Credential returns the admin credential, or ErrNotInitialized.
func (s *AuthService) Credential(ctx context.Context) (*admindomain.Credential, error) {
	return s.credential(ctx)
}

func (s *AuthService) issueAndSend(ctx context.Context, purpose otpdomain.Purpose, mobile string, text func(code string) string) (*OTPDispatch, error) {
	code, exp, err := s.otps.Issue(ctx, purpose, mobile)
	if err != nil {
		return nil, err
	}
	res := s.sender.Send(ctx, mobile, text(code))
	if !res.OK() {
		logging.Ctx(ctx).Warn().Str("purpose", string(purpose)).Str("reason", res.Reason).Msg("otp issued but delivery failed")
	}
	d := &OTPDispatch{
		Issued:       true,
		ExpiresAt:    exp,
		MaskedMobile: admindomain.MaskMobile(mobile),
		Delivery:     res,
	}
	if s.exposeOTP && res.Status == sms.StatusSimulated {
		d.DevCode = code
	}
	return d, nil
}

func (s *AuthService) credential(ctx context.Context) (*admindomain.Credential, error) {
	cred, err := s.creds.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		logging.Ctx(ctx).Error().Msg("admin credential missing; startup initialization did not run")
		return nil, ErrNotInitialized
	}
	return cred, nil
}

func (s *AuthService) rehash(ctx context.Context, password string) {
	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return
	}
	if err := s.creds.SetPassword(ctx, hash); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to upgrade password hash cost")
	}
}

func (s *AuthService) loginFailed(ctx context.Context, mobile, reason string) {
	metrics.RecordAuth("login", reason)
	s.logAudit(ctx, mobile, "login_failure", "authentication", reason)
}

func (s *AuthService) actor(ctx context.Context) string {
	m, _ := middleware.GetAdminMobile(ctx)
	return m
}

func (s *AuthService) logAudit(ctx context.Context, actor, action, resource, metadata string) {
	if s.auditLogger != nil {
		s.auditLogger.LogEvent(ctx, actor, action, resource, metadata)
	}
}

// Package handler exposes the admin auth flows over HTTP JSON.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	admindomain "portfolio-cms/backend/internal/admin/domain"
	"portfolio-cms/backend/internal/identity/service"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/mfa"
	"portfolio-cms/backend/internal/platform/httpx"
)

// AuthService is the subset of service.AuthService used by the handlers.
type AuthService interface {
	Login(ctx context.Context, mobile, password, totpCode string) (*service.LoginResult, error)
	SetupMFA(ctx context.Context) (*mfa.Enrollment, error)
	ConfirmMFA(ctx context.Context, secret, code string) error
	DisableMFA(ctx context.Context, password string) error
	RequestPasswordReset(ctx context.Context, mobile string) (*service.OTPDispatch, error)
	VerifyResetOTP(ctx context.Context, mobile, code string) (*service.ResetGrant, error)
	ResetPassword(ctx context.Context, mobile, resetToken, newPassword string) error
	RequestMobileChange(ctx context.Context) (*service.OTPDispatch, error)
	ConfirmMobileChange(ctx context.Context, code, newMobile string) error
}

var _ AuthService = (*service.AuthService)(nil)

// Handler serves /api/auth/*.
type Handler struct {
	auth AuthService
}

// NewHandler returns an auth Handler backed by auth.
func NewHandler(auth AuthService) *Handler {
	return &Handler{auth: auth}
}

type loginRequest struct {
	Mobile   string `json:"mobile" validate:"required"`
	Password string `json:"password" validate:"required"`
	TOTPCode string `json:"totp_code"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Mobile, req.Password, req.TOTPCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loginResponse{Token: res.Token, ExpiresAt: res.ExpiresAt})
}

type setupMFAResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"`
}

// SetupMFA handles POST /api/auth/setup-2fa.
func (h *Handler) SetupMFA(w http.ResponseWriter, r *http.Request) {
	enr, err := h.auth.SetupMFA(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, setupMFAResponse{Secret: enr.Secret, URI: enr.URI, QRCode: enr.QRCode})
}

type confirmMFARequest struct {
	Secret string `json:"secret" validate:"required"`
	Token  string `json:"token" validate:"required"`
}

// ConfirmMFA handles POST /api/auth/verify-2fa-setup.
func (h *Handler) ConfirmMFA(w http.ResponseWriter, r *http.Request) {
	var req confirmMFARequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	if err := h.auth.ConfirmMFA(r.Context(), req.Secret, req.Token); err != nil {
		if errors.Is(err, service.ErrInvalidMFACode) {
			httpx.Error(w, http.StatusBadRequest, "Invalid code")
			return
		}
		h.writeError(w, r, err)
		return
	}
	httpx.Message(w, "2FA enabled successfully")
}

type disableMFARequest struct {
	Password string `json:"password" validate:"required"`
}

// DisableMFA handles POST /api/auth/disable-2fa.
func (h *Handler) DisableMFA(w http.ResponseWriter, r *http.Request) {
	var req disableMFARequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	if err := h.auth.DisableMFA(r.Context(), req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.Message(w, "2FA disabled successfully")
}

type forgotPasswordRequest struct {
	Mobile string `json:"mobile" validate:"required"`
}

// otpResponse is returned by the endpoints that issue an OTP. Warning is set when the
// gateway failed; OTP is set only in development with a simulated gateway.
type otpResponse struct {
	Message   string     `json:"message"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Warning   string     `json:"warning,omitempty"`
	OTP       string     `json:"otp,omitempty"`
}

func dispatchResponse(message string, d *service.OTPDispatch) otpResponse {
	resp := otpResponse{Message: message, OTP: d.DevCode}
	if !d.Issued {
		return resp
	}
	exp := d.ExpiresAt
	resp.ExpiresAt = &exp
	if !d.Delivery.OK() {
		resp.Warning = "OTP could not be delivered: " + d.Delivery.Reason
	}
	return resp
}

// ForgotPassword handles POST /api/auth/forgot-password. The response does not reveal
// whether the mobile belongs to the admin.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	d, err := h.auth.RequestPasswordReset(r.Context(), req.Mobile)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !d.Issued {
		httpx.Message(w, "If the mobile is registered, you will receive an OTP.")
		return
	}
	httpx.JSON(w, http.StatusOK, dispatchResponse("OTP sent successfully", d))
}

type verifyOTPRequest struct {
	Mobile string `json:"mobile" validate:"required"`
	OTP    string `json:"otp" validate:"required"`
}

type verifyOTPResponse struct {
	Message    string    `json:"message"`
	ResetToken string    `json:"reset_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// VerifyOTP handles POST /api/auth/verify-otp.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	grant, err := h.auth.VerifyResetOTP(r.Context(), req.Mobile, req.OTP)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, verifyOTPResponse{Message: "OTP verified", ResetToken: grant.Token, ExpiresAt: grant.ExpiresAt})
}

type resetPasswordRequest struct {
	Mobile      string `json:"mobile" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
	ResetToken  string `json:"reset_token" validate:"required"`
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Mobile, req.ResetToken, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.Message(w, "Password reset successfully")
}

// RequestMobileChange handles POST /api/auth/request-mobile-change.
func (h *Handler) RequestMobileChange(w http.ResponseWriter, r *http.Request) {
	d, err := h.auth.RequestMobileChange(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dispatchResponse(fmt.Sprintf("OTP sent to ending in %s", d.MaskedMobile), d))
}

type verifyMobileChangeRequest struct {
	OTP       string `json:"otp" validate:"required"`
	NewMobile string `json:"new_mobile" validate:"required,mobile"`
}

// VerifyMobileChange handles POST /api/auth/verify-mobile-change.
func (h *Handler) VerifyMobileChange(w http.ResponseWriter, r *http.Request) {
	var req verifyMobileChangeRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.ValidationFailed(w, err)
		return
	}
	if err := h.auth.ConfirmMobileChange(r.Context(), req.OTP, req.NewMobile); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.Message(w, "Mobile number updated successfully")
}

// writeError maps auth service errors to HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	var oe *service.OTPError
	switch {
	case errors.As(err, &ve):
		httpx.Error(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &oe):
		httpx.JSON(w, http.StatusBadRequest, map[string]string{"error": oe.Error(), "reason": oe.Outcome.String()})
	case errors.Is(err, service.ErrMFARequired):
		httpx.JSON(w, http.StatusForbidden, map[string]string{
			"error":   "mfa_required",
			"message": "Two-factor authentication code required",
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidMFACode):
		httpx.Error(w, http.StatusUnauthorized, "Invalid 2FA code")
	case errors.Is(err, service.ErrInvalidPassword):
		httpx.Error(w, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, service.ErrInvalidResetToken):
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired reset token")
	case errors.Is(err, admindomain.ErrInvalidMobile):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotInitialized):
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("admin credential not initialized")
		httpx.Error(w, http.StatusInternalServerError, "admin not initialized")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("auth request failed")
		httpx.Error(w, http.StatusInternalServerError, "internal error")
	}
}

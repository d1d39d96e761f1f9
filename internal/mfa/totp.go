// Package mfa implements TOTP enrollment and validation for the admin account.
package mfa

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const qrSize = 200

// ErrEmptySecret is returned when validating against an empty secret.
var ErrEmptySecret = errors.New("mfa: empty secret")

// Enrollment is a freshly generated TOTP secret presented to the admin for confirmation.
// Nothing is persisted until a code generated from Secret is confirmed.
type Enrollment struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	// QRCode is a data:image/png;base64 URL of the otpauth URI.
	QRCode string `json:"qr_code"`
}

// Authenticator generates and checks RFC 6238 codes (30s period, 6 digits, SHA1).
type Authenticator struct {
	issuer  string
	account string
	now     func() time.Time
}

// NewAuthenticator returns an Authenticator that labels otpauth URIs with issuer and account.
func NewAuthenticator(issuer, account string) *Authenticator {
	if issuer == "" {
		issuer = "Portfolio CMS"
	}
	if account == "" {
		account = "Admin"
	}
	return &Authenticator{issuer: issuer, account: account, now: time.Now}
}

// Generate creates a new random secret with its provisioning URI and QR code.
func (a *Authenticator) Generate() (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.issuer,
		AccountName: a.account,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	qr, err := qrDataURL(key)
	if err != nil {
		return nil, err
	}
	return &Enrollment{Secret: key.Secret(), URI: key.URL(), QRCode: qr}, nil
}

// Validate reports whether code is valid for secret at the current time, allowing one period of skew.
func (a *Authenticator) Validate(secret, code string) (bool, error) {
	if secret == "" {
		return false, ErrEmptySecret
	}
	if code == "" {
		return false, nil
	}
	ok, err := totp.ValidateCustom(code, secret, a.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		// Malformed codes (wrong length, non-digits) are simply invalid.
		if errors.Is(err, otp.ErrValidateInputInvalidLength) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func qrDataURL(key *otp.Key) (string, error) {
	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return "", fmt.Errorf("failed to render TOTP QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode TOTP QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

package domain

import (
	"errors"
	"regexp"
	"time"
)

// ErrNotInitialized is returned when the admin credential row does not exist.
// Startup init creates it, so this indicates a broken deployment.
var ErrNotInitialized = errors.New("admin credential not initialized")

// ErrInvalidMobile is returned when a mobile number is not ten digits.
var ErrInvalidMobile = errors.New("mobile must be 10 digits")

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Credential is the singleton admin credential (stored in admin_credentials with id = 1).
type Credential struct {
	Mobile       string
	PasswordHash string
	// MFASecret is the base32 TOTP secret; empty when MFA is disabled.
	MFASecret string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MFAEnabled reports whether a TOTP secret is enrolled.
func (c *Credential) MFAEnabled() bool {
	return c != nil && c.MFASecret != ""
}

// Validate validates the credential for persistence.
func (c *Credential) Validate() error {
	if err := ValidateMobile(c.Mobile); err != nil {
		return err
	}
	if c.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}

// ValidateMobile returns ErrInvalidMobile unless mobile is exactly ten digits.
func ValidateMobile(mobile string) error {
	if !mobilePattern.MatchString(mobile) {
		return ErrInvalidMobile
	}
	return nil
}

// MaskMobile returns the last four digits of mobile, or the whole string if shorter.
func MaskMobile(mobile string) string {
	if len(mobile) <= 4 {
		return mobile
	}
	return mobile[len(mobile)-4:]
}

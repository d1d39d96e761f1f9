// Package domain defines OTP challenge types shared by the OTP manager and its stores.
package domain

import (
	"crypto/subtle"
	"errors"
	"time"
)

// Purpose separates challenges issued for different flows. Challenges for different
// purposes never share a key, so one flow cannot overwrite or satisfy another.
type Purpose string

const (
	PurposePasswordReset Purpose = "password_reset"
	PurposeMobileChange  Purpose = "mobile_change"
)

// MaxAttempts is the number of mismatched codes after which a challenge is rejected outright.
const MaxAttempts = 3

// ErrUnknownPurpose is returned for a purpose other than the declared constants.
var ErrUnknownPurpose = errors.New("otp: unknown purpose")

// Valid reports whether p is one of the declared purposes.
func (p Purpose) Valid() bool {
	return p == PurposePasswordReset || p == PurposeMobileChange
}

// TTL returns the code lifetime for p: 60s for password reset, 120s for mobile change.
func (p Purpose) TTL() time.Duration {
	switch p {
	case PurposeMobileChange:
		return 120 * time.Second
	default:
		return 60 * time.Second
	}
}

// Challenge is one issued OTP. Only the SHA-256 hash of the code is stored.
type Challenge struct {
	Purpose   Purpose
	Mobile    string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	CreatedAt time.Time

	// ResetTokenHash and TokenExpiresAt are set once the challenge is verified and a
	// password reset token has been minted for it. Empty until then.
	ResetTokenHash string
	TokenExpiresAt time.Time
}

// Expired reports whether the code is past its expiry at now.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Check evaluates a submitted code hash against c at now, in order: expired, attempts
// exhausted, mismatch. It does not count the attempt; stores call it under their own lock
// and increment Attempts when it returns Mismatch.
func (c *Challenge) Check(codeHash string, now time.Time) Outcome {
	if c.Expired(now) {
		return Expired
	}
	if c.Attempts >= MaxAttempts {
		return TooManyAttempts
	}
	if subtle.ConstantTimeCompare([]byte(codeHash), []byte(c.CodeHash)) != 1 {
		return Mismatch
	}
	return Accepted
}

// Outcome is the result of verifying a submitted code against a challenge.
type Outcome int

const (
	Accepted Outcome = iota
	NotFound
	Expired
	TooManyAttempts
	Mismatch
)

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case NotFound:
		return "not_found"
	case Expired:
		return "expired"
	case TooManyAttempts:
		return "too_many_attempts"
	case Mismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const resetTokenBytes = 32

// GenerateResetToken returns a random single-use password reset token (hex) and its SHA-256 hash.
// Only the hash is persisted; the raw token is handed to the client once.
func GenerateResetToken() (token, hash string, err error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(b)
	return token, HashResetToken(token), nil
}

// HashResetToken returns a SHA-256 hash of the reset token string, hex-encoded.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// ResetTokenHashEqual performs constant-time comparison of the provided token's hash
// with the stored hash. An empty stored hash never matches.
func ResetTokenHashEqual(providedToken, storedHash string) bool {
	if storedHash == "" || providedToken == "" {
		return false
	}
	providedHash := HashResetToken(providedToken)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}

package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Token sizes in bytes before encoding.
const (
	// TokenSize128 provides 128 bits of entropy. Used for CSRF seeds and
	// recovery codes.
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy. Used for CSRF cookies.
	TokenSize256 = 32
)

// GenerateToken returns a cryptographically random base64url token of the
// given byte length (URL-safe, no padding).
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns the deterministic SHA-256 fingerprint of a token
// as base64url. Recovery codes are stored as fingerprints so possession of
// the database does not reveal usable codes.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Package jwtx issues and verifies the service's two token kinds: full
// session tokens carried in an httpOnly cookie, and short-lived MFA-pending
// tokens carried as a bearer header while a second factor is outstanding.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind discriminates the two token flavours at the type level so a handler
// cannot accept an MFA-pending token where a full session is required.
type Kind string

const (
	// KindSession is a full session token.
	KindSession Kind = "session"
	// KindMFAPending proves first-factor success while a TOTP code is
	// still outstanding. It must never be accepted as a session.
	KindMFAPending Kind = "mfa_pending"
)

// DefaultTempTokenTTL bounds how long a login may sit between first factor
// and second factor.
const DefaultTempTokenTTL = 5 * time.Minute

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrKind        = errors.New("jwtx: wrong token kind")
)

// Claims are the claims embedded in every token the service signs.
type Claims struct {
	jwt.RegisteredClaims

	// Kind tags the token flavour. Always set.
	Kind Kind `json:"kind"`

	// Role is the account role ("user" or "admin"). Session tokens only.
	Role string `json:"role,omitempty"`
}

// NewSessionClaims builds claims for a full session token.
func NewSessionClaims(userID, role, issuer string, ttl time.Duration, now time.Time) Claims {
	return newClaims(userID, issuer, ttl, now, KindSession, role)
}

// NewMFAPendingClaims builds claims for the temp token issued between the
// password check and the TOTP check.
func NewMFAPendingClaims(userID, issuer string, ttl time.Duration, now time.Time) Claims {
	if ttl <= 0 {
		ttl = DefaultTempTokenTTL
	}
	return newClaims(userID, issuer, ttl, now, KindMFAPending, "")
}

func newClaims(userID, issuer string, ttl time.Duration, now time.Time, kind Kind, role string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        newJTI(),
		},
		Kind: kind,
		Role: role,
	}
}

// newJTI returns a URL-safe random identifier for the "jti" claim.
func newJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// RequireKind enforces the token-kind discriminator.
func (c *Claims) RequireKind(want Kind) error {
	if c.Kind != want {
		return ErrKind
	}
	return nil
}

// IssuedTime returns the iat claim, or the zero time when absent.
func (c *Claims) IssuedTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

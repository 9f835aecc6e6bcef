package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs claims into a compact JWT.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a JWT and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256 signs and verifies tokens with a single shared server secret.
type HS256 struct {
	secret []byte
	issuer string
}

// NewHS256 builds an HS256 signer/verifier. The secret must be non-empty;
// issuer is enforced on verification when set.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty signing secret")
	}
	return &HS256{secret: secret, issuer: issuer}, nil
}

// Sign serializes claims into a signed compact JWT.
func (h *HS256) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// Verify parses and validates the token: signature, exp/nbf, and issuer.
// Kind is NOT checked here; callers enforce it via Claims.RequireKind so the
// session and MFA-pending paths stay explicit.
func (h *HS256) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSig
		}
		return h.secret, nil
	})
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if h.issuer != "" && claims.Issuer != h.issuer {
		return Claims{}, ErrIssuer
	}
	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return ErrMalformed
	}
}

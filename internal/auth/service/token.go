package service

import (
	"fmt"
	"time"

	"github.com/shoptally/shoptally/internal/auth/domain"
	"github.com/shoptally/shoptally/pkg/jwtx"
)

// DefaultSessionTTL matches the default session cookie lifetime of 7 days.
const DefaultSessionTTL = 168 * time.Hour

// TokenService issues the two token kinds: full session tokens (cookie) and
// short-lived MFA-pending temp tokens (Bearer). The kinds are tagged in the
// claims so one can never pass for the other.
type TokenService struct {
	Signer jwtx.Signer
	Issuer string

	// SessionTTL bounds the session token. Zero means DefaultSessionTTL.
	SessionTTL time.Duration

	// TempTokenTTL bounds the MFA-pending token. Zero means
	// jwtx.DefaultTempTokenTTL.
	TempTokenTTL time.Duration
}

func (s *TokenService) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return DefaultSessionTTL
}

func (s *TokenService) tempTTL() time.Duration {
	if s.TempTokenTTL > 0 {
		return s.TempTokenTTL
	}
	return jwtx.DefaultTempTokenTTL
}

// IssueSession signs a full session token for the user.
func (s *TokenService) IssueSession(user domain.User, now time.Time) (string, error) {
	claims := jwtx.NewSessionClaims(user.ID, string(user.Role), s.Issuer, s.sessionTTL(), now)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// IssueTempToken signs a short-lived MFA-pending token proving first-factor
// success.
func (s *TokenService) IssueTempToken(userID string, now time.Time) (string, error) {
	claims := jwtx.NewMFAPendingClaims(userID, s.Issuer, s.tempTTL(), now)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign temp token: %w", err)
	}
	return token, nil
}

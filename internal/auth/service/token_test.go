package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shoptally/shoptally/internal/auth/domain"
	"github.com/shoptally/shoptally/internal/auth/service"
	"github.com/shoptally/shoptally/pkg/jwtx"
)

func TestTokenServiceIssuesDistinctKinds(t *testing.T) {
	hs, err := jwtx.NewHS256([]byte("test-secret"), "shoptally-auth")
	require.NoError(t, err)

	svc := &service.TokenService{Signer: hs, Issuer: "shoptally-auth"}
	now := time.Now().UTC()

	user := domain.User{ID: "user-1", Role: domain.RoleAdmin}

	session, err := svc.IssueSession(user, now)
	require.NoError(t, err)

	temp, err := svc.IssueTempToken(user.ID, now)
	require.NoError(t, err)

	sessionClaims, err := hs.Verify(session)
	require.NoError(t, err)
	require.NoError(t, sessionClaims.RequireKind(jwtx.KindSession))
	require.Equal(t, "user-1", sessionClaims.Subject)
	require.Equal(t, "admin", sessionClaims.Role)

	tempClaims, err := hs.Verify(temp)
	require.NoError(t, err)
	require.NoError(t, tempClaims.RequireKind(jwtx.KindMFAPending))

	// A temp token can never pass a session check and vice versa.
	require.ErrorIs(t, tempClaims.RequireKind(jwtx.KindSession), jwtx.ErrKind)
	require.ErrorIs(t, sessionClaims.RequireKind(jwtx.KindMFAPending), jwtx.ErrKind)
}

func TestTokenServiceTTLs(t *testing.T) {
	hs, err := jwtx.NewHS256([]byte("test-secret"), "shoptally-auth")
	require.NoError(t, err)

	svc := &service.TokenService{
		Signer:       hs,
		Issuer:       "shoptally-auth",
		SessionTTL:   2 * time.Hour,
		TempTokenTTL: time.Minute,
	}
	now := time.Now().UTC()

	session, err := svc.IssueSession(domain.User{ID: "u", Role: domain.RoleUser}, now)
	require.NoError(t, err)
	claims, err := hs.Verify(session)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(2*time.Hour), claims.ExpiresAt.Time, time.Second)

	temp, err := svc.IssueTempToken("u", now)
	require.NoError(t, err)
	claims, err = hs.Verify(temp)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(time.Minute), claims.ExpiresAt.Time, time.Second)
}

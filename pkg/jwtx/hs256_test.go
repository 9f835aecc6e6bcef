package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testIssuer = "shoptally-auth"

func newTestHS256(t *testing.T) *HS256 {
	t.Helper()
	h, err := NewHS256([]byte("unit-test-secret"), testIssuer)
	require.NoError(t, err)
	return h
}

func TestNewHS256RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewHS256(nil, testIssuer)
	require.Error(t, err)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Parallel()
	h := newTestHS256(t)

	now := time.Now()
	token, err := h.Sign(NewSessionClaims("user-1", "admin", testIssuer, time.Hour, now))
	require.NoError(t, err)

	claims, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, KindSession, claims.Kind)
	require.NoError(t, claims.RequireKind(KindSession))
	require.WithinDuration(t, now, claims.IssuedTime(), time.Second)
}

func TestTempTokenKindIsEnforced(t *testing.T) {
	t.Parallel()
	h := newTestHS256(t)

	token, err := h.Sign(NewMFAPendingClaims("user-1", testIssuer, 0, time.Now()))
	require.NoError(t, err)

	claims, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, KindMFAPending, claims.Kind)
	require.Empty(t, claims.Role)

	// A temp token must never pass a session-kind check, and vice versa.
	require.ErrorIs(t, claims.RequireKind(KindSession), ErrKind)
	require.NoError(t, claims.RequireKind(KindMFAPending))
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()
	h := newTestHS256(t)

	token, err := h.Sign(NewSessionClaims("user-1", "user", testIssuer, time.Minute, time.Now().Add(-time.Hour)))
	require.NoError(t, err)

	_, err = h.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Parallel()
	h := newTestHS256(t)

	token, err := h.Sign(NewSessionClaims("user-1", "user", testIssuer, time.Hour, time.Now()))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = h.Verify(tampered)
	require.Error(t, err)
}

func TestVerifyRejectsWrongSecretAndIssuer(t *testing.T) {
	t.Parallel()

	other, err := NewHS256([]byte("different-secret"), testIssuer)
	require.NoError(t, err)

	token, err := other.Sign(NewSessionClaims("user-1", "user", testIssuer, time.Hour, time.Now()))
	require.NoError(t, err)

	_, err = newTestHS256(t).Verify(token)
	require.ErrorIs(t, err, ErrInvalidSig)

	wrongIssuer, err := NewHS256([]byte("unit-test-secret"), testIssuer)
	require.NoError(t, err)
	token, err = wrongIssuer.Sign(NewSessionClaims("user-1", "user", "someone-else", time.Hour, time.Now()))
	require.NoError(t, err)

	_, err = newTestHS256(t).Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()
	h := newTestHS256(t)

	for _, in := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		_, err := h.Verify(in)
		require.Error(t, err)
	}
}

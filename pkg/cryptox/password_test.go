package cryptox

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Tests share a throwaway pepper so hashes are stable within a run.
	SetPepperPath(filepath.Join("testdata", "pepper"))
	m.Run()
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, VerifyPassword("Sup3r$ecret", hash))
	require.ErrorIs(t, VerifyPassword("wrong", hash), ErrPasswordMismatch)
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPassword("same-password")
	require.NoError(t, err)
	b, err := HashPassword("same-password")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
	} {
		err := VerifyPassword("whatever", encoded)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrPasswordMismatch)
	}
}

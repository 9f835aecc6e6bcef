package cryptox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecretBoxRoundTrip(t *testing.T) {
	t.Parallel()

	box, err := NewSecretBox([]byte("test key material"))
	require.NoError(t, err)

	secret := []byte("JBSWY3DPEHPK3PXP")
	sealed, err := box.Seal(secret)
	require.NoError(t, err)
	require.NotEqual(t, secret, sealed)

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, secret, opened)
}

func TestSecretBoxNoncesAreUnique(t *testing.T) {
	t.Parallel()

	box, err := NewSecretBox([]byte("test key material"))
	require.NoError(t, err)

	a, err := box.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := box.Seal([]byte("same"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSecretBoxRejectsTampering(t *testing.T) {
	t.Parallel()

	box, err := NewSecretBox([]byte("test key material"))
	require.NoError(t, err)

	sealed, err := box.Seal([]byte("payload"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0x01
	_, err = box.Open(sealed)
	require.Error(t, err)

	_, err = box.Open([]byte("short"))
	require.Error(t, err)
}

func TestLoadSecretBoxGeneratesAndReloadsKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "encryption.key")

	first, err := LoadSecretBox(path)
	require.NoError(t, err)

	sealed, err := first.Seal([]byte("persists"))
	require.NoError(t, err)

	// A second load must read the same key back.
	second, err := LoadSecretBox(path)
	require.NoError(t, err)

	opened, err := second.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, []byte("persists"), opened)
}

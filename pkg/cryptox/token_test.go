package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	a, err := GenerateToken(TokenSize128)
	require.NoError(t, err)
	require.Len(t, a, 22) // 16 bytes base64url, no padding

	b, err := GenerateToken(TokenSize128)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	_, err = GenerateToken(0)
	require.Error(t, err)
	_, err = GenerateToken(-1)
	require.Error(t, err)
}

func TestFingerprintTokenIsDeterministic(t *testing.T) {
	t.Parallel()

	fp := FingerprintToken("recovery-code")
	require.Equal(t, fp, FingerprintToken("recovery-code"))
	require.NotEqual(t, fp, FingerprintToken("recovery-codf"))
	require.Len(t, fp, 43) // 32 bytes base64url, no padding
}

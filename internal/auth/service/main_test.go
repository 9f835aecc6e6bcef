package service_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shoptally/shoptally/internal/auth/store/drivers/sqlite"
	"github.com/shoptally/shoptally/pkg/cryptox"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "service-test-*")
	if err != nil {
		os.Exit(1)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestBox(t *testing.T) *cryptox.SecretBox {
	t.Helper()

	box, err := cryptox.NewSecretBox([]byte("test-encryption-key-material"))
	require.NoError(t, err)
	return box
}

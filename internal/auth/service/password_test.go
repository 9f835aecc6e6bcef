package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shoptally/shoptally/internal/auth/service"
	"github.com/shoptally/shoptally/pkg/cryptox"
)

func TestIsPasswordExpired(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil timestamp is never expired", func(t *testing.T) {
		require.False(t, service.IsPasswordExpired(nil, now, 90))
	})

	t.Run("fresh password is not expired", func(t *testing.T) {
		at := now.Add(-24 * time.Hour)
		require.False(t, service.IsPasswordExpired(&at, now, 90))
	})

	t.Run("boundary day counts as expired", func(t *testing.T) {
		at := now.Add(-90 * 24 * time.Hour)
		require.True(t, service.IsPasswordExpired(&at, now, 90))
	})

	t.Run("one day short is not expired", func(t *testing.T) {
		at := now.Add(-89*24*time.Hour - 23*time.Hour)
		require.False(t, service.IsPasswordExpired(&at, now, 90))
	})

	t.Run("zero expiration days disables the gate", func(t *testing.T) {
		at := now.Add(-1000 * 24 * time.Hour)
		require.False(t, service.IsPasswordExpired(&at, now, 0))
	})
}

func TestCheckPasswordHistory(t *testing.T) {
	ctx := context.Background()

	hash := func(pw string) string {
		h, err := cryptox.HashPassword(pw)
		require.NoError(t, err)
		return h
	}

	history := []string{hash("Newest1!pw"), hash("Middle2!pw"), hash("Oldest3!pw")}

	reused, err := service.CheckPasswordHistory(ctx, "Middle2!pw", history)
	require.NoError(t, err)
	require.True(t, reused)

	reused, err = service.CheckPasswordHistory(ctx, "Fresh4!password", history)
	require.NoError(t, err)
	require.False(t, reused)

	reused, err = service.CheckPasswordHistory(ctx, "Fresh4!password", nil)
	require.NoError(t, err)
	require.False(t, reused)
}

func TestAddToPasswordHistory(t *testing.T) {
	t.Run("prepends newest first", func(t *testing.T) {
		out := service.AddToPasswordHistory("h3", []string{"h2", "h1"}, 5)
		require.Equal(t, []string{"h3", "h2", "h1"}, out)
	})

	t.Run("truncates to limit", func(t *testing.T) {
		out := service.AddToPasswordHistory("h6", []string{"h5", "h4", "h3", "h2", "h1"}, 5)
		require.Equal(t, []string{"h6", "h5", "h4", "h3", "h2"}, out)
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		in := []string{"h2", "h1"}
		_ = service.AddToPasswordHistory("h3", in, 5)
		require.Equal(t, []string{"h2", "h1"}, in)
	})
}

func TestValidateComplexity(t *testing.T) {
	cases := []struct {
		name     string
		password string
		userName string
		wantErr  error
	}{
		{"valid", "Str0ng!pass", "Alice Smith", nil},
		{"too short", "Ab1!x", "Alice Smith", service.ErrPasswordTooShort},
		{"no upper", "weak1!password", "Alice Smith", service.ErrPasswordNoUpper},
		{"no lower", "WEAK1!PASSWORD", "Alice Smith", service.ErrPasswordNoLower},
		{"no digit", "Weakness!pw", "Alice Smith", service.ErrPasswordNoDigit},
		{"no special", "Weakness1pw", "Alice Smith", service.ErrPasswordNoSpecial},
		{"contains first name", "Alice1!pass", "Alice Smith", service.ErrPasswordContainsName},
		{"contains last name case-insensitive", "xxSMITH1!x", "Alice Smith", service.ErrPasswordContainsName},
		{"short name fragment ignored", "Abcdef1!x", "Ab Cd", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.ValidateComplexity(tc.password, tc.userName)
			if tc.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

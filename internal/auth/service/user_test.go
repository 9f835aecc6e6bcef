package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shoptally/shoptally/internal/auth/domain"
	"github.com/shoptally/shoptally/internal/auth/service"
)

func TestRegister(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	users := &service.UserService{Store: st}

	u, err := users.Register(ctx, service.RegisterParams{
		Name:     "Pat Owner",
		Email:    "  Owner@Example.COM ",
		Phone:    "0412345678",
		Password: testPassword,
	}, now)
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", u.Email, "email is normalized")
	require.Equal(t, domain.RoleUser, u.Role)
	require.True(t, u.IsActive)
	require.NotEqual(t, testPassword, u.PasswordHash)

	// History is seeded with the initial hash.
	hashes, err := st.PasswordHistory().ListHashes(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, hashes, 1)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	st := newTestStore(t)
	users := &service.UserService{Store: st}

	_, err := users.Register(context.Background(), service.RegisterParams{
		Name:     "Pat Owner",
		Email:    "owner@example.com",
		Password: "weak",
	}, time.Now().UTC())
	require.ErrorIs(t, err, service.ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	users := &service.UserService{Store: st}

	_, err := users.Register(ctx, service.RegisterParams{
		Name: "Pat Owner", Email: "owner@example.com", Password: testPassword,
	}, now)
	require.NoError(t, err)

	_, err = users.Register(ctx, service.RegisterParams{
		Name: "Other Person", Email: "owner@example.com", Password: testPassword,
	}, now)
	require.ErrorIs(t, err, service.ErrEmailTaken)
}

func TestChangePassword(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := registerUser(t, st, "owner@example.com")
	users := &service.UserService{Store: st}

	const newPassword = "An0ther!pass"
	require.NoError(t, users.ChangePassword(ctx, u, testPassword, newPassword, now))

	// Old password no longer works, new one does.
	login := &service.LoginService{Store: st}
	_, err := login.Login(ctx, "owner@example.com", testPassword, now)
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = login.Login(ctx, "owner@example.com", newPassword, now)
	require.NoError(t, err)

	hashes, err := st.PasswordHistory().ListHashes(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, hashes, 2)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := registerUser(t, st, "owner@example.com")
	users := &service.UserService{Store: st}

	err := users.ChangePassword(ctx, u, "Wr0ng!password", "An0ther!pass", time.Now().UTC())
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestChangePasswordRejectsReuse(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := registerUser(t, st, "owner@example.com")
	users := &service.UserService{Store: st}

	// Reusing the current password is rejected.
	err := users.ChangePassword(ctx, u, testPassword, testPassword, now)
	require.ErrorIs(t, err, service.ErrPasswordReused)

	// Rotating away and then back inside the history window is rejected.
	const second = "Sec0nd!pass"
	require.NoError(t, users.ChangePassword(ctx, u, testPassword, second, now))

	u = reload(t, st, u.ID)
	err = users.ChangePassword(ctx, u, second, testPassword, now)
	require.ErrorIs(t, err, service.ErrPasswordReused)
}

func TestChangePasswordHistoryIsBounded(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := registerUser(t, st, "owner@example.com")
	users := &service.UserService{Store: st, PasswordHistoryLimit: 3}

	passwords := []string{"R0tate!one", "R0tate!two", "R0tate!three", "R0tate!four"}
	current := testPassword
	for _, pw := range passwords {
		u = reload(t, st, u.ID)
		require.NoError(t, users.ChangePassword(ctx, u, current, pw, now))
		current = pw
	}

	hashes, err := st.PasswordHistory().ListHashes(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, hashes, 3)

	// The original password fell out of the window and may be reused.
	u = reload(t, st, u.ID)
	require.NoError(t, users.ChangePassword(ctx, u, current, testPassword, now))
}

func TestDeactivateAndReactivate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := registerUser(t, st, "owner@example.com")
	users := &service.UserService{Store: st}
	login := &service.LoginService{Store: st}

	require.NoError(t, users.Deactivate(ctx, u.ID))
	_, err := login.Login(ctx, "owner@example.com", testPassword, now)
	require.ErrorIs(t, err, service.ErrAccountDisabled)

	require.NoError(t, users.Reactivate(ctx, u.ID))
	_, err = login.Login(ctx, "owner@example.com", testPassword, now)
	require.NoError(t, err)
}

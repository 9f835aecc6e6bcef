package http_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shoptally/shoptally/pkg/authsdk"
	"github.com/shoptally/shoptally/pkg/jwtx"
)

func TestProfileWithoutCookie(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)

	resp := c.get("/auth/profile")
	var apiErr authsdk.APIError
	decode(t, resp, &apiErr)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeInvalidToken, apiErr.Code)
}

func TestGarbageCookieRejected(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)
	c.register("owner@example.com")

	c.setCookie("token", "not-a-jwt")
	resp := c.get("/auth/profile")
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTempTokenRejectedAsSessionCookie(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)
	c.register("owner@example.com")

	u, err := env.store.Users().GetUserByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)

	// A signed, unexpired token of the wrong kind must not pass for a
	// session, even for the right user.
	temp, err := env.signer.Sign(jwtx.NewMFAPendingClaims(u.ID, "shoptally-auth",
		5*time.Minute, time.Now()))
	require.NoError(t, err)

	c.setCookie("token", temp)
	resp := c.get("/auth/profile")
	var apiErr authsdk.APIError
	decode(t, resp, &apiErr)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeInvalidToken, apiErr.Code)
}

func TestSessionTokenRejectedAsTempToken(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)
	c.register("owner@example.com")

	// The session cookie is a valid JWT for the right user, but the wrong
	// kind for second-factor completion.
	session := c.cookie("token")
	require.NotEmpty(t, session)

	resp := c.do(http.MethodPost, "/auth/mfa",
		map[string]any{"code": "123456"},
		map[string]string{"Authorization": "Bearer " + session})
	var apiErr authsdk.APIError
	decode(t, resp, &apiErr)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeInvalidToken, apiErr.Code)
}

func TestDeactivatedAccountLosesSession(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)
	c.register("owner@example.com")

	u, err := env.store.Users().GetUserByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	require.NoError(t, env.store.Users().SetActive(context.Background(), u.ID, false))

	resp := c.get("/auth/profile")
	var apiErr authsdk.APIError
	decode(t, resp, &apiErr)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeAccountDisabled, apiErr.Code)
}

func TestExpiredTempTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	c := newTestClient(t, env)
	c.register("owner@example.com")

	u, err := env.store.Users().GetUserByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)

	stale, err := env.signer.Sign(jwtx.NewMFAPendingClaims(u.ID, "shoptally-auth",
		5*time.Minute, time.Now().Add(-10*time.Minute)))
	require.NoError(t, err)

	resp := c.do(http.MethodPost, "/auth/mfa",
		map[string]any{"code": "123456"},
		map[string]string{"Authorization": "Bearer " + stale})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

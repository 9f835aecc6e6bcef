package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shoptally/shoptally/pkg/httpx"
)

// Client is a typed HTTP client for the auth API. It keeps the session and
// CSRF cookies in an internal jar and echoes the CSRF token automatically on
// state-changing requests, so callers only deal in typed requests and
// responses. Safe for concurrent use.
type Client struct {
	rc      *resty.Client
	baseURL *url.URL

	mu        sync.RWMutex
	tempToken string
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the root of the auth service, e.g. "https://api.example.com"
	BaseURL string

	// Timeout bounds each request. Defaults to 15s.
	Timeout time.Duration
}

// NewClient creates a Client for the given base URL.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("authsdk: invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.Timeout)

	return &Client{rc: rc, baseURL: u}, nil
}

// setTempToken stores the MFA-pending token between Login and CompleteMFA.
func (c *Client) setTempToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tempToken = token
}

func (c *Client) getTempToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tempToken
}

// csrfToken reads the CSRF cookie out of the jar, if present.
func (c *Client) csrfToken() string {
	jar := c.rc.GetClient().Jar
	if jar == nil {
		return ""
	}
	for _, cookie := range jar.Cookies(c.baseURL) {
		if cookie.Name == httpx.CSRFCookieName {
			return cookie.Value
		}
	}
	return ""
}

// EnsureCSRF primes the cookie jar with a CSRF token by issuing a cheap GET.
// It is called automatically before the first state-changing request.
func (c *Client) EnsureCSRF(ctx context.Context) error {
	if c.csrfToken() != "" {
		return nil
	}
	resp, err := c.rc.R().SetContext(ctx).Get("/livez")
	if err != nil {
		return fmt.Errorf("authsdk: csrf seed request: %w", err)
	}
	return parseErrorResponse(resp.StatusCode(), resp.Body())
}

// post issues a JSON POST with the CSRF header attached, decoding the
// response into out when out is non-nil.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if err := c.EnsureCSRF(ctx); err != nil {
		return err
	}

	req := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(httpx.CSRFHeaderName, c.csrfToken())
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("authsdk: POST %s: %w", path, err)
	}
	return parseErrorResponse(resp.StatusCode(), resp.Body())
}

// Register creates an account and signs it in. On success the session cookie
// is captured in the client's jar.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*UserProfile, error) {
	var out struct {
		Success bool        `json:"success"`
		User    UserProfile `json:"user"`
	}
	if err := c.post(ctx, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login performs first-factor authentication. If the account has MFA enabled
// the returned response carries MFARequired=true and the temp token is stored
// for a subsequent CompleteMFA call; otherwise the session cookie is captured
// in the jar.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.post(ctx, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	if out.MFARequired {
		c.setTempToken(out.TempToken)
	}
	return &out, nil
}

// CompleteMFA finishes an MFA login using the temp token from the preceding
// Login call. Set req.Recovery to burn a recovery code instead of a TOTP.
func (c *Client) CompleteMFA(ctx context.Context, req MFACompleteRequest) (*UserProfile, error) {
	temp := c.getTempToken()
	if temp == "" {
		return nil, &APIError{
			StatusCode: http.StatusUnauthorized,
			Code:       ErrorCodeInvalidToken,
			Message:    "no pending MFA login",
		}
	}
	if err := c.EnsureCSRF(ctx); err != nil {
		return nil, err
	}

	var out struct {
		Success bool        `json:"success"`
		User    UserProfile `json:"user"`
	}
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(httpx.CSRFHeaderName, c.csrfToken()).
		SetAuthToken(temp).
		SetBody(req).
		SetResult(&out).
		Post("/auth/mfa")
	if err != nil {
		return nil, fmt.Errorf("authsdk: POST /auth/mfa: %w", err)
	}
	if err := parseErrorResponse(resp.StatusCode(), resp.Body()); err != nil {
		return nil, err
	}

	c.setTempToken("")
	return &out.User, nil
}

// SetupMFA begins MFA enrolment for the signed-in account.
func (c *Client) SetupMFA(ctx context.Context) (*MFASetupResponse, error) {
	var out MFASetupResponse
	if err := c.post(ctx, "/mfa/setup", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifySetupMFA commits a pending enrolment. The returned recovery codes are
// shown exactly once.
func (c *Client) VerifySetupMFA(ctx context.Context, req MFAVerifySetupRequest) (*MFAVerifySetupResponse, error) {
	var out MFAVerifySetupResponse
	if err := c.post(ctx, "/mfa/verify-setup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DisableMFA turns MFA off for the signed-in account. Requires the current
// password and a valid TOTP code.
func (c *Client) DisableMFA(ctx context.Context, req MFADisableRequest) error {
	return c.post(ctx, "/mfa/disable", req, nil)
}

// ChangePassword rotates the signed-in account's password. The session that
// made the change stays valid; every other session is invalidated.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if err := c.EnsureCSRF(ctx); err != nil {
		return err
	}
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(httpx.CSRFHeaderName, c.csrfToken()).
		SetBody(req).
		Put("/auth/change-password")
	if err != nil {
		return fmt.Errorf("authsdk: PUT /auth/change-password: %w", err)
	}
	return parseErrorResponse(resp.StatusCode(), resp.Body())
}

// Profile fetches the signed-in account's profile.
func (c *Client) Profile(ctx context.Context) (*UserProfile, error) {
	var out ProfileResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/auth/profile")
	if err != nil {
		return nil, fmt.Errorf("authsdk: GET /auth/profile: %w", err)
	}
	if err := parseErrorResponse(resp.StatusCode(), resp.Body()); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Refresh re-issues the session cookie from a still-valid session.
func (c *Client) Refresh(ctx context.Context) error {
	resp, err := c.rc.R().SetContext(ctx).Post("/auth/refresh")
	if err != nil {
		return fmt.Errorf("authsdk: POST /auth/refresh: %w", err)
	}
	return parseErrorResponse(resp.StatusCode(), resp.Body())
}

// Logout clears the session cookie server-side and in the jar.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil)
}

// Healthy reports whether the service answers its readiness probe.
func (c *Client) Healthy(ctx context.Context) error {
	resp, err := c.rc.R().SetContext(ctx).Get("/readyz")
	if err != nil {
		return fmt.Errorf("authsdk: GET /readyz: %w", err)
	}
	return parseErrorResponse(resp.StatusCode(), resp.Body())
}

package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/shoptally/shoptally/internal/auth/audit"
	authhttp "github.com/shoptally/shoptally/internal/auth/http"
	"github.com/shoptally/shoptally/internal/auth/recaptcha"
	"github.com/shoptally/shoptally/internal/auth/service"
	"github.com/shoptally/shoptally/internal/auth/store"
	"github.com/shoptally/shoptally/internal/auth/store/drivers/sqlite"
	"github.com/shoptally/shoptally/pkg/cryptox"
	"github.com/shoptally/shoptally/pkg/httpx"
	"github.com/shoptally/shoptally/pkg/jwtx"
)

const testPassword = "Str0ng!password"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-test-*")
	if err != nil {
		os.Exit(1)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// testEnv wires a full router over an in-memory store, the way the app
// package does in production.
type testEnv struct {
	srv    *httptest.Server
	store  store.Store
	signer *jwtx.HS256
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewHS256([]byte("test-secret-material-0123456789ab"), "shoptally-auth")
	require.NoError(t, err)

	box, err := cryptox.NewSecretBox([]byte("test-encryption-key-material"))
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	recorder := audit.NewRecorder(st.ActivityLogs(), logger, 0)
	recorder.Start()
	t.Cleanup(recorder.Stop)

	router := authhttp.NewRouter(signer, "test", st,
		authhttp.CookieConfig{TTL: 7 * 24 * time.Hour}, logger)
	router.TokenService = &service.TokenService{Signer: signer, Issuer: "shoptally-auth"}
	router.LoginService = &service.LoginService{Store: st}
	router.UserService = &service.UserService{Store: st}
	router.MFAService = &service.MFAService{Store: st, Box: box, Issuer: "shoptally-auth"}
	router.Recaptcha = recaptcha.New("")
	router.Recorder = recorder
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, store: st, signer: signer}
}

// testClient is a bare-bones browser stand-in: a cookie jar plus automatic
// CSRF header echoing.
type testClient struct {
	t   *testing.T
	env *testEnv
	hc  *http.Client
}

func newTestClient(t *testing.T, env *testEnv) *testClient {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, env: env, hc: &http.Client{Jar: jar}}
}

func (c *testClient) baseURL() *url.URL {
	u, err := url.Parse(c.env.srv.URL)
	require.NoError(c.t, err)
	return u
}

// cookie returns the named cookie's current value from the jar, or "".
func (c *testClient) cookie(name string) string {
	for _, ck := range c.hc.Jar.Cookies(c.baseURL()) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func (c *testClient) setCookie(name, value string) {
	c.hc.Jar.SetCookies(c.baseURL(), []*http.Cookie{{Name: name, Value: value}})
}

func (c *testClient) get(path string) *http.Response {
	c.t.Helper()

	resp, err := c.hc.Get(c.env.srv.URL + path)
	require.NoError(c.t, err)
	return resp
}

// do sends a JSON request with the CSRF header attached, seeding the CSRF
// cookie first if the jar doesn't hold one yet.
func (c *testClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()

	if c.cookie(httpx.CSRFCookieName) == "" {
		resp := c.get("/livez")
		resp.Body.Close()
	}

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, c.env.srv.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpx.CSRFHeaderName, c.cookie(httpx.CSRFCookieName))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	require.NoError(c.t, err)
	return resp
}

func (c *testClient) post(path string, body any) *http.Response {
	return c.do(http.MethodPost, path, body, nil)
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out), "body: %s", data)
}

func totpCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

// register creates an account through the API and leaves the client signed in.
func (c *testClient) register(email string) {
	c.t.Helper()

	resp := c.post("/auth/register", map[string]string{
		"name":     "Pat Owner",
		"email":    email,
		"password": testPassword,
	})
	defer resp.Body.Close()
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
}

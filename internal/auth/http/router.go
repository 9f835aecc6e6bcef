package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shoptally/shoptally/internal/auth/audit"
	"github.com/shoptally/shoptally/internal/auth/recaptcha"
	"github.com/shoptally/shoptally/internal/auth/service"
	"github.com/shoptally/shoptally/internal/auth/store"
	"github.com/shoptally/shoptally/pkg/httpx"
	"github.com/shoptally/shoptally/pkg/jwtx"
	"github.com/shoptally/shoptally/pkg/slogx"

	_ "github.com/shoptally/shoptally/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	cookies      CookieConfig

	store        store.Store
	TokenService *service.TokenService
	LoginService *service.LoginService
	UserService  *service.UserService
	MFAService   *service.MFAService
	Recaptcha    *recaptcha.Verifier
	Recorder     *audit.Recorder
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	cookies CookieConfig,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		cookies:      cookies,
		logger:       logger,
	}

	// Set default middleware chain. The CSRF guard runs on every request so
	// the cookie gets seeded on the first GET; refresh is exempt from the
	// header check because browsers fire it without script involvement.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CSRFGuard(httpx.CSRFConfig{
			Secure:      cookies.Secure,
			ExemptPaths: []string{"/auth/refresh"},
		}),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMFA()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			ShopTally Authentication Service API
//	@version		0.1.0
//	@description	Authentication and session service for ShopTally: password login with
//	@description	lockout, TOTP MFA with recovery codes, JWT session cookies, and CSRF
//	@description	double-submit protection.
//
//	@contact.name				ShopTally Team
//	@contact.url				https://github.com/shoptally/shoptally
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				MFA temp token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /auth/register - strict rate limit by IP (public signup endpoint)
	registerHandler := &RegisterHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
		Recaptcha:    r.Recaptcha,
		Recorder:     r.Recorder,
		Cookies:      r.cookies,
	}
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/login - strict rate limit by IP (authentication attempts)
	loginHandler := &LoginHandler{
		LoginService: r.LoginService,
		TokenService: r.TokenService,
		Recaptcha:    r.Recaptcha,
		Recorder:     r.Recorder,
		Cookies:      r.cookies,
	}
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/mfa - strict rate limit, gated by the temp token
	completeHandler := &MFACompleteHandler{
		MFAService:   r.MFAService,
		TokenService: r.TokenService,
		Recorder:     r.Recorder,
		Cookies:      r.cookies,
	}
	r.Mux.Handle("POST /auth/mfa",
		httpx.Chain(completeHandler,
			RequireTempToken(r.verifier, r.store),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// PUT /auth/change-password - moderate rate limit by user
	passwordHandler := &PasswordHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
		Recorder:     r.Recorder,
		Cookies:      r.cookies,
	}
	r.Mux.Handle("PUT /auth/change-password",
		httpx.Chain(passwordHandler,
			RequireSession(r.verifier, r.store),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /auth/profile - lenient rate limit by user (read-only)
	r.Mux.Handle("GET /auth/profile",
		httpx.Chain(&ProfileHandler{},
			RequireSession(r.verifier, r.store),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	sessionHandler := &SessionHandler{
		TokenService: r.TokenService,
		Recorder:     r.Recorder,
		Cookies:      r.cookies,
	}

	// POST /auth/logout - moderate rate limit by user
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(sessionHandler.HandleLogout),
			RequireSession(r.verifier, r.store),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /auth/refresh - moderate rate limit by user
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(http.HandlerFunc(sessionHandler.HandleRefresh),
			RequireSession(r.verifier, r.store),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{
		MFAService: r.MFAService,
		Recorder:   r.Recorder,
	}

	// POST /mfa/setup - moderate rate limit by user
	r.Mux.Handle("POST /mfa/setup",
		httpx.Chain(http.HandlerFunc(h.HandleSetup),
			RequireSession(r.verifier, r.store),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /mfa/verify-setup - strict rate limit (code guessing)
	r.Mux.Handle("POST /mfa/verify-setup",
		httpx.Chain(http.HandlerFunc(h.HandleVerifySetup),
			RequireSession(r.verifier, r.store),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// POST /mfa/disable - strict rate limit (password + code guessing)
	r.Mux.Handle("POST /mfa/disable",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			RequireSession(r.verifier, r.store),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

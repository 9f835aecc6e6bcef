package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shoptally/shoptally/internal/auth/audit"
	"github.com/shoptally/shoptally/internal/auth/recaptcha"
	"github.com/shoptally/shoptally/internal/auth/service"
	"github.com/shoptally/shoptally/pkg/authsdk"
	"github.com/shoptally/shoptally/pkg/httpx"
	"github.com/shoptally/shoptally/pkg/slogx"
)

// LoginHandler performs first-factor authentication. Accounts with MFA
// enabled get a short-lived temp token instead of a session cookie.
type LoginHandler struct {
	LoginService *service.LoginService
	TokenService *service.TokenService
	Recaptcha    *recaptcha.Verifier
	Recorder     *audit.Recorder
	Cookies      CookieConfig
}

// ServeHTTP handles POST /auth/login
//
//	@Summary		Authenticate with email and password
//	@Description	Verifies credentials and either issues a session cookie or, for MFA-enabled
//	@Description	accounts, returns a temp token for the second-factor step. Failure responses
//	@Description	never reveal which check failed.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"Session established or MFA required"
//	@Failure		400		{object}	authsdk.APIError		"Malformed request or captcha failure"
//	@Failure		401		{object}	authsdk.APIError		"Invalid credentials"
//	@Failure		403		{object}	authsdk.APIError		"Account disabled or password expired"
//	@Failure		429		{object}	authsdk.APIError		"Account locked"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			"Email and password are required").WriteError(w)
		return
	}

	if h.Recaptcha.Enabled() {
		if err := h.Recaptcha.Verify(ctx, req.RecaptchaToken, httpx.ClientIP(r)); err != nil {
			if errors.Is(err, recaptcha.ErrUnavailable) {
				log.Error("recaptcha provider unavailable", "err", err)
				authsdk.ErrUpstream.WriteError(w)
				return
			}
			authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
				"Captcha verification failed").WriteError(w)
			return
		}
	}

	now := time.Now()
	result, err := h.LoginService.Login(ctx, req.Email, req.Password, now)
	if err != nil {
		// Specific reasons go to the activity log, never to the client.
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			h.Recorder.Record(auditEntry(r, result.User.ID, audit.ActionLoginFailed, audit.ModuleAuth,
				map[string]any{"email": req.Email, "reason": "invalid_credentials"}))
			authsdk.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrAccountLocked):
			h.Recorder.Record(auditEntry(r, result.User.ID, audit.ActionLoginLocked, audit.ModuleAuth,
				map[string]any{"email": req.Email}))
			authsdk.ErrAccountLocked.WriteError(w)
		case errors.Is(err, service.ErrAccountDisabled):
			h.Recorder.Record(auditEntry(r, result.User.ID, audit.ActionLoginFailed, audit.ModuleAuth,
				map[string]any{"email": req.Email, "reason": "account_disabled"}))
			authsdk.ErrAccountDisabled.WriteError(w)
		case errors.Is(err, service.ErrPasswordExpired):
			h.Recorder.Record(auditEntry(r, result.User.ID, audit.ActionPasswordExpired, audit.ModuleAuth,
				map[string]any{"email": req.Email}))
			authsdk.ErrPasswordExpired.WriteError(w)
		default:
			log.Error("login failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	user := result.User

	if result.MFARequired {
		temp, err := h.TokenService.IssueTempToken(user.ID, now)
		if err != nil {
			log.Error("issue temp token failed", "user_id", user.ID, "err", err)
			authsdk.ErrServerError.WriteError(w)
			return
		}
		// No session cookie: first factor alone grants nothing.
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
			Success:     true,
			MFARequired: true,
			TempToken:   temp,
		})
		return
	}

	token, err := h.TokenService.IssueSession(user, now)
	if err != nil {
		log.Error("issue session failed", "user_id", user.ID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	setSessionCookie(w, h.Cookies, token)

	h.Recorder.Record(auditEntry(r, user.ID, audit.ActionLoginSuccess, audit.ModuleAuth,
		map[string]any{"email": user.Email}))

	profile := profileView(user)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Success: true,
		User:    &profile,
	})
}

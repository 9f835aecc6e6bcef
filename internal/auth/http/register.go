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

// RegisterHandler creates accounts and signs them in immediately.
type RegisterHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
	Recaptcha    *recaptcha.Verifier
	Recorder     *audit.Recorder
	Cookies      CookieConfig
}

// ServeHTTP handles POST /auth/register
//
//	@Summary		Register a new account
//	@Description	Creates an account, seeds the password history, and issues a session cookie.
//	@Description	Email and phone must be unique; the password must satisfy the complexity policy.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Account details"
//	@Success		200		{object}	authsdk.LoginResponse	"Profile of the created account"
//	@Failure		400		{object}	authsdk.APIError		"Validation or captcha failure"
//	@Failure		409		{object}	authsdk.APIError		"Email or phone already registered"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			"Name, email and password are required").WriteError(w)
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
	user, err := h.UserService.Register(ctx, service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	}, now)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			authsdk.ErrAlreadyExists.WriteError(w)
		case isComplexityError(err):
			authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
				capitalizeError(err)).WriteError(w)
		default:
			log.Error("register failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	token, err := h.TokenService.IssueSession(user, now)
	if err != nil {
		log.Error("issue session failed", "user_id", user.ID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	setSessionCookie(w, h.Cookies, token)

	h.Recorder.Record(auditEntry(r, user.ID, audit.ActionRegister, audit.ModuleAuth,
		map[string]any{"email": user.Email}))

	profile := profileView(user)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Success: true,
		User:    &profile,
	})
}

// isComplexityError reports whether err is one of the password policy
// failures that is safe to echo back to the client.
func isComplexityError(err error) bool {
	for _, e := range []error{
		service.ErrPasswordTooShort,
		service.ErrPasswordNoUpper,
		service.ErrPasswordNoLower,
		service.ErrPasswordNoDigit,
		service.ErrPasswordNoSpecial,
		service.ErrPasswordContainsName,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func capitalizeError(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	if msg[0] >= 'a' && msg[0] <= 'z' {
		return string(msg[0]-'a'+'A') + msg[1:]
	}
	return msg
}

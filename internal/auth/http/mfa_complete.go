package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shoptally/shoptally/internal/auth/audit"
	"github.com/shoptally/shoptally/internal/auth/service"
	"github.com/shoptally/shoptally/pkg/authsdk"
	"github.com/shoptally/shoptally/pkg/httpx"
	"github.com/shoptally/shoptally/pkg/slogx"
)

// MFACompleteHandler finishes a login for MFA-enabled accounts. It runs
// behind RequireTempToken, so the user in context has already proven the
// first factor.
type MFACompleteHandler struct {
	MFAService   *service.MFAService
	TokenService *service.TokenService
	Recorder     *audit.Recorder
	Cookies      CookieConfig
}

// ServeHTTP handles POST /auth/mfa
//
//	@Summary		Complete an MFA login
//	@Description	Exchanges the temp token plus a valid 6-digit TOTP code (or a one-time
//	@Description	recovery code when recovery is true) for a session cookie.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFACompleteRequest	true	"Second factor"
//	@Success		200		{object}	authsdk.LoginResponse		"Session established"
//	@Failure		400		{object}	authsdk.APIError			"Invalid or replayed code"
//	@Failure		401		{object}	authsdk.APIError			"Missing or invalid temp token"
//	@Failure		500		{object}	authsdk.APIError			"Internal server error"
//	@Router			/auth/mfa [post].
func (h *MFACompleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.MFACompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	now := time.Now()

	var verifyErr error
	if req.Recovery {
		verifyErr = h.MFAService.ConsumeRecoveryCode(ctx, user, req.Code)
	} else {
		verifyErr = h.MFAService.VerifyLogin(ctx, user, req.Code, now)
	}
	if verifyErr != nil {
		switch {
		case errors.Is(verifyErr, service.ErrInvalidTOTPCode),
			errors.Is(verifyErr, service.ErrTOTPReplayed),
			errors.Is(verifyErr, service.ErrInvalidRecoveryCode):
			h.Recorder.Record(auditEntry(r, user.ID, audit.ActionMFAFailed, audit.ModuleMFA,
				map[string]any{"recovery": req.Recovery}))
			authsdk.ErrInvalidMFACode.WriteError(w)
		case errors.Is(verifyErr, service.ErrMFANotEnabled):
			authsdk.ErrInvalidRequest.WriteError(w)
		default:
			log.Error("MFA completion failed", "user_id", user.ID, "err", verifyErr)
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

	action := audit.ActionLoginSuccess
	if req.Recovery {
		action = audit.ActionMFARecoveryUsed
	}
	h.Recorder.Record(auditEntry(r, user.ID, action, audit.ModuleMFA,
		map[string]any{"email": user.Email}))

	profile := profileView(user)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Success: true,
		User:    &profile,
	})
}

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

// PasswordHandler rotates the signed-in user's password.
type PasswordHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
	Recorder     *audit.Recorder
	Cookies      CookieConfig
}

// ServeHTTP handles PUT /auth/change-password
//
//	@Summary		Change password
//	@Description	Rotates the password after verifying the current one. The new password must
//	@Description	pass the complexity policy and must not match any password in the history
//	@Description	window. Every previously issued session is invalidated; the response sets a
//	@Description	fresh session cookie for the caller.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		200		{object}	authsdk.BasicResponse			"Password changed"
//	@Failure		400		{object}	authsdk.APIError				"Weak or recently used password"
//	@Failure		401		{object}	authsdk.APIError				"Wrong current password or invalid session"
//	@Failure		500		{object}	authsdk.APIError				"Internal server error"
//	@Router			/auth/change-password [put].
func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
			"Current and new password are required").WriteError(w)
		return
	}

	now := time.Now()
	if err := h.UserService.ChangePassword(ctx, user, req.CurrentPassword, req.NewPassword, now); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			authsdk.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrPasswordReused):
			authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
				"Password was used recently; choose a different one").WriteError(w)
		case isComplexityError(err):
			authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
				capitalizeError(err)).WriteError(w)
		default:
			log.Error("change password failed", "user_id", user.ID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	// The rotation invalidated every session issued before it, including the
	// caller's. Re-issue so the caller stays signed in.
	token, err := h.TokenService.IssueSession(user, now)
	if err != nil {
		log.Error("issue session failed", "user_id", user.ID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	setSessionCookie(w, h.Cookies, token)

	h.Recorder.Record(auditEntry(r, user.ID, audit.ActionPasswordChanged, audit.ModuleAuth, nil))

	httpx.WriteJSON(w, http.StatusOK, authsdk.BasicResponse{
		Success: true,
		Message: "Password changed",
	})
}

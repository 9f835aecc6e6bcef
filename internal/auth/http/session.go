package http

import (
	"net/http"
	"time"

	"github.com/shoptally/shoptally/internal/auth/audit"
	"github.com/shoptally/shoptally/internal/auth/service"
	"github.com/shoptally/shoptally/pkg/authsdk"
	"github.com/shoptally/shoptally/pkg/httpx"
	"github.com/shoptally/shoptally/pkg/slogx"
)

// SessionHandler manages the lifecycle of an established session.
type SessionHandler struct {
	TokenService *service.TokenService
	Recorder     *audit.Recorder
	Cookies      CookieConfig
}

// HandleLogout handles POST /auth/logout
//
//	@Summary		Sign out
//	@Description	Clears the session cookie. The JWT itself expires on its own schedule.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.BasicResponse	"Signed out"
//	@Failure		401	{object}	authsdk.APIError		"Missing or invalid session"
//	@Router			/auth/logout [post].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	clearSessionCookie(w, h.Cookies)

	h.Recorder.Record(auditEntry(r, user.ID, audit.ActionLogout, audit.ModuleAuth, nil))

	httpx.WriteJSON(w, http.StatusOK, authsdk.BasicResponse{
		Success: true,
		Message: "Signed out",
	})
}

// HandleRefresh handles POST /auth/refresh
//
//	@Summary		Refresh the session cookie
//	@Description	Re-issues the session cookie from a still-valid session, extending its
//	@Description	lifetime. Exempt from the CSRF header check since it changes no account state.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.BasicResponse	"Session refreshed"
//	@Failure		401	{object}	authsdk.APIError		"Missing or invalid session"
//	@Failure		500	{object}	authsdk.APIError		"Internal server error"
//	@Router			/auth/refresh [post].
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	token, err := h.TokenService.IssueSession(user, time.Now())
	if err != nil {
		log.Error("issue session failed", "user_id", user.ID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	setSessionCookie(w, h.Cookies, token)

	h.Recorder.Record(auditEntry(r, user.ID, audit.ActionSessionRefreshed, audit.ModuleAuth, nil))

	httpx.WriteJSON(w, http.StatusOK, authsdk.BasicResponse{
		Success: true,
		Message: "Session refreshed",
	})
}

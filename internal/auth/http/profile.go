package http

import (
	"net/http"

	"github.com/shoptally/shoptally/pkg/authsdk"
	"github.com/shoptally/shoptally/pkg/httpx"
)

// ProfileHandler returns the signed-in user's profile.
type ProfileHandler struct{}

// ServeHTTP handles GET /auth/profile
//
//	@Summary		Get the signed-in user's profile
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.ProfileResponse	"Profile"
//	@Failure		401	{object}	authsdk.APIError		"Missing or invalid session"
//	@Router			/auth/profile [get].
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ProfileResponse{
		Success: true,
		User:    profileView(user),
	})
}

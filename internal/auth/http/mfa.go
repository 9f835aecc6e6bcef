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

// MFAHandler manages TOTP enrolment for signed-in users.
type MFAHandler struct {
	MFAService *service.MFAService
	Recorder   *audit.Recorder
}

// HandleSetup handles POST /mfa/setup
//
//	@Summary		Start MFA enrolment
//	@Description	Provisions a TOTP secret for the signed-in user. The secret stays pending
//	@Description	until verify-setup confirms the authenticator app produces matching codes.
//	@Tags			MFA
//	@Produce		json
//	@Success		200	{object}	authsdk.MFASetupResponse	"Secret and otpauth URI"
//	@Failure		400	{object}	authsdk.APIError			"MFA already enabled"
//	@Failure		401	{object}	authsdk.APIError			"Missing or invalid session"
//	@Failure		500	{object}	authsdk.APIError			"Internal server error"
//	@Router			/mfa/setup [post].
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	provision, err := h.MFAService.Setup(ctx, user)
	if err != nil {
		if errors.Is(err, service.ErrMFAAlreadyEnabled) {
			authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
				"MFA is already enabled").WriteError(w)
			return
		}
		log.Error("MFA setup failed", "user_id", user.ID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	h.Recorder.Record(auditEntry(r, user.ID, audit.ActionMFASetup, audit.ModuleMFA, nil))

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFASetupResponse{
		Success:    true,
		Secret:     provision.Secret,
		OTPAuthURL: provision.OTPAuthURL,
	})
}

// HandleVerifySetup handles POST /mfa/verify-setup
//
//	@Summary		Commit MFA enrolment
//	@Description	Verifies a TOTP code against the pending secret and enables MFA. The
//	@Description	response carries the recovery codes exactly once; they are stored hashed
//	@Description	and cannot be retrieved again.
//	@Tags			MFA
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFAVerifySetupRequest	true	"Current TOTP code"
//	@Success		200		{object}	authsdk.MFAVerifySetupResponse	"Recovery codes (shown once)"
//	@Failure		400		{object}	authsdk.APIError				"Invalid code or no pending enrolment"
//	@Failure		401		{object}	authsdk.APIError				"Missing or invalid session"
//	@Failure		500		{object}	authsdk.APIError				"Internal server error"
//	@Router			/mfa/verify-setup [post].
func (h *MFAHandler) HandleVerifySetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.MFAVerifySetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	enrolment, err := h.MFAService.VerifySetup(ctx, user, req.Code, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			h.Recorder.Record(auditEntry(r, user.ID, audit.ActionMFAFailed, audit.ModuleMFA,
				map[string]any{"stage": "verify_setup"}))
			authsdk.ErrInvalidMFACode.WriteError(w)
		case errors.Is(err, service.ErrMFANotPending):
			authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
				"MFA setup has not been started").WriteError(w)
		case errors.Is(err, service.ErrMFAAlreadyEnabled):
			authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
				"MFA is already enabled").WriteError(w)
		default:
			log.Error("MFA verify-setup failed", "user_id", user.ID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	h.Recorder.Record(auditEntry(r, user.ID, audit.ActionMFAEnabled, audit.ModuleMFA, nil))

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFAVerifySetupResponse{
		Success:       true,
		RecoveryCodes: enrolment.RecoveryCodes,
	})
}

// HandleDisable handles POST /mfa/disable
//
//	@Summary		Disable MFA
//	@Description	Turns MFA off. Requires the current password and a valid TOTP code; both
//	@Description	are checked before any state changes, so a single wrong factor leaves MFA on.
//	@Tags			MFA
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFADisableRequest	true	"Password and current TOTP code"
//	@Success		200		{object}	authsdk.BasicResponse		"MFA disabled"
//	@Failure		400		{object}	authsdk.APIError			"Invalid code or MFA not enabled"
//	@Failure		401		{object}	authsdk.APIError			"Wrong password or invalid session"
//	@Failure		500		{object}	authsdk.APIError			"Internal server error"
//	@Router			/mfa/disable [post].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := userFromContext(ctx)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.MFADisableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.MFAService.Disable(ctx, user, req.Password, req.Code, time.Now()); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			h.Recorder.Record(auditEntry(r, user.ID, audit.ActionMFAFailed, audit.ModuleMFA,
				map[string]any{"stage": "disable"}))
			authsdk.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrInvalidTOTPCode), errors.Is(err, service.ErrTOTPReplayed):
			h.Recorder.Record(auditEntry(r, user.ID, audit.ActionMFAFailed, audit.ModuleMFA,
				map[string]any{"stage": "disable"}))
			authsdk.ErrInvalidMFACode.WriteError(w)
		case errors.Is(err, service.ErrMFANotEnabled):
			authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest,
				"MFA is not enabled").WriteError(w)
		default:
			log.Error("MFA disable failed", "user_id", user.ID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	h.Recorder.Record(auditEntry(r, user.ID, audit.ActionMFADisabled, audit.ModuleMFA, nil))

	httpx.WriteJSON(w, http.StatusOK, authsdk.BasicResponse{
		Success: true,
		Message: "MFA disabled",
	})
}

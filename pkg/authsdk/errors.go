package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shoptally/shoptally/pkg/httpx"
)

// API error codes returned in the "error" field of failure responses.
const (
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeAccountLocked      = "account_locked"
	ErrorCodeAccountDisabled    = "account_disabled"
	ErrorCodePasswordExpired    = "password_expired"
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInvalidMFACode     = "invalid_mfa_code"
	ErrorCodeAlreadyExists      = "already_exists"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeUpstream           = "upstream_error"
	ErrorCodeServerError        = "server_error"
)

// APIError is the JSON error envelope shared by the server handlers and the
// SDK client. Failure responses always look like
// {"success": false, "error": "<code>", "message": "<text>"}; the message is
// intentionally generic on credential endpoints so specific check failures
// never leak to the caller.
type APIError struct {
	// StatusCode is the HTTP status for this error.
	StatusCode int `json:"-"`

	// Code is the machine-readable error code.
	Code string `json:"error"`

	// Message is a human-readable description safe to show to end users.
	Message string `json:"message"`

	// PasswordExpired marks the one authentication failure the client must
	// distinguish, so it can route the user to the password-change form.
	PasswordExpired bool `json:"passwordExpired,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)

	body := map[string]any{
		"success": false,
		"error":   e.Code,
		"message": e.Message,
	}
	if e.PasswordExpired {
		body["passwordExpired"] = true
	}
	_ = json.NewEncoder(w).Encode(body)
}

// Predefined API errors. Handlers return these directly; anything requiring a
// bespoke message goes through NewAPIError.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidCredentials,
		Message:    "Invalid credentials",
	}

	// ErrAccountLocked is returned while a lockout window is in effect,
	// regardless of whether the submitted password was correct.
	ErrAccountLocked = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Code:       ErrorCodeAccountLocked,
		Message:    "Account temporarily locked due to repeated failed logins. Try again later.",
	}

	// ErrAccountDisabled is returned for deactivated accounts.
	ErrAccountDisabled = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodeAccountDisabled,
		Message:    "Account is disabled",
	}

	// ErrPasswordExpired is returned when the password aged out. No session
	// is issued; the client must complete a password change first.
	ErrPasswordExpired = &APIError{
		StatusCode:      http.StatusForbidden,
		Code:            ErrorCodePasswordExpired,
		Message:         "Password has expired and must be changed",
		PasswordExpired: true,
	}

	// ErrInvalidRequest is returned for malformed bodies and validation
	// failures, including password complexity and history-reuse rejections.
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeInvalidRequest,
		Message:    "The request is malformed or missing required parameters",
	}

	// ErrInvalidToken is returned when the session or temp token is missing,
	// invalid, expired, or of the wrong kind.
	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidToken,
		Message:    "Not authorized",
	}

	// ErrInvalidMFACode is returned for failed TOTP or recovery-code checks.
	ErrInvalidMFACode = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeInvalidMFACode,
		Message:    "Invalid verification code",
	}

	// ErrAlreadyExists is returned when a unique identity field (email or
	// phone) is already taken.
	ErrAlreadyExists = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeAlreadyExists,
		Message:    "An account with these details already exists",
	}

	// ErrUpstream hides payment and recaptcha provider failures behind a
	// generic message.
	ErrUpstream = &APIError{
		StatusCode: http.StatusBadGateway,
		Code:       ErrorCodeUpstream,
		Message:    "Upstream provider error",
	}

	// ErrServerError is the last-resort translator for unhandled failures.
	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrorCodeServerError,
		Message:    "Internal server error",
	}
)

// NewAPIError creates an APIError with a custom message while keeping the
// standard envelope.
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// parseErrorResponse turns a non-2xx response body into a typed *APIError.
// Returns nil for 2xx responses.
func parseErrorResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var errResp struct {
		Error           string `json:"error"`
		Message         string `json:"message"`
		PasswordExpired bool   `json:"passwordExpired"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:      statusCode,
			Code:            errResp.Error,
			Message:         errResp.Message,
			PasswordExpired: errResp.PasswordExpired,
		}
	}

	return &APIError{
		StatusCode: statusCode,
		Code:       ErrorCodeServerError,
		Message:    fmt.Sprintf("HTTP %d: %s", statusCode, http.StatusText(statusCode)),
	}
}

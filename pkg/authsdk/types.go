package authsdk

import "time"

// ============================================================================
// Request Types
// ============================================================================

// RegisterRequest creates a new account. Email and phone must be unique.
type RegisterRequest struct {
	// Name is the display name of the account owner (max 64 chars)
	Name string `json:"name"`

	// Email is the login identifier, stored lowercased
	Email string `json:"email"`

	// Phone is optional; unique when present
	Phone string `json:"phone,omitempty"`

	// Password must satisfy the complexity policy (min 8 chars, upper,
	// lower, digit, special)
	Password string `json:"password"`

	// RecaptchaToken is the client-side recaptcha response. Required only
	// when the server has recaptcha enabled.
	RecaptchaToken string `json:"recaptchaToken,omitempty"`
}

// LoginRequest performs first-factor authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	RecaptchaToken string `json:"recaptchaToken,omitempty"`
}

// MFACompleteRequest completes a login for an MFA-enabled account. Either a
// 6-digit TOTP code, or a recovery code with Recovery set.
type MFACompleteRequest struct {
	Code string `json:"code"`

	// Recovery marks Code as a one-time recovery code instead of a TOTP.
	Recovery bool `json:"recovery,omitempty"`
}

// MFAVerifySetupRequest commits a pending MFA enrolment.
type MFAVerifySetupRequest struct {
	// Code is the current 6-digit TOTP generated from the provisioned secret
	Code string `json:"code"`
}

// MFADisableRequest turns MFA off. Both fields are verified independently and
// both must succeed.
type MFADisableRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

// ChangePasswordRequest rotates the account password. The new password must
// pass complexity checks and must not match any hash in the history window.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ============================================================================
// Response Types
// ============================================================================

// BasicResponse is the minimal success envelope.
type BasicResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SubscriptionInfo describes the account's plan state.
type SubscriptionInfo struct {
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// UserProfile is the public view of an account. Credential material is never
// included.
type UserProfile struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Phone      string           `json:"phone,omitempty"`
	Role       string           `json:"role"`
	MFAEnabled bool             `json:"mfaEnabled"`
	LastLogin  *time.Time       `json:"lastLogin,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	Sub        SubscriptionInfo `json:"subscription"`
}

// LoginResponse is returned from POST /auth/login. When MFARequired is true
// no session cookie is set; the client must call POST /auth/mfa with
// TempToken as a Bearer header.
type LoginResponse struct {
	Success bool `json:"success"`

	MFARequired bool   `json:"mfaRequired,omitempty"`
	TempToken   string `json:"tempToken,omitempty"`

	User *UserProfile `json:"user,omitempty"`
}

// MFASetupResponse carries provisioning material for the authenticator app.
// The secret is not active until verify-setup succeeds.
type MFASetupResponse struct {
	Success bool `json:"success"`

	// Secret is the base32 TOTP secret, for manual entry
	Secret string `json:"secret"`

	// OTPAuthURL is the otpauth:// URI to encode as a QR code
	OTPAuthURL string `json:"otpauthUrl"`
}

// MFAVerifySetupResponse is returned exactly once, when enrolment commits.
// Recovery codes are stored hashed server-side and cannot be retrieved again.
type MFAVerifySetupResponse struct {
	Success       bool     `json:"success"`
	RecoveryCodes []string `json:"recoveryCodes"`
}

// ProfileResponse wraps the authenticated user's profile.
type ProfileResponse struct {
	Success bool        `json:"success"`
	User    UserProfile `json:"user"`
}

// HealthChecks breaks down readiness by dependency.
type HealthChecks struct {
	Database string `json:"database"`
}

// HealthResponse is returned by the /livez and /readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

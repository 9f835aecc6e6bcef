package domain

import "time"

// Role is the account's authorization level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account's identity, credential, and security state. Password
// history lives in its own table (see store.PasswordHistoryRepo), recovery
// codes likewise.
type User struct {
	ID    string
	Name  string
	Email string  // unique, stored lowercased
	Phone *string // unique when present (nullable)

	PasswordHash        string     // argon2id encoded, peppered
	PasswordLastUpdated *time.Time // nil means never rotated; treated as not expired

	FailedLoginAttempts int
	LockUntil           *time.Time // nil or past means not locked

	IsActive bool
	Role     Role

	LastLogin *time.Time

	// MFA state. EnabledAt nil means MFA is off. SecretEnc and TempSecretEnc
	// hold the AES-GCM sealed TOTP secrets; TempSecretEnc is only populated
	// between setup and verify-setup.
	MFAEnabledAt    *time.Time
	MFASecretEnc    []byte
	MFATempSecret   []byte // encrypted, pending verification
	MFALastTOTPStep int64  // last accepted TOTP step, for replay rejection

	SubscriptionPlan      string
	SubscriptionStatus    string
	SubscriptionExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MFAEnabled reports whether MFA enrolment has been committed.
func (u *User) MFAEnabled() bool {
	return u.MFAEnabledAt != nil
}

// Locked reports whether the account lockout window is still in effect.
func (u *User) Locked(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}

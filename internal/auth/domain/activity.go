package domain

import "time"

// ActivityLog is one audit trail entry. UserID is nullable: failed logins
// for unknown emails still get recorded.
type ActivityLog struct {
	ID        string
	UserID    *string
	Action    string // e.g. "login_failed", "password_changed"
	Module    string // e.g. "auth", "mfa"
	IP        string
	UserAgent string
	Metadata  string // JSON object, PII-masked before insert
	CreatedAt time.Time
}

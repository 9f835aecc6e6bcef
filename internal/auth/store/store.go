package store

import (
	"context"
	"errors"
	"time"

	"github.com/shoptally/shoptally/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	PasswordHistory() PasswordHistory
	RecoveryCodes() RecoveryCodes
	ActivityLogs() ActivityLogs

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error, the
	// transaction is rolled back; otherwise it is committed. This is the
	// recommended way to handle multi-step writes (e.g., password rotation
	// plus history push).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// LoginFailure is the outcome of an atomic failed-login update.
type LoginFailure struct {
	// Attempts is the failure count after the update. Zero when the update
	// just armed a lockout (the counter resets when the lock is set).
	Attempts int

	// LockUntil is non-nil when this failure armed (or found) a lockout.
	LockUntil *time.Time
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by the lowercased email, for login.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists on an email or phone collision.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the hash and password_last_updated, and bumps
	// updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string, at time.Time) error

	// RecordLoginSuccess clears the failure counter and lockout and stamps
	// last_login.
	RecordLoginSuccess(ctx context.Context, userID string, at time.Time) error

	// RecordLoginFailure increments the failure counter in a single
	// conditional UPDATE. When the incremented count reaches threshold the
	// same statement sets lock_until=lockUntil and resets the counter, so
	// two concurrent failures cannot race past the threshold.
	RecordLoginFailure(ctx context.Context, userID string, threshold int, lockUntil time.Time) (LoginFailure, error)

	// SetActive toggles is_active.
	SetActive(ctx context.Context, userID string, active bool) error

	// UpdateMFATempSecret stores the encrypted pending TOTP secret.
	UpdateMFATempSecret(ctx context.Context, userID string, sealed []byte) error

	// CommitMFASecret promotes the pending secret: sets mfa_secret_enc,
	// stamps mfa_enabled_at, clears the temp secret.
	CommitMFASecret(ctx context.Context, userID string, sealed []byte, at time.Time) error

	// DisableMFA clears mfa_enabled_at and wipes both secrets and the last
	// accepted TOTP step.
	DisableMFA(ctx context.Context, userID string) error

	// UpdateMFALastStep persists the last accepted TOTP step counter for
	// replay rejection.
	UpdateMFALastStep(ctx context.Context, userID string, step int64) error
}

type PasswordHistory interface {
	// ListHashes returns prior hashes for a user, newest first.
	ListHashes(ctx context.Context, userID string) ([]string, error)

	// Replace atomically swaps the user's history for the given list
	// (newest first). Callers compute the bounded list; the repo just
	// persists it.
	Replace(ctx context.Context, userID string, hashes []string) error
}

type RecoveryCodes interface {
	// Create stores a recovery code fingerprint for a user.
	Create(ctx context.Context, userID, codeHash string) error

	// Consume deletes the code if present, reporting whether it existed.
	// Delete-on-match makes each code single-use.
	Consume(ctx context.Context, userID, codeHash string) (bool, error)

	// DeleteAll removes every code for a user (MFA disable, re-enrolment).
	DeleteAll(ctx context.Context, userID string) error

	// Count returns how many unused codes remain.
	Count(ctx context.Context, userID string) (int, error)
}

type ActivityLogs interface {
	// Insert appends one audit entry.
	Insert(ctx context.Context, entry domain.ActivityLog) error

	// ListByUser returns a user's entries, newest first, up to limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.ActivityLog, error)

	// PurgeBefore deletes entries past retention. Security modules
	// ("auth", "mfa") use securityCutoff; everything else normalCutoff.
	PurgeBefore(ctx context.Context, securityCutoff, normalCutoff time.Time) (int64, error)
}

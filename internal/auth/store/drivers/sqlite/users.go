package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/shoptally/shoptally/internal/auth/domain"
	"github.com/shoptally/shoptally/internal/auth/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, name, email, phone, password_hash, password_last_updated,
	failed_login_attempts, lock_until, is_active, role, last_login,
	mfa_enabled_at, mfa_secret_enc, mfa_temp_secret_enc, mfa_last_totp_step,
	subscription_plan, subscription_status, subscription_expires_at,
	created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u          domain.User
		phone      sql.NullString
		pwdUpdated sql.NullTime
		lockUntil  sql.NullTime
		lastLogin  sql.NullTime
		mfaEnabled sql.NullTime
		subExpires sql.NullTime
		role       string
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &phone, &u.PasswordHash, &pwdUpdated,
		&u.FailedLoginAttempts, &lockUntil, &u.IsActive, &role, &lastLogin,
		&mfaEnabled, &u.MFASecretEnc, &u.MFATempSecret, &u.MFALastTOTPStep,
		&u.SubscriptionPlan, &u.SubscriptionStatus, &subExpires,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Phone = mapNullStringPtr(phone)
	u.PasswordLastUpdated = mapNullTimePtr(pwdUpdated)
	u.LockUntil = mapNullTimePtr(lockUntil)
	u.LastLogin = mapNullTimePtr(lastLogin)
	u.MFAEnabledAt = mapNullTimePtr(mfaEnabled)
	u.SubscriptionExpiresAt = mapNullTimePtr(subExpires)
	u.Role = domain.Role(role)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, name, email, phone, password_hash, password_last_updated,
			is_active, role, subscription_plan, subscription_status,
			subscription_expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, mapOptionalString(u.Phone), u.PasswordHash,
		mapOptionalTime(u.PasswordLastUpdated), u.IsActive, string(u.Role),
		u.SubscriptionPlan, u.SubscriptionStatus,
		mapOptionalTime(u.SubscriptionExpiresAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, password_last_updated = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		newHash, at, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) RecordLoginSuccess(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = 0, lock_until = NULL, last_login = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		at, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// RecordLoginFailure increments the failure counter and arms the lockout in
// one conditional UPDATE, so concurrent failures for the same account cannot
// race past the threshold. When the incremented count reaches threshold the
// counter resets to zero and lock_until is set.
func (r *usersRepo) RecordLoginFailure(ctx context.Context, userID string, threshold int, lockUntil time.Time) (store.LoginFailure, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET failed_login_attempts = CASE
				WHEN failed_login_attempts + 1 >= ? THEN 0
				ELSE failed_login_attempts + 1
			END,
			lock_until = CASE
				WHEN failed_login_attempts + 1 >= ? THEN ?
				ELSE lock_until
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		RETURNING failed_login_attempts, lock_until`,
		threshold, threshold, lockUntil, userID,
	)

	var (
		attempts int
		lock     sql.NullTime
	)
	if err := row.Scan(&attempts, &lock); err != nil {
		return store.LoginFailure{}, mapNotFound(err)
	}
	return store.LoginFailure{
		Attempts:  attempts,
		LockUntil: mapNullTimePtr(lock),
	}, nil
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateMFATempSecret(ctx context.Context, userID string, sealed []byte) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET mfa_temp_secret_enc = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		sealed, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) CommitMFASecret(ctx context.Context, userID string, sealed []byte, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET mfa_secret_enc = ?, mfa_enabled_at = ?, mfa_temp_secret_enc = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		sealed, at, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET mfa_enabled_at = NULL, mfa_secret_enc = NULL,
			mfa_temp_secret_enc = NULL, mfa_last_totp_step = 0,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateMFALastStep(ctx context.Context, userID string, step int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET mfa_last_totp_step = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		step, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow maps a zero-row UPDATE to store.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/shoptally/shoptally/internal/auth/domain"
)

type activityLogsRepo struct {
	db dbtx
}

// securityModules lists the modules whose entries get the longer retention
// window during purges.
const securityModules = `'auth', 'mfa'`

func (r *activityLogsRepo) Insert(ctx context.Context, entry domain.ActivityLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, user_id, action, module, ip, user_agent, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, mapOptionalString(entry.UserID), entry.Action, entry.Module,
		entry.IP, entry.UserAgent, entry.Metadata, entry.CreatedAt,
	)
	return err
}

func (r *activityLogsRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, module, ip, user_agent, metadata, created_at
		FROM activity_logs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ActivityLog
	for rows.Next() {
		var (
			e   domain.ActivityLog
			uid sql.NullString
		)
		if err := rows.Scan(&e.ID, &uid, &e.Action, &e.Module, &e.IP,
			&e.UserAgent, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = mapNullStringPtr(uid)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PurgeBefore deletes entries past retention. Security modules keep the
// longer securityCutoff window; everything else falls to normalCutoff.
func (r *activityLogsRepo) PurgeBefore(ctx context.Context, securityCutoff, normalCutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM activity_logs
		WHERE (module IN (`+securityModules+`) AND created_at < ?)
		   OR (module NOT IN (`+securityModules+`) AND created_at < ?)`,
		securityCutoff, normalCutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package sqlite

import (
	"context"
	"fmt"
)

type passwordHistoryRepo struct {
	db dbtx
}

func (r *passwordHistoryRepo) ListHashes(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT hash FROM password_history WHERE user_id = ? ORDER BY position ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// Replace swaps the user's history wholesale. Callers are expected to run
// this inside a transaction alongside the password hash update.
func (r *passwordHistoryRepo) Replace(ctx context.Context, userID string, hashes []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM password_history WHERE user_id = ?`, userID); err != nil {
		return err
	}

	for pos, hash := range hashes {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO password_history (user_id, position, hash) VALUES (?, ?, ?)`,
			userID, pos, hash,
		); err != nil {
			return fmt.Errorf("insert history position %d: %w", pos, err)
		}
	}
	return nil
}

package sqlite

import "context"

type recoveryCodesRepo struct {
	db dbtx
}

func (r *recoveryCodesRepo) Create(ctx context.Context, userID, codeHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recovery_codes (user_id, code_hash) VALUES (?, ?)`,
		userID, codeHash,
	)
	return mapConstraint(err)
}

// Consume deletes the code if present. Delete-on-match makes each code
// single-use: two concurrent submissions of the same code cannot both win.
func (r *recoveryCodesRepo) Consume(ctx context.Context, userID, codeHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM recovery_codes WHERE user_id = ? AND code_hash = ?`,
		userID, codeHash,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *recoveryCodesRepo) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM recovery_codes WHERE user_id = ?`, userID)
	return err
}

func (r *recoveryCodesRepo) Count(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recovery_codes WHERE user_id = ?`, userID,
	).Scan(&count)
	return count, err
}

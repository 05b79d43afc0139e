package postgres

import (
	"context"
	"database/sql"
	"errors"

	"diapets/internal/domain/devices"
)

type DevicesRepo struct {
	db *sql.DB
}

func NewDevicesRepo(db *sql.DB) *DevicesRepo {
	return &DevicesRepo{db: db}
}

// Create ignora el conflicto (user_id, token): dos registros concurrentes
// del mismo token terminan en una sola fila.
func (r *DevicesRepo) Create(ctx context.Context, t devices.PushToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO push_tokens (id, user_id, token, created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id, token) DO NOTHING
	`, t.ID, t.UserID, t.Token, t.CreatedAt)
	return err
}

func (r *DevicesRepo) Find(ctx context.Context, userID, token string) (devices.PushToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, created_at
		FROM push_tokens
		WHERE user_id = $1 AND token = $2
	`, userID, token)

	var t devices.PushToken
	if err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return devices.PushToken{}, devices.ErrNotFound
		}
		return devices.PushToken{}, err
	}
	return t, nil
}

func (r *DevicesRepo) ListByUsers(ctx context.Context, userIDs []string) ([]devices.PushToken, error) {
	if len(userIDs) == 0 {
		return []devices.PushToken{}, nil
	}

	in, args := inPlaceholders(userIDs, nil)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, token, created_at
		FROM push_tokens
		WHERE user_id IN (`+in+`)
		ORDER BY created_at ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]devices.PushToken, 0)
	for rows.Next() {
		var t devices.PushToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *DevicesRepo) Delete(ctx context.Context, userID, token string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM push_tokens WHERE user_id = $1 AND token = $2
	`, userID, token)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return devices.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"diapets/internal/domain/ownership"
)

type OwnershipRepo struct {
	db *sql.DB
}

func NewOwnershipRepo(db *sql.DB) *OwnershipRepo {
	return &OwnershipRepo{db: db}
}

func (r *OwnershipRepo) Upsert(ctx context.Context, m ownership.Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pet_owners (pet_id, user_id, ownership_level, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (pet_id, user_id)
		DO UPDATE SET ownership_level = EXCLUDED.ownership_level, updated_at = EXCLUDED.updated_at
	`,
		m.PetID,
		m.UserID,
		string(m.Level),
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *OwnershipRepo) Get(ctx context.Context, petID, userID string) (ownership.Membership, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT pet_id, user_id, ownership_level, created_at, updated_at
		FROM pet_owners
		WHERE pet_id = $1 AND user_id = $2
	`, petID, userID)

	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ownership.Membership{}, ownership.ErrNotFound
	}
	return m, err
}

func (r *OwnershipRepo) ListByPet(ctx context.Context, petID string) ([]ownership.Membership, error) {
	return r.list(ctx, `
		SELECT pet_id, user_id, ownership_level, created_at, updated_at
		FROM pet_owners
		WHERE pet_id = $1
		ORDER BY created_at ASC
	`, petID)
}

func (r *OwnershipRepo) ListByUser(ctx context.Context, userID string) ([]ownership.Membership, error) {
	return r.list(ctx, `
		SELECT pet_id, user_id, ownership_level, created_at, updated_at
		FROM pet_owners
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
}

func (r *OwnershipRepo) list(ctx context.Context, query string, arg string) ([]ownership.Membership, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ownership.Membership, 0)
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMembership(row rowScanner) (ownership.Membership, error) {
	var m ownership.Membership
	var level string
	if err := row.Scan(&m.PetID, &m.UserID, &level, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return ownership.Membership{}, err
	}
	m.Level = ownership.Level(level)
	return m, nil
}

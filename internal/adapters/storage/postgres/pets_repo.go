package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"diapets/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (
			id, name, species,
			birth_date, insulin_frequency,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		p.ID,
		p.Name,
		string(p.Species),
		toNullDate(p.BirthDate),
		p.InsulinFrequencyHours,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, name, species,
			birth_date, insulin_frequency,
			created_at, updated_at
		FROM pets
		WHERE id = $1
	`, id)

	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, err
}

func (r *PetsRepo) ListByIDs(ctx context.Context, ids []string) ([]pets.Pet, error) {
	if len(ids) == 0 {
		return []pets.Pet{}, nil
	}

	in, args := inPlaceholders(ids, nil)
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, name, species,
			birth_date, insulin_frequency,
			created_at, updated_at
		FROM pets
		WHERE id IN (`+in+`)
		ORDER BY name, id
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0, len(ids))
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var p pets.Pet
	var species string
	var bd sql.NullTime
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&species,
		&bd,
		&p.InsulinFrequencyHours,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}

	p.Species = pets.Species(species)
	if bd.Valid {
		t := bd.Time
		// ojo: birth_date es date, pgx lo puede mapear a time.Time midnight UTC
		p.BirthDate = &t
	}
	return p, nil
}

// birth_date es DATE, lo pasamos como NullTime para simplificar
func toNullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

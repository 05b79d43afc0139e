package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"diapets/internal/domain/insulin"
)

const insulinColumns = `
	id, pet_id, user_id,
	application_time, insulin_units, glucose_level,
	observations,
	created_at, updated_at
`

type InsulinRepo struct {
	db *sql.DB
}

func NewInsulinRepo(db *sql.DB) *InsulinRepo {
	return &InsulinRepo{db: db}
}

func (r *InsulinRepo) Create(ctx context.Context, a insulin.Application) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO insulin_applications (`+insulinColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		a.ID,
		a.PetID,
		a.UserID,
		a.AppliedAt,
		a.InsulinUnits,
		toNullInt(a.GlucoseLevel),
		a.Observations,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *InsulinRepo) GetByID(ctx context.Context, id string) (insulin.Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return insulin.Application{}, insulin.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+insulinColumns+`
		FROM insulin_applications
		WHERE id = $1
	`, id)

	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return insulin.Application{}, insulin.ErrNotFound
	}
	return a, err
}

func (r *InsulinRepo) ListByPet(ctx context.Context, petID string, filter insulin.ListFilter) ([]insulin.Application, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	// Base query
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT ` + insulinColumns + `
		FROM insulin_applications
		WHERE pet_id = $1
	`)

	args := []any{petID}
	argN := 2

	// from/to
	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND application_time >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND application_time <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	if filter.UserID != "" {
		sb.WriteString(fmt.Sprintf(" AND user_id = $%d", argN))
		args = append(args, filter.UserID)
		argN++
	}

	// rangos de unidades y glucosa; glucose_level NULL nunca cumple una cota
	for _, c := range []struct {
		cond string
		val  any
		set  bool
	}{
		{"insulin_units >= $%d", deref(filter.MinUnits), filter.MinUnits != nil},
		{"insulin_units <= $%d", deref(filter.MaxUnits), filter.MaxUnits != nil},
		{"glucose_level >= $%d", deref(filter.MinGlucose), filter.MinGlucose != nil},
		{"glucose_level <= $%d", deref(filter.MaxGlucose), filter.MaxGlucose != nil},
	} {
		if !c.set {
			continue
		}
		sb.WriteString(" AND " + fmt.Sprintf(c.cond, argN))
		args = append(args, c.val)
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	sb.WriteString(" ORDER BY application_time DESC, created_at DESC, id DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApplications(rows)
}

func (r *InsulinRepo) Update(ctx context.Context, a insulin.Application) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE insulin_applications
		SET
			application_time = $2,
			insulin_units = $3,
			glucose_level = $4,
			observations = $5,
			updated_at = $6
		WHERE id = $1
	`,
		a.ID,
		a.AppliedAt,
		a.InsulinUnits,
		toNullInt(a.GlucoseLevel),
		a.Observations,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return insulin.ErrNotFound
	}
	return nil
}

func (r *InsulinRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM insulin_applications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return insulin.ErrNotFound
	}
	return nil
}

func (r *InsulinRepo) Latest(ctx context.Context, petID string) (insulin.Application, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+insulinColumns+`
		FROM insulin_applications
		WHERE pet_id = $1
		ORDER BY application_time DESC, created_at DESC, id DESC
		LIMIT 1
	`, petID)

	a, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return insulin.Application{}, insulin.ErrNotFound
	}
	return a, err
}

// LatestAll: una fila por mascota. El ORDER BY define el desempate.
func (r *InsulinRepo) LatestAll(ctx context.Context) ([]insulin.Application, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT ON (pet_id) `+insulinColumns+`
		FROM insulin_applications
		ORDER BY pet_id, application_time DESC, created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApplications(rows)
}

func scanApplications(rows *sql.Rows) ([]insulin.Application, error) {
	out := make([]insulin.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanApplication(row rowScanner) (insulin.Application, error) {
	var a insulin.Application
	var glucose sql.NullInt64
	if err := row.Scan(
		&a.ID,
		&a.PetID,
		&a.UserID,
		&a.AppliedAt,
		&a.InsulinUnits,
		&glucose,
		&a.Observations,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return insulin.Application{}, err
	}

	if glucose.Valid {
		g := int(glucose.Int64)
		a.GlucoseLevel = &g
	}
	a.AppliedAt = a.AppliedAt.UTC()
	return a, nil
}

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func (r *InsulinRepo) FilterBounds(ctx context.Context, petID string) (insulin.FilterBounds, error) {
	var (
		b                      insulin.FilterBounds
		minDate, maxDate       sql.NullTime
		minUnits, maxUnits     sql.NullFloat64
		minGlucose, maxGlucose sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT
			min(application_time), max(application_time),
			min(insulin_units), max(insulin_units),
			min(glucose_level), max(glucose_level)
		FROM insulin_applications
		WHERE pet_id = $1
	`, strings.TrimSpace(petID)).Scan(&minDate, &maxDate, &minUnits, &maxUnits, &minGlucose, &maxGlucose)
	if err != nil {
		return insulin.FilterBounds{}, err
	}
	// un agregado sin filas devuelve una fila de NULLs
	if !minDate.Valid {
		return insulin.FilterBounds{}, insulin.ErrNotFound
	}

	b.MinDate, b.MaxDate = minDate.Time.UTC(), maxDate.Time.UTC()
	b.MinUnits, b.MaxUnits = minUnits.Float64, maxUnits.Float64
	if minGlucose.Valid {
		lo, hi := int(minGlucose.Int64), int(maxGlucose.Int64)
		b.MinGlucose, b.MaxGlucose = &lo, &hi
	}
	return b, nil
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

package postgres

import (
	"context"
	"database/sql"

	"diapets/internal/domain/reminders"
)

// LedgerRepo guarda el ledger en sent_notifications.
// La unicidad la garantiza uq_sent_notifications_key; un conflicto es "ya existía".
type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Exists(ctx context.Context, k reminders.LedgerKey) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sent_notifications
			WHERE pet_id = $1 AND minutes_alarm = $2 AND last_insulin_id = $3
		)
	`, k.PetID, k.LeadMinutes, k.RecordID).Scan(&exists)
	return exists, err
}

func (r *LedgerRepo) InsertIfAbsent(ctx context.Context, k reminders.LedgerKey) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sent_notifications (pet_id, minutes_alarm, last_insulin_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (pet_id, minutes_alarm, last_insulin_id) DO NOTHING
	`, k.PetID, k.LeadMinutes, k.RecordID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

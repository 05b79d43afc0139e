package reminders

import (
	"context"
	"time"

	"diapets/internal/platform/logger"
)

// Selector calcula qué mascotas necesitan recordatorio. Solo lee.
type Selector struct {
	doses  DosingStore
	ledger Ledger
	log    logger.Logger
	now    func() time.Time
}

func NewSelector(doses DosingStore, ledger Ledger, log logger.Logger) *Selector {
	if log == nil {
		log = logger.Nop()
	}
	return &Selector{
		doses:  doses,
		ledger: ledger,
		log:    log.With(map[string]any{"component": "selector"}),
		now:    time.Now,
	}
}

// SelectDuePets devuelve las mascotas que cumplen c y que todavía no tienen
// entrada en el ledger para (mascota, c.LeadMinutes, última dosis).
// El orden del resultado no es significativo.
// Cualquier error de lectura aborta la pasada completa (sin resultados parciales).
func (s *Selector) SelectDuePets(ctx context.Context, c Criteria) ([]DuePet, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := s.doses.LatestDoses(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	out := make([]DuePet, 0)

	for _, d := range snapshot {
		if c.Excludes(d.PetID) {
			continue
		}
		if d.FrequencyHours <= 0 {
			s.log.Warn("pet with invalid insulin frequency skipped", map[string]any{
				"pet_id":    d.PetID,
				"frequency": d.FrequencyHours,
			})
			continue
		}

		elapsed := ElapsedMinutes(now, d.AppliedAt)
		if !c.InWindow(elapsed, d.PeriodMinutes()) {
			continue
		}

		sent, err := s.ledger.Exists(ctx, LedgerKey{
			PetID:       d.PetID,
			LeadMinutes: c.LeadMinutes,
			RecordID:    d.RecordID,
		})
		if err != nil {
			return nil, err
		}
		if sent {
			continue
		}

		out = append(out, DuePet{PetID: d.PetID, RecordID: d.RecordID})
	}

	s.log.Info("due pets selected", map[string]any{
		"lead_minutes":    c.LeadMinutes,
		"include_overdue": c.IncludeOverdue,
		"excluded":        len(c.Excluded),
		"scanned":         len(snapshot),
		"selected":        len(out),
	})
	return out, nil
}

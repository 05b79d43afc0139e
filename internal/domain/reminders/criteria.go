package reminders

import (
	"fmt"
	"strings"
	"time"
)

// Criteria describe qué mascotas están "por vencer":
//
//	elapsed >= period - LeadMinutes            (entra en la ventana)
//	elapsed <  period   si !IncludeOverdue     (todavía no atrasada)
//
// y que no estén en Excluded. Un Excluded vacío no excluye nada.
type Criteria struct {
	LeadMinutes    int
	IncludeOverdue bool
	Excluded       map[string]struct{}
}

func NewCriteria(leadMinutes int, includeOverdue bool, excluded ...string) (Criteria, error) {
	c := Criteria{
		LeadMinutes:    leadMinutes,
		IncludeOverdue: includeOverdue,
	}
	for _, id := range excluded {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if c.Excluded == nil {
			c.Excluded = make(map[string]struct{}, len(excluded))
		}
		c.Excluded[id] = struct{}{}
	}
	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func (c Criteria) Validate() error {
	if c.LeadMinutes < 0 {
		return fmt.Errorf("%w: lead time must be >= 0, got %d", ErrInvalidArgument, c.LeadMinutes)
	}
	return nil
}

func (c Criteria) Excludes(petID string) bool {
	if len(c.Excluded) == 0 {
		return false
	}
	_, ok := c.Excluded[petID]
	return ok
}

// InWindow aplica las dos comparaciones sobre los mismos minutos enteros,
// así no hay asimetría de redondeo entre ambas.
func (c Criteria) InWindow(elapsedMinutes, periodMinutes int) bool {
	if elapsedMinutes < periodMinutes-c.LeadMinutes {
		return false
	}
	if !c.IncludeOverdue && elapsedMinutes >= periodMinutes {
		return false
	}
	return true
}

// ElapsedMinutes es floor((now - appliedAt) / 1m), también para valores negativos
// (dosis registradas con reloj adelantado).
func ElapsedMinutes(now, appliedAt time.Time) int {
	d := now.Sub(appliedAt)
	m := d / time.Minute
	if d%time.Minute < 0 {
		m--
	}
	return int(m)
}

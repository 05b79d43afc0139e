package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"diapets/internal/platform/logger"
)

// Policy es una combinación fija de criterios que el driver corre en cada ciclo.
type Policy struct {
	Name           string   `json:"name"`
	LeadMinutes    int      `json:"lead_minutes"`
	IncludeOverdue bool     `json:"include_overdue"`
	Excluded       []string `json:"-"`
}

func (p Policy) Criteria() (Criteria, error) {
	return NewCriteria(p.LeadMinutes, p.IncludeOverdue, p.Excluded...)
}

// DefaultPolicy: avisar 15 minutos antes de la dosis, sin incluir atrasadas.
func DefaultPolicy() Policy {
	return Policy{Name: "upcoming", LeadMinutes: 15}
}

// OverduePolicy: alarma aparte para dosis ya vencidas.
func OverduePolicy() Policy {
	return Policy{Name: "overdue", LeadMinutes: 0, IncludeOverdue: true}
}

type DriverConfig struct {
	Policies []Policy
	// Interval solo lo usa Run; RunOnce lo ignora.
	Interval time.Duration
}

func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		Policies: []Policy{DefaultPolicy()},
		Interval: time.Minute,
	}
}

func (c DriverConfig) Validate() error {
	if len(c.Policies) == 0 {
		return fmt.Errorf("%w: at least one policy is required", ErrInvalidArgument)
	}
	seen := map[int]string{}
	for _, p := range c.Policies {
		if err := (Criteria{LeadMinutes: p.LeadMinutes}).Validate(); err != nil {
			return fmt.Errorf("policy %q: %w", p.Name, err)
		}
		// el lead time es parte de la clave del ledger: dos políticas con el mismo
		// lead se deduplicarían entre sí
		if other, dup := seen[p.LeadMinutes]; dup {
			return fmt.Errorf("%w: policies %q and %q share lead time %d", ErrInvalidArgument, other, p.Name, p.LeadMinutes)
		}
		seen[p.LeadMinutes] = p.Name
	}
	return nil
}

// PolicyReport es el resultado de una política en un RunOnce.
type PolicyReport struct {
	Policy   Policy `json:"policy"`
	Selected int    `json:"selected"`
	Report   Report `json:"report"`
}

// RunObserver recibe el resultado de cada RunOnce (métricas).
type RunObserver interface {
	ObserveRun(reports []PolicyReport, d time.Duration, err error)
}

// Driver corre selector + dispatcher por cada política configurada.
type Driver struct {
	selector   *Selector
	dispatcher *Dispatcher
	cfg        DriverConfig
	log        logger.Logger
	observer   RunObserver
}

func NewDriver(selector *Selector, dispatcher *Dispatcher, cfg DriverConfig, log logger.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Driver{
		selector:   selector,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log.With(map[string]any{"component": "scheduler"}),
	}, nil
}

func (d *Driver) WithObserver(o RunObserver) *Driver {
	d.observer = o
	return d
}

// RunOnce es una invocación completa. Un error del selector aborta la invocación;
// los errores de despacho quedan en cada Report.
func (d *Driver) RunOnce(ctx context.Context) ([]PolicyReport, error) {
	started := time.Now()
	out, err := d.runPolicies(ctx)
	if d.observer != nil {
		d.observer.ObserveRun(out, time.Since(started), err)
	}
	if err != nil {
		return out, err
	}

	d.log.Info("reminder run finished", map[string]any{
		"policies":    policyNames(d.cfg.Policies),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	return out, nil
}

func (d *Driver) runPolicies(ctx context.Context) ([]PolicyReport, error) {
	out := make([]PolicyReport, 0, len(d.cfg.Policies))

	for _, p := range d.cfg.Policies {
		c, err := p.Criteria()
		if err != nil {
			return out, err
		}

		due, err := d.selector.SelectDuePets(ctx, c)
		if err != nil {
			return out, fmt.Errorf("select due pets (%s): %w", p.Name, err)
		}

		rep, err := d.dispatcher.DispatchDue(ctx, due, p.LeadMinutes)
		out = append(out, PolicyReport{Policy: p, Selected: len(due), Report: rep})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Run ejecuta RunOnce cada Interval hasta que ctx se cancele.
// Los errores de un ciclo se loguean y el loop sigue.
func (d *Driver) Run(ctx context.Context) error {
	interval := d.cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	d.log.Info("reminder worker started", map[string]any{"interval": interval.String()})
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := d.RunOnce(ctx); err != nil && ctx.Err() == nil {
				d.log.Error("reminder run failed", map[string]any{"error": err})
			}
		case <-ctx.Done():
			d.log.Info("reminder worker stopped", nil)
			return nil
		}
	}
}

func policyNames(ps []Policy) string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name)
	}
	return strings.Join(names, ",")
}

// Package metrics expone contadores Prometheus del API y del worker de recordatorios.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"diapets/internal/domain/reminders"
)

// Metrics usa un registry propio para poder crear varias instancias (tests).
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	selectedTotal *prometheus.CounterVec
	pushTotal     *prometheus.CounterVec
	ledgerTotal   *prometheus.CounterVec
	skippedTotal  *prometheus.CounterVec
}

var _ reminders.RunObserver = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_runs_total",
			Help: "Reminder policy runs by outcome.",
		}, []string{"policy", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reminder_run_duration_seconds",
			Help:    "Duration of a full reminder run (all policies).",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		selectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_selected_pets_total",
			Help: "Pets selected as due, by policy.",
		}, []string{"policy"}),
		pushTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_push_deliveries_total",
			Help: "Push deliveries per address, by policy and result.",
		}, []string{"policy", "result"}),
		ledgerTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_ledger_writes_total",
			Help: "Notification ledger writes by result (inserted, duplicate, failed).",
		}, []string{"policy", "result"}),
		skippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_skipped_pets_total",
			Help: "Pets with no delivery attempt, by reason.",
		}, []string{"policy", "reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.runsTotal,
		m.runDuration,
		m.selectedTotal,
		m.pushTotal,
		m.ledgerTotal,
		m.skippedTotal,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware cuenta requests por patrón de ruta chi (no por path crudo).
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ObserveRun(reports []reminders.PolicyReport, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.runDuration.WithLabelValues(outcome).Observe(d.Seconds())

	for _, pr := range reports {
		name := pr.Policy.Name
		m.runsTotal.WithLabelValues(name, outcome).Inc()
		m.selectedTotal.WithLabelValues(name).Add(float64(pr.Selected))

		rep := pr.Report
		m.pushTotal.WithLabelValues(name, "succeeded").Add(float64(rep.Succeeded))
		m.pushTotal.WithLabelValues(name, "failed").Add(float64(rep.Failed))
		m.ledgerTotal.WithLabelValues(name, "inserted").Add(float64(rep.LedgerInserted))
		m.ledgerTotal.WithLabelValues(name, "duplicate").Add(float64(rep.LedgerDuplicates))
		m.ledgerTotal.WithLabelValues(name, "failed").Add(float64(rep.LedgerFailed))
		m.skippedTotal.WithLabelValues(name, "no_address").Add(float64(rep.NoAddress))
		m.skippedTotal.WithLabelValues(name, "unavailable").Add(float64(rep.Unavailable))
	}
}

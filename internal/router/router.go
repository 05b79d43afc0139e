package router

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	goredis "github.com/go-redis/redis/v8"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"diapets/internal/adapters/directory"
	"diapets/internal/adapters/push/logpush"
	mem "diapets/internal/adapters/storage/memory"
	pg "diapets/internal/adapters/storage/postgres"
	rds "diapets/internal/adapters/storage/redis"
	"diapets/internal/config"
	"diapets/internal/domain/devices"
	"diapets/internal/domain/insulin"
	"diapets/internal/domain/ownership"
	"diapets/internal/domain/pets"
	"diapets/internal/domain/reminders"
	"diapets/internal/middleware"
	"diapets/internal/platform/logger"
	"diapets/internal/platform/metrics"
	"diapets/internal/ports/auth"
	"diapets/internal/ports/push"

	_ "diapets/docs" // swagger docs
)

type Options struct {
	Config       *config.Config // nil = config.Load()
	AuthVerifier auth.Verifier  // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Requerido solo con LEDGER_BACKEND=redis.
	Redis *goredis.Client

	// nil = transport de log (dev).
	Transport push.Transport

	Logger logger.Logger

	// nil = se arma desde Config.
	DriverConfig *reminders.DriverConfig

	// nil = registry nuevo.
	Metrics *metrics.Metrics
}

// App agrupa lo que necesitan los subcomandos: el handler HTTP y el driver
// de recordatorios (para el worker y el cron).
type App struct {
	Handler http.Handler
	Driver  *reminders.Driver
	Metrics *metrics.Metrics
}

type repos struct {
	pets      pets.Repository
	ownership ownership.Repository
	devices   devices.Repository
	insulin   insulin.Repository
	ledger    reminders.Ledger
}

// Build arma repos, servicios y rutas.
func Build(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Load()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	transport := opts.Transport
	if transport == nil {
		transport = logpush.New(log)
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	rp, err := newRepos(cfg, opts.DB, opts.Redis)
	if err != nil {
		return nil, err
	}

	driverCfg := DriverConfigFrom(cfg)
	if opts.DriverConfig != nil {
		driverCfg = *opts.DriverConfig
	}

	// Services por módulo
	ownershipSvc := ownership.NewService(rp.ownership, log)
	petsSvc := pets.NewService(rp.pets, ownershipSvc, log)
	devicesSvc := devices.NewService(rp.devices, log)

	dir := directory.New(rp.pets, rp.ownership, rp.devices, rp.insulin)
	notifier := reminders.NewRegistrationNotifier(dir, transport, log)
	insulinSvc := insulin.NewService(rp.insulin, petsSvc, ownershipSvc, notifier, log)

	selector := reminders.NewSelector(dir, rp.ledger, log)
	dispatcher := reminders.NewDispatcher(dir, transport, rp.ledger, log)
	driver, err := reminders.NewDriver(selector, dispatcher, driverCfg, log)
	if err != nil {
		return nil, err
	}
	driver.WithObserver(m)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(m.Middleware)

	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Debug-User-ID", "X-Debug-User-Name", "X-Trigger-Token"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", m.Handler().ServeHTTP)
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc, ownershipSvc)
	ownership.RegisterRoutes(r, ownershipSvc)
	devices.RegisterRoutes(r, devicesSvc)
	insulin.RegisterRoutes(r, insulinSvc)
	reminders.RegisterRoutes(r, driver, cfg.ReminderTriggerToken)

	return &App{Handler: r, Driver: driver, Metrics: m}, nil
}

func newRepos(cfg *config.Config, db *sql.DB, rc *goredis.Client) (repos, error) {
	var rp repos
	if db != nil {
		rp = repos{
			pets:      pg.NewPetsRepo(db),
			ownership: pg.NewOwnershipRepo(db),
			devices:   pg.NewDevicesRepo(db),
			insulin:   pg.NewInsulinRepo(db),
			ledger:    pg.NewLedgerRepo(db),
		}
	} else {
		rp = repos{
			pets:      mem.NewPetRepo(),
			ownership: mem.NewOwnershipRepo(),
			devices:   mem.NewDevicesRepo(),
			insulin:   mem.NewInsulinRepo(),
			ledger:    mem.NewLedgerRepo(),
		}
	}

	if cfg.LedgerBackend == config.LedgerBackendRedis {
		if rc == nil {
			return repos{}, errors.New("router: LEDGER_BACKEND=redis requires a redis client")
		}
		rp.ledger = rds.NewLedger(rc)
	}
	return rp, nil
}

// DriverConfigFrom traduce las variables REMINDER_* a políticas del driver.
func DriverConfigFrom(cfg *config.Config) reminders.DriverConfig {
	upcoming := reminders.DefaultPolicy()
	upcoming.LeadMinutes = cfg.ReminderLeadMinutes
	upcoming.IncludeOverdue = cfg.ReminderIncludeOverdue

	out := reminders.DriverConfig{
		Policies: []reminders.Policy{upcoming},
		Interval: cfg.ReminderInterval,
	}
	if cfg.ReminderOverduePolicy {
		out.Policies = append(out.Policies, reminders.OverduePolicy())
	}
	return out
}

package main

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	"diapets/internal/adapters/auth/remote"
	"diapets/internal/adapters/push/fcm"
	"diapets/internal/adapters/push/logpush"
	pg "diapets/internal/adapters/storage/postgres"
	rds "diapets/internal/adapters/storage/redis"
	"diapets/internal/config"
	"diapets/internal/platform/logger"
	"diapets/internal/ports/auth"
	"diapets/internal/ports/push"
	"diapets/internal/router"
)

// deps agrupa las dependencias abiertas por un subcomando.
type deps struct {
	cfg   *config.Config
	log   logger.Logger
	db    *sql.DB
	redis *goredis.Client
	app   *router.App
}

func (rt *deps) Close() {
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.db != nil {
		_ = rt.db.Close()
	}
	if zl, ok := rt.log.(*logger.ZapLogger); ok {
		_ = zl.Sync()
	}
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
}

// setup abre DB, redis y transport según la config y arma la app.
func setup(ctx context.Context) (*deps, error) {
	cfg := config.Load()
	log, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	rt := &deps{cfg: cfg, log: log}

	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN, cfg.DBMaxOpenConns)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open db: %w", err)
		}
		rt.db = db
		log.Info("database connected", map[string]any{"max_open_conns": cfg.DBMaxOpenConns})
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	if cfg.LedgerBackend == config.LedgerBackendRedis {
		rt.redis = rds.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rds.Ping(ctx, rt.redis); err != nil {
			rt.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Info("redis ledger enabled", map[string]any{"addr": cfg.RedisAddr})
	}

	transport, err := newTransport(ctx, cfg, log)
	if err != nil {
		rt.Close()
		return nil, err
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}

	app, err := router.Build(router.Options{
		Config:       cfg,
		AuthVerifier: verifier,
		DB:           rt.db,
		Redis:        rt.redis,
		Transport:    transport,
		Logger:       log,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.app = app
	return rt, nil
}

func newTransport(ctx context.Context, cfg *config.Config, log logger.Logger) (push.Transport, error) {
	if !cfg.PushEnabled() {
		log.Info("FCM not configured, using log push transport", nil)
		return logpush.New(log), nil
	}
	tr, err := fcm.New(ctx, fcm.Config{
		ProjectID:     cfg.FCMProjectID,
		BaseURL:       cfg.FCMBaseURL,
		Timeout:       cfg.PushTimeout,
		RatePerSecond: cfg.PushRatePerSecond,
	}, cfg.FCMCredPath, log)
	if err != nil {
		return nil, err
	}
	log.Info("FCM transport enabled", map[string]any{"project_id": cfg.FCMProjectID})
	return tr, nil
}

// newVerifier devuelve nil (modo dev con X-Debug-User-ID) si no hay AUTH_BASE_URL.
func newVerifier(cfg *config.Config) (auth.Verifier, error) {
	if cfg.AuthBaseURL == "" {
		return nil, nil
	}
	client, err := remote.NewClient(remote.Config{BaseURL: cfg.AuthBaseURL, APIKey: cfg.AuthAPIKey})
	if err != nil {
		return nil, fmt.Errorf("auth client: %w", err)
	}
	return remote.NewVerifier(client), nil
}

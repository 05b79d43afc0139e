// Package config centraliza la configuración leída de variables de entorno.
// Compartida por todos los subcomandos de cmd/diapets.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP
	Port             string
	CORSAllowOrigins []string

	// Database
	DBDSN          string
	DBMaxOpenConns int

	// Logging
	LogLevel  string
	LogFormat string
	AppName   string

	// Reminders
	ReminderLeadMinutes    int
	ReminderIncludeOverdue bool
	ReminderOverduePolicy  bool
	ReminderInterval       time.Duration
	ReminderTriggerToken   string
	RunWorkerInServe       bool

	// Ledger
	LedgerBackend string // sql | redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Push (FCM)
	FCMProjectID      string
	FCMCredPath       string
	FCMBaseURL        string
	PushRatePerSecond float64
	PushTimeout       time.Duration

	// Auth remoto (opcional)
	AuthBaseURL string
	AuthAPIKey  string
}

const (
	LedgerBackendSQL   = "sql"
	LedgerBackendRedis = "redis"
)

// Load lee la configuración de env con defaults razonables para dev.
func Load() *Config {
	return &Config{
		Port:             envOr("PORT", "8080"),
		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),

		DBDSN:          envOr("DB_DSN", ""),
		DBMaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 10),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),
		AppName:   envOr("APP_NAME", "diapets"),

		ReminderLeadMinutes:    envInt("REMINDER_LEAD_MINUTES", 15),
		ReminderIncludeOverdue: envBool("REMINDER_INCLUDE_OVERDUE", false),
		ReminderOverduePolicy:  envBool("REMINDER_OVERDUE_POLICY", false),
		ReminderInterval:       envDuration("REMINDER_INTERVAL", time.Minute),
		ReminderTriggerToken:   envOr("REMINDER_TRIGGER_TOKEN", ""),
		RunWorkerInServe:       envBool("RUN_WORKER_IN_SERVE", false),

		LedgerBackend: strings.ToLower(envOr("LEDGER_BACKEND", LedgerBackendSQL)),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envOr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		FCMProjectID:      envOr("FCM_PROJECT_ID", ""),
		FCMCredPath:       envOr("FCM_CRED_PATH", ""),
		FCMBaseURL:        envOr("FCM_BASE_URL", "https://fcm.googleapis.com"),
		PushRatePerSecond: envFloat("PUSH_RATE_PER_SECOND", 50),
		PushTimeout:       envDuration("PUSH_TIMEOUT", 5*time.Second),

		AuthBaseURL: envOr("AUTH_BASE_URL", ""),
		AuthAPIKey:  envOr("AUTH_API_KEY", ""),
	}
}

// PushEnabled indica si hay credenciales FCM; si no, se usa el transport de log.
func (c *Config) PushEnabled() bool {
	return c.FCMProjectID != "" && c.FCMCredPath != ""
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}

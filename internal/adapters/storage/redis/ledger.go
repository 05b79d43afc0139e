package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"diapets/internal/domain/reminders"
)

const defaultKeyPrefix = "diapets:sent_notification:"

// NewClient crea el cliente a partir de la config de la app.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Ping prueba la conexión.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Ledger guarda el ledger de notificaciones como claves SETNX.
// SETNX es atómico en Redis: entre procesos solo uno ve "inserted".
// Las claves no expiran nunca: si una entrada desaparece, la misma dosis
// vuelve a seleccionarse y se notifica dos veces.
type Ledger struct {
	client *redis.Client
	prefix string
}

func NewLedger(client *redis.Client) *Ledger {
	return &Ledger{client: client, prefix: defaultKeyPrefix}
}

func (l *Ledger) key(k reminders.LedgerKey) string {
	return fmt.Sprintf("%s%s:%d:%s", l.prefix, k.PetID, k.LeadMinutes, k.RecordID)
}

func (l *Ledger) Exists(ctx context.Context, k reminders.LedgerKey) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(k)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *Ledger) InsertIfAbsent(ctx context.Context, k reminders.LedgerKey) (bool, error) {
	return l.client.SetNX(ctx, l.key(k), time.Now().UTC().Format(time.RFC3339), 0).Result()
}

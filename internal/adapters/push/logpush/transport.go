// Package logpush es el transport de desarrollo: registra el push en el log y no envía nada.
package logpush

import (
	"context"

	"diapets/internal/platform/logger"
	"diapets/internal/ports/push"
)

type Transport struct {
	log logger.Logger
}

func New(log logger.Logger) *Transport {
	if log == nil {
		log = logger.Nop()
	}
	return &Transport{log: log.With(map[string]any{"component": "logpush"})}
}

func (t *Transport) Send(ctx context.Context, addresses []string, msg push.Message) []push.Result {
	out := make([]push.Result, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, push.Result{Address: a})
	}
	t.log.Info("push (dev transport)", map[string]any{
		"addresses": len(addresses),
		"title":     msg.Title,
		"body":      msg.Body,
	})
	return out
}

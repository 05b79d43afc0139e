package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"diapets/internal/platform/logger"
	"diapets/internal/ports/push"
)

// RegistrationNotifier avisa a los cuidadores que alguien registró una dosis.
// No toca el ledger: es un aviso informativo, no un recordatorio.
type RegistrationNotifier struct {
	dir       Directory
	transport push.Transport
	log       logger.Logger
}

func NewRegistrationNotifier(dir Directory, transport push.Transport, log logger.Logger) *RegistrationNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &RegistrationNotifier{
		dir:       dir,
		transport: transport,
		log:       log.With(map[string]any{"component": "registration_notifier"}),
	}
}

// InsulinRegistered devuelve error solo si hubo direcciones y todas fallaron.
// responsibleName es quien aplicó la dosis; vacío = texto genérico.
func (n *RegistrationNotifier) InsulinRegistered(ctx context.Context, petID, responsibleName string) error {
	addresses, pet, err := loadAddresses(ctx, n.dir, petID)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return nil
	}

	results := n.transport.Send(ctx, addresses, RegistrationMessage(pet, responsibleName))

	var errs []error
	for _, r := range results {
		if !r.OK() {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrTransportFailure, maskAddress(r.Address), r.Err))
		}
	}
	n.log.Info("registration notification sent", map[string]any{
		"pet_id": petID,
		"sent":   len(results) - len(errs),
		"failed": len(errs),
	})
	if len(errs) == len(results) && len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RegistrationMessage es el push de "dosis registrada".
func RegistrationMessage(pet PetInfo, responsibleName string) push.Message {
	body := "Uma aplicação de insulina de " + pet.Name + " acabou de ser registrada"
	if name := strings.TrimSpace(responsibleName); name != "" {
		body = name + " acabou de registrar uma aplicação de insulina"
	}
	return push.Message{
		Title: pet.Name + ": Insulina registrada!",
		Body:  body,
		Data:  map[string]string{"pet_id": pet.ID},
	}
}

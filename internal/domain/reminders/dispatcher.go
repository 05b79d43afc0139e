package reminders

import (
	"context"
	"errors"
	"fmt"

	"diapets/internal/platform/logger"
	"diapets/internal/ports/push"
)

// Report resume un DispatchDue.
// Succeeded/Failed cuentan entregas por dirección push.
type Report struct {
	Pets        int `json:"pets"`
	Succeeded   int `json:"succeeded"`
	Failed      int `json:"failed"`
	NoAddress   int `json:"no_address"`
	Unavailable int `json:"unavailable"`

	LedgerInserted   int `json:"ledger_inserted"`
	LedgerDuplicates int `json:"ledger_duplicates"`
	LedgerFailed     int `json:"ledger_failed"`

	// Errors trae los errores de ledger (ErrLedgerWrite) por mascota.
	Errors []error `json:"-"`
}

func (r *Report) add(o Report) {
	r.Pets += o.Pets
	r.Succeeded += o.Succeeded
	r.Failed += o.Failed
	r.NoAddress += o.NoAddress
	r.Unavailable += o.Unavailable
	r.LedgerInserted += o.LedgerInserted
	r.LedgerDuplicates += o.LedgerDuplicates
	r.LedgerFailed += o.LedgerFailed
	r.Errors = append(r.Errors, o.Errors...)
}

// MessageFunc arma el push para una mascota según el lead time.
type MessageFunc func(pet PetInfo, leadMinutes int) push.Message

// ReminderMessage es el mensaje por defecto del recordatorio de dosis.
func ReminderMessage(pet PetInfo, leadMinutes int) push.Message {
	msg := push.Message{
		Title: pet.Name + ": Insulina!",
		Body:  pet.Name + " precisará de insulina em breve!",
		Data: map[string]string{
			"pet_id":       pet.ID,
			"lead_minutes": fmt.Sprint(leadMinutes),
		},
	}
	if leadMinutes == 0 {
		msg.Title = pet.Name + ": Insulina atrasada!"
		msg.Body = "Está na hora da insulina de " + pet.Name + "!"
	}
	return msg
}

// Dispatcher entrega recordatorios y registra cada uno en el ledger.
type Dispatcher struct {
	dir       Directory
	transport push.Transport
	ledger    Ledger
	message   MessageFunc
	log       logger.Logger
}

func NewDispatcher(dir Directory, transport push.Transport, ledger Ledger, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		dir:       dir,
		transport: transport,
		ledger:    ledger,
		message:   ReminderMessage,
		log:       log.With(map[string]any{"component": "dispatcher"}),
	}
}

// WithMessage reemplaza el armado del mensaje.
func (d *Dispatcher) WithMessage(fn MessageFunc) *Dispatcher {
	if fn != nil {
		d.message = fn
	}
	return d
}

// DispatchDue notifica a cada mascota y escribe exactamente una entrada de ledger
// por mascota, haya o no entrega exitosa. Los errores por mascota se cuentan en
// el Report y nunca cortan el lote. Solo devuelve error si ctx se cancela; en ese
// caso las mascotas pendientes se reprocesan en el próximo ciclo.
func (d *Dispatcher) DispatchDue(ctx context.Context, due []DuePet, leadMinutes int) (Report, error) {
	var rep Report
	if leadMinutes < 0 {
		return rep, fmt.Errorf("%w: lead time must be >= 0, got %d", ErrInvalidArgument, leadMinutes)
	}

	for _, p := range due {
		if err := ctx.Err(); err != nil {
			d.log.Warn("dispatch cancelled", map[string]any{
				"processed": rep.Pets,
				"pending":   len(due) - rep.Pets,
			})
			return rep, err
		}
		rep.add(d.dispatchOne(ctx, p, leadMinutes))
	}

	d.log.Info("dispatch finished", map[string]any{
		"lead_minutes":  leadMinutes,
		"pets":          rep.Pets,
		"succeeded":     rep.Succeeded,
		"failed":        rep.Failed,
		"ledger_failed": rep.LedgerFailed,
	})
	return rep, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, p DuePet, leadMinutes int) Report {
	rep := Report{Pets: 1}
	log := d.log.With(map[string]any{"pet_id": p.PetID, "record_id": p.RecordID})

	addresses, pet, err := loadAddresses(ctx, d.dir, p.PetID)
	switch {
	case err != nil:
		// Se escribe el ledger igual para no re-seleccionarla en cada ciclo.
		rep.Unavailable++
		log.Warn("pet data unavailable, skipping delivery", map[string]any{"error": err})
	case len(addresses) == 0:
		rep.NoAddress++
		log.Info("pet has no push addresses, skipping delivery", nil)
	default:
		for _, res := range d.transport.Send(ctx, addresses, d.message(pet, leadMinutes)) {
			if res.OK() {
				rep.Succeeded++
				continue
			}
			rep.Failed++
			log.Warn("push delivery failed", map[string]any{
				"address": maskAddress(res.Address),
				"error":   fmt.Errorf("%w: %v", ErrTransportFailure, res.Err),
			})
		}
	}

	key := LedgerKey{PetID: p.PetID, LeadMinutes: leadMinutes, RecordID: p.RecordID}
	inserted, err := d.ledger.InsertIfAbsent(ctx, key)
	switch {
	case err != nil:
		rep.LedgerFailed++
		werr := fmt.Errorf("%w: pet %s record %s: %v", ErrLedgerWrite, p.PetID, p.RecordID, err)
		rep.Errors = append(rep.Errors, werr)
		log.Error("ledger write failed", map[string]any{"error": werr})
	case inserted:
		rep.LedgerInserted++
	default:
		// otra invocación concurrente ya lo registró
		rep.LedgerDuplicates++
		log.Debug("ledger entry already present", nil)
	}
	return rep
}

// loadAddresses carga la mascota y junta los tokens de todos sus cuidadores, sin repetidos.
func loadAddresses(ctx context.Context, dir Directory, petID string) ([]string, PetInfo, error) {
	pet, err := dir.GetPet(ctx, petID)
	if err != nil {
		return nil, PetInfo{}, unavailable(err)
	}
	caretakers, err := dir.Caretakers(ctx, petID)
	if err != nil {
		return nil, PetInfo{}, unavailable(err)
	}

	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, c := range caretakers {
		for _, a := range c.PushAddresses {
			if a == "" {
				continue
			}
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out, pet, nil
}

func unavailable(err error) error {
	if errors.Is(err, ErrPetDataUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPetDataUnavailable, err)
}

// maskAddress deja solo el prefijo del token para los logs.
func maskAddress(a string) string {
	if len(a) <= 9 {
		return a
	}
	return a[:9] + "..."
}

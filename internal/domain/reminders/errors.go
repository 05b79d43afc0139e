package reminders

import "errors"

var (
	// ErrInvalidArgument: criterio mal formado (ej. lead time negativo). No se reintenta.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransportFailure: falló la entrega a una dirección push.
	ErrTransportFailure = errors.New("push transport failure")
	// ErrLedgerWrite: el insert idempotente del ledger falló por algo distinto de "ya existe".
	ErrLedgerWrite = errors.New("notification ledger write failed")
	// ErrPetDataUnavailable: la mascota no se pudo cargar al momento de despachar.
	ErrPetDataUnavailable = errors.New("pet data unavailable")
)

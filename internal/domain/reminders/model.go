package reminders

import "time"

// LatestDose es la última dosis conocida de una mascota junto con su frecuencia.
// Se calcula una vez por mascota y por pasada del selector.
type LatestDose struct {
	PetID          string
	RecordID       string
	AppliedAt      time.Time
	FrequencyHours int
}

// PeriodMinutes es la frecuencia de la mascota en minutos.
func (d LatestDose) PeriodMinutes() int {
	return d.FrequencyHours * 60
}

// DuePet es una mascota seleccionada para recordatorio, anclada a su última dosis.
type DuePet struct {
	PetID    string `json:"pet_id"`
	RecordID string `json:"record_id"`
}

// LedgerKey es la clave de deduplicación: una notificación por (mascota, lead, dosis).
type LedgerKey struct {
	PetID       string
	LeadMinutes int
	RecordID    string
}

type PetInfo struct {
	ID             string
	Name           string
	FrequencyHours int
}

type Caretaker struct {
	UserID        string
	PushAddresses []string
}

package insulin

import "time"

// Application es una aplicación de insulina registrada para una mascota.
// UserID es el responsable que aplicó la dosis (puede no ser quien la registra).
type Application struct {
	ID    string
	PetID string

	UserID string

	AppliedAt time.Time

	InsulinUnits float64
	GlucoseLevel *int

	Observations string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Dashboard resume el estado de dosis de una mascota.
// NextDueAt = Last.AppliedAt + frecuencia de la mascota.
type Dashboard struct {
	PetID                 string
	PetName               string
	InsulinFrequencyHours int

	Last      *Application
	NextDueAt *time.Time
}

// FilterBounds son los extremos de las aplicaciones de una mascota, para que
// el cliente arme los rangos de filtro. Glucosa nil = nunca se midió.
type FilterBounds struct {
	MinDate    time.Time
	MaxDate    time.Time
	MinUnits   float64
	MaxUnits   float64
	MinGlucose *int
	MaxGlucose *int
}

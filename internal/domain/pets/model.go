package pets

import "time"

// Species define las especies soportadas.
// @Enum DOG, CAT
type Species string

const (
	SpeciesDog Species = "DOG"
	SpeciesCat Species = "CAT"
)

func (s Species) Valid() bool {
	return s == SpeciesDog || s == SpeciesCat
}

// Pet representa una mascota diabética registrada.
// InsulinFrequencyHours es la cantidad de horas entre dosis; siempre > 0.
type Pet struct {
	ID string

	Name    string
	Species Species

	BirthDate *time.Time

	InsulinFrequencyHours int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Period devuelve el intervalo entre dosis.
func (p Pet) Period() time.Duration {
	return time.Duration(p.InsulinFrequencyHours) * time.Hour
}

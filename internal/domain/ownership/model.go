package ownership

import "time"

type Level string

const (
	LevelOwner     Level = "OWNER"
	LevelCaretaker Level = "CARETAKER"
)

func (l Level) Valid() bool {
	return l == LevelOwner || l == LevelCaretaker
}

// Membership une a un usuario con una mascota. Única por (PetID, UserID).
type Membership struct {
	PetID  string
	UserID string
	Level  Level

	CreatedAt time.Time
	UpdatedAt time.Time
}

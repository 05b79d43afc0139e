package devices

import "time"

// PushToken es un token FCM de un dispositivo del usuario. Único por (UserID, Token).
type PushToken struct {
	ID     string
	UserID string
	Token  string

	CreatedAt time.Time
}

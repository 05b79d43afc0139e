package push

import "context"

// Message es el contenido de una notificación push.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Result es el resultado de la entrega a una dirección (token FCM).
type Result struct {
	Address string
	Err     error
}

func (r Result) OK() bool { return r.Err == nil }

// Transport entrega un mensaje a cada dirección de forma independiente.
// Devuelve un Result por dirección, en el mismo orden. Una falla no corta al resto.
type Transport interface {
	Send(ctx context.Context, addresses []string, msg Message) []Result
}

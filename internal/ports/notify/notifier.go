package notify

import "context"

// Message es un correo saliente ya formateado por el dominio.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier es la frontera de notificación: el core formatea, el
// adapter entrega. La entrega (SMTP, etc.) queda fuera del core.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

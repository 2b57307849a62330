package lognotifier

import (
	"context"

	"dialog-backend/internal/platform/logger"
	"dialog-backend/internal/ports/notify"
)

// Notifier registra el correo en el log en vez de entregarlo. Es el
// default cuando SMTP no está configurado (dev/tests), igual que los
// repos in-memory frente a Postgres.
type Notifier struct {
	log logger.Logger
}

func New(log logger.Logger) *Notifier {
	return &Notifier{log: log}
}

func (n *Notifier) Send(ctx context.Context, msg notify.Message) error {
	n.log.Info("outbound mail (not delivered, smtp not configured)", map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Body,
	})
	return nil
}

package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"dialog-backend/internal/ports/notify"
)

// Mailer entrega notify.Message por SMTP con AUTH PLAIN.
// Config por env en main (SMTP_ADDR host:puerto, SMTP_FROM, SMTP_PASSWORD).
type Mailer struct {
	addr     string
	from     string
	password string
}

func New(addr, from, password string) *Mailer {
	return &Mailer{
		addr:     addr,
		from:     from,
		password: password,
	}
}

func (m *Mailer) Send(ctx context.Context, msg notify.Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient required")
	}

	host := m.addr
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")

	auth := smtp.PlainAuth("", m.from, m.password, host)
	return smtp.SendMail(m.addr, auth, m.from, []string{msg.To}, []byte(b.String()))
}

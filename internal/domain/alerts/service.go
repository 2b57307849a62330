package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dialog-backend/internal/domain/users"
	"dialog-backend/internal/platform/decimal"
	"dialog-backend/internal/ports/notify"
)

var (
	// ErrContactIncomplete: falta nombre o email del médico en el
	// perfil; no hay a quién mandar el alerta.
	ErrContactIncomplete = errors.New("contact incomplete")
)

const (
	alertSubject   = "Patient Alert from DiaLog"
	summarySubject = "Patient Questionnaire Responses from DiaLog"

	defaultBSUnit = "mg/dL"
)

// Service formatea y despacha correos al médico tratante a través del
// puerto de notificación. Lee contacto y unidad del perfil; no decide
// si el valor está fuera de rango (eso ya lo decidió el caller).
type Service struct {
	users    *users.Service
	notifier notify.Notifier
}

func NewService(usersSvc *users.Service, notifier notify.Notifier) *Service {
	return &Service{
		users:    usersSvc,
		notifier: notifier,
	}
}

// SendThresholdAlert avisa de una lectura de glucosa insegura. La
// unidad sale del perfil (bs_unit), no del texto del mensaje.
func (s *Service) SendThresholdAlert(ctx context.Context, ownerID string, level decimal.Decimal) error {
	contact, err := s.users.GetContact(ctx, ownerID)
	if err != nil {
		return err
	}
	if contact.FirstName == "" || contact.LastName == "" || contact.DoctorEmail == "" {
		return ErrContactIncomplete
	}

	unit := defaultBSUnit
	if ci, err := s.users.GetClinicalInfo(ctx, ownerID); err == nil && ci.BSUnit != nil && *ci.BSUnit != "" {
		unit = *ci.BSUnit
	}

	body := fmt.Sprintf(
		"Your patient, %s %s, has recorded an unsafe blood sugar level of %s %s.",
		contact.FirstName, contact.LastName, level.String(), unit,
	)

	return s.notifier.Send(ctx, notify.Message{
		To:      contact.DoctorEmail,
		Subject: alertSubject,
		Body:    body,
	})
}

type Answer struct {
	QuestionID string
	Answer     string
}

// SendQuestionnaireSummary manda al médico el resumen de respuestas.
func (s *Service) SendQuestionnaireSummary(ctx context.Context, ownerID string, answers []Answer) error {
	contact, err := s.users.GetContact(ctx, ownerID)
	if err != nil {
		return err
	}
	if contact.DoctorEmail == "" {
		return ErrContactIncomplete
	}

	lines := make([]string, 0, len(answers))
	for _, a := range answers {
		lines = append(lines, fmt.Sprintf("Q%s: %s", a.QuestionID, a.Answer))
	}

	body := fmt.Sprintf(
		"Your patient, %s %s, has submitted the following questionnaire responses:\n\n%s",
		contact.FirstName, contact.LastName, strings.Join(lines, "\n"),
	)

	return s.notifier.Send(ctx, notify.Message{
		To:      contact.DoctorEmail,
		Subject: summarySubject,
		Body:    body,
	})
}

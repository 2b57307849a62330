package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dialog-backend/internal/domain/users"
	"dialog-backend/internal/platform/decimal"
	"dialog-backend/internal/ports/notify"
)

// captureNotifier guarda el último mensaje en vez de mandarlo.
type captureNotifier struct {
	sent []notify.Message
}

func (n *captureNotifier) Send(ctx context.Context, msg notify.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

type usersRepo struct {
	byID map[string]users.User
}

func newUsersRepo() *usersRepo {
	return &usersRepo{byID: map[string]users.User{}}
}

func (r *usersRepo) Create(ctx context.Context, u users.User) error {
	r.byID[u.ID] = u
	return nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrOwnerNotFound
	}
	return u, nil
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return users.User{}, users.ErrOwnerNotFound
}

func (r *usersRepo) UpdateClinical(ctx context.Context, id string, fields map[string]any) error {
	u, ok := r.byID[id]
	if !ok {
		return users.ErrOwnerNotFound
	}
	for f, v := range fields {
		switch f {
		case "doctor_email":
			s := v.(string)
			u.Clinical.DoctorEmail = &s
		case "bs_unit":
			s := v.(string)
			u.Clinical.BSUnit = &s
		}
	}
	r.byID[id] = u
	return nil
}

func setupPatient(t *testing.T, clinical map[string]any) (*Service, *captureNotifier, string) {
	t.Helper()

	usersSvc := users.NewService(newUsersRepo())
	u, err := usersSvc.Register(context.Background(), users.RegisterInput{
		FirstName: "Ana",
		LastName:  "Pérez",
		Email:     "ana@example.com",
		Password:  "secret",
		Consent:   true,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(clinical) > 0 {
		if err := usersSvc.UpdateClinicalInfo(context.Background(), u.ID, clinical, users.MergeProvided); err != nil {
			t.Fatalf("clinical: %v", err)
		}
	}

	notifier := &captureNotifier{}
	return NewService(usersSvc, notifier), notifier, u.ID
}

func TestSendThresholdAlert(t *testing.T) {
	svc, notifier, ownerID := setupPatient(t, map[string]any{
		"doctor_email": "dr@example.com",
	})

	if err := svc.SendThresholdAlert(context.Background(), ownerID, decimal.MustNew("250")); err != nil {
		t.Fatalf("alert: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(notifier.sent))
	}
	msg := notifier.sent[0]
	if msg.To != "dr@example.com" {
		t.Fatalf("to = %q", msg.To)
	}
	if msg.Subject != "Patient Alert from DiaLog" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	want := "Your patient, Ana Pérez, has recorded an unsafe blood sugar level of 250 mg/dL."
	if msg.Body != want {
		t.Fatalf("body = %q", msg.Body)
	}
}

func TestSendThresholdAlertUsesProfileUnit(t *testing.T) {
	svc, notifier, ownerID := setupPatient(t, map[string]any{
		"doctor_email": "dr@example.com",
		"bs_unit":      "mmol/L",
	})

	if err := svc.SendThresholdAlert(context.Background(), ownerID, decimal.MustNew("13.9")); err != nil {
		t.Fatalf("alert: %v", err)
	}
	if !strings.Contains(notifier.sent[0].Body, "13.9 mmol/L") {
		t.Fatalf("body = %q", notifier.sent[0].Body)
	}
}

func TestSendThresholdAlertContactIncomplete(t *testing.T) {
	// Sin doctor_email en el perfil no hay destinatario.
	svc, notifier, ownerID := setupPatient(t, nil)

	err := svc.SendThresholdAlert(context.Background(), ownerID, decimal.MustNew("250"))
	if !errors.Is(err, ErrContactIncomplete) {
		t.Fatalf("expected ErrContactIncomplete, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatal("nothing must be sent for an incomplete contact")
	}
}

func TestSendThresholdAlertUnknownOwner(t *testing.T) {
	svc, _, _ := setupPatient(t, nil)

	err := svc.SendThresholdAlert(context.Background(), "ghost-id", decimal.MustNew("250"))
	if !errors.Is(err, users.ErrOwnerNotFound) {
		t.Fatalf("expected ErrOwnerNotFound, got %v", err)
	}
}

func TestSendQuestionnaireSummary(t *testing.T) {
	svc, notifier, ownerID := setupPatient(t, map[string]any{
		"doctor_email": "dr@example.com",
	})

	answers := []Answer{
		{QuestionID: "1", Answer: "sometimes"},
		{QuestionID: "2", Answer: "twice a day"},
	}
	if err := svc.SendQuestionnaireSummary(context.Background(), ownerID, answers); err != nil {
		t.Fatalf("summary: %v", err)
	}

	msg := notifier.sent[0]
	if msg.Subject != "Patient Questionnaire Responses from DiaLog" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, line := range []string{"Q1: sometimes", "Q2: twice a day"} {
		if !strings.Contains(msg.Body, line) {
			t.Fatalf("body missing %q: %q", line, msg.Body)
		}
	}
}

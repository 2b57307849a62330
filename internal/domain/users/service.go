package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dialog-backend/internal/platform/decimal"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrOwnerNotFound      = errors.New("owner not found")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoFieldsProvided   = errors.New("no fields provided")
)

// Esquema fijo de campos clínicos. Los dos modos de actualización
// operan solo sobre esta lista; campos desconocidos en el request se
// ignoran.
var clinicalSchema = []string{
	"diabetes_type",
	"diagnose_date",
	"insulin_type",
	"admin_route",
	"condition",
	"medication",
	"lower_bound",
	"upper_bound",
	"bs_unit",
	"doctor_name",
	"doctor_email",
}

// UpdateMode distingue las dos semánticas de actualización de perfil.
type UpdateMode int

const (
	// FullSet: setea todo campo presente en el request, incluso con
	// valor null (null presente = limpiar). Campo ausente = no tocar.
	FullSet UpdateMode = iota

	// MergeProvided: setea solo campos presentes con valor no nulo;
	// lo omitido o nulo conserva su valor anterior.
	MergeProvided
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RegisterInput struct {
	FirstName          string
	LastName           string
	Email              string
	Password           string
	Gender             string
	Birthdate          string
	CountryOfResidence string
	EmergencyContact   string
	Weight             float64
	Height             float64
	Consent            bool
}

// Register crea la cuenta con el perfil clínico vacío. El owner id es
// un UUID estable: inmutable y nunca reutilizado.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return User{}, ErrInvalidInput
	}
	if !in.Consent {
		return User{}, fmt.Errorf("%w: consent required", ErrInvalidInput)
	}

	if _, err := s.repo.GetByEmail(ctx, strings.TrimSpace(in.Email)); err == nil {
		return User{}, ErrEmailInUse
	} else if !errors.Is(err, ErrOwnerNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := s.now().UTC()
	u := User{
		ID:                 uuid.NewString(),
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           strings.TrimSpace(in.LastName),
		Email:              strings.TrimSpace(in.Email),
		PasswordHash:       string(hash),
		Gender:             strings.TrimSpace(in.Gender),
		Birthdate:          strings.TrimSpace(in.Birthdate),
		CountryOfResidence: strings.TrimSpace(in.CountryOfResidence),
		EmergencyContact:   strings.TrimSpace(in.EmergencyContact),
		Weight:             in.Weight,
		Height:             in.Height,
		Consent:            in.Consent,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return User{}, ErrInvalidInput
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateClinicalInfo es el motor de merge del perfil. El owner tiene
// que existir ya (get antes de update: dos viajes, la carrera con un
// delete concurrente queda a cargo del caller).
func (s *Service) UpdateClinicalInfo(ctx context.Context, ownerID string, fields map[string]any, mode UpdateMode) error {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return ErrInvalidInput
	}

	if _, err := s.repo.GetByID(ctx, ownerID); err != nil {
		return err
	}

	updates := make(map[string]any)
	for _, f := range clinicalSchema {
		v, present := fields[f]
		if !present {
			continue
		}
		if mode == MergeProvided && v == nil {
			continue
		}

		norm, err := normalizeClinicalValue(f, v)
		if err != nil {
			return err
		}
		updates[f] = norm
	}

	if len(updates) == 0 {
		return ErrNoFieldsProvided
	}

	return s.repo.UpdateClinical(ctx, ownerID, updates)
}

// normalizeClinicalValue tipa el valor según el campo: los umbrales son
// decimales exactos (aceptan número o string numérico, como el cliente
// original), el resto texto.
func normalizeClinicalValue(field string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch field {
	case "lower_bound", "upper_bound":
		switch t := v.(type) {
		case decimal.Decimal:
			return t, nil
		case string:
			d, err := decimal.New(t)
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be numeric", ErrInvalidInput, field)
			}
			return d, nil
		default:
			return nil, fmt.Errorf("%w: %s must be numeric", ErrInvalidInput, field)
		}
	default:
		t, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidInput, field)
		}
		return t, nil
	}
}

func (s *Service) GetClinicalInfo(ctx context.Context, ownerID string) (ClinicalInfo, error) {
	u, err := s.GetByID(ctx, ownerID)
	if err != nil {
		return ClinicalInfo{}, err
	}
	return u.Clinical, nil
}

// GetContact es el accessor de solo lectura que consume la pasarela de
// alertas. Campos ausentes vuelven vacíos, nunca error: decidir si el
// alerta es enviable es problema del caller.
func (s *Service) GetContact(ctx context.Context, ownerID string) (Contact, error) {
	u, err := s.GetByID(ctx, ownerID)
	if err != nil {
		return Contact{}, err
	}

	c := Contact{
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
	if u.Clinical.DoctorEmail != nil {
		c.DoctorEmail = *u.Clinical.DoctorEmail
	}
	return c, nil
}

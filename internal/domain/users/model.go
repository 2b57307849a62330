package users

import (
	"time"

	"dialog-backend/internal/platform/decimal"
)

// User es la cuenta del paciente más su perfil clínico. Una fila por
// owner; las mediciones van aparte, en el almacén de series.
type User struct {
	ID string

	FirstName          string
	LastName           string
	Email              string
	PasswordHash       string // bcrypt; nunca se persiste la contraseña en claro
	Gender             string
	Birthdate          string // YYYY-MM-DD, tal como lo manda el cliente
	CountryOfResidence string
	EmergencyContact   string
	Weight             float64
	Height             float64
	Consent            bool

	Clinical ClinicalInfo

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClinicalInfo son los atributos de diabetes del perfil. Punteros:
// nil = nunca seteado. Los umbrales son decimales exactos porque se
// comparan contra lecturas del paciente.
type ClinicalInfo struct {
	DiabetesType *string
	DiagnoseDate *string
	InsulinType  *string
	AdminRoute   *string
	Condition    *string
	Medication   *string
	LowerBound   *decimal.Decimal
	UpperBound   *decimal.Decimal
	BSUnit       *string // "mg/dL" o "mmol/L"; el core nunca convierte
	DoctorName   *string
	DoctorEmail  *string
}

// Contact es lo mínimo que necesita la pasarela de alertas para armar
// un correo al médico tratante.
type Contact struct {
	FirstName   string
	LastName    string
	DoctorEmail string
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"dialog-backend/internal/domain/users"
	"dialog-backend/internal/platform/decimal"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	userid, first_name, last_name, email, password_hash,
	gender, birthdate, country_of_residence, emergency_contact,
	weight, height, consent,
	diabetes_type, diagnose_date, insulin_type, admin_route,
	condition, medication,
	lower_bound::text, upper_bound::text,
	bs_unit, doctor_name, doctor_email,
	created_at, updated_at
`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dialog_users (
			userid, first_name, last_name, email, password_hash,
			gender, birthdate, country_of_residence, emergency_contact,
			weight, height, consent,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		u.ID,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PasswordHash,
		u.Gender,
		u.Birthdate,
		u.CountryOfResidence,
		u.EmergencyContact,
		u.Weight,
		u.Height,
		u.Consent,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrOwnerNotFound
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM dialog_users WHERE userid = $1`, id)
	return scanUser(row)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return users.User{}, users.ErrOwnerNotFound
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM dialog_users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (users.User, error) {
	var u users.User
	var (
		diabetesType, diagnoseDate, insulinType, adminRoute sql.NullString
		condition, medication                               sql.NullString
		lowerBound, upperBound                              sql.NullString
		bsUnit, doctorName, doctorEmail                     sql.NullString
	)

	if err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Gender,
		&u.Birthdate,
		&u.CountryOfResidence,
		&u.EmergencyContact,
		&u.Weight,
		&u.Height,
		&u.Consent,
		&diabetesType,
		&diagnoseDate,
		&insulinType,
		&adminRoute,
		&condition,
		&medication,
		&lowerBound,
		&upperBound,
		&bsUnit,
		&doctorName,
		&doctorEmail,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return users.User{}, users.ErrOwnerNotFound
		}
		return users.User{}, err
	}

	u.Clinical.DiabetesType = strPtr(diabetesType)
	u.Clinical.DiagnoseDate = strPtr(diagnoseDate)
	u.Clinical.InsulinType = strPtr(insulinType)
	u.Clinical.AdminRoute = strPtr(adminRoute)
	u.Clinical.Condition = strPtr(condition)
	u.Clinical.Medication = strPtr(medication)
	u.Clinical.BSUnit = strPtr(bsUnit)
	u.Clinical.DoctorName = strPtr(doctorName)
	u.Clinical.DoctorEmail = strPtr(doctorEmail)

	var err error
	if u.Clinical.LowerBound, err = decPtr(lowerBound); err != nil {
		return users.User{}, err
	}
	if u.Clinical.UpperBound, err = decPtr(upperBound); err != nil {
		return users.User{}, err
	}

	return u, nil
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func decPtr(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.New(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Columnas permitidas para UpdateClinical; el esquema fijo lo impone el
// servicio, esto solo evita interpolar nombres arbitrarios en SQL.
var clinicalColumns = map[string]bool{
	"diabetes_type": true,
	"diagnose_date": true,
	"insulin_type":  true,
	"admin_route":   true,
	"condition":     true,
	"medication":    true,
	"lower_bound":   true,
	"upper_bound":   true,
	"bs_unit":       true,
	"doctor_name":   true,
	"doctor_email":  true,
}

func (r *UsersRepo) UpdateClinical(ctx context.Context, id string, fields map[string]any) error {
	sets := make([]string, 0, len(fields)+1)
	args := []any{id}
	argN := 2

	for col, v := range fields {
		if !clinicalColumns[col] {
			return fmt.Errorf("unknown clinical column %q", col)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argN))
		args = append(args, v)
		argN++
	}
	sets = append(sets, "updated_at = now()")

	res, err := r.db.ExecContext(ctx,
		`UPDATE dialog_users SET `+strings.Join(sets, ", ")+` WHERE userid = $1`,
		args...,
	)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrOwnerNotFound
	}
	return nil
}

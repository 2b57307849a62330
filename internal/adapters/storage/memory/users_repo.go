package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"dialog-backend/internal/domain/users"
	"dialog-backend/internal/platform/decimal"
)

type userRepo struct {
	mu   sync.RWMutex
	byID map[string]users.User
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID: make(map[string]users.User),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return errors.New("user already exists")
	}

	r.byID[u.ID] = u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrOwnerNotFound
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return users.User{}, users.ErrOwnerNotFound
}

func (r *userRepo) UpdateClinical(ctx context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return users.ErrOwnerNotFound
	}

	for f, v := range fields {
		applyClinicalField(&u.Clinical, f, v)
	}
	u.UpdatedAt = time.Now().UTC()

	r.byID[id] = u
	return nil
}

func applyClinicalField(ci *users.ClinicalInfo, field string, v any) {
	setStr := func(dst **string) {
		if v == nil {
			*dst = nil
			return
		}
		if s, ok := v.(string); ok {
			*dst = &s
		}
	}
	setDec := func(dst **decimal.Decimal) {
		if v == nil {
			*dst = nil
			return
		}
		if d, ok := v.(decimal.Decimal); ok {
			*dst = &d
		}
	}

	switch field {
	case "diabetes_type":
		setStr(&ci.DiabetesType)
	case "diagnose_date":
		setStr(&ci.DiagnoseDate)
	case "insulin_type":
		setStr(&ci.InsulinType)
	case "admin_route":
		setStr(&ci.AdminRoute)
	case "condition":
		setStr(&ci.Condition)
	case "medication":
		setStr(&ci.Medication)
	case "lower_bound":
		setDec(&ci.LowerBound)
	case "upper_bound":
		setDec(&ci.UpperBound)
	case "bs_unit":
		setStr(&ci.BSUnit)
	case "doctor_name":
		setStr(&ci.DoctorName)
	case "doctor_email":
		setStr(&ci.DoctorEmail)
	}
}

package users

import "context"

type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)

	// GetByEmail se usa en login y para detectar emails duplicados.
	GetByEmail(ctx context.Context, email string) (User, error)

	// UpdateClinical aplica exactamente los campos del mapa (nombres de
	// esquema clínico); un valor nil limpia el campo. El motor de merge
	// en el servicio decide qué campos entran al mapa.
	UpdateClinical(ctx context.Context, id string, fields map[string]any) error
}

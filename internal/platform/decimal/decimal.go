package decimal

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Decimal envuelve apd.Decimal para valores clínicos exactos
// (glucosa, umbrales). Nunca float64: los redondeos binarios no son
// aceptables en valores que se comparan contra umbrales médicos.
type Decimal struct {
	value apd.Decimal
}

func New(s string) (Decimal, error) {
	var d apd.Decimal
	_, _, err := d.SetString(strings.TrimSpace(s))
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if d.Form != apd.Finite {
		return Decimal{}, fmt.Errorf("invalid decimal %q: not finite", s)
	}
	return Decimal{value: d}, nil
}

func FromInt64(i int64) Decimal {
	var d apd.Decimal
	d.SetInt64(i)
	return Decimal{value: d}
}

// MustNew es para tests y constantes; panic con entrada inválida.
func MustNew(s string) Decimal {
	d, err := New(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String devuelve notación posicional (sin exponente).
func (d Decimal) String() string {
	return d.value.Text('f')
}

func (d Decimal) IsZero() bool {
	return d.value.IsZero()
}

func (d Decimal) Cmp(other Decimal) int {
	return d.value.Cmp(&other.value)
}

// MarshalJSON emite el valor como número JSON, no como string.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.value.Text('f')), nil
}

func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := New(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value / Scan permiten mapear contra columnas NUMERIC de Postgres.
func (d Decimal) Value() (driver.Value, error) {
	return d.value.Text('f'), nil
}

func (d *Decimal) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return fmt.Errorf("cannot scan NULL into decimal")
	case string:
		parsed, err := New(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := New(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case int64:
		*d = FromInt64(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into decimal", src)
	}
}

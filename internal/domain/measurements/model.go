package measurements

import "time"

// Point es la unidad almacenada: un dato fechado de un tipo lógico
// (bloodSugar, una pregunta de cuestionario, una condición) de un owner.
// (Owner, Type, Timestamp) es la clave primaria lógica: escribir dos
// veces el mismo instante sobreescribe, un instante distinto agrega
// historia.
type Point struct {
	Owner string
	Type  string

	// Timestamp es la dimensión de orden (clave de rango).
	Timestamp time.Time

	// Value: decimal.Decimal, string, o compuesto ([]any / map[string]any).
	Value any

	// RecordedAt lo estampa el servicio al ingerir; no viene del cliente.
	RecordedAt time.Time
}

// Key devuelve la clave de partición compuesta del punto.
func (p Point) Key() (string, error) {
	return EncodeKey(p.Owner, p.Type)
}

package measurements

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingParameters: falta un límite del rango o from > to.
	// Se detecta antes de llegar a storage.
	ErrMissingParameters = errors.New("missing required parameters")

	// ErrQueryFailed: el storage falló durante la consulta. Distinto de
	// un rango vacío, que es un resultado válido (serie vacía).
	ErrQueryFailed = errors.New("query failed")
)

// SeriesPoint es un par (timestamp, value) ya coercido para graficar.
type SeriesPoint struct {
	Timestamp time.Time `json:"date"`
	Value     any       `json:"value"`
}

// BuildSeries reconstruye la serie ordenada de un (owner, type) en el
// intervalo pedido. Valores de texto numéricamente parseables salen
// como decimal (coerción recursiva en compuestos); texto no numérico
// pasa intacto. La serie es efímera: se rearma en cada lectura.
func (s *Service) BuildSeries(ctx context.Context, owner, datatype string, from, to *time.Time) ([]SeriesPoint, error) {
	if from == nil || to == nil {
		return nil, ErrMissingParameters
	}
	if from.After(*to) {
		return nil, fmt.Errorf("%w: from after to", ErrMissingParameters)
	}
	if _, err := EncodeKey(owner, datatype); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingParameters, err)
	}

	pts, err := s.repo.QueryRange(ctx, owner, datatype, *from, *to, MaxRangeResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	out := make([]SeriesPoint, 0, len(pts))
	for _, p := range pts {
		out = append(out, SeriesPoint{
			Timestamp: p.Timestamp,
			Value:     CoerceValue(p.Value),
		})
	}
	return out, nil
}

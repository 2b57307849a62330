package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dialog-backend/internal/domain/measurements"
)

type measurementRepo struct {
	mu     sync.RWMutex
	points map[string]measurements.Point
}

func NewMeasurementRepo() measurements.Repository {
	return &measurementRepo{
		points: make(map[string]measurements.Point),
	}
}

// itemKey combina la clave de partición con el timestamp (clave de
// rango), como la tabla real.
func itemKey(partition string, ts time.Time) string {
	return partition + "|" + ts.UTC().Format(time.RFC3339Nano)
}

func (r *measurementRepo) Put(ctx context.Context, p measurements.Point) error {
	key, err := p.Key()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.points[itemKey(key, p.Timestamp)] = p
	return nil
}

func (r *measurementRepo) Get(ctx context.Context, owner, datatype string, ts time.Time) (measurements.Point, error) {
	key, err := measurements.EncodeKey(owner, datatype)
	if err != nil {
		return measurements.Point{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.points[itemKey(key, ts)]
	if !ok {
		return measurements.Point{}, measurements.ErrNotFound
	}
	return p, nil
}

func (r *measurementRepo) QueryRange(ctx context.Context, owner, datatype string, from, to time.Time, limit int) ([]measurements.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]measurements.Point, 0)
	for _, p := range r.points {
		if p.Owner != owner || p.Type != datatype {
			continue
		}
		if p.Timestamp.Before(from) || p.Timestamp.After(to) {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *measurementRepo) ScanByOwner(ctx context.Context, owner string) ([]measurements.Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]measurements.Point, 0)
	for _, p := range r.points {
		if p.Owner == owner {
			out = append(out, p)
		}
	}

	// Orden por tipo y, dentro de cada tipo, por timestamp.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, nil
}

func (r *measurementRepo) Update(ctx context.Context, owner, datatype string, ts time.Time, value any, newTS *time.Time) (measurements.Point, error) {
	key, err := measurements.EncodeKey(owner, datatype)
	if err != nil {
		return measurements.Point{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := itemKey(key, ts)
	p, ok := r.points[old]
	if !ok {
		return measurements.Point{}, measurements.ErrNotFound
	}

	p.Value = value
	if newTS != nil {
		// Cambia la clave de rango: borrar viejo, insertar nuevo.
		delete(r.points, old)
		p.Timestamp = *newTS
	}

	r.points[itemKey(key, p.Timestamp)] = p
	return p, nil
}

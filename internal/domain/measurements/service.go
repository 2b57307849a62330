package measurements

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidMeasurement = errors.New("invalid measurement")

	// ErrStorageUnavailable envuelve fallos del backend (timeouts,
	// throttling). El caller decide si reintenta; el servicio no.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// MaxRangeResults limita QueryRange. No hay paginación por cursor: un
// caller que necesite más acota el rango de fechas.
const MaxRangeResults = 500

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

type UpsertInput struct {
	Owner     string
	Type      string
	Timestamp time.Time
	Value     any
}

// Upsert valida y persiste un punto. Toda la validación ocurre antes de
// tocar storage; escrituras con la misma clave son idempotentes
// (última gana).
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (Point, error) {
	if strings.TrimSpace(in.Type) == "" {
		return Point{}, fmt.Errorf("%w: datatype required", ErrInvalidMeasurement)
	}
	if in.Value == nil {
		return Point{}, fmt.Errorf("%w: value required", ErrInvalidMeasurement)
	}
	if in.Timestamp.IsZero() {
		return Point{}, fmt.Errorf("%w: timestamp required", ErrInvalidMeasurement)
	}
	if _, err := EncodeKey(in.Owner, in.Type); err != nil {
		return Point{}, fmt.Errorf("%w: %s", ErrInvalidMeasurement, err)
	}

	p := Point{
		Owner:      strings.TrimSpace(in.Owner),
		Type:       strings.TrimSpace(in.Type),
		Timestamp:  in.Timestamp,
		Value:      in.Value,
		RecordedAt: s.now().UTC(),
	}

	if err := s.repo.Put(ctx, p); err != nil {
		return Point{}, wrapStorage(err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, owner, datatype string, ts time.Time) (Point, error) {
	if _, err := EncodeKey(owner, datatype); err != nil {
		return Point{}, err
	}

	p, err := s.repo.Get(ctx, owner, datatype, ts)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Point{}, err
		}
		return Point{}, wrapStorage(err)
	}
	return p, nil
}

// QueryRange devuelve puntos ascendentes por timestamp, límites
// inclusivos, acotado a MaxRangeResults.
func (s *Service) QueryRange(ctx context.Context, owner, datatype string, from, to time.Time) ([]Point, error) {
	if _, err := EncodeKey(owner, datatype); err != nil {
		return nil, err
	}

	pts, err := s.repo.QueryRange(ctx, owner, datatype, from, to, MaxRangeResults)
	if err != nil {
		return nil, wrapStorage(err)
	}
	return pts, nil
}

func (s *Service) ScanByOwner(ctx context.Context, owner string) ([]Point, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("%w: owner required", ErrInvalidMeasurement)
	}

	pts, err := s.repo.ScanByOwner(ctx, strings.TrimSpace(owner))
	if err != nil {
		return nil, wrapStorage(err)
	}
	return pts, nil
}

// Update falla con ErrNotFound si no hay punto en esa clave exacta.
// newTS no nil mueve el punto a otro timestamp (re-keying).
func (s *Service) Update(ctx context.Context, owner, datatype string, ts time.Time, value any, newTS *time.Time) (Point, error) {
	if value == nil {
		return Point{}, fmt.Errorf("%w: value required", ErrInvalidMeasurement)
	}
	if _, err := EncodeKey(owner, datatype); err != nil {
		return Point{}, fmt.Errorf("%w: %s", ErrInvalidMeasurement, err)
	}
	if newTS != nil && newTS.IsZero() {
		return Point{}, fmt.Errorf("%w: new timestamp invalid", ErrInvalidMeasurement)
	}

	p, err := s.repo.Update(ctx, owner, datatype, ts, value, newTS)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Point{}, err
		}
		return Point{}, wrapStorage(err)
	}
	return p, nil
}

func wrapStorage(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

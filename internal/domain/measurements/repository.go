package measurements

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("measurement not found")
)

// Repository es la abstracción de persistencia del almacén de series.
// El layout físico agrupa (owner, type) en una clave de partición y usa
// el timestamp como clave de rango, de modo que QueryRange sea un scan
// contiguo. Los adapters devuelven ErrNotFound en misses; cualquier otro
// error es un fallo del backend (el servicio lo envuelve, no reintenta).
type Repository interface {
	// Put inserta o sobreescribe el punto en (owner, type, timestamp).
	Put(ctx context.Context, p Point) error

	Get(ctx context.Context, owner, datatype string, ts time.Time) (Point, error)

	// QueryRange devuelve puntos con from <= ts <= to, ascendente por
	// timestamp, hasta limit entradas.
	QueryRange(ctx context.Context, owner, datatype string, from, to time.Time, limit int) ([]Point, error)

	// ScanByOwner devuelve todos los puntos del owner, de todos los
	// tipos; sin orden entre tipos, ascendente por timestamp dentro de
	// cada tipo.
	ScanByOwner(ctx context.Context, owner string) ([]Point, error)

	// Update reemplaza el value del punto en la clave exacta; newTS no
	// nil re-clava el punto (borrar viejo / insertar nuevo, porque
	// cambia la clave de rango). ErrNotFound si el punto no existe.
	Update(ctx context.Context, owner, datatype string, ts time.Time, value any, newTS *time.Time) (Point, error)
}

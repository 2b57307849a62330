package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dialog-backend/internal/domain/measurements"
	"dialog-backend/internal/platform/decimal"
)

// MeasurementsRepo persiste puntos en dialog_data, una tabla con clave
// primaria (owner_key, date): owner_key es la clave compuesta
// "owner#datatype" y date la clave de rango. Un rango por (owner, tipo)
// es un scan contiguo del índice primario; no hay otros índices.
type MeasurementsRepo struct {
	db *sql.DB
}

func NewMeasurementsRepo(db *sql.DB) *MeasurementsRepo {
	return &MeasurementsRepo{db: db}
}

const (
	valueKindNumber = "number"
	valueKindString = "string"
	valueKindJSON   = "json"
)

// encodeValue serializa el value sin pérdida: decimales como texto
// posicional, compuestos como JSON (los decimales anidados también
// emiten número JSON exacto).
func encodeValue(v any) (kind, payload string, err error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return valueKindNumber, t.String(), nil
	case string:
		return valueKindString, t, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", "", fmt.Errorf("encode value: %w", err)
		}
		return valueKindJSON, string(b), nil
	}
}

func decodeValue(kind, payload string) (any, error) {
	switch kind {
	case valueKindNumber:
		return decimal.New(payload)
	case valueKindString:
		return payload, nil
	case valueKindJSON:
		return measurements.ParseValue(json.RawMessage(payload))
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
}

func (r *MeasurementsRepo) Put(ctx context.Context, p measurements.Point) error {
	key, err := p.Key()
	if err != nil {
		return err
	}
	kind, payload, err := encodeValue(p.Value)
	if err != nil {
		return err
	}

	// Idempotente en (owner_key, date): misma clave sobreescribe.
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO dialog_data (owner_key, date, value, value_kind, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_key, date)
		DO UPDATE SET value = EXCLUDED.value,
		              value_kind = EXCLUDED.value_kind,
		              recorded_at = EXCLUDED.recorded_at
	`, key, p.Timestamp, payload, kind, p.RecordedAt)
	return err
}

func (r *MeasurementsRepo) Get(ctx context.Context, owner, datatype string, ts time.Time) (measurements.Point, error) {
	key, err := measurements.EncodeKey(owner, datatype)
	if err != nil {
		return measurements.Point{}, err
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT date, value, value_kind, recorded_at
		FROM dialog_data
		WHERE owner_key = $1 AND date = $2
	`, key, ts)

	return scanPoint(row, owner, datatype)
}

func scanPoint(row *sql.Row, owner, datatype string) (measurements.Point, error) {
	var (
		p             measurements.Point
		payload, kind string
	)
	if err := row.Scan(&p.Timestamp, &payload, &kind, &p.RecordedAt); err != nil {
		if err == sql.ErrNoRows {
			return measurements.Point{}, measurements.ErrNotFound
		}
		return measurements.Point{}, err
	}

	v, err := decodeValue(kind, payload)
	if err != nil {
		return measurements.Point{}, err
	}

	p.Owner = owner
	p.Type = datatype
	p.Value = v
	return p, nil
}

func (r *MeasurementsRepo) QueryRange(ctx context.Context, owner, datatype string, from, to time.Time, limit int) ([]measurements.Point, error) {
	key, err := measurements.EncodeKey(owner, datatype)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT date, value, value_kind, recorded_at
		FROM dialog_data
		WHERE owner_key = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC
		LIMIT $4
	`, key, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]measurements.Point, 0)
	for rows.Next() {
		var (
			p             measurements.Point
			payload, kind string
		)
		if err := rows.Scan(&p.Timestamp, &payload, &kind, &p.RecordedAt); err != nil {
			return nil, err
		}

		v, err := decodeValue(kind, payload)
		if err != nil {
			return nil, err
		}

		p.Owner = owner
		p.Type = datatype
		p.Value = v
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *MeasurementsRepo) ScanByOwner(ctx context.Context, owner string) ([]measurements.Point, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT owner_key, date, value, value_kind, recorded_at
		FROM dialog_data
		WHERE owner_key LIKE $1 ESCAPE '\'
		ORDER BY owner_key, date ASC
	`, escapeLike(owner)+measurements.KeySeparator+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]measurements.Point, 0)
	for rows.Next() {
		var (
			p                  measurements.Point
			key, payload, kind string
		)
		if err := rows.Scan(&key, &p.Timestamp, &payload, &kind, &p.RecordedAt); err != nil {
			return nil, err
		}

		o, datatype, err := measurements.DecodeKey(key)
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(kind, payload)
		if err != nil {
			return nil, err
		}

		p.Owner = o
		p.Type = datatype
		p.Value = v
		out = append(out, p)
	}

	return out, rows.Err()
}

func (r *MeasurementsRepo) Update(ctx context.Context, owner, datatype string, ts time.Time, value any, newTS *time.Time) (measurements.Point, error) {
	key, err := measurements.EncodeKey(owner, datatype)
	if err != nil {
		return measurements.Point{}, err
	}
	kind, payload, err := encodeValue(value)
	if err != nil {
		return measurements.Point{}, err
	}

	// Cambiar date re-clava la fila; al ser parte de la PK, el UPDATE
	// equivale a borrar la vieja e insertar la nueva.
	row := r.db.QueryRowContext(ctx, `
		UPDATE dialog_data
		SET value = $1,
		    value_kind = $2,
		    date = COALESCE($3::timestamptz, date)
		WHERE owner_key = $4 AND date = $5
		RETURNING date, value, value_kind, recorded_at
	`, payload, kind, newTS, key, ts)

	return scanPoint(row, owner, datatype)
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

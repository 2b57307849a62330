package measurements

import (
	"bytes"
	"encoding/json"
	"fmt"

	"dialog-backend/internal/platform/decimal"
)

// Un valor de medición es un escalar (número o texto) o una estructura
// compuesta (lista/mapa) para respuestas de cuestionario. Los números se
// representan siempre como decimal.Decimal, nunca float64.

// ParseValue decodifica un valor JSON crudo preservando precisión:
// los números JSON pasan por json.Number a decimal exacto.
func ParseValue(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeValue(v)
}

func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.New(t.String())
		if err != nil {
			return nil, err
		}
		return d, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			n, err := normalizeValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			n, err := normalizeValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		// string, bool, nil
		return v, nil
	}
}

// CoerceValue convierte strings numéricamente parseables a decimal para
// las series de gráficos ("120" -> 120). Texto no numérico pasa intacto.
// La coerción es recursiva sobre listas y mapas (valores compuestos).
func CoerceValue(v any) any {
	switch t := v.(type) {
	case string:
		if d, err := decimal.New(t); err == nil {
			return d
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CoerceValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = CoerceValue(e)
		}
		return out
	default:
		return v
	}
}

// EqualValues compara valores almacenados; los decimales se comparan
// numéricamente (apd.Decimal no es comparable con ==).
func EqualValues(a, b any) bool {
	da, aIsDec := a.(decimal.Decimal)
	db, bIsDec := b.(decimal.Decimal)
	if aIsDec || bIsDec {
		return aIsDec && bIsDec && da.Cmp(db) == 0
	}

	switch ta := a.(type) {
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !EqualValues(ta[i], tb[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		tb, ok := b.(map[string]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for k, va := range ta {
			vb, ok := tb[k]
			if !ok || !EqualValues(va, vb) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// FormatValue es solo para mensajes/logs.
func FormatValue(v any) string {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.String()
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

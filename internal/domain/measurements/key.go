package measurements

import (
	"errors"
	"strings"
	"time"
)

// KeySeparator une owner y datatype en la clave de partición compuesta
// (layout heredado: "userid#datatype"). Por eso no se permite dentro de
// ninguna de las dos partes: escaparlo cambiaría el layout ya desplegado.
const KeySeparator = "#"

var ErrInvalidKeyFormat = errors.New("invalid key format")

// EncodeKey deriva la clave de partición a partir de (owner, datatype).
// Rechaza partes vacías o que contengan el separador, de modo que
// DecodeKey sea inversa exacta de EncodeKey para toda clave aceptada.
func EncodeKey(owner, datatype string) (string, error) {
	owner = strings.TrimSpace(owner)
	datatype = strings.TrimSpace(datatype)

	if owner == "" || datatype == "" {
		return "", ErrInvalidKeyFormat
	}
	if strings.Contains(owner, KeySeparator) || strings.Contains(datatype, KeySeparator) {
		return "", ErrInvalidKeyFormat
	}

	return owner + KeySeparator + datatype, nil
}

// DecodeKey separa una clave compuesta en (owner, datatype).
// Corta en el PRIMER separador: claves históricas con '#' dentro del
// datatype siguen decodificando de forma determinista, aunque EncodeKey
// ya no permita crearlas.
func DecodeKey(key string) (owner, datatype string, err error) {
	idx := strings.Index(key, KeySeparator)
	if idx < 0 {
		return "", "", ErrInvalidKeyFormat
	}

	owner = key[:idx]
	datatype = key[idx+len(KeySeparator):]
	if owner == "" || datatype == "" {
		return "", "", ErrInvalidKeyFormat
	}

	return owner, datatype, nil
}

// Formato de fecha del cliente original ("2006-01-02T15:04:05", sin zona).
const wireTimeLayout = "2006-01-02T15:04:05"

// ParseTimestamp normaliza el timestamp de un punto: RFC3339 o el
// formato plano del cliente original (interpretado como UTC).
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(wireTimeLayout, s)
}

// ParseRangeBound acepta además fechas sueltas ("2006-01-02"): como
// límite inferior es el inicio del día, como superior el final.
func ParseRangeBound(s string, upper bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := ParseTimestamp(s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if upper {
		return t.Add(24*time.Hour - time.Nanosecond), nil
	}
	return t, nil
}

package auth

import "context"

// TokenIssuer emite un token de acceso para los claims dados.
// Contraparte de AuthVerifier; login lo usa, el middleware verifica.
type TokenIssuer interface {
	Issue(ctx context.Context, claims Claims) (string, error)
}

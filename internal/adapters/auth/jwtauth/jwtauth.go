package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dialog-backend/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const defaultTTL = 24 * time.Hour

// Service emite y verifica tokens HS256 firmados localmente.
// Implementa auth.TokenIssuer y auth.AuthVerifier.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    defaultTTL,
		now:    time.Now,
	}
}

func (s *Service) Issue(ctx context.Context, claims auth.Claims) (string, error) {
	if claims.UserID == "" {
		return "", fmt.Errorf("user id required")
	}

	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   claims.UserID,
		"email": claims.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	})

	return tok.SignedString(s.secret)
}

func (s *Service) Verify(ctx context.Context, token string) (auth.Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return auth.Claims{}, ErrInvalidToken
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return auth.Claims{}, ErrInvalidToken
	}

	sub, _ := mc["sub"].(string)
	if sub == "" {
		return auth.Claims{}, ErrInvalidToken
	}
	email, _ := mc["email"].(string)

	return auth.Claims{UserID: sub, Email: email}, nil
}

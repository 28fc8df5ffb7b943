// Package jwt выпускает и проверяет токены доступа к API синхронизации.
// Токен несет имя актора: оно записывается в историю и в поля
// updatedBy как автор изменений.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken возвращается для просроченных, поддельных
// и неразбираемых токенов.
var ErrInvalidToken = errors.New("invalid token")

// DefaultTTL срок действия токена по умолчанию.
const DefaultTTL = 30 * 24 * time.Hour

// Claims represents the access token payload.
type Claims struct {
	Actor string `json:"actor"`
	jwt.RegisteredClaims
}

// Service provides token generation and validation.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a new token service.
// secret should be a cryptographically secure random string.
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Generate выпускает токен для актора.
func (s *Service) Generate(actor string) (string, error) {
	now := time.Now()
	claims := Claims{
		Actor: actor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate проверяет подпись и срок действия, возвращает claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Actor == "" {
		claims.Actor = claims.Subject
	}
	if claims.Actor == "" {
		return nil, fmt.Errorf("%w: missing actor", ErrInvalidToken)
	}
	return claims, nil
}

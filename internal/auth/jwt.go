package auth

import (
	"errors"
	"fmt"
	"time"

	"picoworker_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
)

// Claims - проверенная личность вызывающего.
// Capabilities вычисляются из роли в момент выдачи токена.
type Claims struct {
	Email        string          `json:"email"`
	Role         models.UserRole `json:"role"`
	Capabilities []Capability    `json:"caps"`
	jwt.RegisteredClaims
}

// NewClaims собирает личность с набором прав для роли
func NewClaims(email string, role models.UserRole) *Claims {
	return &Claims{
		Email:        email,
		Role:         role,
		Capabilities: CapabilitiesFor(role),
	}
}

// TokenManager выдает и проверяет HS256 токены
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// GenerateToken подписывает токен для пользователя
func (m *TokenManager) GenerateToken(email string, role models.UserRole) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := NewClaims(email, role)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken проверяет подпись и срок действия
func (m *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Email == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Package token issues and verifies the signed tokens carried in account
// verification messages. Tokens are HS256 JWTs binding the registered email
// address to an expiry; nothing session-related lives here.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/generationsbank/guardian-bank/internal/models"
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service issues verification tokens signed with a shared secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed verification token for the given email address.
func (s *Service) Issue(email string) (string, error) {
	now := time.Now()
	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return t.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the email the token was
// issued for. Any failure is reported as ErrTokenInvalid.
func (s *Service) Verify(tokenString string) (string, error) {
	c := &claims{}
	t, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !t.Valid || c.Email == "" {
		return "", models.ErrTokenInvalid
	}
	return c.Email, nil
}

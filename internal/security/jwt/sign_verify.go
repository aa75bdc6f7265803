package jwtutil

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Signer struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *Signer {
	return &Signer{cfg: cfg, now: time.Now}
}

// Sign returns an HS256 token for the user together with its claims.
func (s *Signer) Sign(userID, email string, isAdmin bool) (string, Claims, error) {
	claims := NewClaims(userID, email, isAdmin, uuid.NewString(), s.now(), s.cfg.TTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.cfg.Secret)
	return signed, claims, err
}

// Parse verifies signature, algorithm and expiry (with clock skew leeway).
func (s *Signer) Parse(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithLeeway(s.cfg.ClockSkew),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

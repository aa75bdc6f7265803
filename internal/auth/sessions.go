package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/book-art/internal/api/middlewares"
	"github.com/5w1tchy/book-art/internal/logging"
	jwtutil "github.com/5w1tchy/book-art/internal/security/jwt"
)

// Sessions issues and verifies bearer tokens. With a redis client, logged-out token
// ids are deny-listed until they expire; without one, logout is client-side only.
type Sessions struct {
	Tokens *jwtutil.Signer
	RDB    *redis.Client
}

func NewSessions(tokens *jwtutil.Signer, rdb *redis.Client) *Sessions {
	return &Sessions{Tokens: tokens, RDB: rdb}
}

func denyKey(jti string) string { return "auth:deny:" + jti }

func (s *Sessions) Issue(u User) (string, error) {
	tok, _, err := s.Tokens.Sign(u.ID, u.Email, u.IsAdmin())
	return tok, err
}

func (s *Sessions) Verify(ctx context.Context, token string) (middlewares.Session, error) {
	c, err := s.Tokens.Parse(token)
	if err != nil {
		return middlewares.Session{}, err
	}
	if s.RDB != nil {
		n, err := s.RDB.Exists(ctx, denyKey(c.ID)).Result()
		switch {
		case err != nil:
			logging.Ctx(ctx).Warn().Err(err).Msg("token deny-list lookup failed")
		case n > 0:
			return middlewares.Session{}, jwtutil.ErrInvalidToken
		}
	}
	return middlewares.Session{
		UserID:    c.UserID,
		Email:     c.Email,
		IsAdmin:   c.IsAdmin,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// Revoke deny-lists the session's token id for the rest of its lifetime.
func (s *Sessions) Revoke(ctx context.Context, sess middlewares.Session) error {
	if s.RDB == nil || sess.TokenID == "" {
		return nil
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.RDB.Set(ctx, denyKey(sess.TokenID), 1, ttl).Err()
}

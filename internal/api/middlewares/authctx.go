package middlewares

import (
	"context"
	"time"
)

// Session is the verified identity behind a request. It is stored once by
// RequireAuth and read by handlers.
type Session struct {
	UserID    string
	Email     string
	IsAdmin   bool
	TokenID   string
	ExpiresAt time.Time
}

const sessionKey ctxKey = 1

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok && s.UserID != ""
}

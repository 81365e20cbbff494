package store

import (
	"context"

	"go.uber.org/zap"
)

// Session is the outcome of the startup identity bootstrap. A session
// exists even when sign-in failed: the service accepts unauthenticated
// subscriptions, so an auth failure is recorded and logged but never
// fatal, and reads proceed without a token.
type Session struct {
	identity *Identity
	err      error
}

// Bootstrap attempts to establish an anonymous identity. It blocks until
// the service answers or ctx is cancelled, and always returns a usable
// Session. Callers decide readiness from the session's existence, not
// from whether sign-in succeeded.
func (c *Client) Bootstrap(ctx context.Context) *Session {
	id, err := c.SignInAnonymously(ctx)
	if err != nil {
		c.lg.Warn("anonymous sign-in failed, continuing unauthenticated", zap.Error(err))
		return &Session{err: err}
	}

	c.lg.Info("anonymous session established",
		zap.String("uid", id.UID),
		zap.Bool("anonymous", id.Anonymous),
	)
	return &Session{identity: id}
}

// Identity returns the established identity, or nil when sign-in failed.
func (s *Session) Identity() *Identity {
	return s.identity
}

// Token returns the bearer token for subscriptions, or an empty string
// when the session is unauthenticated.
func (s *Session) Token() string {
	if s.identity == nil {
		return ""
	}
	return s.identity.Token
}

// Err returns the sign-in error, if any. It is informational: a session
// with a non-nil Err is still valid for reads.
func (s *Session) Err() error {
	return s.err
}

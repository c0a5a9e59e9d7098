package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"findash/internal/log"
)

// Session is the process-wide token holder handed to the API client. The
// token is written at login/register, read on every request and cleared at
// logout or on any authorization failure.
type Session struct {
	mu     sync.RWMutex
	store  Store
	token  string
	logger *log.Logger
}

// Open loads any persisted token from store.
func Open(ctx context.Context, store Store, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Session{store: store, logger: logger.WithComponent(log.ComponentSession)}

	token, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoToken):
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	default:
		s.token = token
	}
	return s, nil
}

// Token returns the current bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) HasToken() bool {
	return s.Token() != ""
}

// Set persists token and makes it current.
func (s *Session) Set(ctx context.Context, token string) error {
	if err := s.store.Save(ctx, token); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "Session token stored")
	return nil
}

// Clear drops the token in memory first so no later request can carry it,
// then removes the persisted copy.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear persisted token", log.FieldError, err)
		return err
	}
	s.logger.DebugContext(ctx, "Session token cleared")
	return nil
}

// Claims is the locally decoded, unverified content of the token.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes the current token without verifying its signature. Only
// the backend can verify it; this is for display and early expiry hints.
func (s *Session) Claims() (Claims, error) {
	token := s.Token()
	if token == "" {
		return Claims{}, ErrNoToken
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}

	var c Claims
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	if c.Subject == "" {
		// some backends put the id under userId instead of sub
		if id, ok := mc["userId"].(string); ok {
			c.Subject = id
		}
	}
	if email, ok := mc["email"].(string); ok {
		c.Email = email
	}
	if name, ok := mc["name"].(string); ok {
		c.Name = name
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

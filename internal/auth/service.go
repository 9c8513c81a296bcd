package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

const defaultSessionTTL = 12 * time.Hour

// Service is the authentication gate: a two-state machine (anonymous,
// authenticated) holding at most one session. It is the sole authority on
// who is logged in.
type Service struct {
	verifier CredentialVerifier
	now      func() time.Time
	tokenTTL time.Duration

	mu      sync.RWMutex
	session *Session
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithSessionTTL overrides the session token lifetime.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// NewService constructs the gate over a credential verifier.
func NewService(verifier CredentialVerifier, opts ...ServiceOption) *Service {
	s := &Service{
		verifier: verifier,
		now:      time.Now,
		tokenTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies credentials and transitions to the authenticated state.
// On failure the gate stays exactly as it was. When a token secret is
// configured the session carries a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	identity, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return Session{}, err
	}

	sess := Session{
		Identity:   identity,
		LoggedInAt: s.now().UTC(),
	}
	if token, expiresAt, err := GenerateToken(identity, s.tokenTTL); err == nil {
		sess.Token = token
		sess.ExpiresAt = expiresAt
	} else if !errors.Is(err, errMissingSecret) {
		return Session{}, err
	}

	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()
	return sess, nil
}

// Logout clears authentication and identity, restoring the initial
// anonymous state.
func (s *Service) Logout() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
}

// Current returns the active session, or ErrNoSession in the anonymous
// state.
func (s *Service) Current() (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, ErrNoSession
	}
	return *s.session, nil
}

// Authenticated reports whether a session is active.
func (s *Service) Authenticated() bool {
	_, err := s.Current()
	return err == nil
}

// Authenticate validates a bearer token against the active secret and
// returns the identity it carries.
func (s *Service) Authenticate(_ context.Context, token string) (Identity, error) {
	claims, err := ParseAndValidate(token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		ID:   claims.Subject,
		Name: claims.Name,
		Role: claims.Role,
	}, nil
}

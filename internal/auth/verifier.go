package auth

import (
	"context"
	"strings"
	"time"

	"pharmadesk.org/internal/ids"
)

// CredentialVerifier resolves credentials to an identity. The demo verifier
// and a future real identity provider are interchangeable implementations.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (Identity, error)
}

// DemoVerifier emulates the upstream identity provider: it waits a fixed
// latency, then accepts any non-empty email/password pair. This is
// explicitly not credential validation. The directory's registered
// credentials (the demo administrator) resolve to their rich profile; any
// other pair gets a derived identity named after the email's local part.
type DemoVerifier struct {
	dir     *Directory
	latency time.Duration
}

// DemoOption configures the demo verifier.
type DemoOption func(*DemoVerifier)

// WithLoginLatency overrides the simulated delay. Zero disables it (tests).
func WithLoginLatency(d time.Duration) DemoOption {
	return func(v *DemoVerifier) { v.latency = d }
}

// NewDemoVerifier creates the verifier over the given directory.
func NewDemoVerifier(dir *Directory, opts ...DemoOption) *DemoVerifier {
	v := &DemoVerifier{dir: dir, latency: time.Second}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var _ CredentialVerifier = (*DemoVerifier)(nil)

// Verify implements CredentialVerifier.
func (v *DemoVerifier) Verify(ctx context.Context, email, password string) (Identity, error) {
	if v.latency > 0 {
		timer := time.NewTimer(v.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Identity{}, ctx.Err()
		case <-timer.C:
		}
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	if v.dir != nil {
		if profile, ok := v.dir.Lookup(email); ok {
			if err := VerifyPassword(profile.PasswordHash, password); err != nil {
				return Identity{}, ErrInvalidCredentials
			}
			return profile.Identity, nil
		}
	}

	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	return Identity{
		ID:    ids.New(),
		Name:  name,
		Email: strings.ToLower(email),
		Role:  "Opérateur",
	}, nil
}

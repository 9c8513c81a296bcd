package store

import (
	"context"
	"time"
)

// Simulated is a Backend standing in for the distribution platform's real
// services. Listing waits a fixed per-entity latency and then returns the
// fixed demo dataset; writes are accepted and discarded, so a fetch after a
// write re-replaces the collection with the same data. There is no error
// path beyond context cancellation.
type Simulated struct {
	scale float64
	now   func() time.Time
}

// SimOption configures the simulated backend.
type SimOption func(*Simulated)

// WithLatencyScale multiplies all simulated delays. Zero disables them,
// which tests rely on.
func WithLatencyScale(scale float64) SimOption {
	return func(s *Simulated) { s.scale = scale }
}

// WithSimClock overrides the time source.
func WithSimClock(fn func() time.Time) SimOption {
	return func(s *Simulated) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewSimulated creates the demo backend.
func NewSimulated(opts ...SimOption) *Simulated {
	s := &Simulated{scale: 1, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Backend = (*Simulated)(nil)

// Per-entity fetch latencies, matching the demo platform's pacing.
const (
	latencyOrders        = 500 * time.Millisecond
	latencyNotifications = 500 * time.Millisecond
	latencyOfficines     = 600 * time.Millisecond
	latencyStats         = 700 * time.Millisecond
	latencyProducts      = 800 * time.Millisecond
	latencyUsers         = 1000 * time.Millisecond
)

func (s *Simulated) sleep(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * s.scale)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Simulated) Users() UserBackend                 { return simUsers{s} }
func (s *Simulated) Officines() OfficineBackend         { return simOfficines{s} }
func (s *Simulated) Products() ProductBackend           { return simProducts{s} }
func (s *Simulated) Orders() OrderBackend               { return simOrders{s} }
func (s *Simulated) Notifications() NotificationBackend { return simNotifications{s} }
func (s *Simulated) Stats() StatsBackend                { return simStats{s} }

type simUsers struct{ sim *Simulated }

func (b simUsers) List(ctx context.Context) ([]User, error) {
	if err := b.sim.sleep(ctx, latencyUsers); err != nil {
		return nil, err
	}
	return demoUsers(), nil
}
func (b simUsers) Create(ctx context.Context, u User) error    { return ctx.Err() }
func (b simUsers) Update(ctx context.Context, u User) error    { return ctx.Err() }
func (b simUsers) Delete(ctx context.Context, id string) error { return ctx.Err() }

type simOfficines struct{ sim *Simulated }

func (b simOfficines) List(ctx context.Context) ([]Officine, error) {
	if err := b.sim.sleep(ctx, latencyOfficines); err != nil {
		return nil, err
	}
	return demoOfficines(), nil
}
func (b simOfficines) Create(ctx context.Context, o Officine) error { return ctx.Err() }
func (b simOfficines) Update(ctx context.Context, o Officine) error { return ctx.Err() }
func (b simOfficines) Delete(ctx context.Context, id string) error  { return ctx.Err() }

type simProducts struct{ sim *Simulated }

func (b simProducts) List(ctx context.Context) ([]Product, error) {
	if err := b.sim.sleep(ctx, latencyProducts); err != nil {
		return nil, err
	}
	return demoProducts(), nil
}
func (b simProducts) Create(ctx context.Context, p Product) error { return ctx.Err() }
func (b simProducts) Update(ctx context.Context, p Product) error { return ctx.Err() }
func (b simProducts) Delete(ctx context.Context, id string) error { return ctx.Err() }

type simOrders struct{ sim *Simulated }

func (b simOrders) List(ctx context.Context) ([]Order, error) {
	if err := b.sim.sleep(ctx, latencyOrders); err != nil {
		return nil, err
	}
	return demoOrders(), nil
}
func (b simOrders) Create(ctx context.Context, o Order) error   { return ctx.Err() }
func (b simOrders) Update(ctx context.Context, o Order) error   { return ctx.Err() }
func (b simOrders) Delete(ctx context.Context, id string) error { return ctx.Err() }

type simNotifications struct{ sim *Simulated }

func (b simNotifications) List(ctx context.Context) ([]Notification, error) {
	if err := b.sim.sleep(ctx, latencyNotifications); err != nil {
		return nil, err
	}
	return demoNotifications(), nil
}
func (b simNotifications) Create(ctx context.Context, n Notification) error { return ctx.Err() }
func (b simNotifications) Update(ctx context.Context, n Notification) error { return ctx.Err() }
func (b simNotifications) Delete(ctx context.Context, id string) error      { return ctx.Err() }

type simStats struct{ sim *Simulated }

func (b simStats) Snapshot(ctx context.Context) (DashboardStats, error) {
	if err := b.sim.sleep(ctx, latencyStats); err != nil {
		return DashboardStats{}, err
	}
	stats := demoStats()
	stats.AsOf = b.sim.now().UTC()
	return stats, nil
}

package store

import "context"

// Backend describes the data-access capability the store is built on. The
// simulated backend and the Postgres backend are interchangeable
// implementations of this contract.
type Backend interface {
	Users() UserBackend
	Officines() OfficineBackend
	Products() ProductBackend
	Orders() OrderBackend
	Notifications() NotificationBackend
	Stats() StatsBackend
}

// UserBackend manages operator accounts.
type UserBackend interface {
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
}

// OfficineBackend manages pharmacy client sites.
type OfficineBackend interface {
	List(ctx context.Context) ([]Officine, error)
	Create(ctx context.Context, o Officine) error
	Update(ctx context.Context, o Officine) error
	Delete(ctx context.Context, id string) error
}

// ProductBackend manages the product catalogue.
type ProductBackend interface {
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
}

// OrderBackend manages orders, items included.
type OrderBackend interface {
	List(ctx context.Context) ([]Order, error)
	Create(ctx context.Context, o Order) error
	Update(ctx context.Context, o Order) error
	Delete(ctx context.Context, id string) error
}

// NotificationBackend manages operational notifications.
type NotificationBackend interface {
	List(ctx context.Context) ([]Notification, error)
	Create(ctx context.Context, n Notification) error
	Update(ctx context.Context, n Notification) error
	Delete(ctx context.Context, id string) error
}

// StatsBackend produces the dashboard snapshot wholesale.
type StatsBackend interface {
	Snapshot(ctx context.Context) (DashboardStats, error)
}

package store

import (
	"errors"
	"time"
)

// Money values are in minor units (centimes). No floats.

// Preferences is the per-user settings record carried on a User.
type Preferences struct {
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	EmailAlerts   bool   `json:"email_alerts"`
	PushAlerts    bool   `json:"push_alerts"`
	CompactLayout bool   `json:"compact_layout"`
	DefaultModule string `json:"default_module"`
}

// User is a back-office operator account.
type User struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	Phone       string      `json:"phone,omitempty"`
	Status      string      `json:"status"`
	Permissions []string    `json:"permissions,omitempty"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Officine is a pharmacy client site that places orders.
type Officine struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postal_code"`
	Registration string    `json:"registration"`
	Status       string    `json:"status"`
	ContactName  string    `json:"contact_name,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	LastOrderAt  time.Time `json:"last_order_at,omitzero"`
	TotalOrders  int       `json:"total_orders"`
	TotalAmount  int64     `json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Product is a catalogue entry identified by its CIP code.
type Product struct {
	ID           string    `json:"id"`
	CIP          string    `json:"cip"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	Manufacturer string    `json:"manufacturer"`
	Price        int64     `json:"price"`
	Stock        int       `json:"stock"`
	MinStock     int       `json:"min_stock"`
	MaxStock     int       `json:"max_stock"`
	Unit         string    `json:"unit"`
	Status       string    `json:"status"`
	Controlled   bool      `json:"controlled"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	Batch        string    `json:"batch,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Order lifecycle statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
)

// OrderItem is an order line. Product name, CIP and unit price are snapshots
// taken at order creation: later catalogue edits never rewrite history.
type OrderItem struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	CIP          string `json:"cip"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
	LineTotal    int64  `json:"line_total"`
	Availability string `json:"availability,omitempty"`
}

// Order is placed by an officine. OfficineID is a weak reference: deleting
// the officine does not cascade.
type Order struct {
	ID         string      `json:"id"`
	Number     string      `json:"number"`
	OfficineID string      `json:"officine_id"`
	Status     string      `json:"status"`
	Priority   string      `json:"priority,omitempty"`
	Items      []OrderItem `json:"items"`
	Total      int64       `json:"total"`
	Notes      string      `json:"notes,omitempty"`
	CreatedBy  string      `json:"created_by,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Notification is an operational message, not a business record: it is never
// audited and its content is never edited in place.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	UserID    string    `json:"user_id,omitempty"`
	Broadcast bool      `json:"broadcast"`
	Priority  string    `json:"priority,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats is a derived snapshot with no identity or lifecycle beyond
// "most recently fetched".
type DashboardStats struct {
	Orders        int       `json:"orders"`
	PendingOrders int       `json:"pending_orders"`
	Officines     int       `json:"officines"`
	Products      int       `json:"products"`
	LowStock      int       `json:"low_stock"`
	Revenue       int64     `json:"revenue"`
	AsOf          time.Time `json:"as_of"`
}

// Session identifies the operator the store attributes mutations to. It is
// set from the auth gate's login result and is the only "current user".
type Session struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

var (
	ErrNotFound   = errors.New("store: not found")
	ErrValidation = errors.New("store: invalid input")
	ErrBackend    = errors.New("store: backend unavailable")
)

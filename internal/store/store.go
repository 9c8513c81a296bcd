package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pharmadesk.org/internal/ids"
	"pharmadesk.org/internal/obs"
)

// Action is the audit verb attached to a mutation.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Collection names used for fetch state, metrics and HTTP paths.
const (
	ColUsers         = "users"
	ColOfficines     = "officines"
	ColProducts      = "products"
	ColOrders        = "orders"
	ColNotifications = "notifications"
	ColStats         = "dashboard_stats"
)

// MutationEvent describes one completed mutation. Every create, update and
// delete of a business entity produces exactly one event; subscribers (the
// audit recorder, the activity stream) must not call back into the store.
type MutationEvent struct {
	Action     Action
	Resource   string
	ResourceID string
	// Name is the entity's display name or order number, empty when the
	// entity could not be found.
	Name       string
	Actor      Session
	Details    map[string]string
	OccurredAt time.Time
}

// MutationSink receives mutation events synchronously, in mutation order.
type MutationSink interface {
	Record(ctx context.Context, ev MutationEvent)
}

// FetchState is the per-collection loading/error sub-state. Loading and
// LastError are independent signals: a failed fetch clears Loading, sets
// LastError and leaves the previous collection contents untouched.
type FetchState struct {
	Loading   bool      `json:"loading"`
	LastError string    `json:"last_error,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// UIState holds the shell flags. Flipping them has no other side effect.
type UIState struct {
	ActiveModule string `json:"active_module"`
	SidebarOpen  bool   `json:"sidebar_open"`
	Theme        string `json:"theme"`
}

// Store is the single source of truth for entity collections, fetch state,
// the session and the UI flags. All mutation funnels through its methods;
// accessors return copies, never aliased internals.
type Store struct {
	backend Backend
	now     func() time.Time
	newID   func() string

	mu            sync.RWMutex
	users         []User
	officines     []Officine
	products      []Product
	orders        []Order
	notifications []Notification
	stats         DashboardStats
	statsLoaded   bool
	fetch         map[string]*FetchState
	session       *Session
	ui            UIState

	sinkMu sync.RWMutex
	sinks  []MutationSink
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIDFunc overrides identity generation (tests).
func WithIDFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates an empty store over the given backend. Collections start empty
// and are populated wholesale by their fetch methods.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		newID:   ids.New,
		fetch: map[string]*FetchState{
			ColUsers:         {},
			ColOfficines:     {},
			ColProducts:      {},
			ColOrders:        {},
			ColNotifications: {},
			ColStats:         {},
		},
		ui: UIState{ActiveModule: "dashboard", SidebarOpen: true, Theme: "light"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddSink registers a mutation subscriber.
func (s *Store) AddSink(sink MutationSink) {
	if sink == nil {
		return
	}
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	s.sinks = append(s.sinks, sink)
}

func (s *Store) emit(ctx context.Context, ev MutationEvent) {
	s.sinkMu.RLock()
	sinks := make([]MutationSink, len(s.sinks))
	copy(sinks, s.sinks)
	s.sinkMu.RUnlock()
	for _, sink := range sinks {
		sink.Record(ctx, ev)
	}
}

// eventLocked builds a mutation event; the caller must hold s.mu so the
// actor snapshot is consistent with the mutation it describes.
func (s *Store) eventLocked(action Action, resource, id, name string, details map[string]string) MutationEvent {
	ev := MutationEvent{
		Action:     action,
		Resource:   resource,
		ResourceID: id,
		Name:       name,
		Details:    details,
		OccurredAt: s.now().UTC(),
	}
	if s.session != nil {
		ev.Actor = *s.session
	}
	return ev
}

// --- fetch plumbing ---

func (s *Store) beginFetch(col string) {
	s.mu.Lock()
	s.fetch[col].Loading = true
	s.mu.Unlock()
}

func (s *Store) failFetch(col string, err error) error {
	s.mu.Lock()
	st := s.fetch[col]
	st.Loading = false
	st.LastError = err.Error()
	s.mu.Unlock()
	obs.CountFetch(col, "error")
	return errors.Join(ErrBackend, fmt.Errorf("fetch %s: %w", col, err))
}

func (s *Store) endFetch(col string, size int) {
	s.mu.Lock()
	st := s.fetch[col]
	st.Loading = false
	st.LastError = ""
	st.FetchedAt = s.now().UTC()
	s.mu.Unlock()
	obs.CountFetch(col, "ok")
	if size >= 0 {
		obs.SetCollectionSize(col, size)
	}
}

// State reports the fetch state of a collection.
func (s *Store) State(col string) FetchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.fetch[col]; ok {
		return *st
	}
	return FetchState{}
}

func (s *Store) fetched(col string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.fetch[col]
	if !ok {
		return false
	}
	return st.Loading || !st.FetchedAt.IsZero()
}

// FetchUsers replaces the users collection from the backend.
func (s *Store) FetchUsers(ctx context.Context) error {
	s.beginFetch(ColUsers)
	list, err := s.backend.Users().List(ctx)
	if err != nil {
		return s.failFetch(ColUsers, err)
	}
	s.mu.Lock()
	s.users = list
	s.mu.Unlock()
	s.endFetch(ColUsers, len(list))
	return nil
}

// FetchOfficines replaces the officines collection from the backend.
func (s *Store) FetchOfficines(ctx context.Context) error {
	s.beginFetch(ColOfficines)
	list, err := s.backend.Officines().List(ctx)
	if err != nil {
		return s.failFetch(ColOfficines, err)
	}
	s.mu.Lock()
	s.officines = list
	s.mu.Unlock()
	s.endFetch(ColOfficines, len(list))
	return nil
}

// FetchProducts replaces the product catalogue from the backend.
func (s *Store) FetchProducts(ctx context.Context) error {
	s.beginFetch(ColProducts)
	list, err := s.backend.Products().List(ctx)
	if err != nil {
		return s.failFetch(ColProducts, err)
	}
	s.mu.Lock()
	s.products = list
	s.mu.Unlock()
	s.endFetch(ColProducts, len(list))
	return nil
}

// FetchOrders replaces the orders collection from the backend.
func (s *Store) FetchOrders(ctx context.Context) error {
	s.beginFetch(ColOrders)
	list, err := s.backend.Orders().List(ctx)
	if err != nil {
		return s.failFetch(ColOrders, err)
	}
	s.mu.Lock()
	s.orders = list
	s.mu.Unlock()
	s.endFetch(ColOrders, len(list))
	return nil
}

// FetchNotifications replaces the notifications collection from the backend.
func (s *Store) FetchNotifications(ctx context.Context) error {
	s.beginFetch(ColNotifications)
	list, err := s.backend.Notifications().List(ctx)
	if err != nil {
		return s.failFetch(ColNotifications, err)
	}
	s.mu.Lock()
	s.notifications = list
	s.mu.Unlock()
	s.endFetch(ColNotifications, len(list))
	return nil
}

// FetchStats refreshes the dashboard snapshot.
func (s *Store) FetchStats(ctx context.Context) error {
	s.beginFetch(ColStats)
	snap, err := s.backend.Stats().Snapshot(ctx)
	if err != nil {
		return s.failFetch(ColStats, err)
	}
	s.mu.Lock()
	s.stats = snap
	s.statsLoaded = true
	s.mu.Unlock()
	s.endFetch(ColStats, -1)
	return nil
}

// Ensure fetches a collection only if it has never been fetched. Used by
// read endpoints so first access populates lazily.
func (s *Store) Ensure(ctx context.Context, col string) error {
	if s.fetched(col) {
		return nil
	}
	switch col {
	case ColUsers:
		return s.FetchUsers(ctx)
	case ColOfficines:
		return s.FetchOfficines(ctx)
	case ColProducts:
		return s.FetchProducts(ctx)
	case ColOrders:
		return s.FetchOrders(ctx)
	case ColNotifications:
		return s.FetchNotifications(ctx)
	case ColStats:
		return s.FetchStats(ctx)
	default:
		return fmt.Errorf("%w: unknown collection %q", ErrValidation, col)
	}
}

// --- accessors (copies) ---

// Users returns a copy of the users collection.
func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, len(s.users))
	for i, u := range s.users {
		out[i] = copyUser(u)
	}
	return out
}

// Officines returns a copy of the officines collection.
func (s *Store) Officines() []Officine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Officine, len(s.officines))
	copy(out, s.officines)
	return out
}

// Products returns a copy of the product catalogue.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Orders returns a copy of the orders collection, items included.
func (s *Store) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = copyOrder(o)
	}
	return out
}

// Notifications returns a copy of the notifications collection.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// Stats returns the latest dashboard snapshot, if one was fetched.
func (s *Store) Stats() (DashboardStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, s.statsLoaded
}

func copyUser(u User) User {
	out := u
	out.Permissions = append([]string(nil), u.Permissions...)
	return out
}

func copyOrder(o Order) Order {
	out := o
	out.Items = append([]OrderItem(nil), o.Items...)
	return out
}

// --- session & UI ---

// SetSession records the authenticated operator. The auth gate is the only
// authority on who is logged in; the store never seeds a default.
func (s *Store) SetSession(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &sess
}

// ClearSession drops the session, restoring the anonymous state.
func (s *Store) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// Session returns the current session, if any.
func (s *Store) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// UI returns the current shell flags.
func (s *Store) UI() UIState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui
}

// SetActiveModule selects the shell module.
func (s *Store) SetActiveModule(module string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui.ActiveModule = module
}

// ToggleSidebar flips the sidebar flag and returns the new value.
func (s *Store) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ui.SidebarOpen = !s.ui.SidebarOpen
	return s.ui.SidebarOpen
}

// ToggleTheme switches between light and dark and returns the new theme.
func (s *Store) ToggleTheme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ui.Theme == "dark" {
		s.ui.Theme = "light"
	} else {
		s.ui.Theme = "dark"
	}
	return s.ui.Theme
}

// LogAction appends a free-form audit entry attributed to the current
// session. With no session it is a silent no-op.
func (s *Store) LogAction(ctx context.Context, action Action, resource, resourceID string, details map[string]string) {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess == nil {
		return
	}
	ev := MutationEvent{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Actor:      *sess,
		Details:    details,
		OccurredAt: s.now().UTC(),
	}
	s.emit(ctx, ev)
}

// --- helpers shared by the CRUD methods ---

func changedFields(fields []string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	sort.Strings(fields)
	return map[string]string{"fields": strings.Join(fields, ",")}
}

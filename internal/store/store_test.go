package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordedSink struct {
	mu     sync.Mutex
	events []MutationEvent
}

func (r *recordedSink) Record(_ context.Context, ev MutationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordedSink) all() []MutationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MutationEvent, len(r.events))
	copy(out, r.events)
	return out
}

// countingBackend wraps the simulated backend and counts List calls so
// tests can observe whether Ensure refetched.
type countingBackend struct {
	inner    *Simulated
	mu       sync.Mutex
	listErr  error
	listHits map[string]int
}

func newCountingBackend() *countingBackend {
	return &countingBackend{
		inner:    NewSimulated(WithLatencyScale(0)),
		listHits: make(map[string]int),
	}
}

func (c *countingBackend) hit(col string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listHits[col]++
	return c.listErr
}

func (c *countingBackend) hits(col string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listHits[col]
}

func (c *countingBackend) failLists(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listErr = err
}

type countingUsers struct{ c *countingBackend }

func (b countingUsers) List(ctx context.Context) ([]User, error) {
	if err := b.c.hit(ColUsers); err != nil {
		return nil, err
	}
	return b.c.inner.Users().List(ctx)
}
func (b countingUsers) Create(ctx context.Context, u User) error { return nil }
func (b countingUsers) Update(ctx context.Context, u User) error { return nil }
func (b countingUsers) Delete(ctx context.Context, id string) error {
	return nil
}

type countingProducts struct{ c *countingBackend }

func (b countingProducts) List(ctx context.Context) ([]Product, error) {
	if err := b.c.hit(ColProducts); err != nil {
		return nil, err
	}
	return b.c.inner.Products().List(ctx)
}
func (b countingProducts) Create(ctx context.Context, p Product) error { return nil }
func (b countingProducts) Update(ctx context.Context, p Product) error { return nil }
func (b countingProducts) Delete(ctx context.Context, id string) error { return nil }

func (c *countingBackend) Users() UserBackend                 { return countingUsers{c} }
func (c *countingBackend) Officines() OfficineBackend         { return c.inner.Officines() }
func (c *countingBackend) Products() ProductBackend           { return countingProducts{c} }
func (c *countingBackend) Orders() OrderBackend               { return c.inner.Orders() }
func (c *countingBackend) Notifications() NotificationBackend { return c.inner.Notifications() }
func (c *countingBackend) Stats() StatsBackend                { return c.inner.Stats() }

func newTestStore(t *testing.T) (*Store, *recordedSink) {
	t.Helper()
	st := New(NewSimulated(WithLatencyScale(0)))
	sink := &recordedSink{}
	st.AddSink(sink)
	return st, sink
}

func TestFetchPopulatesCollection(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if got := st.Products(); len(got) != 0 {
		t.Fatalf("expected empty catalogue before fetch, got %d", len(got))
	}
	if err := st.FetchProducts(ctx); err != nil {
		t.Fatalf("FetchProducts: %v", err)
	}
	products := st.Products()
	if len(products) != 6 {
		t.Fatalf("expected 6 demo products, got %d", len(products))
	}
	state := st.State(ColProducts)
	if state.Loading {
		t.Fatal("loading flag still set after fetch")
	}
	if state.FetchedAt.IsZero() {
		t.Fatal("FetchedAt not recorded")
	}
	if state.LastError != "" {
		t.Fatalf("unexpected fetch error: %s", state.LastError)
	}
}

func TestEnsureFetchesOnlyOnce(t *testing.T) {
	backend := newCountingBackend()
	st := New(backend)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := st.Ensure(ctx, ColUsers); err != nil {
			t.Fatalf("Ensure: %v", err)
		}
	}
	if got := backend.hits(ColUsers); got != 1 {
		t.Fatalf("expected exactly 1 backend list, got %d", got)
	}
}

func TestEnsureRejectsUnknownCollection(t *testing.T) {
	st, _ := newTestStore(t)

	err := st.Ensure(context.Background(), "bogus")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown collection, got %v", err)
	}
}

func TestRefetchIsIdempotent(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if err := st.FetchOfficines(ctx); err != nil {
		t.Fatalf("FetchOfficines: %v", err)
	}
	officines := st.Officines()
	if err := st.FetchOfficines(ctx); err != nil {
		t.Fatalf("second FetchOfficines: %v", err)
	}
	if !reflect.DeepEqual(officines, st.Officines()) {
		t.Fatal("refetching officines changed the collection")
	}

	if err := st.FetchProducts(ctx); err != nil {
		t.Fatalf("FetchProducts: %v", err)
	}
	products := st.Products()
	if err := st.FetchProducts(ctx); err != nil {
		t.Fatalf("second FetchProducts: %v", err)
	}
	if !reflect.DeepEqual(products, st.Products()) {
		t.Fatal("refetching products changed the collection")
	}
}

func TestFailedFetchKeepsPreviousData(t *testing.T) {
	backend := newCountingBackend()
	st := New(backend)
	ctx := context.Background()

	if err := st.FetchProducts(ctx); err != nil {
		t.Fatalf("initial fetch: %v", err)
	}
	before := st.Products()

	backend.failLists(errors.New("connection refused"))
	err := st.FetchProducts(ctx)
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}

	after := st.Products()
	if len(after) != len(before) {
		t.Fatalf("failed fetch changed collection: %d -> %d", len(before), len(after))
	}
	state := st.State(ColProducts)
	if state.Loading {
		t.Fatal("loading flag stuck after failed fetch")
	}
	if !strings.Contains(state.LastError, "connection refused") {
		t.Fatalf("LastError not recorded: %q", state.LastError)
	}
	if state.FetchedAt.IsZero() {
		t.Fatal("failed refetch erased the previous FetchedAt")
	}
}

func TestCRUDEmitsExactlyOneEventEach(t *testing.T) {
	st, sink := newTestStore(t)
	ctx := context.Background()
	st.SetSession(Session{UserID: "u1", Name: "Marie Lambert", Role: "Administrateur"})

	created, err := st.AddProduct(ctx, Product{Name: "Test 500 mg", CIP: "3400900000001", Category: "Tests", Manufacturer: "ACME", Price: 100})
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	price := int64(150)
	if _, err := st.UpdateProduct(ctx, created.ID, ProductPatch{Price: &price}); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if err := st.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}

	events := sink.all()
	if len(events) != 3 {
		t.Fatalf("expected 3 mutation events, got %d", len(events))
	}
	wantActions := []Action{ActionCreate, ActionUpdate, ActionDelete}
	for i, ev := range events {
		if ev.Action != wantActions[i] {
			t.Fatalf("event %d: action %s, want %s", i, ev.Action, wantActions[i])
		}
		if ev.Resource != ResourceProduct || ev.ResourceID != created.ID {
			t.Fatalf("event %d targets %s/%s", i, ev.Resource, ev.ResourceID)
		}
		if ev.Actor.Name != "Marie Lambert" {
			t.Fatalf("event %d actor %q", i, ev.Actor.Name)
		}
	}
	if events[1].Details["fields"] != "price" {
		t.Fatalf("update details = %v", events[1].Details)
	}
	if events[2].Name != "Test 500 mg" {
		t.Fatalf("delete event lost display name: %q", events[2].Name)
	}
}

func TestUpdateAdvancesOnlyUpdatedAt(t *testing.T) {
	current := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	st := New(NewSimulated(WithLatencyScale(0)), WithClock(func() time.Time { return current }))
	ctx := context.Background()

	created, err := st.AddProduct(ctx, Product{
		Name:         "Doliprane 500 mg",
		CIP:          "3400900000002",
		Category:     "Antalgiques",
		Manufacturer: "Sanofi",
		Price:        250,
		Stock:        40,
		Unit:         "boîte",
	})
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if !created.CreatedAt.Equal(current) || !created.UpdatedAt.Equal(current) {
		t.Fatalf("timestamps not taken from the clock: created %v, updated %v", created.CreatedAt, created.UpdatedAt)
	}

	current = current.Add(time.Minute)
	price := int64(275)
	updated, err := st.UpdateProduct(ctx, created.ID, ProductPatch{Price: &price})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("UpdatedAt did not advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("CreatedAt changed on update: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
	if updated.Price != 275 {
		t.Fatalf("price = %d, want 275", updated.Price)
	}
	if updated.Name != created.Name || updated.CIP != created.CIP ||
		updated.Stock != created.Stock || updated.Unit != created.Unit {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestShortIDStillYieldsOrderNumber(t *testing.T) {
	fixed := time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)
	st := New(NewSimulated(WithLatencyScale(0)),
		WithClock(func() time.Time { return fixed }),
		WithIDFunc(func() string { return "o1" }))

	created, err := st.AddOrder(context.Background(), Order{
		OfficineID: "off-1",
		Items:      []OrderItem{{ProductID: "p1", ProductName: "A", Quantity: 1, UnitPrice: 100}},
	})
	if err != nil {
		t.Fatalf("AddOrder: %v", err)
	}
	if created.Number != "CMD-2026-o1" {
		t.Fatalf("number = %q, want %q", created.Number, "CMD-2026-o1")
	}
}

func TestStatsSnapshotTimestamp(t *testing.T) {
	asOf := time.Date(2026, 5, 12, 7, 45, 0, 0, time.UTC)
	st := New(NewSimulated(WithLatencyScale(0), WithSimClock(func() time.Time { return asOf })))

	if err := st.FetchStats(context.Background()); err != nil {
		t.Fatalf("FetchStats: %v", err)
	}
	stats, ok := st.Stats()
	if !ok {
		t.Fatal("stats not loaded after fetch")
	}
	if !stats.AsOf.Equal(asOf) {
		t.Fatalf("AsOf = %v, want %v", stats.AsOf, asOf)
	}
}

func TestUpdateUnknownIDStillAudited(t *testing.T) {
	st, sink := newTestStore(t)
	ctx := context.Background()

	name := "Ghost"
	_, err := st.UpdateUser(ctx, "no-such-id", UserPatch{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event for the missing update, got %d", len(events))
	}
	if events[0].Details["missing"] != "true" {
		t.Fatalf("missing marker absent: %v", events[0].Details)
	}
	if events[0].Name != "" {
		t.Fatalf("missing entity should have no display name, got %q", events[0].Name)
	}
}

func TestDeleteUnknownIDStillAudited(t *testing.T) {
	st, sink := newTestStore(t)

	err := st.DeleteOrder(context.Background(), "no-such-order")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	events := sink.all()
	if len(events) != 1 || events[0].Action != ActionDelete {
		t.Fatalf("expected 1 DELETE event, got %+v", events)
	}
	if events[0].Details["missing"] != "true" {
		t.Fatalf("missing marker absent: %v", events[0].Details)
	}
}

func TestValidationFailureEmitsNothing(t *testing.T) {
	st, sink := newTestStore(t)
	ctx := context.Background()

	if _, err := st.AddProduct(ctx, Product{Name: "No CIP"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	bad := "teleported"
	if _, err := st.UpdateOrder(ctx, "any", OrderPatch{Status: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for status, got %v", err)
	}
	if got := sink.all(); len(got) != 0 {
		t.Fatalf("validation failures must not audit, got %d events", len(got))
	}
}

func TestAddOrderComputesTotals(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	st.SetSession(Session{UserID: "u1", Name: "Julien Caron"})

	created, err := st.AddOrder(ctx, Order{
		OfficineID: "off-1",
		Items: []OrderItem{
			{ProductID: "p1", ProductName: "A", Quantity: 3, UnitPrice: 200},
			{ProductID: "p2", ProductName: "B", Quantity: 2, UnitPrice: 150},
		},
	})
	if err != nil {
		t.Fatalf("AddOrder: %v", err)
	}
	if created.Total != 900 {
		t.Fatalf("total = %d, want 900", created.Total)
	}
	if created.Items[0].LineTotal != 600 || created.Items[1].LineTotal != 300 {
		t.Fatalf("line totals = %d, %d", created.Items[0].LineTotal, created.Items[1].LineTotal)
	}
	if created.Status != OrderPending {
		t.Fatalf("default status = %q", created.Status)
	}
	wantPrefix := fmt.Sprintf("CMD-%d-", time.Now().UTC().Year())
	if !strings.HasPrefix(created.Number, wantPrefix) {
		t.Fatalf("number %q lacks prefix %q", created.Number, wantPrefix)
	}
	if created.CreatedBy != "Julien Caron" {
		t.Fatalf("CreatedBy = %q", created.CreatedBy)
	}
}

func TestDeleteOfficineDoesNotCascade(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if err := st.FetchOfficines(ctx); err != nil {
		t.Fatalf("FetchOfficines: %v", err)
	}
	if err := st.FetchOrders(ctx); err != nil {
		t.Fatalf("FetchOrders: %v", err)
	}
	officines := st.Officines()
	target := officines[0].ID

	var referencing int
	for _, o := range st.Orders() {
		if o.OfficineID == target {
			referencing++
		}
	}
	if referencing == 0 {
		t.Fatal("demo data has no order referencing the first officine")
	}

	if err := st.DeleteOfficine(ctx, target); err != nil {
		t.Fatalf("DeleteOfficine: %v", err)
	}
	var after int
	for _, o := range st.Orders() {
		if o.OfficineID == target {
			after++
		}
	}
	if after != referencing {
		t.Fatalf("delete cascaded into orders: %d -> %d", referencing, after)
	}
}

func TestNotificationsAreNeverAudited(t *testing.T) {
	st, sink := newTestStore(t)
	ctx := context.Background()
	st.SetSession(Session{UserID: "u1", Name: "Marie Lambert"})

	n, err := st.AddNotification(ctx, Notification{Title: "Stock faible", Type: "warning"})
	if err != nil {
		t.Fatalf("AddNotification: %v", err)
	}
	if err := st.MarkNotificationRead(ctx, n.ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if err := st.DeleteNotification(ctx, n.ID); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}
	if got := sink.all(); len(got) != 0 {
		t.Fatalf("notification lifecycle produced %d audit events", len(got))
	}
}

func TestMarkNotificationReadFlipsOnlyFlag(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if err := st.FetchNotifications(ctx); err != nil {
		t.Fatalf("FetchNotifications: %v", err)
	}
	before := st.Notifications()[0]
	if before.Read {
		t.Fatal("demo notification already read")
	}
	if err := st.MarkNotificationRead(ctx, before.ID); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	var after Notification
	for _, n := range st.Notifications() {
		if n.ID == before.ID {
			after = n
		}
	}
	if !after.Read {
		t.Fatal("read flag not set")
	}
	if after.Title != before.Title || after.Message != before.Message {
		t.Fatal("content changed while marking read")
	}
}

func TestLogActionWithoutSessionIsNoop(t *testing.T) {
	st, sink := newTestStore(t)

	st.LogAction(context.Background(), ActionUpdate, "report", "r1", nil)
	if got := sink.all(); len(got) != 0 {
		t.Fatalf("expected no events without a session, got %d", len(got))
	}

	st.SetSession(Session{UserID: "u1", Name: "Marie Lambert"})
	st.LogAction(context.Background(), ActionUpdate, "report", "r1", map[string]string{"export": "csv"})
	events := sink.all()
	if len(events) != 1 || events[0].Actor.Name != "Marie Lambert" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestUIToggles(t *testing.T) {
	st, _ := newTestStore(t)

	ui := st.UI()
	if ui.ActiveModule != "dashboard" || !ui.SidebarOpen || ui.Theme != "light" {
		t.Fatalf("unexpected defaults: %+v", ui)
	}
	if open := st.ToggleSidebar(); open {
		t.Fatal("sidebar should close on first toggle")
	}
	if theme := st.ToggleTheme(); theme != "dark" {
		t.Fatalf("theme = %q after toggle", theme)
	}
	if theme := st.ToggleTheme(); theme != "light" {
		t.Fatalf("theme = %q after second toggle", theme)
	}
	st.SetActiveModule("orders")
	if st.UI().ActiveModule != "orders" {
		t.Fatalf("active module = %q", st.UI().ActiveModule)
	}
}

func TestSessionLifecycle(t *testing.T) {
	st, _ := newTestStore(t)

	if _, ok := st.Session(); ok {
		t.Fatal("fresh store should have no session")
	}
	st.SetSession(Session{UserID: "u1", Name: "Marie Lambert", Role: "Administrateur"})
	sess, ok := st.Session()
	if !ok || sess.Role != "Administrateur" {
		t.Fatalf("session = %+v, ok = %v", sess, ok)
	}
	st.ClearSession()
	if _, ok := st.Session(); ok {
		t.Fatal("session survived ClearSession")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	if err := st.FetchOrders(ctx); err != nil {
		t.Fatalf("FetchOrders: %v", err)
	}
	got := st.Orders()
	got[0].Items[0].Quantity = 99999
	got[0].Status = "mangled"

	fresh := st.Orders()
	if fresh[0].Items[0].Quantity == 99999 || fresh[0].Status == "mangled" {
		t.Fatal("accessor leaked internal state")
	}
}

func TestConcurrentMutations(t *testing.T) {
	st, sink := newTestStore(t)
	ctx := context.Background()
	st.SetSession(Session{UserID: "u1", Name: "Marie Lambert"})

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.AddProduct(ctx, Product{
				Name:         fmt.Sprintf("Produit %d", i),
				CIP:          fmt.Sprintf("34009%08d", i),
				Category:     "Tests",
				Manufacturer: "ACME",
				Price:        int64(100 + i),
			})
			if err != nil {
				t.Errorf("AddProduct %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	if got := len(st.Products()); got != workers {
		t.Fatalf("expected %d products, got %d", workers, got)
	}
	if got := len(sink.all()); got != workers {
		t.Fatalf("expected %d events, got %d", workers, got)
	}
}

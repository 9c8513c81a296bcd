package store

import (
	"context"
	"errors"
	"fmt"

	"pharmadesk.org/internal/obs"
)

// Entity resource names used in audit entries and mutation events.
const (
	ResourceUser         = "user"
	ResourceOfficine     = "officine"
	ResourceProduct      = "product"
	ResourceOrder        = "order"
	ResourceNotification = "notification"
)

func backendErr(op string, err error) error {
	return errors.Join(ErrBackend, fmt.Errorf("%s: %w", op, err))
}

// --- users ---

// AddUser creates an operator account. Identity and timestamps on the input
// are ignored and synthesized here.
func (s *Store) AddUser(ctx context.Context, u User) (User, error) {
	if u.Name == "" || u.Email == "" {
		return User{}, fmt.Errorf("%w: user name and email are required", ErrValidation)
	}
	now := s.now().UTC()
	u.ID = s.newID()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Status == "" {
		u.Status = "active"
	}
	if err := s.backend.Users().Create(ctx, u); err != nil {
		return User{}, backendErr("create user", err)
	}

	s.mu.Lock()
	s.users = append(s.users, copyUser(u))
	ev := s.eventLocked(ActionCreate, ResourceUser, u.ID, u.Name, map[string]string{"email": u.Email})
	size := len(s.users)
	s.mu.Unlock()

	obs.SetCollectionSize(ColUsers, size)
	s.emit(ctx, ev)
	return u, nil
}

// UserPatch is a shallow-merge update: nil fields are left unchanged.
type UserPatch struct {
	Name        *string      `json:"name,omitempty"`
	Email       *string      `json:"email,omitempty"`
	Role        *string      `json:"role,omitempty"`
	Phone       *string      `json:"phone,omitempty"`
	Status      *string      `json:"status,omitempty"`
	Permissions *[]string    `json:"permissions,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// UpdateUser merges the patch over the stored user. The UPDATE audit entry
// is appended whether or not the id exists; an unknown id additionally
// returns ErrNotFound and leaves the collection unchanged.
func (s *Store) UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.users {
		if s.users[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		ev := s.eventLocked(ActionUpdate, ResourceUser, id, "", map[string]string{"missing": "true"})
		s.mu.Unlock()
		s.emit(ctx, ev)
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	merged := copyUser(s.users[idx])
	var fields []string
	if patch.Name != nil {
		merged.Name = *patch.Name
		fields = append(fields, "name")
	}
	if patch.Email != nil {
		merged.Email = *patch.Email
		fields = append(fields, "email")
	}
	if patch.Role != nil {
		merged.Role = *patch.Role
		fields = append(fields, "role")
	}
	if patch.Phone != nil {
		merged.Phone = *patch.Phone
		fields = append(fields, "phone")
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
		fields = append(fields, "status")
	}
	if patch.Permissions != nil {
		merged.Permissions = append([]string(nil), (*patch.Permissions)...)
		fields = append(fields, "permissions")
	}
	if patch.Preferences != nil {
		merged.Preferences = *patch.Preferences
		fields = append(fields, "preferences")
	}
	merged.UpdatedAt = s.now().UTC()
	s.mu.Unlock()

	if err := s.backend.Users().Update(ctx, merged); err != nil {
		return User{}, backendErr("update user", err)
	}

	s.mu.Lock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i] = copyUser(merged)
			break
		}
	}
	ev := s.eventLocked(ActionUpdate, ResourceUser, id, merged.Name, changedFields(fields))
	s.mu.Unlock()
	s.emit(ctx, ev)
	return merged, nil
}

// DeleteUser removes the user. The DELETE audit entry is appended whether or
// not the id exists; the entry carries the display name only when it does.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.deleteEntity(ctx, ResourceUser, id)
}

// --- officines ---

// AddOfficine registers a pharmacy client site.
func (s *Store) AddOfficine(ctx context.Context, o Officine) (Officine, error) {
	if o.Name == "" {
		return Officine{}, fmt.Errorf("%w: officine name is required", ErrValidation)
	}
	now := s.now().UTC()
	o.ID = s.newID()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = "active"
	}
	if err := s.backend.Officines().Create(ctx, o); err != nil {
		return Officine{}, backendErr("create officine", err)
	}

	s.mu.Lock()
	s.officines = append(s.officines, o)
	ev := s.eventLocked(ActionCreate, ResourceOfficine, o.ID, o.Name, map[string]string{"city": o.City})
	size := len(s.officines)
	s.mu.Unlock()

	obs.SetCollectionSize(ColOfficines, size)
	s.emit(ctx, ev)
	return o, nil
}

// OfficinePatch is a shallow-merge update for an officine.
type OfficinePatch struct {
	Name         *string `json:"name,omitempty"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	PostalCode   *string `json:"postal_code,omitempty"`
	Registration *string `json:"registration,omitempty"`
	Status       *string `json:"status,omitempty"`
	ContactName  *string `json:"contact_name,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
}

// UpdateOfficine merges the patch over the stored officine.
func (s *Store) UpdateOfficine(ctx context.Context, id string, patch OfficinePatch) (Officine, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.officines {
		if s.officines[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		ev := s.eventLocked(ActionUpdate, ResourceOfficine, id, "", map[string]string{"missing": "true"})
		s.mu.Unlock()
		s.emit(ctx, ev)
		return Officine{}, fmt.Errorf("%w: officine %s", ErrNotFound, id)
	}
	merged := s.officines[idx]
	var fields []string
	if patch.Name != nil {
		merged.Name = *patch.Name
		fields = append(fields, "name")
	}
	if patch.Address != nil {
		merged.Address = *patch.Address
		fields = append(fields, "address")
	}
	if patch.City != nil {
		merged.City = *patch.City
		fields = append(fields, "city")
	}
	if patch.PostalCode != nil {
		merged.PostalCode = *patch.PostalCode
		fields = append(fields, "postal_code")
	}
	if patch.Registration != nil {
		merged.Registration = *patch.Registration
		fields = append(fields, "registration")
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
		fields = append(fields, "status")
	}
	if patch.ContactName != nil {
		merged.ContactName = *patch.ContactName
		fields = append(fields, "contact_name")
	}
	if patch.ContactPhone != nil {
		merged.ContactPhone = *patch.ContactPhone
		fields = append(fields, "contact_phone")
	}
	merged.UpdatedAt = s.now().UTC()
	s.mu.Unlock()

	if err := s.backend.Officines().Update(ctx, merged); err != nil {
		return Officine{}, backendErr("update officine", err)
	}

	s.mu.Lock()
	for i := range s.officines {
		if s.officines[i].ID == id {
			s.officines[i] = merged
			break
		}
	}
	ev := s.eventLocked(ActionUpdate, ResourceOfficine, id, merged.Name, changedFields(fields))
	s.mu.Unlock()
	s.emit(ctx, ev)
	return merged, nil
}

// DeleteOfficine removes the officine. Orders referencing it keep their
// officine_id: the reference is weak, nothing cascades.
func (s *Store) DeleteOfficine(ctx context.Context, id string) error {
	return s.deleteEntity(ctx, ResourceOfficine, id)
}

// --- products ---

// AddProduct creates a catalogue entry.
func (s *Store) AddProduct(ctx context.Context, p Product) (Product, error) {
	switch {
	case p.Name == "" || p.CIP == "":
		return Product{}, fmt.Errorf("%w: product name and CIP are required", ErrValidation)
	case p.Price < 0:
		return Product{}, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	case p.Stock < 0 || p.MinStock < 0 || p.MaxStock < 0:
		return Product{}, fmt.Errorf("%w: stock quantities must be >= 0", ErrValidation)
	}
	now := s.now().UTC()
	p.ID = s.newID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = "available"
	}
	if err := s.backend.Products().Create(ctx, p); err != nil {
		return Product{}, backendErr("create product", err)
	}

	s.mu.Lock()
	s.products = append(s.products, p)
	ev := s.eventLocked(ActionCreate, ResourceProduct, p.ID, p.Name, map[string]string{"cip": p.CIP})
	size := len(s.products)
	s.mu.Unlock()

	obs.SetCollectionSize(ColProducts, size)
	s.emit(ctx, ev)
	return p, nil
}

// ProductPatch is a shallow-merge update for a catalogue entry.
type ProductPatch struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	Manufacturer *string `json:"manufacturer,omitempty"`
	Price        *int64  `json:"price,omitempty"`
	Stock        *int    `json:"stock,omitempty"`
	MinStock     *int    `json:"min_stock,omitempty"`
	MaxStock     *int    `json:"max_stock,omitempty"`
	Unit         *string `json:"unit,omitempty"`
	Status       *string `json:"status,omitempty"`
	Batch        *string `json:"batch,omitempty"`
}

// UpdateProduct merges the patch over the stored product. Historical order
// items keep their price/name snapshots regardless.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	if patch.Price != nil && *patch.Price < 0 {
		return Product{}, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	s.mu.Lock()
	idx := -1
	for i := range s.products {
		if s.products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		ev := s.eventLocked(ActionUpdate, ResourceProduct, id, "", map[string]string{"missing": "true"})
		s.mu.Unlock()
		s.emit(ctx, ev)
		return Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	merged := s.products[idx]
	var fields []string
	if patch.Name != nil {
		merged.Name = *patch.Name
		fields = append(fields, "name")
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
		fields = append(fields, "description")
	}
	if patch.Category != nil {
		merged.Category = *patch.Category
		fields = append(fields, "category")
	}
	if patch.Manufacturer != nil {
		merged.Manufacturer = *patch.Manufacturer
		fields = append(fields, "manufacturer")
	}
	if patch.Price != nil {
		merged.Price = *patch.Price
		fields = append(fields, "price")
	}
	if patch.Stock != nil {
		merged.Stock = *patch.Stock
		fields = append(fields, "stock")
	}
	if patch.MinStock != nil {
		merged.MinStock = *patch.MinStock
		fields = append(fields, "min_stock")
	}
	if patch.MaxStock != nil {
		merged.MaxStock = *patch.MaxStock
		fields = append(fields, "max_stock")
	}
	if patch.Unit != nil {
		merged.Unit = *patch.Unit
		fields = append(fields, "unit")
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
		fields = append(fields, "status")
	}
	if patch.Batch != nil {
		merged.Batch = *patch.Batch
		fields = append(fields, "batch")
	}
	merged.UpdatedAt = s.now().UTC()
	s.mu.Unlock()

	if err := s.backend.Products().Update(ctx, merged); err != nil {
		return Product{}, backendErr("update product", err)
	}

	s.mu.Lock()
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i] = merged
			break
		}
	}
	ev := s.eventLocked(ActionUpdate, ResourceProduct, id, merged.Name, changedFields(fields))
	s.mu.Unlock()
	s.emit(ctx, ev)
	return merged, nil
}

// DeleteProduct removes the catalogue entry.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.deleteEntity(ctx, ResourceProduct, id)
}

// --- orders ---

// AddOrder creates an order. Line totals and the aggregate total are
// computed here; product name, CIP and unit price on each item are treated
// as snapshots and stored as given.
func (s *Store) AddOrder(ctx context.Context, o Order) (Order, error) {
	if o.OfficineID == "" {
		return Order{}, fmt.Errorf("%w: officine_id is required", ErrValidation)
	}
	if len(o.Items) == 0 {
		return Order{}, fmt.Errorf("%w: an order needs at least one item", ErrValidation)
	}
	var total int64
	for i := range o.Items {
		it := &o.Items[i]
		if it.ProductID == "" {
			return Order{}, fmt.Errorf("%w: item %d: product_id is required", ErrValidation, i)
		}
		if it.Quantity <= 0 {
			return Order{}, fmt.Errorf("%w: item %d: quantity must be > 0", ErrValidation, i)
		}
		if it.UnitPrice < 0 {
			return Order{}, fmt.Errorf("%w: item %d: unit_price must be >= 0", ErrValidation, i)
		}
		it.LineTotal = int64(it.Quantity) * it.UnitPrice
		total += it.LineTotal
	}
	now := s.now().UTC()
	o.ID = s.newID()
	o.Total = total
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = OrderPending
	}
	if o.Number == "" {
		suffix := o.ID
		if n := len(suffix); n > 6 {
			suffix = suffix[n-6:]
		}
		o.Number = fmt.Sprintf("CMD-%d-%s", now.Year(), suffix)
	}
	s.mu.RLock()
	if o.CreatedBy == "" && s.session != nil {
		o.CreatedBy = s.session.Name
	}
	s.mu.RUnlock()

	if err := s.backend.Orders().Create(ctx, o); err != nil {
		return Order{}, backendErr("create order", err)
	}

	s.mu.Lock()
	s.orders = append(s.orders, copyOrder(o))
	ev := s.eventLocked(ActionCreate, ResourceOrder, o.ID, o.Number, map[string]string{
		"officine_id": o.OfficineID,
		"total":       fmt.Sprintf("%d", o.Total),
	})
	size := len(s.orders)
	s.mu.Unlock()

	obs.SetCollectionSize(ColOrders, size)
	s.emit(ctx, ev)
	return o, nil
}

// OrderPatch is a shallow-merge update for an order. Items are replaced
// wholesale when present; they are owned by the order, never shared.
type OrderPatch struct {
	Status   *string      `json:"status,omitempty"`
	Priority *string      `json:"priority,omitempty"`
	Notes    *string      `json:"notes,omitempty"`
	Items    *[]OrderItem `json:"items,omitempty"`
}

var orderStatuses = map[string]bool{
	OrderPending:    true,
	OrderProcessing: true,
	OrderShipped:    true,
	OrderDelivered:  true,
}

// UpdateOrder merges the patch over the stored order and recomputes totals
// when items change.
func (s *Store) UpdateOrder(ctx context.Context, id string, patch OrderPatch) (Order, error) {
	if patch.Status != nil && !orderStatuses[*patch.Status] {
		return Order{}, fmt.Errorf("%w: unknown order status %q", ErrValidation, *patch.Status)
	}
	s.mu.Lock()
	idx := -1
	for i := range s.orders {
		if s.orders[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		ev := s.eventLocked(ActionUpdate, ResourceOrder, id, "", map[string]string{"missing": "true"})
		s.mu.Unlock()
		s.emit(ctx, ev)
		return Order{}, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	merged := copyOrder(s.orders[idx])
	var fields []string
	if patch.Status != nil {
		merged.Status = *patch.Status
		fields = append(fields, "status")
	}
	if patch.Priority != nil {
		merged.Priority = *patch.Priority
		fields = append(fields, "priority")
	}
	if patch.Notes != nil {
		merged.Notes = *patch.Notes
		fields = append(fields, "notes")
	}
	if patch.Items != nil {
		items := append([]OrderItem(nil), (*patch.Items)...)
		var total int64
		for i := range items {
			items[i].LineTotal = int64(items[i].Quantity) * items[i].UnitPrice
			total += items[i].LineTotal
		}
		merged.Items = items
		merged.Total = total
		fields = append(fields, "items")
	}
	merged.UpdatedAt = s.now().UTC()
	s.mu.Unlock()

	if err := s.backend.Orders().Update(ctx, merged); err != nil {
		return Order{}, backendErr("update order", err)
	}

	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i] = copyOrder(merged)
			break
		}
	}
	ev := s.eventLocked(ActionUpdate, ResourceOrder, id, merged.Number, changedFields(fields))
	s.mu.Unlock()
	s.emit(ctx, ev)
	return merged, nil
}

// DeleteOrder removes the order and its embedded items.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return s.deleteEntity(ctx, ResourceOrder, id)
}

// deleteEntity is the shared delete path: the backend confirms first, local
// state mutates after, and the DELETE audit entry is appended either way.
func (s *Store) deleteEntity(ctx context.Context, resource, id string) error {
	s.mu.Lock()
	name, found := s.displayNameLocked(resource, id)
	if !found {
		ev := s.eventLocked(ActionDelete, resource, id, "", map[string]string{"missing": "true"})
		s.mu.Unlock()
		s.emit(ctx, ev)
		return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
	}
	s.mu.Unlock()

	if err := s.backendDelete(ctx, resource, id); err != nil {
		return backendErr("delete "+resource, err)
	}

	s.mu.Lock()
	var size int
	switch resource {
	case ResourceUser:
		s.users = removeByID(s.users, id, func(u User) string { return u.ID })
		size = len(s.users)
	case ResourceOfficine:
		s.officines = removeByID(s.officines, id, func(o Officine) string { return o.ID })
		size = len(s.officines)
	case ResourceProduct:
		s.products = removeByID(s.products, id, func(p Product) string { return p.ID })
		size = len(s.products)
	case ResourceOrder:
		s.orders = removeByID(s.orders, id, func(o Order) string { return o.ID })
		size = len(s.orders)
	}
	ev := s.eventLocked(ActionDelete, resource, id, name, nil)
	s.mu.Unlock()

	obs.SetCollectionSize(collectionFor(resource), size)
	s.emit(ctx, ev)
	return nil
}

func (s *Store) displayNameLocked(resource, id string) (string, bool) {
	switch resource {
	case ResourceUser:
		for i := range s.users {
			if s.users[i].ID == id {
				return s.users[i].Name, true
			}
		}
	case ResourceOfficine:
		for i := range s.officines {
			if s.officines[i].ID == id {
				return s.officines[i].Name, true
			}
		}
	case ResourceProduct:
		for i := range s.products {
			if s.products[i].ID == id {
				return s.products[i].Name, true
			}
		}
	case ResourceOrder:
		for i := range s.orders {
			if s.orders[i].ID == id {
				return s.orders[i].Number, true
			}
		}
	}
	return "", false
}

func collectionFor(resource string) string {
	switch resource {
	case ResourceUser:
		return ColUsers
	case ResourceOfficine:
		return ColOfficines
	case ResourceProduct:
		return ColProducts
	case ResourceOrder:
		return ColOrders
	default:
		return ColNotifications
	}
}

func removeByID[T any](list []T, id string, key func(T) string) []T {
	for i := range list {
		if key(list[i]) == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func (s *Store) backendDelete(ctx context.Context, resource, id string) error {
	switch resource {
	case ResourceUser:
		return s.backend.Users().Delete(ctx, id)
	case ResourceOfficine:
		return s.backend.Officines().Delete(ctx, id)
	case ResourceProduct:
		return s.backend.Products().Delete(ctx, id)
	case ResourceOrder:
		return s.backend.Orders().Delete(ctx, id)
	default:
		return nil
	}
}

// --- notifications (operational, never audited) ---

// AddNotification appends an operational notification.
func (s *Store) AddNotification(ctx context.Context, n Notification) (Notification, error) {
	if n.Title == "" {
		return Notification{}, fmt.Errorf("%w: notification title is required", ErrValidation)
	}
	if n.Type == "" {
		n.Type = "info"
	}
	n.ID = s.newID()
	n.Read = false
	n.CreatedAt = s.now().UTC()
	if err := s.backend.Notifications().Create(ctx, n); err != nil {
		return Notification{}, backendErr("create notification", err)
	}
	s.mu.Lock()
	s.notifications = append(s.notifications, n)
	size := len(s.notifications)
	s.mu.Unlock()
	obs.SetCollectionSize(ColNotifications, size)
	return n, nil
}

// MarkNotificationRead flips the read flag. Content is never edited in place.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	updated := s.notifications[idx]
	updated.Read = true
	s.mu.Unlock()

	if err := s.backend.Notifications().Update(ctx, updated); err != nil {
		return backendErr("update notification", err)
	}
	s.mu.Lock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i] = updated
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// DeleteNotification removes the notification.
func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	s.mu.Unlock()

	if err := s.backend.Notifications().Delete(ctx, id); err != nil {
		return backendErr("delete notification", err)
	}

	s.mu.Lock()
	s.notifications = removeByID(s.notifications, id, func(n Notification) string { return n.ID })
	size := len(s.notifications)
	s.mu.Unlock()
	obs.SetCollectionSize(ColNotifications, size)
	return nil
}

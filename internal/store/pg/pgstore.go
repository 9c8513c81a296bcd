// Package pg is the Postgres implementation of store.Backend. Orders carry
// their items as a jsonb column so an order row round-trips as one unit.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pharmadesk.org/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Backend = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle (tests use sqlmock here).
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users() store.UserBackend                 { return users{s.db} }
func (s *Store) Officines() store.OfficineBackend         { return officines{s.db} }
func (s *Store) Products() store.ProductBackend           { return products{s.db} }
func (s *Store) Orders() store.OrderBackend               { return orders{s.db} }
func (s *Store) Notifications() store.NotificationBackend { return notifications{s.db} }
func (s *Store) Stats() store.StatsBackend                { return stats{s.db} }

// --- users ---

type users struct{ db *sql.DB }

func (b users) List(ctx context.Context) ([]store.User, error) {
	rows, err := b.db.QueryContext(ctx, `
		select id, name, email, role, phone, status, permissions, preferences, created_at, updated_at
		from users order by created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []store.User
	for rows.Next() {
		var u store.User
		var perms, prefs []byte
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Phone, &u.Status, &perms, &prefs, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if len(perms) > 0 {
			if err := json.Unmarshal(perms, &u.Permissions); err != nil {
				return nil, fmt.Errorf("decode permissions for %s: %w", u.ID, err)
			}
		}
		if len(prefs) > 0 {
			if err := json.Unmarshal(prefs, &u.Preferences); err != nil {
				return nil, fmt.Errorf("decode preferences for %s: %w", u.ID, err)
			}
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (b users) Create(ctx context.Context, u store.User) error {
	perms, err := json.Marshal(u.Permissions)
	if err != nil {
		return err
	}
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
		insert into users(id, name, email, role, phone, status, permissions, preferences, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, u.ID, u.Name, u.Email, u.Role, u.Phone, u.Status, perms, prefs, u.CreatedAt, u.UpdatedAt)
	return err
}

func (b users) Update(ctx context.Context, u store.User) error {
	perms, err := json.Marshal(u.Permissions)
	if err != nil {
		return err
	}
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, `
		update users set name=$2, email=$3, role=$4, phone=$5, status=$6, permissions=$7, preferences=$8, updated_at=$9
		where id=$1
	`, u.ID, u.Name, u.Email, u.Role, u.Phone, u.Status, perms, prefs, u.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (b users) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// --- officines ---

type officines struct{ db *sql.DB }

func (b officines) List(ctx context.Context) ([]store.Officine, error) {
	rows, err := b.db.QueryContext(ctx, `
		select id, name, address, city, postal_code, registration, status,
		       contact_name, contact_phone, last_order_at, total_orders, total_amount,
		       created_at, updated_at
		from officines order by created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []store.Officine
	for rows.Next() {
		var o store.Officine
		var lastOrder sql.NullTime
		if err := rows.Scan(&o.ID, &o.Name, &o.Address, &o.City, &o.PostalCode, &o.Registration, &o.Status,
			&o.ContactName, &o.ContactPhone, &lastOrder, &o.TotalOrders, &o.TotalAmount,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if lastOrder.Valid {
			o.LastOrderAt = lastOrder.Time
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

func (b officines) Create(ctx context.Context, o store.Officine) error {
	_, err := b.db.ExecContext(ctx, `
		insert into officines(id, name, address, city, postal_code, registration, status,
		                      contact_name, contact_phone, last_order_at, total_orders, total_amount,
		                      created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, o.ID, o.Name, o.Address, o.City, o.PostalCode, o.Registration, o.Status,
		o.ContactName, o.ContactPhone, nullTime(o.LastOrderAt), o.TotalOrders, o.TotalAmount,
		o.CreatedAt, o.UpdatedAt)
	return err
}

func (b officines) Update(ctx context.Context, o store.Officine) error {
	res, err := b.db.ExecContext(ctx, `
		update officines set name=$2, address=$3, city=$4, postal_code=$5, registration=$6, status=$7,
		       contact_name=$8, contact_phone=$9, last_order_at=$10, total_orders=$11, total_amount=$12,
		       updated_at=$13
		where id=$1
	`, o.ID, o.Name, o.Address, o.City, o.PostalCode, o.Registration, o.Status,
		o.ContactName, o.ContactPhone, nullTime(o.LastOrderAt), o.TotalOrders, o.TotalAmount,
		o.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (b officines) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `delete from officines where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// --- products ---

type products struct{ db *sql.DB }

func (b products) List(ctx context.Context) ([]store.Product, error) {
	rows, err := b.db.QueryContext(ctx, `
		select id, cip, name, description, category, manufacturer, price,
		       stock, min_stock, max_stock, unit, status, controlled, expires_at, batch,
		       created_at, updated_at
		from products order by created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []store.Product
	for rows.Next() {
		var p store.Product
		var expires sql.NullTime
		if err := rows.Scan(&p.ID, &p.CIP, &p.Name, &p.Description, &p.Category, &p.Manufacturer, &p.Price,
			&p.Stock, &p.MinStock, &p.MaxStock, &p.Unit, &p.Status, &p.Controlled, &expires, &p.Batch,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if expires.Valid {
			p.ExpiresAt = expires.Time
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (b products) Create(ctx context.Context, p store.Product) error {
	_, err := b.db.ExecContext(ctx, `
		insert into products(id, cip, name, description, category, manufacturer, price,
		                     stock, min_stock, max_stock, unit, status, controlled, expires_at, batch,
		                     created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, p.ID, p.CIP, p.Name, p.Description, p.Category, p.Manufacturer, p.Price,
		p.Stock, p.MinStock, p.MaxStock, p.Unit, p.Status, p.Controlled, nullTime(p.ExpiresAt), p.Batch,
		p.CreatedAt, p.UpdatedAt)
	return err
}

func (b products) Update(ctx context.Context, p store.Product) error {
	res, err := b.db.ExecContext(ctx, `
		update products set cip=$2, name=$3, description=$4, category=$5, manufacturer=$6, price=$7,
		       stock=$8, min_stock=$9, max_stock=$10, unit=$11, status=$12, controlled=$13,
		       expires_at=$14, batch=$15, updated_at=$16
		where id=$1
	`, p.ID, p.CIP, p.Name, p.Description, p.Category, p.Manufacturer, p.Price,
		p.Stock, p.MinStock, p.MaxStock, p.Unit, p.Status, p.Controlled,
		nullTime(p.ExpiresAt), p.Batch, p.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (b products) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `delete from products where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// --- orders ---

type orders struct{ db *sql.DB }

func (b orders) List(ctx context.Context) ([]store.Order, error) {
	rows, err := b.db.QueryContext(ctx, `
		select id, number, officine_id, status, priority, items, total, notes, created_by, created_at, updated_at
		from orders order by created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []store.Order
	for rows.Next() {
		var o store.Order
		var items []byte
		if err := rows.Scan(&o.ID, &o.Number, &o.OfficineID, &o.Status, &o.Priority, &items, &o.Total,
			&o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if len(items) > 0 {
			if err := json.Unmarshal(items, &o.Items); err != nil {
				return nil, fmt.Errorf("decode items for %s: %w", o.ID, err)
			}
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

func (b orders) Create(ctx context.Context, o store.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, `
		insert into orders(id, number, officine_id, status, priority, items, total, notes, created_by, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, o.ID, o.Number, o.OfficineID, o.Status, o.Priority, items, o.Total, o.Notes, o.CreatedBy, o.CreatedAt, o.UpdatedAt)
	return err
}

func (b orders) Update(ctx context.Context, o store.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, `
		update orders set status=$2, priority=$3, items=$4, total=$5, notes=$6, updated_at=$7
		where id=$1
	`, o.ID, o.Status, o.Priority, items, o.Total, o.Notes, o.UpdatedAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (b orders) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `delete from orders where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// --- notifications ---

type notifications struct{ db *sql.DB }

func (b notifications) List(ctx context.Context) ([]store.Notification, error) {
	rows, err := b.db.QueryContext(ctx, `
		select id, type, title, message, user_id, broadcast, priority, read, created_at
		from notifications order by created_at desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []store.Notification
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.UserID, &n.Broadcast, &n.Priority, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (b notifications) Create(ctx context.Context, n store.Notification) error {
	_, err := b.db.ExecContext(ctx, `
		insert into notifications(id, type, title, message, user_id, broadcast, priority, read, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, n.ID, n.Type, n.Title, n.Message, n.UserID, n.Broadcast, n.Priority, n.Read, n.CreatedAt)
	return err
}

func (b notifications) Update(ctx context.Context, n store.Notification) error {
	res, err := b.db.ExecContext(ctx, `update notifications set read=$2 where id=$1`, n.ID, n.Read)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (b notifications) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `delete from notifications where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// --- stats ---

type stats struct{ db *sql.DB }

func (b stats) Snapshot(ctx context.Context) (store.DashboardStats, error) {
	var st store.DashboardStats
	err := b.db.QueryRowContext(ctx, `
		select
			(select count(*) from orders),
			(select count(*) from orders where status = 'pending'),
			(select count(*) from officines),
			(select count(*) from products),
			(select count(*) from products where stock <= min_stock),
			(select coalesce(sum(total),0) from orders where status <> 'pending')
	`).Scan(&st.Orders, &st.PendingOrders, &st.Officines, &st.Products, &st.LowStock, &st.Revenue)
	if err != nil {
		return store.DashboardStats{}, err
	}
	st.AsOf = time.Now().UTC()
	return st, nil
}

// --- helpers ---

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

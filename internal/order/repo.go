package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gasflowhq/gasflow-api/internal/catalog"
	"github.com/gasflowhq/gasflow-api/internal/user"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrOrderNumberTaken  = errors.New("order number already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotCancellable    = errors.New("order cannot be cancelled at this stage")
	ErrNotDeletable      = errors.New("only cancelled orders can be deleted")
)

// Query filters and paginates the order listing.
type Query struct {
	Status     string
	CustomerID string
	DriverID   string
	Page       int
	Limit      int
	SortBy     string
	SortOrder  string
}

// StatusUpdate carries the effects of a status transition. Nil fields
// leave the corresponding columns untouched.
type StatusUpdate struct {
	Status                string
	DriverID              *string
	EstimatedDeliveryTime *time.Time
	// Delivered stamps actual_delivery_time=NOW() and forces
	// payment_status=paid.
	Delivered bool
}

type Repository interface {
	// Create writes the order, its items and the stock decrements in
	// one transaction. Returns ErrOrderNumberTaken on an order-number
	// conflict and ErrInsufficientStock when any conditional decrement
	// matches no row; nothing is written in either case.
	Create(ctx context.Context, o *Order, items []Item) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, q Query) ([]Order, int, error)
	UpdateStatus(ctx context.Context, id string, upd StatusUpdate) error
	UpdatePayment(ctx context.Context, id, paymentStatus string) error
	// Cancel restores stock and marks the order cancelled, but only
	// while it is still pending or confirmed.
	Cancel(ctx context.Context, id, note string) error
	// Delete removes a cancelled order and its items.
	Delete(ctx context.Context, id string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PGRepo) Create(ctx context.Context, o *Order, items []Item) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, order_number, customer_id, status, payment_status,
			total_amount, delivery_fee, delivery_address, delivery_latitude,
			delivery_longitude, special_instructions, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW())
	`, o.ID, o.OrderNumber, o.CustomerID, o.Status, o.PaymentStatus,
		o.TotalAmount, o.DeliveryFee, o.DeliveryAddress, o.DeliveryLatitude,
		o.DeliveryLongitude, o.SpecialInstructions)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrOrderNumberTaken
		}
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, gas_cylinder_id, quantity, unit_price, total_price)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, it.ID, o.ID, it.GasCylinderID, it.Quantity, it.UnitPrice, it.TotalPrice); err != nil {
			return err
		}

		// Conditional decrement closes the check-then-act window: the
		// row only changes while enough stock remains.
		tag, err := tx.Exec(ctx, `
			UPDATE gas_cylinders
			SET stock_quantity = stock_quantity - $2, updated_at = NOW()
			WHERE id = $1 AND stock_quantity >= $2
		`, it.GasCylinderID, it.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInsufficientStock
		}
	}

	return tx.Commit(ctx)
}

const orderCols = `o.id, o.order_number, o.customer_id, o.driver_id, o.status,
	o.payment_status, o.total_amount::text, o.delivery_fee::text,
	o.delivery_address, o.delivery_latitude, o.delivery_longitude,
	o.special_instructions, o.estimated_delivery_time, o.actual_delivery_time,
	o.created_at, o.updated_at,
	c.email, c.first_name, c.last_name, c.phone, c.role, c.address,
	c.latitude, c.longitude, c.is_active, c.created_at, c.updated_at,
	d.email, d.first_name, d.last_name, d.phone, d.role, d.address,
	d.latitude, d.longitude, d.is_active, d.created_at, d.updated_at`

const orderFrom = `FROM orders o
	JOIN users c ON c.id = o.customer_id
	LEFT JOIN users d ON d.id = o.driver_id`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var cust user.User
	var dEmail, dFirst, dLast, dPhone, dRole *string
	var dAddress *string
	var dLat, dLng *float64
	var dActive *bool
	var dCreated, dUpdated *time.Time

	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.DriverID,
		&o.Status, &o.PaymentStatus, &o.TotalAmount, &o.DeliveryFee,
		&o.DeliveryAddress, &o.DeliveryLatitude, &o.DeliveryLongitude,
		&o.SpecialInstructions, &o.EstimatedDeliveryTime, &o.ActualDeliveryTime,
		&o.CreatedAt, &o.UpdatedAt,
		&cust.Email, &cust.FirstName, &cust.LastName, &cust.Phone, &cust.Role,
		&cust.Address, &cust.Latitude, &cust.Longitude, &cust.IsActive,
		&cust.CreatedAt, &cust.UpdatedAt,
		&dEmail, &dFirst, &dLast, &dPhone, &dRole, &dAddress,
		&dLat, &dLng, &dActive, &dCreated, &dUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	cust.ID = o.CustomerID
	o.Customer = &cust
	if o.DriverID != nil {
		o.Driver = &user.User{
			ID:        *o.DriverID,
			Email:     deref(dEmail),
			FirstName: deref(dFirst),
			LastName:  deref(dLast),
			Phone:     deref(dPhone),
			Role:      deref(dRole),
			Address:   dAddress,
			Latitude:  dLat,
			Longitude: dLng,
		}
		if dActive != nil {
			o.Driver.IsActive = *dActive
		}
		if dCreated != nil {
			o.Driver.CreatedAt = *dCreated
		}
		if dUpdated != nil {
			o.Driver.UpdatedAt = *dUpdated
		}
	}
	o.Items = []Item{}
	return &o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx,
		`SELECT `+orderCols+` `+orderFrom+` WHERE o.id=$1`, id))
	if err != nil {
		return nil, err
	}
	byOrder, err := loadItems(ctx, r.db, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = byOrder[o.ID]
	if o.Items == nil {
		o.Items = []Item{}
	}
	return o, nil
}

var sortColumns = map[string]string{
	"createdAt":   "o.created_at",
	"updatedAt":   "o.updated_at",
	"totalAmount": "o.total_amount",
	"orderNumber": "o.order_number",
	"status":      "o.status",
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Order, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	where := " WHERE 1=1"
	args := []any{}
	if q.Status != "" {
		args = append(args, q.Status)
		where += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	if q.CustomerID != "" {
		args = append(args, q.CustomerID)
		where += fmt.Sprintf(" AND o.customer_id = $%d", len(args))
	}
	if q.DriverID != "" {
		args = append(args, q.DriverID)
		where += fmt.Sprintf(" AND o.driver_id = $%d", len(args))
	}

	sortCol, ok := sortColumns[q.SortBy]
	if !ok {
		sortCol = "o.created_at"
	}
	dir := "DESC"
	if q.SortOrder == "asc" || q.SortOrder == "ASC" {
		dir = "ASC"
	}

	var total int
	if err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM orders o"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := r.db.Query(ctx, fmt.Sprintf(
		"SELECT %s %s%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		orderCols, orderFrom, where, sortCol, dir, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := []Order{}
	ids := []string{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		byOrder, err := loadItems(ctx, r.db, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range orders {
			if items := byOrder[orders[i].ID]; items != nil {
				orders[i].Items = items
			}
		}
	}
	return orders, total, nil
}

// loadItems fetches the item rows for a set of orders with their
// cylinders and suppliers joined in.
func loadItems(ctx context.Context, db querier, orderIDs []string) (map[string][]Item, error) {
	rows, err := db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.gas_cylinder_id, oi.quantity,
			oi.unit_price::text, oi.total_price::text,
			g.name, g.weight::text, g.price::text, g.description, g.brand,
			g.is_available, g.stock_quantity, g.image_url, g.supplier_id,
			g.created_at, g.updated_at,
			s.name, s.contact_person, s.phone, s.email, s.address,
			s.latitude, s.longitude, s.is_active, s.created_at, s.updated_at
		FROM order_items oi
		JOIN gas_cylinders g ON g.id = oi.gas_cylinder_id
		JOIN suppliers s ON s.id = g.supplier_id
		WHERE oi.order_id = ANY($1)
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]Item{}
	for rows.Next() {
		var it Item
		var g catalog.GasCylinder
		var s catalog.Supplier
		if err := rows.Scan(&it.ID, &it.OrderID, &it.GasCylinderID, &it.Quantity,
			&it.UnitPrice, &it.TotalPrice,
			&g.Name, &g.Weight, &g.Price, &g.Description, &g.Brand,
			&g.IsAvailable, &g.StockQuantity, &g.ImageURL, &g.SupplierID,
			&g.CreatedAt, &g.UpdatedAt,
			&s.Name, &s.ContactPerson, &s.Phone, &s.Email, &s.Address,
			&s.Latitude, &s.Longitude, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		g.ID = it.GasCylinderID
		s.ID = g.SupplierID
		g.Supplier = &s
		it.GasCylinder = &g
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

// lockStatus reads the order's current status under FOR UPDATE so the
// restock decision and the status write see a consistent row.
func lockStatus(ctx context.Context, tx pgx.Tx, id string) (string, error) {
	var status string
	err := tx.QueryRow(ctx,
		`SELECT status FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

// restock adds every item quantity back onto its cylinder.
func restock(ctx context.Context, tx pgx.Tx, orderID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE gas_cylinders g
		SET stock_quantity = g.stock_quantity + oi.quantity, updated_at = NOW()
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.gas_cylinder_id = g.id
	`, orderID)
	return err
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := lockStatus(ctx, tx, id)
	if err != nil {
		return err
	}

	// Stock comes back exactly once: only on the first transition into
	// cancelled.
	if upd.Status == StatusCancelled && current != StatusCancelled {
		if err := restock(ctx, tx, id); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET status = $2,
		    driver_id = COALESCE($3, driver_id),
		    estimated_delivery_time = COALESCE($4, estimated_delivery_time),
		    actual_delivery_time = CASE WHEN $5 THEN NOW() ELSE actual_delivery_time END,
		    payment_status = CASE WHEN $5 THEN 'paid'::payment_status ELSE payment_status END,
		    updated_at = NOW()
		WHERE id = $1
	`, id, upd.Status, upd.DriverID, upd.EstimatedDeliveryTime, upd.Delivered)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) UpdatePayment(ctx context.Context, id, paymentStatus string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET payment_status=$2, updated_at=NOW() WHERE id=$1`,
		id, paymentStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Cancel(ctx context.Context, id, note string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := lockStatus(ctx, tx, id)
	if err != nil {
		return err
	}
	if current != StatusPending && current != StatusConfirmed {
		return ErrNotCancellable
	}

	if err := restock(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = 'cancelled', special_instructions = $2, updated_at = NOW()
		WHERE id = $1
	`, id, note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := lockStatus(ctx, tx, id)
	if err != nil {
		return err
	}
	if current != StatusCancelled {
		return ErrNotDeletable
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM order_items WHERE order_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM orders WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

package order

import (
	"context"
	"database/sql"

	"watchshop-be/internal/db"
	"watchshop-be/internal/logger"

	"github.com/go-faster/errors"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const orderColumns = `id, user_id, customer_name, customer_email, street, city, zip,
	subtotal, discount, total, coupon_code, status, payment_method, created_at, updated_at`

type Repository interface {
	// CreateOrderTx inserts the order header, its items and the variant
	// stock decrements inside tx. It sets the generated ids on o.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, o *Order) (int64, error)
	FetchOrders(ctx context.Context) ([]*Order, error)
	FetchUserOrders(ctx context.Context, userID int64) ([]*Order, error)
	FetchOrderItems(ctx context.Context, orderIDs []int64) (map[int64][]*Item, error)
	GetOrderDetail(ctx context.Context, id int64) (*Order, error)
	// LockOrderTx reads the order header and holds its row lock until tx ends.
	LockOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*Order, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status Status) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.Street,
		&o.City,
		&o.Zip,
		&o.Subtotal,
		&o.Discount,
		&o.Total,
		&o.CouponCode,
		&o.Status,
		&o.PaymentMethod,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []*Item{}
	return &o, nil
}

func (r *repository) CreateOrderTx(ctx context.Context, tx *sql.Tx, o *Order) (int64, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "CreateOrderTx"))

	// 1. Insert order
	err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			user_id, customer_name, customer_email, street, city, zip,
			subtotal, discount, total, coupon_code, status, payment_method
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at
	`,
		o.UserID,
		o.CustomerName,
		o.CustomerEmail,
		o.Street,
		o.City,
		o.Zip,
		o.Subtotal,
		o.Discount,
		o.Total,
		o.CouponCode,
		o.Status,
		o.PaymentMethod,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return 0, errors.Wrap(err, "insert order")
	}

	// 2. Insert order items + deduct stock
	for i, item := range o.Items {
		item.OrderID = o.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, product_id, quantity, unit_price, variant_id, variant_info
			) VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id
		`,
			o.ID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.VariantID,
			item.VariantInfo,
		).Scan(&item.ID)
		if err != nil {
			if item.VariantID != nil && db.IsForeignKeyViolation(err) {
				return 0, variantNotFound(item.ProductID, *item.VariantID)
			}
			log.Error("failed to insert order item", zap.Int("index", i), zap.Error(err))
			return 0, errors.Wrapf(err, "insert order item %d", i)
		}

		if item.VariantID == nil {
			continue
		}
		if err := decrementStock(ctx, tx, item.ProductID, *item.VariantID, item.Quantity); err != nil {
			return 0, err
		}
	}

	return o.ID, nil
}

func variantNotFound(productID, variantID int64) error {
	return ErrVariantNotFound.WithDetails(map[string]any{
		"productId": productID,
		"variantId": variantID,
	})
}

// decrementStock takes qty from a variant of productID. When no row matches,
// a follow-up read tells a foreign variant apart from a stock shortage.
func decrementStock(ctx context.Context, tx *sql.Tx, productID, variantID int64, qty int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE variants
		SET stock = stock - $1
		WHERE id = $2 AND product_id = $3 AND stock >= $1
	`, qty, variantID, productID)
	if err != nil {
		return errors.Wrapf(err, "decrement stock of variant %d", variantID)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected > 0 {
		return nil
	}

	var stock int
	err = tx.QueryRowContext(ctx,
		`SELECT stock FROM variants WHERE id = $1 AND product_id = $2`, variantID, productID,
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return variantNotFound(productID, variantID)
	}
	if err != nil {
		return errors.Wrapf(err, "read stock of variant %d", variantID)
	}
	return ErrInsufficientStock.WithDetails(map[string]any{"variantId": variantID, "available": stock})
}

func (r *repository) fetch(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	orders := []*Order{}
	ids := []int64{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate orders")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.FetchOrderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if its, ok := items[o.ID]; ok {
			o.Items = its
		}
	}
	return orders, nil
}

func (r *repository) FetchOrders(ctx context.Context) ([]*Order, error) {
	return r.fetch(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
}

func (r *repository) FetchUserOrders(ctx context.Context, userID int64) ([]*Order, error) {
	return r.fetch(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
}

func (r *repository) FetchOrderItems(ctx context.Context, orderIDs []int64) (map[int64][]*Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, variant_id, variant_info
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, errors.Wrap(err, "query order items")
	}
	defer rows.Close()

	items := make(map[int64][]*Item, len(orderIDs))
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID,
			&it.OrderID,
			&it.ProductID,
			&it.Quantity,
			&it.UnitPrice,
			&it.VariantID,
			&it.VariantInfo,
		); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		items[it.OrderID] = append(items[it.OrderID], &it)
	}
	return items, rows.Err()
}

func (r *repository) getOrder(ctx context.Context, q db.Querier, id int64, lock bool) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return o, nil
}

func (r *repository) GetOrderDetail(ctx context.Context, id int64) (*Order, error) {
	o, err := r.getOrder(ctx, r.db, id, false)
	if err != nil {
		return nil, err
	}

	items, err := r.FetchOrderItems(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if its, ok := items[id]; ok {
		o.Items = its
	}
	return o, nil
}

func (r *repository) LockOrderTx(ctx context.Context, tx *sql.Tx, id int64) (*Order, error) {
	return r.getOrder(ctx, tx, id, true)
}

func (r *repository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, status Status) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

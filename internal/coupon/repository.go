package coupon

import (
	"context"
	"database/sql"

	"watchshop-be/internal/db"

	"github.com/go-faster/errors"
)

const couponColumns = `id, code, discount_type, discount_value, min_purchase, max_discount,
	usage_limit, used_count, valid_until, active, created_at`

type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// FindByCodeForUpdate locks the coupon row until tx ends.
	FindByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*Coupon, error)
	List(ctx context.Context) ([]*Coupon, error)
	Create(ctx context.Context, c *Coupon) (int64, error)
	CreateTx(ctx context.Context, tx *sql.Tx, c *Coupon) (int64, error)
	IncrementUsage(ctx context.Context, code string) error
	IncrementUsageTx(ctx context.Context, tx *sql.Tx, code string) error
	// OrderCouponCode returns the coupon code an order was placed with, or ""
	// when it carried none.
	OrderCouponCode(ctx context.Context, orderID int64) (string, error)
	Toggle(ctx context.Context, id int64) (*Coupon, error)
	Delete(ctx context.Context, id int64) error
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

func scanCoupon(row rowScanner) (*Coupon, error) {
	var c Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MinPurchase,
		&c.MaxDiscount,
		&c.UsageLimit,
		&c.UsedCount,
		&c.ValidUntil,
		&c.Active,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) findByCode(ctx context.Context, q db.Querier, code string, lock bool) (*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`
	if lock {
		query += ` FOR UPDATE`
	}

	c, err := scanCoupon(q.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}
	return c, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	return r.findByCode(ctx, r.db, code, false)
}

func (r *repository) FindByCodeForUpdate(ctx context.Context, tx *sql.Tx, code string) (*Coupon, error) {
	return r.findByCode(ctx, tx, code, true)
}

func (r *repository) List(ctx context.Context) ([]*Coupon, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	defer rows.Close()

	coupons := []*Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan coupon")
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *repository) insert(ctx context.Context, q db.Querier, c *Coupon) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO coupons (
			code, discount_type, discount_value, min_purchase, max_discount,
			usage_limit, valid_until, active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`,
		c.Code,
		c.DiscountType,
		c.DiscountValue,
		c.MinPurchase,
		c.MaxDiscount,
		c.UsageLimit,
		c.ValidUntil,
		c.Active,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrCodeExists
		}
		return 0, errors.Wrap(err, "insert coupon")
	}
	return id, nil
}

func (r *repository) Create(ctx context.Context, c *Coupon) (int64, error) {
	return r.insert(ctx, r.db, c)
}

func (r *repository) CreateTx(ctx context.Context, tx *sql.Tx, c *Coupon) (int64, error) {
	return r.insert(ctx, tx, c)
}

// incrementUsage bumps used_count in a single statement; the usage limit is
// re-checked by the WHERE clause so concurrent increments cannot overshoot.
func (r *repository) incrementUsage(ctx context.Context, q db.Querier, code string) error {
	res, err := q.ExecContext(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE UPPER(code) = UPPER($1)
		  AND (usage_limit IS NULL OR used_count < usage_limit)
	`, code)
	if err != nil {
		return errors.Wrapf(err, "increment coupon %q", code)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return ErrCouponUnavailable
	}
	return nil
}

func (r *repository) IncrementUsage(ctx context.Context, code string) error {
	return r.incrementUsage(ctx, r.db, code)
}

func (r *repository) IncrementUsageTx(ctx context.Context, tx *sql.Tx, code string) error {
	return r.incrementUsage(ctx, tx, code)
}

func (r *repository) OrderCouponCode(ctx context.Context, orderID int64) (string, error) {
	var code string
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(coupon_code, '') FROM orders WHERE id = $1`, orderID,
	).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "read coupon of order %d", orderID)
	}
	return code, nil
}

func (r *repository) Toggle(ctx context.Context, id int64) (*Coupon, error) {
	c, err := scanCoupon(r.db.QueryRowContext(ctx,
		`UPDATE coupons SET active = NOT active WHERE id = $1 RETURNING `+couponColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "toggle coupon")
	}
	return c, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete coupon")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return ErrCouponNotFound
	}
	return nil
}

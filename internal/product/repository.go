package product

import (
	"context"
	"database/sql"
	"fmt"

	"watchshop-be/internal/db"
	"watchshop-be/internal/logger"

	"github.com/go-faster/errors"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const productColumns = `id, brand, name, price, description, features, category, image_url, created_at`

type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]*Product, int, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) (int64, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error

	FetchVariants(ctx context.Context, productIDs []int64) (map[int64][]*Variant, error)
	AddVariant(ctx context.Context, v *Variant) (int64, error)
	UpdateVariant(ctx context.Context, v *Variant) error
	DeleteVariant(ctx context.Context, productID, variantID int64) error

	ListReviews(ctx context.Context, productID int64) ([]*Review, error)
	AddReview(ctx context.Context, r *Review) (int64, error)
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

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Brand,
		&p.Name,
		&p.Price,
		&p.Description,
		pq.Array(&p.Features),
		&p.Category,
		&p.ImageURL,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	p.Variants = []*Variant{}
	return &p, nil
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*Product, int, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "ListProducts"))

	where := ` WHERE 1=1`
	args := []any{}
	argIndex := 1

	if opts.Brand != "" {
		where += fmt.Sprintf(" AND brand ILIKE $%d", argIndex)
		args = append(args, opts.Brand)
		argIndex++
	}
	if opts.Category != "" {
		where += fmt.Sprintf(" AND category ILIKE $%d", argIndex)
		args = append(args, opts.Category)
		argIndex++
	}
	if opts.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d OR brand ILIKE $%d)",
			argIndex, argIndex, argIndex)
		args = append(args, "%"+opts.Search+"%")
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		log.Error("failed to count products", zap.Error(err))
		return nil, 0, errors.Wrap(err, "count products")
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, 0, errors.Wrap(err, "query products")
	}
	defer rows.Close()

	products := []*Product{}
	ids := []int64{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan product")
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate products")
	}

	if len(ids) > 0 {
		variants, err := r.FetchVariants(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, p := range products {
			if vs, ok := variants[p.ID]; ok {
				p.Variants = vs
			}
		}
	}

	return products, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get product %d", id)
	}

	variants, err := r.FetchVariants(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if vs, ok := variants[id]; ok {
		p.Variants = vs
	}
	return p, nil
}

func insertVariant(ctx context.Context, q db.Querier, v *Variant) (int64, error) {
	err := q.QueryRowContext(ctx, `
		INSERT INTO variants (product_id, color_name, color_code, stock, price_delta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, v.ProductID, v.ColorName, v.ColorCode, v.Stock, v.PriceDelta).Scan(&v.ID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, ErrProductNotFound
		}
		return 0, errors.Wrap(err, "insert variant")
	}
	return v.ID, nil
}

// Create inserts the product together with its variants.
func (r *repository) Create(ctx context.Context, p *Product) (int64, error) {
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO products (brand, name, price, description, features, category, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`,
			p.Brand,
			p.Name,
			p.Price,
			p.Description,
			pq.Array(p.Features),
			p.Category,
			p.ImageURL,
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "insert product")
		}

		for _, v := range p.Variants {
			v.ProductID = p.ID
			if _, err := insertVariant(ctx, tx, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func expectAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func (r *repository) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET brand = $1, name = $2, price = $3, description = $4,
		    features = $5, category = $6, image_url = $7
		WHERE id = $8
	`,
		p.Brand,
		p.Name,
		p.Price,
		p.Description,
		pq.Array(p.Features),
		p.Category,
		p.ImageURL,
		p.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	return expectAffected(res, ErrProductNotFound)
}

// Delete removes the product; variants and reviews go with it through
// ON DELETE CASCADE.
func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	return expectAffected(res, ErrProductNotFound)
}

func (r *repository) FetchVariants(ctx context.Context, productIDs []int64) (map[int64][]*Variant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, color_name, color_code, stock, price_delta
		FROM variants
		WHERE product_id = ANY($1)
		ORDER BY product_id, id
	`, pq.Array(productIDs))
	if err != nil {
		return nil, errors.Wrap(err, "query variants")
	}
	defer rows.Close()

	variants := make(map[int64][]*Variant, len(productIDs))
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.ColorName, &v.ColorCode, &v.Stock, &v.PriceDelta); err != nil {
			return nil, errors.Wrap(err, "scan variant")
		}
		variants[v.ProductID] = append(variants[v.ProductID], &v)
	}
	return variants, rows.Err()
}

func (r *repository) AddVariant(ctx context.Context, v *Variant) (int64, error) {
	return insertVariant(ctx, r.db, v)
}

func (r *repository) UpdateVariant(ctx context.Context, v *Variant) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE variants
		SET color_name = $1, color_code = $2, stock = $3, price_delta = $4
		WHERE id = $5 AND product_id = $6
	`, v.ColorName, v.ColorCode, v.Stock, v.PriceDelta, v.ID, v.ProductID)
	if err != nil {
		return errors.Wrap(err, "update variant")
	}
	return expectAffected(res, ErrVariantNotFound)
}

func (r *repository) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM variants WHERE id = $1 AND product_id = $2`, variantID, productID)
	if err != nil {
		return errors.Wrap(err, "delete variant")
	}
	return expectAffected(res, ErrVariantNotFound)
}

func (r *repository) ListReviews(ctx context.Context, productID int64) ([]*Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, author, rating, comment, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
	`, productID)
	if err != nil {
		return nil, errors.Wrap(err, "query reviews")
	}
	defer rows.Close()

	reviews := []*Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.Author, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan review")
		}
		reviews = append(reviews, &rv)
	}
	return reviews, rows.Err()
}

func (r *repository) AddReview(ctx context.Context, rv *Review) (int64, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (product_id, author, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, rv.ProductID, rv.Author, rv.Rating, rv.Comment).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, ErrProductNotFound
		}
		return 0, errors.Wrap(err, "insert review")
	}
	return rv.ID, nil
}

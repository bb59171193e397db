package product

import (
	"context"
	"strings"
	"time"

	"watchshop-be/internal/logger"
	"watchshop-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, input ProductInput) (*Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (*Product, error)
	Delete(ctx context.Context, id int64) error

	AddVariant(ctx context.Context, productID int64, input VariantInput) (*Variant, error)
	UpdateVariant(ctx context.Context, productID, variantID int64, input VariantInput) (*Variant, error)
	DeleteVariant(ctx context.Context, productID, variantID int64) error

	ListReviews(ctx context.Context, productID int64) ([]*Review, error)
	AddReview(ctx context.Context, productID int64, input ReviewInput) (*Review, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "GetProductList"),
	)
	start := time.Now()

	opts.Page, opts.Limit, _ = utils.Paginate(opts.Page, opts.Limit)
	opts.Brand = strings.TrimSpace(opts.Brand)
	opts.Category = strings.TrimSpace(opts.Category)
	opts.Search = strings.TrimSpace(opts.Search)

	products, total, err := s.repo.List(ctx, opts)
	if err != nil {
		log.Error("failed to fetch product list", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, err
	}

	log.Debug("get product list success",
		zap.Int("count", len(products)),
		zap.Int("total", total),
		zap.Int("page", opts.Page),
		zap.Duration("duration", time.Since(start)),
	)

	return &ListResult{Items: products, Total: total, Page: opts.Page, Limit: opts.Limit}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func validateVariant(in VariantInput) error {
	if strings.TrimSpace(in.ColorName) == "" {
		return ErrColorRequired
	}
	if in.Stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

func buildProduct(in ProductInput) (*Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(in.Brand) == "" {
		return nil, ErrBrandRequired
	}
	if in.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	features := make([]string, 0, len(in.Features))
	for _, f := range in.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}

	p := &Product{
		Brand:       strings.TrimSpace(in.Brand),
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: in.Description,
		Features:    features,
		Category:    strings.TrimSpace(in.Category),
		ImageURL:    in.ImageURL,
		Variants:    make([]*Variant, 0, len(in.Variants)),
	}

	for _, v := range in.Variants {
		if err := validateVariant(v); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, newVariant(0, v))
	}
	return p, nil
}

func newVariant(productID int64, in VariantInput) *Variant {
	return &Variant{
		ProductID:  productID,
		ColorName:  strings.TrimSpace(in.ColorName),
		ColorCode:  strings.TrimSpace(in.ColorCode),
		Stock:      in.Stock,
		PriceDelta: in.PriceDelta,
	}
}

func (s *service) Create(ctx context.Context, input ProductInput) (*Product, error) {
	p, err := buildProduct(input)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Create(ctx, p); err != nil {
		logger.FromCtx(ctx).Error("failed to create product", zap.String("name", p.Name), zap.Error(err))
		return nil, err
	}

	logger.FromCtx(ctx).Info("product created", zap.Int64("product_id", p.ID), zap.Int("variants", len(p.Variants)))
	return p, nil
}

// Update replaces the product fields. Variants are managed through their
// own endpoints and are left untouched.
func (s *service) Update(ctx context.Context, id int64, input ProductInput) (*Product, error) {
	p, err := buildProduct(input)
	if err != nil {
		return nil, err
	}
	p.ID = id

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromCtx(ctx).Info("product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *service) AddVariant(ctx context.Context, productID int64, input VariantInput) (*Variant, error) {
	if err := validateVariant(input); err != nil {
		return nil, err
	}

	v := newVariant(productID, input)
	if _, err := s.repo.AddVariant(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *service) UpdateVariant(ctx context.Context, productID, variantID int64, input VariantInput) (*Variant, error) {
	if err := validateVariant(input); err != nil {
		return nil, err
	}

	v := newVariant(productID, input)
	v.ID = variantID
	if err := s.repo.UpdateVariant(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *service) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	return s.repo.DeleteVariant(ctx, productID, variantID)
}

func (s *service) ListReviews(ctx context.Context, productID int64) ([]*Review, error) {
	return s.repo.ListReviews(ctx, productID)
}

func (s *service) AddReview(ctx context.Context, productID int64, input ReviewInput) (*Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}
	author := strings.TrimSpace(input.Author)
	if author == "" {
		return nil, ErrAuthorRequired
	}

	rv := &Review{
		ProductID: productID,
		Author:    author,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
	}
	if _, err := s.repo.AddReview(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

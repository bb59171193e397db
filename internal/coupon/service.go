package coupon

import (
	"context"
	"time"

	"watchshop-be/internal/logger"
	"watchshop-be/internal/metrics"
	"watchshop-be/internal/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	Validate(ctx context.Context, code string, orderTotal decimal.Decimal) (*Validation, error)
	// Use records one redemption of code. When orderID names an order that
	// was already placed with this code, the order transaction counted it
	// and Use does nothing.
	Use(ctx context.Context, code string, orderID *int64) error
	Create(ctx context.Context, input CreateInput) (int64, error)
	List(ctx context.Context) ([]*Coupon, error)
	Toggle(ctx context.Context, id int64) (*Coupon, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo    Repository
	metrics *metrics.Registry
	now     func() time.Time
}

func NewService(repo Repository, reg *metrics.Registry) Service {
	return &service{repo: repo, metrics: reg, now: time.Now}
}

// Validate checks code against orderTotal without reserving a use.
func (s *service) Validate(ctx context.Context, code string, orderTotal decimal.Decimal) (*Validation, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ValidateCoupon"),
	)

	code = utils.NormalizeCode(code)
	if code == "" {
		return nil, ErrCodeRequired
	}
	if orderTotal.IsNegative() {
		return nil, ErrInvalidOrderTotal
	}

	s.metrics.Inc(metrics.CouponValidations)

	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		s.metrics.Inc(metrics.CouponRejections)
		log.Info("coupon lookup failed", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	amount, err := Evaluate(c, orderTotal, s.now())
	if err != nil {
		s.metrics.Inc(metrics.CouponRejections)
		log.Info("coupon rejected", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	log.Debug("coupon valid",
		zap.String("code", code),
		zap.String("order_total", orderTotal.String()),
		zap.String("discount", amount.String()),
	)

	return &Validation{Coupon: c, DiscountAmount: amount}, nil
}

func (s *service) Use(ctx context.Context, code string, orderID *int64) error {
	code = utils.NormalizeCode(code)
	if code == "" {
		return ErrCodeRequired
	}

	if orderID != nil {
		recorded, err := s.repo.OrderCouponCode(ctx, *orderID)
		if err != nil {
			return err
		}
		if utils.NormalizeCode(recorded) == code {
			logger.FromCtx(ctx).Debug("coupon already counted by order",
				zap.String("code", code), zap.Int64("order_id", *orderID))
			return nil
		}
	}

	if err := s.repo.IncrementUsage(ctx, code); err != nil {
		logger.FromCtx(ctx).Warn("coupon use failed", zap.String("code", code), zap.Error(err))
		return err
	}

	s.metrics.Inc(metrics.CouponUses)
	return nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (int64, error) {
	c, err := s.build(input)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Create(ctx, c)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to create coupon", zap.String("code", c.Code), zap.Error(err))
		return 0, err
	}

	logger.FromCtx(ctx).Info("coupon created", zap.Int64("coupon_id", id), zap.String("code", c.Code))
	return id, nil
}

func (s *service) build(input CreateInput) (*Coupon, error) {
	code := utils.NormalizeCode(input.Code)
	if code == "" {
		return nil, ErrCodeRequired
	}
	if !input.DiscountType.Valid() {
		return nil, ErrInvalidType
	}
	if !input.DiscountValue.IsPositive() {
		return nil, ErrInvalidValue
	}
	if input.DiscountType == DiscountPercentage && input.DiscountValue.GreaterThan(hundred) {
		return nil, ErrPercentageTooHigh
	}
	if input.DiscountType == DiscountFixed && input.MaxDiscount != nil {
		return nil, ErrMaxDiscountFixed
	}
	if (input.MinPurchase != nil && input.MinPurchase.IsNegative()) ||
		(input.MaxDiscount != nil && input.MaxDiscount.IsNegative()) {
		return nil, ErrInvalidBound
	}
	if input.UsageLimit != nil && *input.UsageLimit < 1 {
		return nil, ErrInvalidUsageLimit
	}
	if input.ValidUntil != nil && !input.ValidUntil.After(s.now()) {
		return nil, ErrExpiryInPast
	}

	return &Coupon{
		Code:          code,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		MinPurchase:   input.MinPurchase,
		MaxDiscount:   input.MaxDiscount,
		UsageLimit:    input.UsageLimit,
		ValidUntil:    input.ValidUntil,
		Active:        true,
	}, nil
}

func (s *service) List(ctx context.Context) ([]*Coupon, error) {
	return s.repo.List(ctx)
}

func (s *service) Toggle(ctx context.Context, id int64) (*Coupon, error) {
	c, err := s.repo.Toggle(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.FromCtx(ctx).Info("coupon toggled", zap.Int64("coupon_id", id), zap.Bool("active", c.Active))
	return c, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromCtx(ctx).Info("coupon deleted", zap.Int64("coupon_id", id))
	return nil
}

package loyalty

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"watchshop-be/internal/coupon"
	"watchshop-be/internal/db"
	"watchshop-be/internal/logger"
	"watchshop-be/internal/metrics"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	GetBalance(ctx context.Context, userID int64) (*Balance, error)
	Redeem(ctx context.Context, userID int64, points int) (*Redemption, error)
	// EarnTx credits points for a delivered order inside the caller's
	// transaction and returns the number of points added.
	EarnTx(ctx context.Context, tx *sql.Tx, userID, orderID int64, orderTotal decimal.Decimal) (int, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	coupons  coupon.Repository
	metrics  *metrics.Registry
	earnRate decimal.Decimal
	now      func() time.Time
}

func NewService(
	conn *sql.DB,
	repo Repository,
	coupons coupon.Repository,
	reg *metrics.Registry,
	earnRate decimal.Decimal,
) Service {
	return &service{
		db:       conn,
		repo:     repo,
		coupons:  coupons,
		metrics:  reg,
		earnRate: earnRate,
		now:      time.Now,
	}
}

func (s *service) GetBalance(ctx context.Context, userID int64) (*Balance, error) {
	if userID <= 0 {
		return nil, ErrInvalidUser
	}

	points, err := s.repo.GetPoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.History(ctx, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load loyalty history", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	return &Balance{Points: points, History: history}, nil
}

// redemptionCode derives the minted coupon code from the last six digits
// of the unix millisecond timestamp.
func redemptionCode(now time.Time) string {
	return fmt.Sprintf("LOYALTY-%06d", now.UnixMilli()%1_000_000)
}

func (s *service) Redeem(ctx context.Context, userID int64, points int) (*Redemption, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RedeemPoints"),
		zap.Int64("user_id", userID),
		zap.Int("points", points),
	)

	if userID <= 0 {
		return nil, ErrInvalidUser
	}
	if points < MinRedemption {
		return nil, ErrBelowMinimum
	}

	now := s.now()
	amount := decimal.NewFromInt(int64(points))
	validUntil := now.Add(RedemptionValidity)
	limit := 1

	minted := &coupon.Coupon{
		Code:          redemptionCode(now),
		DiscountType:  coupon.DiscountFixed,
		DiscountValue: amount,
		UsageLimit:    &limit,
		ValidUntil:    &validUntil,
		Active:        true,
	}

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		balance, err := s.repo.LockPoints(ctx, tx, userID)
		if err != nil {
			return err
		}
		if points > balance {
			return ErrInsufficientPoints
		}

		if err := s.repo.DeductPointsTx(ctx, tx, userID, points); err != nil {
			return err
		}

		if err := s.repo.InsertHistoryTx(ctx, tx, &HistoryEntry{
			UserID:      userID,
			Points:      -points,
			Type:        HistoryRedeemed,
			Description: fmt.Sprintf("Redeemed for coupon %s", minted.Code),
		}); err != nil {
			return err
		}

		if _, err := s.coupons.CreateTx(ctx, tx, minted); err != nil {
			if errors.Is(err, coupon.ErrCodeExists) {
				return ErrCouponCollision
			}
			return err
		}
		return nil
	})
	if err != nil {
		log.Warn("redemption failed", zap.Error(err))
		return nil, err
	}

	s.metrics.Inc(metrics.LoyaltyRedemptions)
	log.Info("points redeemed", zap.String("coupon_code", minted.Code))

	return &Redemption{CouponCode: minted.Code, Amount: amount, ValidUntil: validUntil}, nil
}

func (s *service) EarnTx(ctx context.Context, tx *sql.Tx, userID, orderID int64, orderTotal decimal.Decimal) (int, error) {
	points := int(orderTotal.Mul(s.earnRate).Floor().IntPart())
	if points <= 0 {
		return 0, nil
	}

	if err := s.repo.AddPointsTx(ctx, tx, userID, points); err != nil {
		return 0, err
	}

	if err := s.repo.InsertHistoryTx(ctx, tx, &HistoryEntry{
		UserID:      userID,
		Points:      points,
		Type:        HistoryEarned,
		Description: fmt.Sprintf("Earned from order #%d", orderID),
	}); err != nil {
		return 0, err
	}

	s.metrics.Counter(metrics.LoyaltyPointsEarned).Add(uint64(points))
	logger.FromCtx(ctx).Info("points earned",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", orderID),
		zap.Int("points", points),
	)
	return points, nil
}

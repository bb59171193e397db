package order

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"watchshop-be/internal/coupon"
	"watchshop-be/internal/db"
	"watchshop-be/internal/logger"
	"watchshop-be/internal/metrics"
	"watchshop-be/internal/notify"
	"watchshop-be/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// totalTolerance is the largest accepted gap between the client total and
// the recomputed one.
var totalTolerance = decimal.New(1, -2)

var validate = validator.New()

// PointsEarner credits loyalty points inside an open transaction.
type PointsEarner interface {
	EarnTx(ctx context.Context, tx *sql.Tx, userID, orderID int64, orderTotal decimal.Decimal) (int, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, event notify.OrderEvent)
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateInput) (*CreateResult, error)
	ListOrders(ctx context.Context) ([]*Order, error)
	ListUserOrders(ctx context.Context) ([]*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	coupons  coupon.Repository
	earner   PointsEarner
	notifier Notifier
	metrics  *metrics.Registry
	whatsApp string
	now      func() time.Time
}

func NewService(
	conn *sql.DB,
	repo Repository,
	coupons coupon.Repository,
	earner PointsEarner,
	notifier Notifier,
	reg *metrics.Registry,
	whatsAppNumber string,
) Service {
	return &service{
		db:       conn,
		repo:     repo,
		coupons:  coupons,
		earner:   earner,
		notifier: notifier,
		metrics:  reg,
		whatsApp: whatsAppNumber,
		now:      time.Now,
	}
}

func validateInput(in CreateInput) error {
	if strings.TrimSpace(in.CustomerName) == "" || strings.TrimSpace(in.CustomerEmail) == "" {
		return ErrCustomerRequired
	}
	if err := validate.Var(in.CustomerEmail, "email"); err != nil {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(in.Street) == "" || strings.TrimSpace(in.City) == "" || strings.TrimSpace(in.Zip) == "" {
		return ErrAddressRequired
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return ErrPaymentMethodRequired
	}
	if len(in.Items) == 0 {
		return ErrNoItems
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return ErrInvalidProduct
		}
		if it.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if it.UnitPrice.IsNegative() {
			return ErrInvalidPrice
		}
	}
	return nil
}

// ExpectedTotal is subtotal minus discount, floored at zero.
func ExpectedTotal(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func newOrder(in CreateInput) *Order {
	o := &Order{
		UserID:        in.UserID,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerEmail: strings.TrimSpace(in.CustomerEmail),
		Street:        strings.TrimSpace(in.Street),
		City:          strings.TrimSpace(in.City),
		Zip:           strings.TrimSpace(in.Zip),
		Status:        StatusPending,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		Subtotal:      decimal.Zero,
		Discount:      decimal.Zero,
		Items:         make([]*Item, 0, len(in.Items)),
	}

	for _, it := range in.Items {
		item := &Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			VariantID: it.VariantID,
		}
		if info := strings.TrimSpace(it.VariantInfo); info != "" {
			item.VariantInfo = &info
		}
		o.Items = append(o.Items, item)
		o.Subtotal = o.Subtotal.Add(item.LineTotal())
	}
	return o
}

func (s *service) CreateOrder(ctx context.Context, in CreateInput) (*CreateResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
	)

	if err := validateInput(in); err != nil {
		s.metrics.Inc(metrics.OrdersRejected)
		return nil, err
	}

	timer := metrics.StartTimer()
	o := newOrder(in)
	code := utils.NormalizeCode(in.CouponCode)

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if code != "" {
			c, err := s.coupons.FindByCodeForUpdate(ctx, tx, code)
			if err != nil {
				return err
			}
			discount, err := coupon.Evaluate(c, o.Subtotal, s.now())
			if err != nil {
				return err
			}
			o.Discount = discount
			o.CouponCode = &c.Code
		}

		o.Total = ExpectedTotal(o.Subtotal, o.Discount)
		if in.Total.Sub(o.Total).Abs().GreaterThan(totalTolerance) {
			return ErrTotalMismatch.WithDetails(map[string]any{
				"expectedTotal": o.Total.StringFixed(2),
			})
		}

		if _, err := s.repo.CreateOrderTx(ctx, tx, o); err != nil {
			return err
		}

		if o.CouponCode != nil {
			if err := s.coupons.IncrementUsageTx(ctx, tx, *o.CouponCode); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.Inc(metrics.OrdersRejected)
		log.Warn("order rejected", zap.Error(err))
		return nil, err
	}

	s.metrics.Inc(metrics.OrdersCreated)
	if o.CouponCode != nil {
		s.metrics.Inc(metrics.CouponUses)
	}
	log.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Duration("took", timer.Duration()),
	)

	event := toEvent(o)
	if s.notifier != nil {
		s.notifier.Dispatch(ctx, event)
	}

	res := &CreateResult{
		OrderID:  o.ID,
		Subtotal: o.Subtotal,
		Discount: o.Discount,
		Total:    o.Total,
	}
	if strings.EqualFold(o.PaymentMethod, PaymentWhatsApp) {
		res.RedirectURL = notify.WhatsAppLink(s.whatsApp, event)
	}
	return res, nil
}

func toEvent(o *Order) notify.OrderEvent {
	e := notify.OrderEvent{
		OrderID:       o.ID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		PaymentMethod: o.PaymentMethod,
		Street:        o.Street,
		City:          o.City,
		Zip:           o.Zip,
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		Total:         o.Total,
		CouponCode:    utils.PtrString(o.CouponCode),
		CreatedAt:     o.CreatedAt,
	}
	for _, it := range o.Items {
		e.Items = append(e.Items, notify.EventItem{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			VariantInfo: utils.PtrString(it.VariantInfo),
		})
	}
	return e
}

func (s *service) ListOrders(ctx context.Context) ([]*Order, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}

	orders, err := s.repo.FetchOrders(ctx)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list orders", zap.Error(err))
		return nil, err
	}
	return orders, nil
}

func (s *service) ListUserOrders(ctx context.Context) ([]*Order, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok || userID == 0 {
		return nil, ErrUnauthorized
	}
	return s.repo.FetchUserOrders(ctx, userID)
}

func (s *service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	return s.repo.GetOrderDetail(ctx, id)
}

func (s *service) UpdateStatus(ctx context.Context, id int64, status string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.Int64("order_id", id),
	)

	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}

	target, err := ParseStatus(status)
	if err != nil {
		return err
	}

	var from Status
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		o, err := s.repo.LockOrderTx(ctx, tx, id)
		if err != nil {
			return err
		}
		from = o.Status

		if err := CanTransition(o.Status, target); err != nil {
			return err
		}
		if err := s.repo.UpdateStatusTx(ctx, tx, id, target); err != nil {
			return err
		}

		if target == StatusDelivered && o.UserID != nil && s.earner != nil {
			if _, err := s.earner.EarnTx(ctx, tx, *o.UserID, o.ID, o.Total); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warn("status update failed", zap.String("target", string(target)), zap.Error(err))
		return err
	}

	s.metrics.Inc(metrics.OrderStatusUpdates)
	log.Info("order status updated", zap.String("from", string(from)), zap.String("to", string(target)))
	return nil
}

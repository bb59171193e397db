package httpapi

import (
	"net/http"
	"time"

	"watchshop-be/internal/coupon"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type validateCouponRequest struct {
	Code       string           `json:"code" binding:"required"`
	OrderTotal *decimal.Decimal `json:"orderTotal" binding:"required"`
}

type useCouponRequest struct {
	Code    string `json:"code" binding:"required"`
	OrderID *int64 `json:"orderId"`
}

type createCouponRequest struct {
	Code          string           `json:"code" binding:"required"`
	DiscountType  string           `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue *decimal.Decimal `json:"discount_value" binding:"required"`
	MinPurchase   *decimal.Decimal `json:"min_purchase"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	UsageLimit    *int             `json:"usage_limit"`
	ValidUntil    *time.Time       `json:"valid_until"`
}

type CouponHandler struct {
	svc coupon.Service
}

func NewCouponHandler(svc coupon.Service) *CouponHandler {
	return &CouponHandler{svc: svc}
}

func (h *CouponHandler) Validate(c *gin.Context) {
	var req validateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	v, err := h.svc.Validate(c.Request.Context(), req.Code, *req.OrderTotal)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"coupon": gin.H{
			"code":            v.Coupon.Code,
			"discount_type":   v.Coupon.DiscountType,
			"discount_value":  v.Coupon.DiscountValue,
			"discount_amount": v.DiscountAmount,
		},
	})
}

func (h *CouponHandler) Use(c *gin.Context) {
	var req useCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.svc.Use(c.Request.Context(), req.Code, req.OrderID); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "coupon applied")
}

func (h *CouponHandler) List(c *gin.Context) {
	coupons, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupons)
}

func (h *CouponHandler) Create(c *gin.Context) {
	var req createCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	id, err := h.svc.Create(c.Request.Context(), coupon.CreateInput{
		Code:          req.Code,
		DiscountType:  coupon.DiscountType(req.DiscountType),
		DiscountValue: *req.DiscountValue,
		MinPurchase:   req.MinPurchase,
		MaxDiscount:   req.MaxDiscount,
		UsageLimit:    req.UsageLimit,
		ValidUntil:    req.ValidUntil,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "message": "coupon created"})
}

func (h *CouponHandler) Toggle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	cp, err := h.svc.Toggle(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

func (h *CouponHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "coupon deleted")
}

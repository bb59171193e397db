package httpapi

import (
	"net/http"

	"watchshop-be/internal/order"
	"watchshop-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type customerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	PaymentMethod string `json:"paymentMethod"`
}

type addressRequest struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
}

type orderItemRequest struct {
	ProductID   int64           `json:"productId"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	VariantID   *int64          `json:"variantId"`
	VariantInfo string          `json:"variantInfo"`
}

// Field checks live in the order service so the client sees the same
// messages whichever surface it calls.
type createOrderRequest struct {
	Customer   customerRequest    `json:"customer"`
	Address    addressRequest     `json:"address"`
	Items      []orderItemRequest `json:"items"`
	Total      *decimal.Decimal   `json:"total" binding:"required"`
	CouponCode string             `json:"couponCode"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	input := order.CreateInput{
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		PaymentMethod: req.Customer.PaymentMethod,
		Street:        req.Address.Street,
		City:          req.Address.City,
		Zip:           req.Address.Zip,
		Total:         *req.Total,
		CouponCode:    req.CouponCode,
		Items:         make([]order.ItemInput, 0, len(req.Items)),
	}
	if userID, ok := utils.GetUserIDFromContext(ctx); ok {
		input.UserID = &userID
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, order.ItemInput{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			VariantID:   it.VariantID,
			VariantInfo: it.VariantInfo,
		})
	}

	res, err := h.svc.CreateOrder(ctx, input)
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{
		"id":       res.OrderID,
		"message":  "order placed",
		"subtotal": res.Subtotal,
		"discount": res.Discount,
		"total":    res.Total,
	}
	if res.RedirectURL != "" {
		body["redirectUrl"] = res.RedirectURL
	}
	c.JSON(http.StatusCreated, body)
}

func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.svc.ListOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Mine(c *gin.Context) {
	orders, err := h.svc.ListUserOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	o, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "order status updated")
}

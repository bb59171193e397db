package order

import "watchshop-be/internal/apperr"

var (
	ErrNoItems               = apperr.Validation("order must contain at least one item")
	ErrInvalidProduct        = apperr.Validation("item product id is required")
	ErrInvalidQuantity       = apperr.Validation("item quantity must be at least 1")
	ErrInvalidPrice          = apperr.Validation("item unit price must not be negative")
	ErrCustomerRequired      = apperr.Validation("customer name and email are required")
	ErrInvalidEmail          = apperr.Validation("customer email is invalid")
	ErrAddressRequired       = apperr.Validation("street, city and zip are required")
	ErrPaymentMethodRequired = apperr.Validation("payment method is required")
	ErrTotalMismatch         = apperr.Validation("order total does not match items")
	ErrInvalidStatus         = apperr.Validation("status must be one of Pending, Processing, Shipped, Delivered, Cancelled")

	ErrOrderNotFound   = apperr.NotFound("order not found")
	ErrVariantNotFound = apperr.NotFound("variant not found for product")
	ErrForbidden       = apperr.Forbidden("admin access required")
	ErrUnauthorized    = apperr.Unauthorized("authentication required")

	ErrInsufficientStock = apperr.Conflict("insufficient stock")
	ErrStatusUnchanged   = apperr.Conflict("order already has this status")
	ErrTerminalStatus    = apperr.Conflict("order status is final")
	ErrInvalidTransition = apperr.Conflict("order status cannot move backwards")
)

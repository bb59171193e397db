package product

import "watchshop-be/internal/apperr"

var (
	ErrNameRequired   = apperr.Validation("product name is required")
	ErrBrandRequired  = apperr.Validation("product brand is required")
	ErrInvalidPrice   = apperr.Validation("product price must not be negative")
	ErrColorRequired  = apperr.Validation("variant color name is required")
	ErrInvalidStock   = apperr.Validation("variant stock must not be negative")
	ErrInvalidRating  = apperr.Validation("rating must be between 1 and 5")
	ErrAuthorRequired = apperr.Validation("review author is required")

	ErrProductNotFound = apperr.NotFound("product not found")
	ErrVariantNotFound = apperr.NotFound("variant not found")
)

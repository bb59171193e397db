package user

import "watchshop-be/internal/apperr"

const MinPasswordLength = 8

var (
	ErrInvalidEmail       = apperr.Validation("a valid email is required")
	ErrPasswordTooShort   = apperr.Validation("password must be at least 8 characters")
	ErrEmailExists        = apperr.Conflict("email already registered")
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	ErrUserNotFound       = apperr.NotFound("user not found")
)

package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"watchshop-be/internal/apperr"
	"watchshop-be/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func init() {
	// Money goes over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min", "gte":
		return e.Field() + " must be at least " + e.Param()
	case "max", "lte":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of " + e.Param()
	default:
		return e.Field() + " is invalid"
	}
}

// writeBindError answers a request whose body failed to decode or validate.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]ValidationError, 0, len(verrs))
		for _, e := range verrs {
			details = append(details, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: validationMessage(e),
			})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"message": details[0].Message,
			"errors":  details,
		})
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "malformed JSON body"})
	case errors.As(err, &typeErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": typeErr.Field + " has the wrong type"})
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
	}
}

// writeError maps a service error to its status and JSON payload. Details
// carried by an *apperr.Error are merged next to the message.
func writeError(c *gin.Context, err error) {
	status := apperr.Status(err)

	var appErr *apperr.Error
	if !errors.As(err, &appErr) || status == http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	body := gin.H{"message": appErr.Message}
	for k, v := range appErr.Details {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

func writeMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

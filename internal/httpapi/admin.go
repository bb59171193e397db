package httpapi

import (
	"net/http"

	"watchshop-be/internal/metrics"

	"github.com/gin-gonic/gin"
)

func metricsHandler(reg *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, reg.Snapshot())
	}
}

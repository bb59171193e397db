package httpapi

import (
	"net/http"
	"strconv"

	"watchshop-be/internal/loyalty"
	"watchshop-be/internal/utils"

	"github.com/gin-gonic/gin"
)

type redeemRequest struct {
	UserID         int64 `json:"userId"`
	PointsToRedeem int   `json:"pointsToRedeem" binding:"required"`
}

type LoyaltyHandler struct {
	svc loyalty.Service
}

func NewLoyaltyHandler(svc loyalty.Service) *LoyaltyHandler {
	return &LoyaltyHandler{svc: svc}
}

// resolveUser returns the account the request acts on. Zero means the
// caller's own account; anything else needs the caller to be that user or
// an admin.
func resolveUser(c *gin.Context, requested int64) (int64, bool) {
	ctx := c.Request.Context()
	callerID, _ := utils.GetUserIDFromContext(ctx)
	if requested == 0 || requested == callerID {
		return callerID, true
	}
	if !utils.IsAdmin(ctx) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "cannot access another user's points"})
		return 0, false
	}
	return requested, true
}

func (h *LoyaltyHandler) Balance(c *gin.Context) {
	var requested int64
	if raw := c.Query("userId"); raw != "" {
		id, err := utils.ParseID(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid userId"})
			return
		}
		requested = id
	}

	userID, ok := resolveUser(c, requested)
	if !ok {
		return
	}

	bal, err := h.svc.GetBalance(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (h *LoyaltyHandler) Redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	userID, ok := resolveUser(c, req.UserID)
	if !ok {
		return
	}

	r, err := h.svc.Redeem(c.Request.Context(), userID, req.PointsToRedeem)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "redeemed " + strconv.Itoa(req.PointsToRedeem) + " points",
		"coupon": gin.H{
			"code":        r.CouponCode,
			"amount":      r.Amount,
			"valid_until": r.ValidUntil,
		},
	})
}

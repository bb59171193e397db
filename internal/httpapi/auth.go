package httpapi

import (
	"net/http"
	"time"

	"watchshop-be/internal/user"
	"watchshop-be/internal/utils"

	"github.com/gin-gonic/gin"
)

const accessTokenCookie = "access_token"

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthHandler struct {
	svc          user.Service
	cookieTTL    time.Duration
	secureCookie bool
}

func NewAuthHandler(svc user.Service, cookieTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, cookieTTL: cookieTTL, secureCookie: secureCookie}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	res, err := h.svc.Register(c.Request.Context(), user.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respond(c, http.StatusOK, res)
}

func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	u, err := h.svc.GetByID(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) respond(c *gin.Context, status int, res *user.AuthResult) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, res.Token, int(h.cookieTTL.Seconds()), "/", "", h.secureCookie, true)
	c.JSON(status, gin.H{"token": res.Token, "user": res.User})
}

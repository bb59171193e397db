package httpapi

import (
	"net/http"
	"strconv"

	"watchshop-be/internal/product"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type variantRequest struct {
	ColorName  string          `json:"color_name"`
	ColorCode  string          `json:"color_code"`
	Stock      int             `json:"stock"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

func (r variantRequest) input() product.VariantInput {
	return product.VariantInput{
		ColorName:  r.ColorName,
		ColorCode:  r.ColorCode,
		Stock:      r.Stock,
		PriceDelta: r.PriceDelta,
	}
}

type productRequest struct {
	Brand       string           `json:"brand"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	Description string           `json:"description"`
	Features    []string         `json:"features"`
	Category    string           `json:"category"`
	ImageURL    *string          `json:"image_url"`
	Variants    []variantRequest `json:"variants"`
}

func (r productRequest) input() product.ProductInput {
	in := product.ProductInput{
		Brand:       r.Brand,
		Name:        r.Name,
		Price:       r.Price,
		Description: r.Description,
		Features:    r.Features,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
	}
	for _, v := range r.Variants {
		in.Variants = append(in.Variants, v.input())
	}
	return in
}

type reviewRequest struct {
	Author  string `json:"author"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ProductHandler struct {
	svc product.Service
}

func NewProductHandler(svc product.Service) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	res, err := h.svc.List(c.Request.Context(), product.ListOptions{
		Brand:    c.Query("brand"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	p, err := h.svc.Create(c.Request.Context(), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	p, err := h.svc.Update(c.Request.Context(), id, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "product deleted")
}

func (h *ProductHandler) AddVariant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req variantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	v, err := h.svc.AddVariant(c.Request.Context(), id, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *ProductHandler) UpdateVariant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	variantID, ok := pathID(c, "variantId")
	if !ok {
		return
	}

	var req variantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	v, err := h.svc.UpdateVariant(c.Request.Context(), id, variantID, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *ProductHandler) DeleteVariant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	variantID, ok := pathID(c, "variantId")
	if !ok {
		return
	}

	if err := h.svc.DeleteVariant(c.Request.Context(), id, variantID); err != nil {
		writeError(c, err)
		return
	}
	writeMessage(c, http.StatusOK, "variant deleted")
}

func (h *ProductHandler) ListReviews(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	reviews, err := h.svc.ListReviews(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *ProductHandler) AddReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	r, err := h.svc.AddReview(c.Request.Context(), id, product.ReviewInput{
		Author:  req.Author,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Variant struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	ColorName  string          `json:"color_name"`
	ColorCode  string          `json:"color_code"`
	Stock      int             `json:"stock"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

type Product struct {
	ID          int64           `json:"id"`
	Brand       string          `json:"brand"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Features    []string        `json:"features"`
	Category    string          `json:"category"`
	ImageURL    *string         `json:"image_url"`
	Variants    []*Variant      `json:"variants"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ListOptions struct {
	Brand    string
	Category string
	Search   string
	Page     int
	Limit    int
}

type ListResult struct {
	Items []*Product `json:"items"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

type VariantInput struct {
	ColorName  string
	ColorCode  string
	Stock      int
	PriceDelta decimal.Decimal
}

type ProductInput struct {
	Brand       string
	Name        string
	Price       decimal.Decimal
	Description string
	Features    []string
	Category    string
	ImageURL    *string
	Variants    []VariantInput
}

type ReviewInput struct {
	Author  string
	Rating  int
	Comment string
}

// Package catalog holds the storefront's browsable products and categories.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. Prices are decimals; SpecialPrice,
// when set, takes precedence over Price at cart and checkout time.
type Product struct {
	ID           int64            `json:"id"`
	Name         string           `json:"name"`
	Unit         string           `json:"unit"`
	Price        decimal.Decimal  `json:"price"`
	SpecialPrice *decimal.Decimal `json:"special_price"`
	Stock        int              `json:"stock"`
	Images       []string         `json:"images"`
	CategoryID   int64            `json:"category_id"`
	Active       bool             `json:"active"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Category groups products on the storefront.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID int64
	Search     string
	ActiveOnly bool
}

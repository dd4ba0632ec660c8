// Package admin implements the back office: admin accounts, delivery areas,
// banners, and the dashboard.
package admin

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Admin is a back-office user. PasswordHash never leaves the service layer.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Area is a delivery zone with its charge.
type Area struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	District       string          `json:"district"`
	Thana          string          `json:"thana"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Banner is a storefront promotional slot. Position orders the carousel.
type Banner struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Image     string    `json:"image"`
	Position  int       `json:"position"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Package account handles customer registration, authentication, and profile
// management.
package account

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a registered storefront user. PasswordHash never leaves the
// service layer.
type Customer struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AreaID       *int64    `json:"area_id"`
	Address      string    `json:"address"`
	Verified     bool      `json:"verified"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OTP purposes. Verification confirms a fresh registration; reset authorizes
// a password change.
const (
	OTPPurposeVerify = "verify"
	OTPPurposeReset  = "reset"
)

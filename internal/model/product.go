package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product availability states.
const (
	ProductStatusActive   = "active"
	ProductStatusSold     = "sold"
	ProductStatusInactive = "inactive"
)

// ValidProductStatus reports whether s is one of the known product states.
func ValidProductStatus(s string) bool {
	switch s {
	case ProductStatusActive, ProductStatusSold, ProductStatusInactive:
		return true
	}
	return false
}

// Product mirrors the `products` table.
type Product struct {
	ID          uint64          `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	CategoryID  uint64          `db:"category_id" json:"category_id"`
	SellerID    uint64          `db:"seller_id" json:"seller_id"`
	ImageURL    *string         `db:"image_url" json:"image_url"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// ProductListing is a product joined with its category and seller names.
type ProductListing struct {
	Product
	CategoryName string `db:"category_name" json:"category_name"`
	SellerName   string `db:"seller_name" json:"seller_name"`
	SellerEmail  string `db:"seller_email" json:"seller_email,omitempty"`

	// IsOwner is set for the signed-in seller's own listings.
	IsOwner bool `db:"-" json:"is_owner,omitempty"`
}

// ProductCard is the compact form shown on profiles and dashboards.
type ProductCard struct {
	ID           uint64          `db:"id" json:"id"`
	Title        string          `db:"title" json:"title"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Status       string          `db:"status" json:"status,omitempty"`
	ImageURL     *string         `db:"image_url" json:"image_url,omitempty"`
	CategoryName string          `db:"category_name" json:"category_name,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

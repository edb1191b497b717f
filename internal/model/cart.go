package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem mirrors the `cart_items` table.  (UserID, ProductID) is unique.
type CartItem struct {
	ID        uint64    `db:"id" json:"id"`
	UserID    uint64    `db:"user_id" json:"user_id"`
	ProductID uint64    `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CartLine is a cart item joined with the product's current state.  Price
// is the live product price, not a snapshot.
type CartLine struct {
	CartItem
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description"`
	Price         decimal.Decimal `db:"price" json:"price"`
	ImageURL      *string         `db:"image_url" json:"image_url"`
	ProductStatus string          `db:"product_status" json:"product_status"`
	SellerID      uint64          `db:"seller_id" json:"seller_id"`
	CategoryName  string          `db:"category_name" json:"category_name"`
	SellerName    string          `db:"seller_name" json:"seller_name"`
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartView is the buyer's cart with its total at current prices.
type CartView struct {
	Items []CartLine      `json:"cartItems"`
	Total decimal.Decimal `json:"total"`
}

// CheckoutOrder summarises one order created by checkout.
type CheckoutOrder struct {
	OrderID      uint64          `json:"order_id"`
	ProductTitle string          `json:"product_title"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// CheckoutResult lists the orders checkout created and the per-item
// problems it skipped.
type CheckoutResult struct {
	Orders []CheckoutOrder `json:"orders"`
	Errors []string        `json:"errors,omitempty"`
}

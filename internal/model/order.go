package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle states.  Any state may be set from any other by the
// seller; there is no enforced transition graph.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// OrderStatuses lists every valid order state.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ValidOrderStatus reports whether s is one of OrderStatuses.
func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Order mirrors the `orders` table.  TotalPrice is frozen at creation.
type Order struct {
	ID         uint64          `db:"id" json:"id"`
	BuyerID    uint64          `db:"buyer_id" json:"buyer_id"`
	SellerID   uint64          `db:"seller_id" json:"seller_id"`
	ProductID  uint64          `db:"product_id" json:"product_id"`
	Quantity   int             `db:"quantity" json:"quantity"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	Status     string          `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderDetail is an order joined with product and counterparty fields.
type OrderDetail struct {
	Order
	ProductTitle       string          `db:"product_title" json:"product_title"`
	ProductDescription string          `db:"product_description" json:"product_description"`
	ProductPrice       decimal.Decimal `db:"product_price" json:"product_price"`
	ProductImage       *string         `db:"product_image" json:"product_image"`
	BuyerName          string          `db:"buyer_name" json:"buyer_name"`
	BuyerEmail         string          `db:"buyer_email" json:"buyer_email"`
	SellerName         string          `db:"seller_name" json:"seller_name"`
	SellerEmail        string          `db:"seller_email" json:"seller_email"`
}

// RecentOrder is the compact order row shown on the dashboard.
type RecentOrder struct {
	ID           uint64          `db:"id" json:"id"`
	Status       string          `db:"status" json:"status"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProductTitle string          `db:"product_title" json:"product_title"`
}

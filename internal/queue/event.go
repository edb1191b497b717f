// Package queue defines the order events exchanged over the message broker,
// the publisher used by the services and the background consumer that
// records them.
package queue

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Order sources.
const (
	SourceCheckout = "checkout"
	SourceDirect   = "direct"
)

// OrderEvent is published whenever an order is created or its status
// changes.  It carries enough for downstream consumers to log, notify or
// feed analytics without querying the primary database.
type OrderEvent struct {
	Type         string          `json:"type"`
	OrderID      uint64          `json:"order_id"`
	BuyerID      uint64          `json:"buyer_id"`
	SellerID     uint64          `json:"seller_id"`
	ProductID    uint64          `json:"product_id"`
	ProductTitle string          `json:"product_title"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Status       string          `json:"status"`
	Source       string          `json:"source,omitempty"`
	OccurredAt   string          `json:"occurred_at"`
}

// Stamp sets OccurredAt to now in RFC 3339 UTC.
func (e *OrderEvent) Stamp() {
	e.OccurredAt = time.Now().UTC().Format(time.RFC3339)
}

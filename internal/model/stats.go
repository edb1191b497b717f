package model

import "github.com/shopspring/decimal"

// ProductStats counts a seller's listings by state.
type ProductStats struct {
	TotalProducts  int64 `db:"total_products" json:"total_products"`
	ActiveProducts int64 `db:"active_products" json:"active_products"`
	SoldProducts   int64 `db:"sold_products" json:"sold_products"`
}

// BuyerStats summarises a user's purchases.
type BuyerStats struct {
	TotalOrders     int64           `db:"total_orders" json:"total_orders"`
	CompletedOrders int64           `db:"completed_orders" json:"completed_orders"`
	TotalSpent      decimal.Decimal `db:"total_spent" json:"total_spent"`
}

// SellerStats summarises a user's sales.
type SellerStats struct {
	TotalSales     int64           `db:"total_sales" json:"total_sales"`
	CompletedSales int64           `db:"completed_sales" json:"completed_sales"`
	TotalEarned    decimal.Decimal `db:"total_earned" json:"total_earned"`
}

// Dashboard is everything the seller/buyer dashboard shows.
type Dashboard struct {
	ProductStats   ProductStats  `json:"productStats"`
	BuyerStats     BuyerStats    `json:"buyerStats"`
	SellerStats    SellerStats   `json:"sellerStats"`
	RecentProducts []ProductCard `json:"recentProducts"`
	RecentOrders   []RecentOrder `json:"recentOrders"`
}

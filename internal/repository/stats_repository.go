package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ecofinds-marketplace/internal/model"
)

// StatsRepo aggregates the numbers shown on a user's dashboard.
type StatsRepo struct{ DB *sqlx.DB }

func NewStatsRepo(db *sqlx.DB) *StatsRepo { return &StatsRepo{DB: db} }

// Dashboard collects listing, purchase and sales figures for userID along
// with the five newest listings and purchases.
func (r *StatsRepo) Dashboard(ctx context.Context, userID uint64) (model.Dashboard, error) {
	var d model.Dashboard
	if err := r.DB.GetContext(ctx, &d.ProductStats, `
		SELECT COUNT(*) AS total_products,
		       COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active_products,
		       COALESCE(SUM(CASE WHEN status = 'sold' THEN 1 ELSE 0 END), 0) AS sold_products
		FROM products WHERE seller_id = ?`, userID); err != nil {
		return d, err
	}
	if err := r.DB.GetContext(ctx, &d.BuyerStats, `
		SELECT COUNT(*) AS total_orders,
		       COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0) AS completed_orders,
		       COALESCE(SUM(total_price), 0) AS total_spent
		FROM orders WHERE buyer_id = ?`, userID); err != nil {
		return d, err
	}
	if err := r.DB.GetContext(ctx, &d.SellerStats, `
		SELECT COUNT(*) AS total_sales,
		       COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0) AS completed_sales,
		       COALESCE(SUM(total_price), 0) AS total_earned
		FROM orders WHERE seller_id = ?`, userID); err != nil {
		return d, err
	}
	d.RecentProducts = []model.ProductCard{}
	if err := r.DB.SelectContext(ctx, &d.RecentProducts, `
		SELECT p.id, p.title, p.price, p.status, p.image_url, c.name AS category_name, p.created_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.seller_id = ?
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT 5`, userID); err != nil {
		return d, err
	}
	d.RecentOrders = []model.RecentOrder{}
	if err := r.DB.SelectContext(ctx, &d.RecentOrders, `
		SELECT o.id, o.status, o.total_price, o.created_at, p.title AS product_title
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE o.buyer_id = ?
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT 5`, userID); err != nil {
		return d, err
	}
	return d, nil
}

package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ecofinds-marketplace/internal/model"
)

// OrderRepo manages persistence for orders.
type OrderRepo struct{ DB *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{DB: db} }

const orderDetailSelect = `SELECT o.id, o.buyer_id, o.seller_id, o.product_id, o.quantity, o.total_price,
		o.status, o.created_at, o.updated_at,
		p.title AS product_title, p.description AS product_description,
		p.price AS product_price, p.image_url AS product_image,
		b.username AS buyer_name, b.email AS buyer_email,
		s.username AS seller_name, s.email AS seller_email
	FROM orders o
	JOIN products p ON p.id = o.product_id
	JOIN users b    ON b.id = o.buyer_id
	JOIN users s    ON s.id = o.seller_id`

// NewOrder holds the columns of a freshly created order.  TotalPrice must
// already be price times quantity; it is never recomputed.
type NewOrder struct {
	BuyerID    uint64
	SellerID   uint64
	ProductID  uint64
	Quantity   int
	TotalPrice decimal.Decimal
}

// CreateTx inserts a pending order inside the caller's transaction.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, o NewOrder) (uint64, error) {
	return insertOrder(ctx, tx, o)
}

// Create inserts a pending order outside any transaction.
func (r *OrderRepo) Create(ctx context.Context, o NewOrder) (uint64, error) {
	return insertOrder(ctx, r.DB, o)
}

func insertOrder(ctx context.Context, ex sqlx.ExecerContext, o NewOrder) (uint64, error) {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO orders (buyer_id, seller_id, product_id, quantity, total_price, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.BuyerID, o.SellerID, o.ProductID, o.Quantity, o.TotalPrice, model.OrderStatusPending)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetDetail returns the order joined with product and counterparty fields.
func (r *OrderRepo) GetDetail(ctx context.Context, id uint64) (model.OrderDetail, error) {
	var d model.OrderDetail
	err := r.DB.GetContext(ctx, &d, orderDetailSelect+" WHERE o.id = ?", id)
	return d, notFound(err)
}

// GetDetailForParty returns the order only when userID is its buyer or
// seller.  Anyone else gets ErrNotFound.
func (r *OrderRepo) GetDetailForParty(ctx context.Context, id, userID uint64) (model.OrderDetail, error) {
	var d model.OrderDetail
	err := r.DB.GetContext(ctx, &d, orderDetailSelect+" WHERE o.id = ? AND (o.buyer_id = ? OR o.seller_id = ?)",
		id, userID, userID)
	return d, notFound(err)
}

// UpdateStatus sets the order status and bumps updated_at.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForBuyer pages through a buyer's purchases, newest first.
func (r *OrderRepo) ListForBuyer(ctx context.Context, buyerID uint64, limit, offset int) ([]model.OrderDetail, int64, error) {
	return r.listBy(ctx, "o.buyer_id", buyerID, limit, offset)
}

// ListForSeller pages through a seller's sales, newest first.
func (r *OrderRepo) ListForSeller(ctx context.Context, sellerID uint64, limit, offset int) ([]model.OrderDetail, int64, error) {
	return r.listBy(ctx, "o.seller_id", sellerID, limit, offset)
}

// listBy is shared by the buyer and seller listings; col is one of two
// fixed column names, never caller input.
func (r *OrderRepo) listBy(ctx context.Context, col string, userID uint64, limit, offset int) ([]model.OrderDetail, int64, error) {
	var total int64
	if err := r.DB.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders o WHERE "+col+" = ?", userID); err != nil {
		return nil, 0, err
	}
	out := []model.OrderDetail{}
	err := r.DB.SelectContext(ctx, &out, orderDetailSelect+`
		WHERE `+col+` = ?
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

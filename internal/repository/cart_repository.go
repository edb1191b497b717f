package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/ecofinds-marketplace/internal/database"
	"github.com/iliyamo/ecofinds-marketplace/internal/model"
)

// CartRepo manages the per-buyer cart rows.
type CartRepo struct {
	DB      *sqlx.DB
	dialect database.Dialect
}

func NewCartRepo(db *sqlx.DB) *CartRepo {
	return &CartRepo{DB: db, dialect: database.DialectFor(db.DriverName())}
}

const cartLineSelect = `SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at,
		p.title, p.description, p.price, p.image_url, p.status AS product_status, p.seller_id,
		c.name AS category_name, u.username AS seller_name
	FROM cart_items ci
	JOIN products p   ON p.id = ci.product_id
	JOIN categories c ON c.id = p.category_id
	JOIN users u      ON u.id = p.seller_id`

// Merge adds quantity to the (user, product) row, creating it when absent.
// The increment is a single upsert against the unique key so concurrent
// adds accumulate.
func (r *CartRepo) Merge(ctx context.Context, userID, productID uint64, quantity int) error {
	_, err := r.DB.ExecContext(ctx, r.dialect.CartMerge, userID, productID, quantity)
	return err
}

// Get returns the buyer's row for productID.
func (r *CartRepo) Get(ctx context.Context, userID, productID uint64) (model.CartItem, error) {
	var it model.CartItem
	err := r.DB.GetContext(ctx, &it,
		"SELECT id, user_id, product_id, quantity, created_at FROM cart_items WHERE user_id = ? AND product_id = ?",
		userID, productID)
	return it, notFound(err)
}

// SetQuantity overwrites the quantity of an existing row.
func (r *CartRepo) SetQuantity(ctx context.Context, userID, productID uint64, quantity int) error {
	if _, err := r.Get(ctx, userID, productID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE cart_items SET quantity = ? WHERE user_id = ? AND product_id = ?",
		quantity, userID, productID)
	return err
}

// Remove deletes the buyer's row for productID.
func (r *CartRepo) Remove(ctx context.Context, userID, productID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ? AND product_id = ?", userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear deletes every row of the buyer's cart.
func (r *CartRepo) Clear(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", userID)
	return err
}

// Lines returns the buyer's cart joined with current product state, newest
// addition first.  Rows for unavailable products are included.
func (r *CartRepo) Lines(ctx context.Context, userID uint64) ([]model.CartLine, error) {
	out := []model.CartLine{}
	err := r.DB.SelectContext(ctx, &out, cartLineSelect+`
		WHERE ci.user_id = ?
		ORDER BY ci.created_at DESC, ci.id DESC`, userID)
	return out, err
}

// ActiveLinesTx returns the buyer's rows whose product is active, in the
// order they were added.
func (r *CartRepo) ActiveLinesTx(ctx context.Context, tx *sqlx.Tx, userID uint64) ([]model.CartLine, error) {
	out := []model.CartLine{}
	err := tx.SelectContext(ctx, &out, cartLineSelect+`
		WHERE ci.user_id = ? AND p.status = 'active'
		ORDER BY ci.id ASC`, userID)
	return out, err
}

// DeleteProductsTx removes the buyer's rows for the given products.
func (r *CartRepo) DeleteProductsTx(ctx context.Context, tx *sqlx.Tx, userID uint64, productIDs []uint64) error {
	if len(productIDs) == 0 {
		return nil
	}
	q, args, err := sqlx.In("DELETE FROM cart_items WHERE user_id = ? AND product_id IN (?)", userID, productIDs)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(q), args...)
	return err
}

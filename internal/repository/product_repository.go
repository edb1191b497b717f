package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ecofinds-marketplace/internal/model"
)

// ProductRepo manages persistence for listings.
type ProductRepo struct{ DB *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{DB: db} }

const listingSelect = `SELECT p.id, p.title, p.description, p.price, p.category_id, p.seller_id,
		p.image_url, p.status, p.created_at, p.updated_at,
		c.name AS category_name, u.username AS seller_name, u.email AS seller_email
	FROM products p
	JOIN categories c ON c.id = p.category_id
	JOIN users u      ON u.id = p.seller_id`

// ProductFilter narrows the public catalog.  Sort and Order must already be
// whitelisted by the caller.
type ProductFilter struct {
	Category string
	Search   string
	Sort     string
	Order    string
	Limit    int
	Offset   int
}

// SortColumns whitelists the columns the catalog may be ordered by.
var SortColumns = map[string]string{
	"created_at": "p.created_at",
	"price":      "p.price",
	"title":      "p.title",
}

// List returns active products matching f and the total match count.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]model.ProductListing, int64, error) {
	where := []string{"p.status = 'active'"}
	args := []any{}

	if f.Category != "" {
		where = append(where, "c.name = ?")
		args = append(args, f.Category)
	}
	if f.Search != "" {
		where = append(where, "(p.title LIKE ? OR p.description LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM products p
		JOIN categories c ON c.id = p.category_id
		JOIN users u      ON u.id = p.seller_id
		WHERE ` + cond
	if err := r.DB.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, err
	}

	col, ok := SortColumns[f.Sort]
	if !ok {
		col = "p.created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.Order, "ASC") {
		dir = "ASC"
	}

	dataSQL := listingSelect + `
		WHERE ` + cond + `
		ORDER BY ` + col + ` ` + dir + `, p.id ` + dir + `
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), f.Limit, f.Offset)

	out := make([]model.ProductListing, 0, f.Limit)
	if err := r.DB.SelectContext(ctx, &out, dataSQL, argsData...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetActive returns an active listing with its category and seller names.
func (r *ProductRepo) GetActive(ctx context.Context, id uint64) (model.ProductListing, error) {
	var p model.ProductListing
	err := r.DB.GetContext(ctx, &p, listingSelect+" WHERE p.id = ? AND p.status = 'active'", id)
	return p, notFound(err)
}

// GetListing returns a listing regardless of status.
func (r *ProductRepo) GetListing(ctx context.Context, id uint64) (model.ProductListing, error) {
	var p model.ProductListing
	err := r.DB.GetContext(ctx, &p, listingSelect+" WHERE p.id = ?", id)
	return p, notFound(err)
}

// ListBySeller returns every listing of a seller, any status, newest first.
func (r *ProductRepo) ListBySeller(ctx context.Context, sellerID uint64, limit, offset int) ([]model.ProductListing, int64, error) {
	var total int64
	if err := r.DB.GetContext(ctx, &total, "SELECT COUNT(*) FROM products WHERE seller_id = ?", sellerID); err != nil {
		return nil, 0, err
	}
	out := []model.ProductListing{}
	err := r.DB.SelectContext(ctx, &out, listingSelect+`
		WHERE p.seller_id = ?
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?`, sellerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// RecentActiveBySeller returns up to limit of the seller's newest active
// listings.
func (r *ProductRepo) RecentActiveBySeller(ctx context.Context, sellerID uint64, limit int) ([]model.ProductCard, error) {
	out := []model.ProductCard{}
	err := r.DB.SelectContext(ctx, &out, `
		SELECT p.id, p.title, p.price, p.status, p.image_url, c.name AS category_name, p.created_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.seller_id = ? AND p.status = 'active'
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ?`, sellerID, limit)
	return out, err
}

// NewProduct holds the columns required to create a listing.
type NewProduct struct {
	Title       string
	Description string
	Price       decimal.Decimal
	CategoryID  uint64
	SellerID    uint64
	ImageURL    *string
}

// Create inserts an active listing and returns its ID.
func (r *ProductRepo) Create(ctx context.Context, p NewProduct) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO products (title, description, price, category_id, seller_id, image_url)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Title, p.Description, p.Price, p.CategoryID, p.SellerID, p.ImageURL)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ProductPatch carries the columns an update may change.  Nil fields are
// left untouched.
type ProductPatch struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *uint64
	ImageURL    *string
	Status      *string
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil &&
		p.CategoryID == nil && p.ImageURL == nil && p.Status == nil
}

// Update applies patch to the listing and bumps updated_at.
func (r *ProductRepo) Update(ctx context.Context, id uint64, p ProductPatch) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.CategoryID != nil {
		add("category_id", *p.CategoryID)
	}
	if p.ImageURL != nil {
		add("image_url", *p.ImageURL)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, "UPDATE products SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOrders returns how many orders reference the product.
func (r *ProductRepo) CountOrders(ctx context.Context, id uint64) (int64, error) {
	var n int64
	err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM orders WHERE product_id = ?", id)
	return n, err
}

// DeleteTx removes the listing and every cart row pointing at it using the
// caller's transaction.
func (r *ProductRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE product_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether a product with the id is present in any state.
func (r *ProductRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM products WHERE id = ?", id); err != nil {
		return false, err
	}
	return n > 0, nil
}

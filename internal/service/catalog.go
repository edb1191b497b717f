package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ecofinds-marketplace/internal/database"
	"github.com/iliyamo/ecofinds-marketplace/internal/model"
	"github.com/iliyamo/ecofinds-marketplace/internal/repository"
)

// Catalog serves listings and categories.
type Catalog struct {
	DB         *sqlx.DB
	Products   *repository.ProductRepo
	Categories *repository.CategoryRepo
	Identity   *Identity
	Log        logrus.FieldLogger

	// Cache, when set, is invalidated after every listing change.
	Cache CacheInvalidator
}

// CacheInvalidator drops cached catalog responses.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ProductQuery is the public catalog filter as received from clients.
type ProductQuery struct {
	Category string
	Search   string
	Sort     string
	Order    string
	Page     int
	Limit    int
}

// List returns a page of active listings.  Unknown sort columns fall back
// to newest first.
func (s *Catalog) List(ctx context.Context, q ProductQuery) ([]model.ProductListing, model.Pagination, error) {
	if _, ok := repository.SortColumns[q.Sort]; !ok {
		q.Sort = "created_at"
	}
	if !strings.EqualFold(q.Order, "ASC") {
		q.Order = "DESC"
	}
	pg := model.NewPagination(q.Page, q.Limit, 0)
	items, total, err := s.Products.List(ctx, repository.ProductFilter{
		Category: strings.TrimSpace(q.Category),
		Search:   strings.TrimSpace(q.Search),
		Sort:     q.Sort,
		Order:    q.Order,
		Limit:    q.Limit,
		Offset:   pg.Offset(),
	})
	if err != nil {
		return nil, model.Pagination{}, internal("Failed to load products", err)
	}
	return items, model.NewPagination(q.Page, q.Limit, total), nil
}

// Get returns an active listing.
func (s *Catalog) Get(ctx context.Context, id uint64) (model.ProductListing, error) {
	p, err := s.Products.GetActive(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ProductListing{}, notFound("Product not found")
		}
		return model.ProductListing{}, internal("Failed to load product", err)
	}
	return p, nil
}

// ListBySeller returns every listing of a seller in any state.
func (s *Catalog) ListBySeller(ctx context.Context, sellerID uint64, page, limit int) ([]model.ProductListing, model.Pagination, error) {
	pg := model.NewPagination(page, limit, 0)
	items, total, err := s.Products.ListBySeller(ctx, sellerID, limit, pg.Offset())
	if err != nil {
		return nil, model.Pagination{}, internal("Failed to load products", err)
	}
	return items, model.NewPagination(page, limit, total), nil
}

// ProductInput is the body of a create request.
type ProductInput struct {
	Title       string
	Description string
	Price       *decimal.Decimal
	CategoryID  uint64
	ImageURL    *string
}

// Create lists a new active product for seller.
func (s *Catalog) Create(ctx context.Context, sellerID uint64, in ProductInput) (model.ProductListing, error) {
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if title == "" || desc == "" || in.Price == nil || in.CategoryID == 0 {
		return model.ProductListing{}, invalidArg("Title, description, price, and category are required")
	}
	if !in.Price.IsPositive() {
		return model.ProductListing{}, invalidArg("Price must be greater than 0")
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return model.ProductListing{}, err
	}

	id, err := s.Products.Create(ctx, repository.NewProduct{
		Title:       title,
		Description: desc,
		Price:       in.Price.Round(2),
		CategoryID:  in.CategoryID,
		SellerID:    sellerID,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		return model.ProductListing{}, internal("Failed to create product", err)
	}
	s.invalidate(ctx, id)
	p, err := s.Products.GetListing(ctx, id)
	if err != nil {
		return model.ProductListing{}, internal("Failed to load product", err)
	}
	return p, nil
}

// ProductUpdate is a partial listing change.  Nil fields are left as is.
type ProductUpdate struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *uint64
	ImageURL    *string
	Status      *string
}

// Update changes a listing the caller owns.
func (s *Catalog) Update(ctx context.Context, callerID, id uint64, upd ProductUpdate) (model.ProductListing, error) {
	if _, err := s.Identity.AuthorizeOwnership(ctx, repository.ResourceProduct, id, callerID); err != nil {
		return model.ProductListing{}, err
	}

	patch := repository.ProductPatch{
		Title:       upd.Title,
		Description: upd.Description,
		ImageURL:    upd.ImageURL,
	}
	if upd.Price != nil {
		if !upd.Price.IsPositive() {
			return model.ProductListing{}, invalidArg("Price must be greater than 0")
		}
		p := upd.Price.Round(2)
		patch.Price = &p
	}
	if upd.CategoryID != nil {
		if err := s.checkCategory(ctx, *upd.CategoryID); err != nil {
			return model.ProductListing{}, err
		}
		patch.CategoryID = upd.CategoryID
	}
	if upd.Status != nil {
		if !model.ValidProductStatus(*upd.Status) {
			return model.ProductListing{}, invalidArg("Invalid status")
		}
		patch.Status = upd.Status
	}
	if patch.Empty() {
		return model.ProductListing{}, invalidArg("No updates provided")
	}

	if err := s.Products.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ProductListing{}, notFound("Product not found")
		}
		return model.ProductListing{}, internal("Failed to update product", err)
	}
	s.invalidate(ctx, id)
	p, err := s.Products.GetListing(ctx, id)
	if err != nil {
		return model.ProductListing{}, internal("Failed to load product", err)
	}
	return p, nil
}

// Delete removes a listing the caller owns together with any cart rows
// holding it.  Listings that orders reference cannot be deleted.
func (s *Catalog) Delete(ctx context.Context, callerID, id uint64) error {
	if _, err := s.Identity.AuthorizeOwnership(ctx, repository.ResourceProduct, id, callerID); err != nil {
		return err
	}
	n, err := s.Products.CountOrders(ctx, id)
	if err != nil {
		return internal("Failed to delete product", err)
	}
	if n > 0 {
		return invalidOp("Cannot delete product with existing orders. Mark as inactive instead.")
	}
	err = database.WithTransaction(ctx, s.DB, database.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		return s.Products.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Product not found")
		}
		return internal("Failed to delete product", err)
	}
	s.invalidate(ctx, id)
	s.Log.WithFields(logrus.Fields{"product_id": id, "seller_id": callerID}).Info("product deleted")
	return nil
}

func (s *Catalog) invalidate(ctx context.Context, productID uint64) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.Log.WithError(err).WithField("product_id", productID).Warn("catalog cache not invalidated")
	}
}

// ListCategories returns every category ordered by name.
func (s *Catalog) ListCategories(ctx context.Context) ([]model.Category, error) {
	out, err := s.Categories.List(ctx)
	if err != nil {
		return nil, internal("Failed to load categories", err)
	}
	return out, nil
}

func (s *Catalog) checkCategory(ctx context.Context, id uint64) error {
	ok, err := s.Categories.Exists(ctx, id)
	if err != nil {
		return internal("Failed to check category", err)
	}
	if !ok {
		return invalidArg("Invalid category")
	}
	return nil
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ecofinds-marketplace/internal/middleware"
	"github.com/iliyamo/ecofinds-marketplace/internal/model"
	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

// ProductHandler serves the public catalog and sellers' listing management.
type ProductHandler struct {
	base
	Catalog *service.Catalog
}

func NewProductHandler(catalog *service.Catalog, opts Options) *ProductHandler {
	return &ProductHandler{base: newBase(opts), Catalog: catalog}
}

// markOwned flags the caller's own listings.  Anonymous reads are left as
// they are.
func markOwned(c echo.Context, items []model.ProductListing) {
	u, ok := middleware.Caller(c)
	if !ok {
		return
	}
	for i := range items {
		items[i].IsOwner = items[i].SellerID == u.ID
	}
}

type productReq struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  uint64           `json:"category_id"`
	ImageURL    *string          `json:"image_url"`
}

type productPatchReq struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *uint64          `json:"category_id"`
	ImageURL    *string          `json:"image_url"`
	Status      *string          `json:"status"`
}

// List pages through active listings.  Query: category, search, sort,
// order, page, limit.
func (h *ProductHandler) List(c echo.Context) error {
	pg, limit := page(c, 12, 100)
	ctx, cancel := h.ctx(c)
	defer cancel()

	items, p, err := h.Catalog.List(ctx, service.ProductQuery{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
		Sort:     c.QueryParam("sort"),
		Order:    c.QueryParam("order"),
		Page:     pg,
		Limit:    limit,
	})
	if err != nil {
		return h.fail(c, err)
	}
	markOwned(c, items)
	return c.JSON(http.StatusOK, echo.Map{"products": items, "pagination": p})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id", "product ID")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Catalog.Get(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	if u, ok := middleware.Caller(c); ok {
		p.IsOwner = p.SellerID == u.ID
	}
	return c.JSON(http.StatusOK, echo.Map{"product": p})
}

// BySeller lists every listing of a seller regardless of status.
func (h *ProductHandler) BySeller(c echo.Context) error {
	sellerID, err := pathID(c, "userId", "user ID")
	if err != nil {
		return h.fail(c, err)
	}
	pg, limit := page(c, 12, 100)
	ctx, cancel := h.ctx(c)
	defer cancel()

	items, p, err := h.Catalog.ListBySeller(ctx, sellerID, pg, limit)
	if err != nil {
		return h.fail(c, err)
	}
	markOwned(c, items)
	return c.JSON(http.StatusOK, echo.Map{"products": items, "pagination": p})
}

func (h *ProductHandler) Create(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Catalog.Create(ctx, u.ID, service.ProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Product created successfully", "product": p})
}

func (h *ProductHandler) Update(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id", "product ID")
	if err != nil {
		return h.fail(c, err)
	}
	var req productPatchReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Catalog.Update(ctx, u.ID, id, service.ProductUpdate{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
		Status:      req.Status,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product updated successfully", "product": p})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id", "product ID")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Catalog.Delete(ctx, u.ID, id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

func (h *ProductHandler) Categories(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	cats, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}

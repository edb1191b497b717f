package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

// OrderHandler serves direct purchases and both sides of order history.
type OrderHandler struct {
	base
	Orders *service.Orders
}

func NewOrderHandler(orders *service.Orders, opts Options) *OrderHandler {
	return &OrderHandler{base: newBase(opts), Orders: orders}
}

type createOrderReq struct {
	ProductID uint64 `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type statusReq struct {
	Status string `json:"status"`
}

// Create buys a product directly ("Buy Now"); quantity defaults to 1.
func (h *OrderHandler) Create(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	o, err := h.Orders.Create(ctx, u.ID, req.ProductID, qty)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Order created successfully", "order": o})
}

func (h *OrderHandler) Purchases(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	pg, limit := page(c, 10, 100)
	ctx, cancel := h.ctx(c)
	defer cancel()

	orders, p, err := h.Orders.ListForBuyer(ctx, u.ID, pg, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders, "pagination": p})
}

func (h *OrderHandler) Sales(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	pg, limit := page(c, 10, 100)
	ctx, cancel := h.ctx(c)
	defer cancel()

	orders, p, err := h.Orders.ListForSeller(ctx, u.ID, pg, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders, "pagination": p})
}

// UpdateStatus lets the seller move an order to any of the five statuses.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id", "order ID")
	if err != nil {
		return h.fail(c, err)
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, u.ID, id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Order status updated successfully", "order": o})
}

func (h *OrderHandler) Get(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id", "order ID")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, u.ID, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order": o})
}

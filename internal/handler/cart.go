package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

// CartHandler serves the caller's cart and checkout.
type CartHandler struct {
	base
	Cart *service.Cart
}

func NewCartHandler(cart *service.Cart, opts Options) *CartHandler {
	return &CartHandler{base: newBase(opts), Cart: cart}
}

type addItemReq struct {
	ProductID uint64 `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type setQuantityReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) View(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	v, err := h.Cart.View(ctx, u.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Add puts a product in the cart; quantity defaults to 1.
func (h *CartHandler) Add(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req addItemReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	if req.ProductID == 0 {
		return h.fail(c, badRequest("Product ID is required"))
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Cart.AddItem(ctx, u.ID, req.ProductID, qty); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Item added to cart successfully"})
}

func (h *CartHandler) SetQuantity(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	productID, err := pathID(c, "productId", "product ID")
	if err != nil {
		return h.fail(c, err)
	}
	var req setQuantityReq
	if err := c.Bind(&req); err != nil {
		return h.fail(c, badRequest("Invalid request body"))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Cart.SetQuantity(ctx, u.ID, productID, req.Quantity); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart item updated successfully"})
}

func (h *CartHandler) Remove(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	productID, err := pathID(c, "productId", "product ID")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Cart.RemoveItem(ctx, u.ID, productID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Item removed from cart successfully"})
}

func (h *CartHandler) Clear(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Cart.Clear(ctx, u.ID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart cleared successfully"})
}

// Checkout turns the cart into orders.  Per-line failures are reported in
// "errors" next to the orders that were created.
func (h *CartHandler) Checkout(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.Cart.Checkout(ctx, u.ID)
	if err != nil {
		return h.fail(c, err)
	}
	body := echo.Map{
		"message": fmt.Sprintf("Checkout completed. %d orders created.", len(res.Orders)),
		"orders":  res.Orders,
	}
	if len(res.Errors) > 0 {
		body["errors"] = res.Errors
	}
	return c.JSON(http.StatusOK, body)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

// UserHandler serves profiles, user search and the dashboard.
type UserHandler struct {
	base
	Accounts *service.Accounts
}

func NewUserHandler(accounts *service.Accounts, opts Options) *UserHandler {
	return &UserHandler{base: newBase(opts), Accounts: accounts}
}

// Profile returns a user with product and purchase counts.
func (h *UserHandler) Profile(c echo.Context) error {
	id, err := pathID(c, "id", "user ID")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Accounts.Profile(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": p})
}

// Public returns the storefront view of a user.
func (h *UserHandler) Public(c echo.Context) error {
	id, err := pathID(c, "id", "user ID")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.Accounts.PublicProfile(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":          p.User.ID,
			"username":    p.User.Username,
			"memberSince": p.User.CreatedAt,
		},
		"products": p.Products,
		"stats":    echo.Map{"totalProducts": len(p.Products)},
	})
}

// Search looks users up by username fragment.
func (h *UserHandler) Search(c echo.Context) error {
	pg, limit := page(c, 10, 100)
	ctx, cancel := h.ctx(c)
	defer cancel()

	users, p, err := h.Accounts.Search(ctx, c.Param("username"), pg, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users, "pagination": p})
}

// Dashboard returns the caller's stats and recent activity.
func (h *UserHandler) Dashboard(c echo.Context) error {
	u, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	d, err := h.Accounts.Dashboard(ctx, u.ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"productStats": d.ProductStats,
		"buyerStats":   d.BuyerStats,
		"sellerStats":  d.SellerStats,
		"recentActivity": echo.Map{
			"products": d.RecentProducts,
			"orders":   d.RecentOrders,
		},
	})
}

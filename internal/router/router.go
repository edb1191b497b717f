package router // package router registers the HTTP surface on an Echo instance

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecofinds-marketplace/internal/handler"
	"github.com/iliyamo/ecofinds-marketplace/internal/middleware"
	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

// Handlers groups everything RegisterAll mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
	Messages *handler.MessageHandler
	Users    *handler.UserHandler
}

// RegisterAll mounts every /v1 route.  cache wraps the public catalog
// reads; pass nil to serve them uncached.  Product reads resolve an
// optional caller so listings the caller owns are flagged.
func RegisterAll(e *echo.Echo, h Handlers, identity *service.Identity, cache echo.MiddlewareFunc) {
	auth := middleware.JWTAuth(identity)
	optional := middleware.OptionalAuth(identity)
	if cache == nil {
		cache = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	a := e.Group("/v1/auth")
	a.POST("/register", h.Auth.Register)
	a.POST("/login", h.Auth.Login)
	a.GET("/me", h.Auth.Me, auth)
	a.GET("/verify", h.Auth.Verify, auth)
	a.PUT("/profile", h.Auth.UpdateProfile, auth)

	e.GET("/v1/categories", h.Products.Categories, cache)

	p := e.Group("/v1/products")
	// optional runs first so signed-in reads skip the shared cache.
	p.GET("", h.Products.List, optional, cache)
	p.GET("/categories/list", h.Products.Categories, cache)
	p.GET("/user/:userId", h.Products.BySeller, optional, cache)
	p.GET("/:id", h.Products.Get, optional, cache)
	p.POST("", h.Products.Create, auth)
	p.PUT("/:id", h.Products.Update, auth)
	p.DELETE("/:id", h.Products.Delete, auth)

	c := e.Group("/v1/cart", auth)
	c.GET("", h.Cart.View)
	c.POST("/add", h.Cart.Add)
	c.POST("/checkout", h.Cart.Checkout)
	c.PUT("/:productId", h.Cart.SetQuantity)
	c.DELETE("/:productId", h.Cart.Remove)
	c.DELETE("", h.Cart.Clear)

	o := e.Group("/v1/orders", auth)
	o.POST("", h.Orders.Create)
	o.GET("/purchases", h.Orders.Purchases)
	o.GET("/sales", h.Orders.Sales)
	o.PUT("/:id/status", h.Orders.UpdateStatus)
	o.GET("/:id", h.Orders.Get)

	// The chatbot is public, so it is registered outside the guarded group.
	e.POST("/v1/messages/chatbot", h.Messages.Chatbot)
	m := e.Group("/v1/messages", auth)
	m.GET("/conversations", h.Messages.Conversations)
	m.GET("/unread/count", h.Messages.UnreadCount)
	m.PUT("/read", h.Messages.MarkRead)
	m.POST("/send", h.Messages.Send)
	m.GET("/:userId", h.Messages.Thread)

	u := e.Group("/v1/users")
	u.GET("/dashboard/stats", h.Users.Dashboard, auth)
	u.GET("/search/:username", h.Users.Search)
	u.GET("/:id", h.Users.Profile)
	u.GET("/:id/public", h.Users.Public)
}

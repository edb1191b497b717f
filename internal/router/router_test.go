package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ecofinds-marketplace/internal/database"
	"github.com/iliyamo/ecofinds-marketplace/internal/handler"
	"github.com/iliyamo/ecofinds-marketplace/internal/repository"
	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, db))
	require.NoError(t, database.SeedCategories(ctx, db))

	log, _ := test.NewNullLogger()
	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	identity := service.NewIdentity(users, repository.NewOwnershipRepo(db), "router-test", time.Hour)
	accounts := &service.Accounts{
		Users: users, Products: products, Stats: repository.NewStatsRepo(db),
		Identity: identity, BcryptCost: 4, Log: log,
	}
	opts := handler.Options{Log: log, Timeout: 5 * time.Second}

	e := echo.New()
	e.GET("/healthz", handler.Health(db))
	RegisterAll(e, Handlers{
		Auth: handler.NewAuthHandler(accounts, opts),
		Products: handler.NewProductHandler(&service.Catalog{
			DB: db, Products: products, Categories: repository.NewCategoryRepo(db), Identity: identity, Log: log,
		}, opts),
		Cart: handler.NewCartHandler(&service.Cart{
			DB: db, Items: repository.NewCartRepo(db), Products: products, Orders: orders, Log: log,
		}, opts),
		Orders: handler.NewOrderHandler(&service.Orders{
			Orders: orders, Products: products, Identity: identity, Log: log,
		}, opts),
		Messages: handler.NewMessageHandler(&service.Messaging{
			Messages: repository.NewMessageRepo(db), Users: users, Products: products, Log: log,
		}, opts),
		Users: handler.NewUserHandler(accounts, opts),
	}, identity, nil)
	return &api{t: t, e: e}
}

// call performs a request and decodes the JSON response into a map.
func (a *api) call(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

// register signs up name and returns its token and user ID.
func (a *api) register(name string) (string, uint64) {
	a.t.Helper()
	status, body := a.call(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": name, "email": name + "@example.com", "password": "secret1",
	})
	require.Equal(a.t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	return body["token"].(string), uint64(user["id"].(float64))
}

func (a *api) listProduct(token, title string, price float64) uint64 {
	a.t.Helper()
	status, body := a.call(http.MethodPost, "/v1/products", token, map[string]any{
		"title": title, "description": title + " in good condition", "price": price, "category_id": 1,
	})
	require.Equal(a.t, http.StatusCreated, status, body)
	return uint64(body["product"].(map[string]any)["id"].(float64))
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)
	token, id := a.register("alice")

	status, body := a.call(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "alice2", "email": "ALICE@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "conflict", body["error"])
	assert.Equal(t, "User already exists with this email or username", body["message"])

	status, body = a.call(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["message"])

	status, body = a.call(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email and password are required", body["message"])

	status, body = a.call(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, body = a.call(http.MethodGet, "/v1/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(id), body["user"].(map[string]any)["id"])

	status, body = a.call(http.MethodPut, "/v1/auth/profile", token, map[string]string{"username": "alicia"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alicia", body["user"].(map[string]any)["username"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newAPI(t)
	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/v1/cart"},
		{http.MethodPost, "/v1/products"},
		{http.MethodGet, "/v1/orders/purchases"},
		{http.MethodGet, "/v1/messages/conversations"},
		{http.MethodGet, "/v1/users/dashboard/stats"},
		{http.MethodGet, "/v1/auth/me"},
	} {
		status, body := a.call(route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, route.path)
		assert.Equal(t, "unauthenticated", body["error"], route.path)
		assert.Equal(t, "Access token required", body["message"], route.path)
	}

	status, body := a.call(http.MethodGet, "/v1/cart", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", body["message"])
}

func TestCatalogRoutes(t *testing.T) {
	a := newAPI(t)
	seller, sellerID := a.register("seller")
	other, _ := a.register("other")
	id := a.listProduct(seller, "Desk lamp", 20)

	status, body := a.call(http.MethodGet, "/v1/products?search=lamp", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["products"], 1)
	pg := body["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pg["page"])
	assert.Equal(t, float64(12), pg["limit"])
	assert.Equal(t, float64(1), pg["total"])

	status, body = a.call(http.MethodGet, fmt.Sprintf("/v1/products/%d", id), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(20), body["product"].(map[string]any)["price"])
	assert.NotContains(t, body["product"], "is_owner")

	_, body = a.call(http.MethodGet, fmt.Sprintf("/v1/products/%d", id), seller, nil)
	assert.Equal(t, true, body["product"].(map[string]any)["is_owner"])
	_, body = a.call(http.MethodGet, fmt.Sprintf("/v1/products/%d", id), other, nil)
	assert.NotContains(t, body["product"], "is_owner")
	_, body = a.call(http.MethodGet, "/v1/products", seller, nil)
	assert.Equal(t, true, body["products"].([]any)[0].(map[string]any)["is_owner"])

	status, _ = a.call(http.MethodGet, "/v1/products/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, body = a.call(http.MethodGet, "/v1/products/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])

	status, body = a.call(http.MethodPut, fmt.Sprintf("/v1/products/%d", id), other, map[string]any{"price": 5})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access denied", body["message"])

	status, body = a.call(http.MethodPut, fmt.Sprintf("/v1/products/%d", id), seller, map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, status, body)
	status, _ = a.call(http.MethodGet, fmt.Sprintf("/v1/products/%d", id), "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.call(http.MethodGet, fmt.Sprintf("/v1/products/user/%d", sellerID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["products"], 1)

	for _, path := range []string{"/v1/categories", "/v1/products/categories/list"} {
		status, body = a.call(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, body["categories"], len(database.DefaultCategories))
	}

	status, body = a.call(http.MethodDelete, fmt.Sprintf("/v1/products/%d", id), seller, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Product deleted successfully", body["message"])
}

func TestCartCheckoutAndOrders(t *testing.T) {
	a := newAPI(t)
	seller, _ := a.register("seller")
	buyer, _ := a.register("buyer")
	stranger, _ := a.register("stranger")
	lamp := a.listProduct(seller, "Desk lamp", 20)
	mine := a.listProduct(buyer, "Old chair", 15)

	status, body := a.call(http.MethodPost, "/v1/cart/checkout", buyer, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "empty_cart", body["error"])

	status, _ = a.call(http.MethodPost, "/v1/cart/add", buyer, map[string]any{"product_id": lamp})
	require.Equal(t, http.StatusOK, status)
	status, _ = a.call(http.MethodPost, "/v1/cart/add", buyer, map[string]any{"product_id": lamp, "quantity": 1})
	require.Equal(t, http.StatusOK, status)
	status, body = a.call(http.MethodPost, "/v1/cart/add", buyer, map[string]any{"product_id": mine})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot add your own product to cart", body["message"])
	status, body = a.call(http.MethodPost, "/v1/cart/add", buyer, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Product ID is required", body["message"])

	status, body = a.call(http.MethodGet, "/v1/cart", buyer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["cartItems"], 1)
	assert.Equal(t, float64(40), body["total"])

	status, body = a.call(http.MethodPost, "/v1/cart/checkout", buyer, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Checkout completed. 1 orders created.", body["message"])
	assert.NotContains(t, body, "errors")
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	orderID := uint64(orders[0].(map[string]any)["order_id"].(float64))

	status, body = a.call(http.MethodGet, "/v1/cart", buyer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["cartItems"])

	status, body = a.call(http.MethodGet, "/v1/orders/sales", seller, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["orders"], 1)
	assert.Equal(t, float64(10), body["pagination"].(map[string]any)["limit"])

	statusPath := fmt.Sprintf("/v1/orders/%d/status", orderID)
	status, _ = a.call(http.MethodPut, statusPath, buyer, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, status)
	status, body = a.call(http.MethodPut, statusPath, seller, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid status", body["message"])
	status, _ = a.call(http.MethodPut, "/v1/orders/999/status", seller, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusNotFound, status)
	status, body = a.call(http.MethodPut, statusPath, seller, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "shipped", body["order"].(map[string]any)["status"])

	orderPath := fmt.Sprintf("/v1/orders/%d", orderID)
	status, _ = a.call(http.MethodGet, orderPath, buyer, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = a.call(http.MethodGet, orderPath, stranger, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.call(http.MethodPost, "/v1/orders", buyer, map[string]any{"product_id": mine})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot buy your own product", body["message"])
	status, body = a.call(http.MethodPost, "/v1/orders", stranger, map[string]any{"product_id": lamp, "quantity": 3})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, float64(60), body["order"].(map[string]any)["total_price"])

	status, body = a.call(http.MethodDelete, fmt.Sprintf("/v1/products/%d", lamp), seller, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_operation", body["error"])
}

func TestMessagingRoutes(t *testing.T) {
	a := newAPI(t)
	alice, aliceID := a.register("alice")
	bob, bobID := a.register("bob")

	status, body := a.call(http.MethodPost, "/v1/messages/send", alice, map[string]any{
		"receiver_id": bobID, "message": "Is the lamp still available?",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Message sent successfully", body["message"])

	status, body = a.call(http.MethodPost, "/v1/messages/send", alice, map[string]any{"receiver_id": 9999, "message": "hi"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Receiver not found", body["message"])

	status, body = a.call(http.MethodGet, "/v1/messages/unread/count", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["unreadCount"])

	status, body = a.call(http.MethodGet, fmt.Sprintf("/v1/messages/%d", aliceID), bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["messages"], 1)
	assert.Equal(t, "alice", body["otherUser"].(map[string]any)["username"])

	status, body = a.call(http.MethodGet, "/v1/messages/unread/count", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["unreadCount"])

	status, body = a.call(http.MethodGet, "/v1/messages/conversations", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["conversations"], 1)

	status, body = a.call(http.MethodPut, "/v1/messages/read", bob, map[string]any{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["updatedCount"])
}

func TestChatbotIsPublic(t *testing.T) {
	a := newAPI(t)

	status, body := a.call(http.MethodPost, "/v1/messages/chatbot", "", map[string]string{"message": "How do I sell my bike?"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["response"], "sell")
	assert.NotEmpty(t, body["timestamp"])

	status, body = a.call(http.MethodPost, "/v1/messages/chatbot", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Message is required", body["message"])
}

func TestUserRoutes(t *testing.T) {
	a := newAPI(t)
	seller, sellerID := a.register("seller")
	a.listProduct(seller, "Desk lamp", 20)

	status, body := a.call(http.MethodGet, fmt.Sprintf("/v1/users/%d", sellerID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["user"].(map[string]any)["productCount"])

	status, body = a.call(http.MethodGet, fmt.Sprintf("/v1/users/%d/public", sellerID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["stats"].(map[string]any)["totalProducts"])

	status, _ = a.call(http.MethodGet, "/v1/users/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.call(http.MethodGet, "/v1/users/search/sell", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["users"], 1)

	status, body = a.call(http.MethodGet, "/v1/users/dashboard/stats", seller, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["productStats"].(map[string]any)["total_products"])
	assert.Contains(t, body, "recentActivity")
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	status, body := a.call(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

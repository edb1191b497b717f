package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ecofinds-marketplace/internal/model"
	"github.com/iliyamo/ecofinds-marketplace/internal/queue"
)

func TestAddItemMergesQuantities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.user(t, "seller")
	buyer := env.user(t, "buyer")
	p := env.product(t, seller, "Bamboo desk", "12.50")

	require.NoError(t, env.cart.AddItem(ctx, buyer, p, 2))
	require.NoError(t, env.cart.AddItem(ctx, buyer, p, 3))

	view, err := env.cart.View(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.Equal(t, "seller", view.Items[0].SellerName)
	assert.True(t, dec("62.50").Equal(view.Total), "total %s", view.Total)
}

func TestAddItemRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.user(t, "seller")
	buyer := env.user(t, "buyer")
	own := env.product(t, buyer, "Own lamp", "5")
	gone := env.product(t, seller, "Sold lamp", "5")
	env.setStatus(t, gone, model.ProductStatusSold)
	ok := env.product(t, seller, "Lamp", "5")

	requireKind(t, KindInvalidOperation, env.cart.AddItem(ctx, buyer, own, 1))
	requireKind(t, KindNotFound, env.cart.AddItem(ctx, buyer, gone, 1))
	requireKind(t, KindNotFound, env.cart.AddItem(ctx, buyer, 9999, 1))
	requireKind(t, KindInvalidArgument, env.cart.AddItem(ctx, buyer, ok, 0))
	requireKind(t, KindInvalidArgument, env.cart.AddItem(ctx, buyer, ok, -2))

	assert.Empty(t, env.cartQuantities(t, buyer))
}

func TestSetQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.user(t, "seller")
	buyer := env.user(t, "buyer")
	p := env.product(t, seller, "Wool scarf", "8")
	other := env.product(t, seller, "Wool hat", "6")
	require.NoError(t, env.cart.AddItem(ctx, buyer, p, 4))

	for _, q := range []int{0, -1} {
		requireKind(t, KindInvalidArgument, env.cart.SetQuantity(ctx, buyer, p, q))
	}
	assert.Equal(t, 4, env.cartQuantities(t, buyer)[p])

	require.NoError(t, env.cart.SetQuantity(ctx, buyer, p, 1))
	assert.Equal(t, 1, env.cartQuantities(t, buyer)[p])

	requireKind(t, KindNotFound, env.cart.SetQuantity(ctx, buyer, other, 2))
}

func TestRemoveAndClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.user(t, "seller")
	buyer := env.user(t, "buyer")
	a := env.product(t, seller, "Mug", "3")
	b := env.product(t, seller, "Plate", "4")
	require.NoError(t, env.cart.AddItem(ctx, buyer, a, 1))
	require.NoError(t, env.cart.AddItem(ctx, buyer, b, 1))

	require.NoError(t, env.cart.RemoveItem(ctx, buyer, a))
	requireKind(t, KindNotFound, env.cart.RemoveItem(ctx, buyer, a))
	assert.Equal(t, map[uint64]int{b: 1}, env.cartQuantities(t, buyer))

	require.NoError(t, env.cart.Clear(ctx, buyer))
	require.NoError(t, env.cart.Clear(ctx, buyer))
	assert.Empty(t, env.cartQuantities(t, buyer))
}

func TestViewUsesCurrentPrice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.user(t, "seller")
	buyer := env.user(t, "buyer")
	p := env.product(t, seller, "Bike", "100")
	require.NoError(t, env.cart.AddItem(ctx, buyer, p, 2))

	_, err := env.catalog.Update(ctx, seller, p, ProductUpdate{Price: ptr(dec("80.25"))})
	require.NoError(t, err)

	view, err := env.cart.View(ctx, buyer)
	require.NoError(t, err)
	assert.True(t, dec("160.50").Equal(view.Total), "total %s", view.Total)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.user(t, "seller")
	buyer := env.user(t, "buyer")

	_, err := env.cart.Checkout(ctx, buyer)
	requireKind(t, KindEmptyCart, err)

	p := env.product(t, seller, "Chair", "20")
	require.NoError(t, env.cart.AddItem(ctx, buyer, p, 1))
	env.setStatus(t, p, model.ProductStatusInactive)

	_, err = env.cart.Checkout(ctx, buyer)
	requireKind(t, KindEmptyCart, err)
	assert.Equal(t, 0, env.countOrders(t))
	assert.Equal(t, map[uint64]int{p: 1}, env.cartQuantities(t, buyer))
	assert.Empty(t, env.events.Events())
}

func TestCheckoutCreatesOneOrderPerLine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.user(t, "seller")
	buyer := env.user(t, "buyer")
	prices := []string{"10", "2.25", "99.99"}
	for i, price := range prices {
		p := env.product(t, seller, "Item "+price, price)
		require.NoError(t, env.cart.AddItem(ctx, buyer, p, i+1))
	}

	res, err := env.cart.Checkout(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, res.Orders, 3)
	assert.Empty(t, res.Errors)

	want := []string{"10", "4.5", "299.97"}
	for i, o := range res.Orders {
		assert.Equal(t, i+1, o.Quantity)
		assert.True(t, dec(want[i]).Equal(o.TotalPrice), "order %d total %s", i, o.TotalPrice)

		d, err := env.orders.GetByID(ctx, buyer, o.OrderID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPending, d.Status)
		assert.True(t, dec(want[i]).Equal(d.TotalPrice))
	}
	assert.Empty(t, env.cartQuantities(t, buyer))

	evs := env.events.Events()
	require.Len(t, evs, 3)
	for _, ev := range evs {
		assert.Equal(t, queue.EventOrderCreated, ev.Type)
		assert.Equal(t, queue.SourceCheckout, ev.Source)
		assert.NotEmpty(t, ev.OccurredAt)
	}
}

func TestCheckoutSkipsOwnProductAndKeepsInactiveLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.user(t, "seller")
	buyer := env.user(t, "buyer")
	a := env.product(t, seller, "Table", "40")
	b := env.product(t, seller, "Shelf", "15")
	own := env.product(t, buyer, "My own vase", "9")
	stale := env.product(t, seller, "Rug", "30")

	require.NoError(t, env.cart.AddItem(ctx, buyer, a, 1))
	require.NoError(t, env.cart.AddItem(ctx, buyer, b, 2))
	require.NoError(t, env.cart.AddItem(ctx, buyer, stale, 1))
	// AddItem refuses own products, so plant the row directly.
	require.NoError(t, env.cartItems.Merge(ctx, buyer, own, 1))
	env.setStatus(t, stale, model.ProductStatusSold)

	res, err := env.cart.Checkout(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, res.Orders, 2)
	assert.Equal(t, []string{"Cannot buy your own product: My own vase"}, res.Errors)
	assert.Equal(t, 2, env.countOrders(t))
	assert.Equal(t, map[uint64]int{stale: 1}, env.cartQuantities(t, buyer))
}

func TestCheckoutRecordsFailedInsertAndContinues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := env.user(t, "seller")
	buyer := env.user(t, "buyer")
	first := env.product(t, seller, "Chair", "12")
	bad := env.product(t, seller, "Broken clock", "7")
	last := env.product(t, seller, "Mirror", "25")
	for _, p := range []uint64{first, bad, last} {
		require.NoError(t, env.cart.AddItem(ctx, buyer, p, 1))
	}

	_, err := env.db.Exec(fmt.Sprintf(`CREATE TRIGGER reject_order BEFORE INSERT ON orders
		WHEN NEW.product_id = %d BEGIN SELECT RAISE(ABORT, 'rejected'); END`, bad))
	require.NoError(t, err)

	res, err := env.cart.Checkout(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, res.Orders, 2)
	assert.Equal(t, "Chair", res.Orders[0].ProductTitle)
	assert.Equal(t, "Mirror", res.Orders[1].ProductTitle)
	assert.Equal(t, []string{"Failed to create order for Broken clock"}, res.Errors)
	assert.Equal(t, 2, env.countOrders(t))
	assert.Empty(t, env.cartQuantities(t, buyer))
	assert.Len(t, env.events.Events(), 2)
}

func TestCheckoutAllOwnProductsKeepsCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.user(t, "buyer")
	own := env.product(t, buyer, "Own", "9")
	require.NoError(t, env.cartItems.Merge(ctx, buyer, own, 1))

	res, err := env.cart.Checkout(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, res.Orders)
	assert.Len(t, res.Errors, 1)
	assert.Equal(t, map[uint64]int{own: 1}, env.cartQuantities(t, buyer))
}

func TestExampleScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	p := env.product(t, a, "Vintage radio", "10.00")

	require.NoError(t, env.cart.AddItem(ctx, b, p, 3))
	view, err := env.cart.View(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "30.00", view.Total.StringFixed(2))

	res, err := env.cart.Checkout(ctx, b)
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	assert.Equal(t, "30.00", res.Orders[0].TotalPrice.StringFixed(2))
	assert.Empty(t, env.cartQuantities(t, b))

	orderID := res.Orders[0].OrderID
	d, err := env.orders.UpdateStatus(ctx, a, orderID, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, d.Status)
	assert.Equal(t, "30.00", d.TotalPrice.StringFixed(2))

	_, err = env.orders.UpdateStatus(ctx, b, orderID, model.OrderStatusCancelled)
	requireKind(t, KindForbidden, err)
}

func ptr[T any](v T) *T { return &v }

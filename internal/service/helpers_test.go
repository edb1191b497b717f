package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ecofinds-marketplace/internal/database"
	"github.com/iliyamo/ecofinds-marketplace/internal/queue"
	"github.com/iliyamo/ecofinds-marketplace/internal/repository"
)

const testSecret = "test-secret"

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Events() []queue.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.OrderEvent(nil), p.events...)
}

type testEnv struct {
	db        *sqlx.DB
	users     *repository.UserRepo
	products  *repository.ProductRepo
	cartItems *repository.CartRepo
	identity  *Identity
	accounts  *Accounts
	catalog   *Catalog
	cart      *Cart
	orders    *Orders
	messaging *Messaging
	events    *recordingPublisher
	hook      *test.Hook
	category  uint64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, db))
	require.NoError(t, database.SeedCategories(ctx, db))

	logger, hook := test.NewNullLogger()
	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	categories := repository.NewCategoryRepo(db)
	cartItems := repository.NewCartRepo(db)
	orders := repository.NewOrderRepo(db)
	events := &recordingPublisher{}

	identity := NewIdentity(users, repository.NewOwnershipRepo(db), testSecret, 7*24*time.Hour)

	cats, err := categories.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cats)

	return &testEnv{
		db:        db,
		users:     users,
		products:  products,
		cartItems: cartItems,
		identity:  identity,
		accounts: &Accounts{
			Users: users, Products: products, Stats: repository.NewStatsRepo(db),
			Identity: identity, BcryptCost: 4, Log: logger,
		},
		catalog: &Catalog{DB: db, Products: products, Categories: categories, Identity: identity, Log: logger},
		cart: &Cart{
			DB: db, Items: cartItems, Products: products, Orders: orders,
			Events: events, Log: logger,
		},
		orders: &Orders{Orders: orders, Products: products, Identity: identity, Events: events, Log: logger},
		messaging: &Messaging{
			Messages: repository.NewMessageRepo(db), Users: users, Products: products, Log: logger,
		},
		events:   events,
		hook:     hook,
		category: cats[0].ID,
	}
}

func (e *testEnv) user(t *testing.T, name string) uint64 {
	t.Helper()
	id, err := e.users.Create(context.Background(), name, name+"@example.com", "not-a-real-hash")
	require.NoError(t, err)
	return id
}

func (e *testEnv) product(t *testing.T, sellerID uint64, title, price string) uint64 {
	t.Helper()
	id, err := e.products.Create(context.Background(), repository.NewProduct{
		Title:       title,
		Description: title + " in good condition",
		Price:       decimal.RequireFromString(price),
		CategoryID:  e.category,
		SellerID:    sellerID,
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) setStatus(t *testing.T, productID uint64, status string) {
	t.Helper()
	require.NoError(t, e.products.Update(context.Background(), productID, repository.ProductPatch{Status: &status}))
}

func (e *testEnv) cartQuantities(t *testing.T, buyerID uint64) map[uint64]int {
	t.Helper()
	lines, err := e.cartItems.Lines(context.Background(), buyerID)
	require.NoError(t, err)
	out := map[uint64]int{}
	for _, l := range lines {
		out[l.ProductID] = l.Quantity
	}
	return out
}

func (e *testEnv) countOrders(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Get(&n, "SELECT COUNT(*) FROM orders"))
	return n
}

func requireKind(t *testing.T, want Kind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, KindOf(err), "error: %v", err)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }


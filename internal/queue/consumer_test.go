package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsumer(t *testing.T) (*Consumer, *test.Hook, string) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "logs", "orders.log")
	return &Consumer{Queue: "orders.events", Log: &OrderLog{Path: path}, Ent: logger}, hook, path
}

func TestHandleAppendsOrderCreated(t *testing.T) {
	c, hook, path := newTestConsumer(t)
	ev := OrderEvent{
		Type:         EventOrderCreated,
		OrderID:      7,
		BuyerID:      2,
		SellerID:     1,
		ProductID:    3,
		ProductTitle: "Oak chair",
		Quantity:     3,
		TotalPrice:   decimal.RequireFromString("30"),
		Status:       "pending",
		Source:       SourceCheckout,
		OccurredAt:   "2025-01-01T00:00:00Z",
	}
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, c.Handle(body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"[2025-01-01T00:00:00Z] Order created | order_id=7 | buyer_id=2 | seller_id=1 | product=\"Oak chair\" | qty=3 | total=30.00 | source=checkout\n",
		string(data))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, uint64(7), hook.LastEntry().Data["order_id"])
}

func TestHandleAppendsStatusChange(t *testing.T) {
	c, _, path := newTestConsumer(t)
	body := []byte(`{"type":"order.status_changed","order_id":9,"buyer_id":2,"seller_id":1,"product_title":"Lamp","status":"shipped","occurred_at":"t"}`)

	require.NoError(t, c.Handle(body))
	require.NoError(t, c.Handle(body))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := "[t] Order status changed | order_id=9 | buyer_id=2 | seller_id=1 | product=\"Lamp\" | status=shipped\n"
	assert.Equal(t, line+line, string(data))
}

func TestHandleRejectsMalformed(t *testing.T) {
	c, _, path := newTestConsumer(t)

	assert.Error(t, c.Handle([]byte("not json")))
	assert.Error(t, c.Handle([]byte(`{"type":"order.created"}`)))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

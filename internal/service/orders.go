package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ecofinds-marketplace/internal/metrics"
	"github.com/iliyamo/ecofinds-marketplace/internal/model"
	"github.com/iliyamo/ecofinds-marketplace/internal/queue"
	"github.com/iliyamo/ecofinds-marketplace/internal/repository"
)

const (
	defaultOrderLimit = 10
	maxOrderLimit     = 100
)

// Orders creates single-item purchases and manages order status.
type Orders struct {
	Orders   *repository.OrderRepo
	Products *repository.ProductRepo
	Identity *Identity
	Events   EventPublisher
	Log      logrus.FieldLogger
}

// Create buys quantity units of an active product outside the cart.  The
// total is frozen at the product's current price.
func (s *Orders) Create(ctx context.Context, buyerID, productID uint64, quantity int) (model.OrderDetail, error) {
	if productID == 0 {
		return model.OrderDetail{}, invalidArg("Product ID is required")
	}
	if quantity <= 0 {
		return model.OrderDetail{}, invalidArg("Quantity must be greater than 0")
	}
	p, err := s.Products.GetActive(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.OrderDetail{}, notFound("Product not found or not available")
		}
		return model.OrderDetail{}, internal("Failed to create order", err)
	}
	if p.SellerID == buyerID {
		return model.OrderDetail{}, invalidOp("You cannot buy your own product")
	}

	total := p.Price.Mul(decimal.NewFromInt(int64(quantity)))
	id, err := s.Orders.Create(ctx, repository.NewOrder{
		BuyerID:    buyerID,
		SellerID:   p.SellerID,
		ProductID:  p.ID,
		Quantity:   quantity,
		TotalPrice: total,
	})
	if err != nil {
		return model.OrderDetail{}, internal("Failed to create order", err)
	}
	d, err := s.Orders.GetDetail(ctx, id)
	if err != nil {
		return model.OrderDetail{}, internal("Failed to load order", err)
	}

	metrics.RecordOrdersCreated(queue.SourceDirect, 1)
	publishAll(ctx, s.Events, s.Log, eventFor(queue.EventOrderCreated, d, queue.SourceDirect))
	return d, nil
}

// UpdateStatus lets the seller of an order set any of the known statuses.
// Checks run in order: existence, ownership, then the status value.
func (s *Orders) UpdateStatus(ctx context.Context, callerID, orderID uint64, status string) (model.OrderDetail, error) {
	if _, err := s.Identity.AuthorizeOwnership(ctx, repository.ResourceOrder, orderID, callerID); err != nil {
		return model.OrderDetail{}, err
	}
	if !model.ValidOrderStatus(status) {
		return model.OrderDetail{}, invalidArg("Invalid status")
	}
	if err := s.Orders.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.OrderDetail{}, notFound("Order not found")
		}
		return model.OrderDetail{}, internal("Failed to update order", err)
	}
	d, err := s.Orders.GetDetail(ctx, orderID)
	if err != nil {
		return model.OrderDetail{}, internal("Failed to load order", err)
	}

	metrics.RecordOrderStatusChange(status)
	publishAll(ctx, s.Events, s.Log, eventFor(queue.EventOrderStatusChanged, d, ""))
	return d, nil
}

// ListForBuyer pages through the caller's purchases.
func (s *Orders) ListForBuyer(ctx context.Context, buyerID uint64, page, limit int) ([]model.OrderDetail, model.Pagination, error) {
	page, limit = clampOrderPage(page, limit)
	pg := model.NewPagination(page, limit, 0)
	out, total, err := s.Orders.ListForBuyer(ctx, buyerID, limit, pg.Offset())
	if err != nil {
		return nil, model.Pagination{}, internal("Failed to load orders", err)
	}
	return out, model.NewPagination(page, limit, total), nil
}

// ListForSeller pages through the caller's sales.
func (s *Orders) ListForSeller(ctx context.Context, sellerID uint64, page, limit int) ([]model.OrderDetail, model.Pagination, error) {
	page, limit = clampOrderPage(page, limit)
	pg := model.NewPagination(page, limit, 0)
	out, total, err := s.Orders.ListForSeller(ctx, sellerID, limit, pg.Offset())
	if err != nil {
		return nil, model.Pagination{}, internal("Failed to load orders", err)
	}
	return out, model.NewPagination(page, limit, total), nil
}

// GetByID returns an order to its buyer or seller.  Anyone else is told it
// does not exist.
func (s *Orders) GetByID(ctx context.Context, callerID, orderID uint64) (model.OrderDetail, error) {
	d, err := s.Orders.GetDetailForParty(ctx, orderID, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.OrderDetail{}, notFound("Order not found")
		}
		return model.OrderDetail{}, internal("Failed to load order", err)
	}
	return d, nil
}

func clampOrderPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultOrderLimit
	}
	if limit > maxOrderLimit {
		limit = maxOrderLimit
	}
	return page, limit
}

func eventFor(typ string, d model.OrderDetail, source string) queue.OrderEvent {
	return queue.OrderEvent{
		Type:         typ,
		OrderID:      d.ID,
		BuyerID:      d.BuyerID,
		SellerID:     d.SellerID,
		ProductID:    d.ProductID,
		ProductTitle: d.ProductTitle,
		Quantity:     d.Quantity,
		TotalPrice:   d.TotalPrice,
		Status:       d.Status,
		Source:       source,
	}
}

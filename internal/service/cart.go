package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ecofinds-marketplace/internal/database"
	"github.com/iliyamo/ecofinds-marketplace/internal/metrics"
	"github.com/iliyamo/ecofinds-marketplace/internal/model"
	"github.com/iliyamo/ecofinds-marketplace/internal/queue"
	"github.com/iliyamo/ecofinds-marketplace/internal/repository"
)

// Cart maintains each buyer's pending purchases and turns them into
// orders at checkout.
type Cart struct {
	DB       *sqlx.DB
	Items    *repository.CartRepo
	Products *repository.ProductRepo
	Orders   *repository.OrderRepo
	Events   EventPublisher
	Log      logrus.FieldLogger
}

// AddItem puts quantity units of an active product into the buyer's cart,
// adding to any quantity already there.
func (s *Cart) AddItem(ctx context.Context, buyerID, productID uint64, quantity int) error {
	if productID == 0 {
		return invalidArg("Product ID is required")
	}
	if quantity <= 0 {
		return invalidArg("Quantity must be greater than 0")
	}
	p, err := s.Products.GetActive(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Product not found or not available")
		}
		return internal("Failed to add item to cart", err)
	}
	if p.SellerID == buyerID {
		return invalidOp("You cannot add your own product to cart")
	}
	if err := s.Items.Merge(ctx, buyerID, productID, quantity); err != nil {
		return internal("Failed to add item to cart", err)
	}
	return nil
}

// SetQuantity overwrites the quantity of a product already in the cart.
// Zero or negative quantities are rejected rather than treated as removal.
func (s *Cart) SetQuantity(ctx context.Context, buyerID, productID uint64, quantity int) error {
	if quantity <= 0 {
		return invalidArg("Quantity must be greater than 0")
	}
	if err := s.Items.SetQuantity(ctx, buyerID, productID, quantity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Item not found in cart")
		}
		return internal("Failed to update cart item", err)
	}
	return nil
}

// RemoveItem drops a product from the cart.
func (s *Cart) RemoveItem(ctx context.Context, buyerID, productID uint64) error {
	if err := s.Items.Remove(ctx, buyerID, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("Item not found in cart")
		}
		return internal("Failed to remove cart item", err)
	}
	return nil
}

// Clear empties the cart.  Clearing an empty cart succeeds.
func (s *Cart) Clear(ctx context.Context, buyerID uint64) error {
	if err := s.Items.Clear(ctx, buyerID); err != nil {
		return internal("Failed to clear cart", err)
	}
	return nil
}

// View returns the cart at current product prices.
func (s *Cart) View(ctx context.Context, buyerID uint64) (model.CartView, error) {
	lines, err := s.Items.Lines(ctx, buyerID)
	if err != nil {
		return model.CartView{}, internal("Failed to load cart", err)
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return model.CartView{Items: lines, Total: total.Round(2)}, nil
}

// Checkout creates one pending order per active cart line in a single
// transaction.  Lines for the buyer's own products are skipped with an
// error string, as are lines whose insert fails; the rest still become
// orders.  When at least one order was created the buyer's active lines
// (skipped ones included) are removed from the cart.  Lines for inactive or
// sold products are neither ordered nor removed.
func (s *Cart) Checkout(ctx context.Context, buyerID uint64) (model.CheckoutResult, error) {
	res := model.CheckoutResult{Orders: []model.CheckoutOrder{}}
	var events []queue.OrderEvent
	var empty bool

	err := database.WithTransaction(ctx, s.DB, database.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		lines, err := s.Items.ActiveLinesTx(ctx, tx, buyerID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			empty = true
			return nil
		}

		productIDs := make([]uint64, 0, len(lines))
		for _, l := range lines {
			productIDs = append(productIDs, l.ProductID)
			if l.SellerID == buyerID {
				res.Errors = append(res.Errors, "Cannot buy your own product: "+l.Title)
				continue
			}
			total := l.Subtotal()
			id, err := s.Orders.CreateTx(ctx, tx, repository.NewOrder{
				BuyerID:    buyerID,
				SellerID:   l.SellerID,
				ProductID:  l.ProductID,
				Quantity:   l.Quantity,
				TotalPrice: total,
			})
			if err != nil {
				s.Log.WithError(err).WithFields(logrus.Fields{
					"buyer_id":   buyerID,
					"product_id": l.ProductID,
				}).Warn("checkout: order insert failed")
				res.Errors = append(res.Errors, fmt.Sprintf("Failed to create order for %s", l.Title))
				continue
			}
			res.Orders = append(res.Orders, model.CheckoutOrder{
				OrderID:      id,
				ProductTitle: l.Title,
				Quantity:     l.Quantity,
				TotalPrice:   total,
			})
			events = append(events, queue.OrderEvent{
				Type:         queue.EventOrderCreated,
				OrderID:      id,
				BuyerID:      buyerID,
				SellerID:     l.SellerID,
				ProductID:    l.ProductID,
				ProductTitle: l.Title,
				Quantity:     l.Quantity,
				TotalPrice:   total,
				Status:       model.OrderStatusPending,
				Source:       queue.SourceCheckout,
			})
		}

		if len(res.Orders) == 0 {
			return nil
		}
		return s.Items.DeleteProductsTx(ctx, tx, buyerID, productIDs)
	})
	if err != nil {
		return model.CheckoutResult{}, internal("Checkout failed", err)
	}
	if empty {
		return model.CheckoutResult{}, newErr(KindEmptyCart, "Cart is empty")
	}

	metrics.RecordOrdersCreated(queue.SourceCheckout, len(res.Orders))
	metrics.RecordCheckoutItemErrors(len(res.Errors))
	s.Log.WithFields(logrus.Fields{
		"buyer_id": buyerID,
		"orders":   len(res.Orders),
		"errors":   len(res.Errors),
	}).Info("checkout completed")
	publishAll(ctx, s.Events, s.Log, events...)
	return res, nil
}

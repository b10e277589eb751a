// Package checkout turns a cart into a persisted order. The order row, its
// items, the stock decrements and the payment row commit together or not
// at all.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/data"
	"storefront/internal/events"
	"storefront/internal/logger"
	"storefront/internal/store"
)

var (
	ErrEmptyCart         = apperr.New(apperr.Validation, apperr.CodeEmptyCart)
	ErrSellerNotFound    = apperr.New(apperr.NotFound, apperr.CodeSellerNotFound)
	ErrInsufficientStock = apperr.New(apperr.Conflict, apperr.CodeStockNotEnough)
)

// InsufficientStockError names the product that could not cover its line.
// It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type Receipt struct {
	OrderID  uint64          `json:"order_id"`
	Total    decimal.Decimal `json:"total"`
	PlacedAt time.Time       `json:"placed_at"`
}

type Options struct {
	PaymentType  string
	DeliveryDays int
	Now          func() time.Time
}

func OptionsFrom(cfg config.CheckoutConfig) Options {
	return Options{PaymentType: cfg.PaymentType, DeliveryDays: cfg.DeliveryDays}
}

type Service struct {
	store  *store.Store
	events events.Publisher
	opts   Options
	log    *slog.Logger
}

func NewService(st *store.Store, pub events.Publisher, opts Options, log *slog.Logger) *Service {
	if opts.PaymentType == "" {
		opts.PaymentType = "credit_card"
	}
	if opts.DeliveryDays <= 0 {
		opts.DeliveryDays = 7
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if pub == nil {
		pub = events.Discard{}
	}
	return &Service{store: st, events: pub, opts: opts, log: logger.Or(log)}
}

// PlaceOrder persists the current lines of c as one order for customerID
// and clears c on success. On failure nothing is written and c is kept.
func (s *Service) PlaceOrder(ctx context.Context, customerID uint64, c *cart.Cart) (Receipt, error) {
	attemptID := uuid.NewString()
	log := s.log.With("attempt_id", attemptID, "customer_id", customerID)

	lines := c.Lines()
	if len(lines) == 0 {
		log.InfoContext(ctx, "checkout rejected", "reason", "empty cart")
		return Receipt{}, ErrEmptyCart
	}

	now := s.opts.Now()
	total := cart.Total(lines)
	estimated := now.AddDate(0, 0, s.opts.DeliveryDays)
	order := data.Order{
		CustomerID:          customerID,
		Status:              data.StatusInProgress,
		PurchasedAt:         now,
		EstimatedDeliveryAt: &estimated,
	}

	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return err
		}
		for _, l := range lines {
			if err := s.placeLine(ctx, tx, order.ID, l, now); err != nil {
				return err
			}
		}
		return tx.CreatePayment(ctx, &data.OrderPayment{
			OrderID:      order.ID,
			Type:         s.opts.PaymentType,
			Installments: 1,
			Value:        total,
		})
	})
	if err != nil {
		log.WarnContext(ctx, "checkout rolled back", "lines", len(lines), "error", err)
		return Receipt{}, err
	}

	c.Clear()
	receipt := Receipt{OrderID: order.ID, Total: total, PlacedAt: now}
	log.InfoContext(ctx, "order placed", "order_id", order.ID, "lines", len(lines), "total", total.StringFixed(2))

	s.events.PublishOrderPlaced(ctx, events.OrderPlaced{
		AttemptID:  attemptID,
		OrderID:    order.ID,
		CustomerID: customerID,
		Total:      total,
		PlacedAt:   now,
	})
	return receipt, nil
}

func (s *Service) placeLine(ctx context.Context, tx *store.Store, orderID uint64, l cart.Line, now time.Time) error {
	stock, err := tx.LockStock(ctx, l.ProductID)
	if store.IsNotFound(err) {
		return apperr.Wrapf(ErrSellerNotFound, "product %s has no stock row", l.ProductID)
	}
	if err != nil {
		return err
	}
	if stock.SellerID == "" {
		return apperr.Wrapf(ErrSellerNotFound, "product %s", l.ProductID)
	}
	if l.Quantity > stock.Stock {
		return &InsufficientStockError{ProductID: l.ProductID, Requested: l.Quantity, Available: stock.Stock}
	}

	ok, err := tx.DecrementStock(ctx, l.ProductID, l.Quantity)
	if err != nil {
		return err
	}
	if !ok {
		// Drained by a concurrent checkout on a dialect without row locks.
		available, err := tx.StockOf(ctx, l.ProductID)
		if err != nil {
			return err
		}
		return &InsufficientStockError{ProductID: l.ProductID, Requested: l.Quantity, Available: available}
	}

	return tx.CreateOrderItem(ctx, &data.OrderItem{
		OrderID:       orderID,
		ProductID:     l.ProductID,
		SellerID:      stock.SellerID,
		ShippingLimit: now.AddDate(0, 0, 7),
		Freight:       decimal.Zero,
		Quantity:      l.Quantity,
	})
}

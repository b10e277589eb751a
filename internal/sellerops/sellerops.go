// Package sellerops backs the seller portal: order fulfilment, customer
// administration and payment lookups.
package sellerops

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/data"
	"storefront/internal/logger"
	"storefront/internal/store"
)

// All disables a filter field in the seller views.
const All = "All"

var (
	ErrOrderNotFound     = apperr.New(apperr.NotFound, apperr.CodeOrderNotFound)
	ErrStatusTransition  = apperr.New(apperr.Conflict, apperr.CodeOrderStatus)
	ErrCustomerNotFound  = apperr.New(apperr.NotFound, apperr.CodeCustomerNotFound)
	ErrCustomerHasOrders = apperr.New(apperr.Conflict, apperr.CodeCustomerOrders)
)

type OrderFilter struct {
	OrderID  uint64 `form:"order_id"`
	Category string `form:"category"`
	Status   string `form:"status"`
}

type CustomerFilter struct {
	CustomerID uint64 `form:"customer_id"`
	FirstName  string `form:"first_name"`
	LastName   string `form:"last_name"`
	Status     string `form:"status"`
}

type PaymentFilter struct {
	OrderID     uint64 `form:"order_id"`
	PaymentType string `form:"payment_type"`
	FirstName   string `form:"first_name"`
	LastName    string `form:"last_name"`
}

type OrderRow struct {
	OrderID     uint64    `json:"order_id"`
	CustomerID  uint64    `json:"customer_id"`
	Status      string    `json:"status"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type ItemRow struct {
	ProductID   string          `json:"product_id"`
	SellerID    string          `json:"seller_id"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	PurchasedAt time.Time       `json:"purchased_at"`
}

type CustomerOrder struct {
	OrderID     uint64    `json:"order_id"`
	Status      string    `json:"status"`
	PurchasedAt time.Time `json:"purchased_at"`
	Quantity    int64     `json:"quantity"`
}

type Service struct {
	store *store.Store
	log   *slog.Logger
}

func NewService(st *store.Store, log *slog.Logger) *Service {
	return &Service{store: st, log: logger.Or(log)}
}

func anyOf(v string) string {
	if strings.EqualFold(strings.TrimSpace(v), All) {
		return ""
	}
	return strings.TrimSpace(v)
}

func (s *Service) SearchOrders(ctx context.Context, f OrderFilter) ([]OrderRow, error) {
	orders, err := s.store.SearchOrders(ctx, store.OrderFilter{
		OrderID:  f.OrderID,
		Category: anyOf(f.Category),
		Status:   anyOf(f.Status),
	})
	if err != nil {
		return nil, err
	}
	out := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderRow{OrderID: o.ID, CustomerID: o.CustomerID, Status: o.Status, PurchasedAt: o.PurchasedAt})
	}
	return out, nil
}

func (s *Service) OrderItems(ctx context.Context, orderID uint64) ([]ItemRow, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.OrderLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]ItemRow, 0, len(lines))
	for _, l := range lines {
		out = append(out, ItemRow{
			ProductID:   l.ProductID,
			SellerID:    l.SellerID,
			Category:    l.Category,
			Description: l.Description,
			Price:       l.Price,
			Quantity:    l.Quantity,
			PurchasedAt: order.PurchasedAt,
		})
	}
	return out, nil
}

// ShipOrder hands an in-progress order to the carrier.
func (s *Service) ShipOrder(ctx context.Context, orderID uint64) error {
	return s.transition(ctx, orderID, data.StatusOnTheWay)
}

// DelayOrder flags an in-progress order as delayed.
func (s *Service) DelayOrder(ctx context.Context, orderID uint64) error {
	return s.transition(ctx, orderID, data.StatusDelayed)
}

func (s *Service) transition(ctx context.Context, orderID uint64, to string) error {
	err := s.store.TransitionOrder(ctx, orderID, data.StatusInProgress, to)
	if errors.Is(err, store.ErrStatusChanged) {
		order, findErr := s.findOrder(ctx, orderID)
		if findErr != nil {
			return findErr
		}
		return apperr.Wrapf(ErrStatusTransition, "order %d is %q", orderID, order.Status)
	}
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "order status changed", "order_id", orderID, "status", to)
	return nil
}

func (s *Service) findOrder(ctx context.Context, orderID uint64) (*data.Order, error) {
	order, err := s.store.FindOrder(ctx, orderID)
	if store.IsNotFound(err) {
		return nil, apperr.Wrapf(ErrOrderNotFound, "order %d", orderID)
	}
	return order, err
}

func (s *Service) SearchCustomers(ctx context.Context, f CustomerFilter) ([]data.Customer, error) {
	return s.store.SearchCustomers(ctx, store.CustomerFilter{
		CustomerID: f.CustomerID,
		FirstName:  strings.TrimSpace(f.FirstName),
		LastName:   strings.TrimSpace(f.LastName),
		Status:     anyOf(f.Status),
	})
}

// CustomerOrders lists a customer's orders with the number of units in each.
func (s *Service) CustomerOrders(ctx context.Context, customerID uint64) ([]CustomerOrder, error) {
	orders, err := s.store.SearchOrders(ctx, store.OrderFilter{CustomerID: customerID})
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	qty, err := s.store.QuantityTotals(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]CustomerOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, CustomerOrder{OrderID: o.ID, Status: o.Status, PurchasedAt: o.PurchasedAt, Quantity: qty[o.ID]})
	}
	return out, nil
}

// DeleteCustomer removes a customer without orders together with its login.
func (s *Service) DeleteCustomer(ctx context.Context, customerID uint64) error {
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		c, err := tx.FindCustomer(ctx, customerID)
		if store.IsNotFound(err) {
			return apperr.Wrapf(ErrCustomerNotFound, "customer %d", customerID)
		}
		if err != nil {
			return err
		}
		n, err := tx.CountOrdersOf(ctx, customerID)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Wrapf(ErrCustomerHasOrders, "customer %d has %d orders", customerID, n)
		}
		return tx.DeleteCustomer(ctx, c)
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "customer deleted", "customer_id", customerID)
	return nil
}

func (s *Service) SearchPayments(ctx context.Context, f PaymentFilter) ([]store.PaymentRow, error) {
	return s.store.SearchPayments(ctx, store.PaymentFilter{
		OrderID:     f.OrderID,
		PaymentType: anyOf(f.PaymentType),
		FirstName:   strings.TrimSpace(f.FirstName),
		LastName:    strings.TrimSpace(f.LastName),
	})
}

func (s *Service) Statuses(ctx context.Context) ([]string, error) {
	return s.store.Statuses(ctx)
}

func (s *Service) PaymentTypes(ctx context.Context) ([]string, error) {
	return s.store.PaymentTypes(ctx)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.Categories(ctx)
}

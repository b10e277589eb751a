package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/data"
)

// OrderLine is an order item joined with its product.
type OrderLine struct {
	ItemID      uint64
	ProductID   string
	SellerID    string
	Category    string
	Description string
	Price       decimal.Decimal
	Quantity    int
}

// OrderFilter narrows SearchOrders. Zero fields match everything.
type OrderFilter struct {
	OrderID    uint64
	CustomerID uint64
	Category   string
	Status     string
}

func (s *Store) CreateOrder(ctx context.Context, o *data.Order) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(o).Error, "insert order")
}

func (s *Store) CreateOrderItem(ctx context.Context, item *data.OrderItem) error {
	return errors.Wrapf(s.db.WithContext(ctx).Create(item).Error, "insert item %s", item.ProductID)
}

func (s *Store) CreatePayment(ctx context.Context, p *data.OrderPayment) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(p).Error, "insert payment")
}

func (s *Store) FindOrder(ctx context.Context, orderID uint64) (*data.Order, error) {
	var o data.Order
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&o).Error; err != nil {
		return nil, errors.Wrapf(err, "find order %d", orderID)
	}
	return &o, nil
}

// SearchOrders returns matching orders, newest first.
func (s *Store) SearchOrders(ctx context.Context, f OrderFilter) ([]data.Order, error) {
	q := s.db.WithContext(ctx).Model(&data.Order{})
	if f.OrderID != 0 {
		q = q.Where("order_id = ?", f.OrderID)
	}
	if f.CustomerID != 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("LOWER(order_status) = ?", strings.ToLower(f.Status))
	}
	if f.Category != "" {
		sub := s.db.Table("order_items oi").
			Select("oi.order_id").
			Joins("JOIN products p ON p.product_id = oi.product_id").
			Where("p.product_category = ?", f.Category)
		q = q.Where("order_id IN (?)", sub)
	}

	var orders []data.Order
	err := q.Order("order_purchase_timestamp DESC").Order("order_id DESC").Find(&orders).Error
	return orders, errors.Wrap(err, "search orders")
}

// PaymentTotals sums order_payments per order.
func (s *Store) PaymentTotals(ctx context.Context, orderIDs []uint64) (map[uint64]decimal.Decimal, error) {
	totals := make(map[uint64]decimal.Decimal, len(orderIDs))
	if len(orderIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		OrderID uint64
		Total   decimal.Decimal
	}
	err := s.db.WithContext(ctx).Model(&data.OrderPayment{}).
		Select("order_id, COALESCE(SUM(payment_value), 0) AS total").
		Where("order_id IN ?", orderIDs).
		Group("order_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "sum payments")
	}
	for _, r := range rows {
		totals[r.OrderID] = r.Total.Round(2)
	}
	return totals, nil
}

// QuantityTotals sums item quantities per order.
func (s *Store) QuantityTotals(ctx context.Context, orderIDs []uint64) (map[uint64]int64, error) {
	totals := make(map[uint64]int64, len(orderIDs))
	if len(orderIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		OrderID  uint64
		Quantity int64
	}
	err := s.db.WithContext(ctx).Model(&data.OrderItem{}).
		Select("order_id, COALESCE(SUM(quantity), 0) AS quantity").
		Where("order_id IN ?", orderIDs).
		Group("order_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "sum quantities")
	}
	for _, r := range rows {
		totals[r.OrderID] = r.Quantity
	}
	return totals, nil
}

func (s *Store) OrderLines(ctx context.Context, orderID uint64) ([]OrderLine, error) {
	var lines []OrderLine
	err := s.db.WithContext(ctx).
		Table("order_items oi").
		Select(`oi.order_item_id AS item_id, oi.product_id, oi.seller_id, p.product_category AS category,
			p.product_description AS description, p.product_price AS price, oi.quantity`).
		Joins("JOIN products p ON p.product_id = oi.product_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.order_item_id").
		Scan(&lines).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load lines of order %d", orderID)
	}
	for i := range lines {
		lines[i].Price = lines[i].Price.Round(2)
	}
	return lines, nil
}

// TransitionOrder moves an order from one status to another in a single
// conditional UPDATE. The from status matches case-insensitively.
func (s *Store) TransitionOrder(ctx context.Context, orderID uint64, from, to string) error {
	res := s.db.WithContext(ctx).Model(&data.Order{}).
		Where("order_id = ? AND LOWER(order_status) = ?", orderID, strings.ToLower(from)).
		Update("order_status", to)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update status of order %d", orderID)
	}
	if res.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (s *Store) Statuses(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).Model(&data.Order{}).
		Distinct().
		Order("order_status").
		Pluck("order_status", &out).Error
	return out, errors.Wrap(err, "load statuses")
}

func (s *Store) CountOrdersOf(ctx context.Context, customerID uint64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&data.Order{}).Where("customer_id = ?", customerID).Count(&n).Error
	return n, errors.Wrapf(err, "count orders of customer %d", customerID)
}

// FindReview returns the review of an order, or nil when it has none.
func (s *Store) FindReview(ctx context.Context, orderID uint64) (*data.OrderReview, error) {
	var r data.OrderReview
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find review of order %d", orderID)
	}
	return &r, nil
}

// UpsertReview inserts the review or overwrites the existing one of the same
// order in a single statement.
func (s *Store) UpsertReview(ctx context.Context, r *data.OrderReview) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"review_score", "comment_message", "review_date"}),
	}).Create(r).Error
	return errors.Wrapf(err, "upsert review of order %d", r.OrderID)
}

package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/data"
)

// PaymentRow is a payment with the customer who placed the order.
type PaymentRow struct {
	OrderID      uint64          `json:"order_id"`
	CustomerID   uint64          `json:"customer_id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	PaymentType  string          `json:"payment_type"`
	Installments int             `json:"installments"`
	Value        decimal.Decimal `json:"value"`
}

type PaymentFilter struct {
	OrderID     uint64
	PaymentType string
	FirstName   string
	LastName    string
}

func (s *Store) SearchPayments(ctx context.Context, f PaymentFilter) ([]PaymentRow, error) {
	q := s.db.WithContext(ctx).
		Table("order_payments op").
		Select(`op.order_id, c.customer_id, c.customer_first_name AS first_name, c.customer_last_name AS last_name,
			op.payment_type, op.payment_installments AS installments, op.payment_value AS value`).
		Joins("JOIN orders o ON o.order_id = op.order_id").
		Joins("JOIN customers c ON c.customer_id = o.customer_id")
	if f.OrderID != 0 {
		q = q.Where("op.order_id = ?", f.OrderID)
	}
	if f.PaymentType != "" {
		q = q.Where("op.payment_type = ?", f.PaymentType)
	}
	if f.FirstName != "" {
		q = q.Where("LOWER(c.customer_first_name) LIKE ?", likeArg(strings.ToLower(f.FirstName)))
	}
	if f.LastName != "" {
		q = q.Where("LOWER(c.customer_last_name) LIKE ?", likeArg(strings.ToLower(f.LastName)))
	}

	var rows []PaymentRow
	if err := q.Order("op.order_id").Order("op.payment_id").Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "search payments")
	}
	for i := range rows {
		rows[i].Value = rows[i].Value.Round(2)
	}
	return rows, nil
}

func (s *Store) PaymentTypes(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).Model(&data.OrderPayment{}).
		Distinct().
		Order("payment_type").
		Pluck("payment_type", &out).Error
	return out, errors.Wrap(err, "load payment types")
}

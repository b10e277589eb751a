package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/data"
)

// LabelCount is one bar of a count chart.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// CategoryAmount is one bar of a per-category money chart.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategoryScore is the average review score of a category.
type CategoryScore struct {
	Category string  `json:"category"`
	Average  float64 `json:"average"`
}

// SellerRevenue is the line revenue (price × quantity) a seller fulfilled.
type SellerRevenue struct {
	SellerID  string          `json:"seller_id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Revenue   decimal.Decimal `json:"revenue"`
}

func (s *Store) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := s.db.WithContext(ctx).Model(&data.OrderPayment{}).
		Select("COALESCE(SUM(payment_value), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "sum sales")
	}
	return row.Total.Round(2), nil
}

func (s *Store) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&data.Order{}).Count(&n).Error
	return n, errors.Wrap(err, "count orders")
}

func (s *Store) AverageRating(ctx context.Context) (float64, error) {
	var row struct{ Average float64 }
	err := s.db.WithContext(ctx).Model(&data.OrderReview{}).
		Select("COALESCE(AVG(review_score), 0) AS average").
		Scan(&row).Error
	return row.Average, errors.Wrap(err, "average rating")
}

// TopSellers ranks sellers by line revenue.
func (s *Store) TopSellers(ctx context.Context, limit int) ([]SellerRevenue, error) {
	var rows []SellerRevenue
	err := s.db.WithContext(ctx).
		Table("order_items oi").
		Select(`s.seller_id, s.seller_first_name AS first_name, s.seller_last_name AS last_name,
			SUM(oi.quantity * p.product_price) AS revenue`).
		Joins("JOIN products p ON p.product_id = oi.product_id").
		Joins("JOIN sellers s ON s.seller_id = oi.seller_id").
		Group("s.seller_id, s.seller_first_name, s.seller_last_name").
		Order("revenue DESC").
		Order("s.seller_id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "rank sellers")
	}
	for i := range rows {
		rows[i].Revenue = rows[i].Revenue.Round(2)
	}
	return rows, nil
}

func (s *Store) AverageReviewByCategory(ctx context.Context) ([]CategoryScore, error) {
	var rows []CategoryScore
	err := s.db.WithContext(ctx).
		Table("order_reviews r").
		Select("p.product_category AS category, AVG(r.review_score) AS average").
		Joins("JOIN order_items oi ON oi.order_id = r.order_id").
		Joins("JOIN products p ON p.product_id = oi.product_id").
		Group("p.product_category").
		Order("p.product_category").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "average review by category")
}

func (s *Store) StatusCounts(ctx context.Context) ([]LabelCount, error) {
	return s.countBy(ctx, &data.Order{}, "order_status")
}

func (s *Store) PaymentTypeCounts(ctx context.Context) ([]LabelCount, error) {
	return s.countBy(ctx, &data.OrderPayment{}, "payment_type")
}

func (s *Store) countBy(ctx context.Context, model any, column string) ([]LabelCount, error) {
	var rows []LabelCount
	err := s.db.WithContext(ctx).Model(model).
		Select(column + " AS label, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Order(column).
		Scan(&rows).Error
	return rows, errors.Wrapf(err, "count by %s", column)
}

// RevenueByCategory sums line revenue (price × quantity) per category.
func (s *Store) RevenueByCategory(ctx context.Context) ([]CategoryAmount, error) {
	var rows []CategoryAmount
	err := s.db.WithContext(ctx).
		Table("order_items oi").
		Select("p.product_category AS category, SUM(oi.quantity * p.product_price) AS amount").
		Joins("JOIN products p ON p.product_id = oi.product_id").
		Group("p.product_category").
		Order("amount DESC").
		Order("p.product_category").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "revenue by category")
	}
	for i := range rows {
		rows[i].Amount = rows[i].Amount.Round(2)
	}
	return rows, nil
}

// DeliveryDates loads the estimated and actual delivery dates of every order.
func (s *Store) DeliveryDates(ctx context.Context) ([]data.Order, error) {
	var orders []data.Order
	err := s.db.WithContext(ctx).
		Select("order_id", "order_estimated_delivery_date", "order_delivered_customer_date").
		Order("order_id").
		Find(&orders).Error
	return orders, errors.Wrap(err, "load delivery dates")
}

package manager

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"storefront/internal/store"
)

// Summary is the headline row of the dashboard. TopSeller is nil when no
// order item names a known seller.
type Summary struct {
	TotalSales    decimal.Decimal      `json:"total_sales"`
	TotalOrders   int64                `json:"total_orders"`
	AverageRating float64              `json:"average_rating"`
	TopSeller     *store.SellerRevenue `json:"top_seller"`
}

type RevenueFilter struct {
	Category string `form:"category"`
	Status   string `form:"status"`
}

type MonthRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Delivery performance buckets.
const (
	DeliveryOnTime  = "on time"
	DeliveryLate    = "late"
	DeliveryPending = "pending"
)

// Summary loads the headline figures concurrently.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.store.TotalSales(ctx)
		sum.TotalSales = total
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountOrders(ctx)
		sum.TotalOrders = n
		return err
	})
	g.Go(func() error {
		avg, err := s.store.AverageRating(ctx)
		sum.AverageRating = avg
		return err
	})
	g.Go(func() error {
		top, err := s.store.TopSellers(ctx, 1)
		if err == nil && len(top) > 0 {
			sum.TopSeller = &top[0]
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// RevenueByMonth sums payments per purchase month, oldest month first.
// Category and Status narrow the orders; "All" or empty matches everything.
func (s *Service) RevenueByMonth(ctx context.Context, f RevenueFilter) ([]MonthRevenue, error) {
	orders, err := s.store.SearchOrders(ctx, store.OrderFilter{
		Category: allToEmpty(f.Category),
		Status:   allToEmpty(f.Status),
	})
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	totals, err := s.store.PaymentTotals(ctx, ids)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]decimal.Decimal)
	for _, o := range orders {
		month := o.PurchasedAt.UTC().Format("2006-01")
		byMonth[month] = byMonth[month].Add(totals[o.ID])
	}
	out := make([]MonthRevenue, 0, len(byMonth))
	for month, revenue := range byMonth {
		out = append(out, MonthRevenue{Month: month, Revenue: revenue})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *Service) AverageReviewByCategory(ctx context.Context) ([]store.CategoryScore, error) {
	return s.store.AverageReviewByCategory(ctx)
}

func (s *Service) StatusCounts(ctx context.Context) ([]store.LabelCount, error) {
	return s.store.StatusCounts(ctx)
}

func (s *Service) PaymentMethodCounts(ctx context.Context) ([]store.LabelCount, error) {
	return s.store.PaymentTypeCounts(ctx)
}

func (s *Service) RevenueByCategory(ctx context.Context) ([]store.CategoryAmount, error) {
	return s.store.RevenueByCategory(ctx)
}

// DeliveryPerformance counts delivered orders that arrived by their
// estimated date, those that arrived after it, and undelivered ones.
// Orders without an estimate count as on time once delivered.
func (s *Service) DeliveryPerformance(ctx context.Context) ([]store.LabelCount, error) {
	orders, err := s.store.DeliveryDates(ctx)
	if err != nil {
		return nil, err
	}

	var onTime, late, pending int64
	for _, o := range orders {
		switch {
		case o.DeliveredCustomerAt == nil:
			pending++
		case o.EstimatedDeliveryAt != nil && o.DeliveredCustomerAt.After(*o.EstimatedDeliveryAt):
			late++
		default:
			onTime++
		}
	}
	return []store.LabelCount{
		{Label: DeliveryOnTime, Count: onTime},
		{Label: DeliveryLate, Count: late},
		{Label: DeliveryPending, Count: pending},
	}, nil
}

func allToEmpty(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "All") {
		return ""
	}
	return v
}

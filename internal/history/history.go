// Package history lists a customer's past orders and records one review per
// order.
package history

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/data"
	"storefront/internal/logger"
	"storefront/internal/store"
)

// Shown in place of a missing review.
const (
	NoReview   = "No Review"
	NoComments = "No Comments"
)

var (
	ErrOrderNotFound    = apperr.New(apperr.NotFound, apperr.CodeOrderNotFound)
	ErrReviewIncomplete = apperr.New(apperr.Validation, apperr.CodeReviewIncomplete)
	ErrReviewScore      = apperr.New(apperr.Validation, apperr.CodeReviewScore)
)

type OrderSummary struct {
	OrderID     uint64          `json:"order_id"`
	Status      string          `json:"status"`
	PurchasedAt time.Time       `json:"purchased_at"`
	Total       decimal.Decimal `json:"total"`
}

type DetailLine struct {
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Review is the review shown for an order. Reviewed is false when the order
// has none and Score/Comment then hold NoReview/NoComments.
type Review struct {
	Reviewed   bool       `json:"reviewed"`
	Score      string     `json:"score"`
	Comment    string     `json:"comment"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

type OrderDetail struct {
	OrderID     uint64       `json:"order_id"`
	CustomerID  uint64       `json:"customer_id"`
	Status      string       `json:"status"`
	PurchasedAt time.Time    `json:"purchased_at"`
	Lines       []DetailLine `json:"lines"`
	Review      Review       `json:"review"`
}

type Service struct {
	store *store.Store
	now   func() time.Time
	log   *slog.Logger
}

func NewService(st *store.Store, log *slog.Logger) *Service {
	return &Service{store: st, now: time.Now, log: logger.Or(log)}
}

// ListOrders returns the customer's orders, newest first, each with the sum
// of its payments. An unknown customer has no orders.
func (s *Service) ListOrders(ctx context.Context, customerID uint64) ([]OrderSummary, error) {
	orders, err := s.store.SearchOrders(ctx, store.OrderFilter{CustomerID: customerID})
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

	out := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderSummary{
			OrderID:     o.ID,
			Status:      o.Status,
			PurchasedAt: o.PurchasedAt,
			Total:       totals[o.ID],
		})
	}
	return out, nil
}

// FilterOrders keeps the orders where any shown cell (id, status, purchase
// time or total) contains search, ignoring case. A blank search keeps all.
func FilterOrders(orders []OrderSummary, search string) []OrderSummary {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return orders
	}
	out := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		if o.matches(search) {
			out = append(out, o)
		}
	}
	return out
}

func (o OrderSummary) matches(search string) bool {
	cells := []string{
		strconv.FormatUint(o.OrderID, 10),
		o.Status,
		o.PurchasedAt.Format(time.DateTime),
		o.Total.StringFixed(2),
	}
	for _, cell := range cells {
		if strings.Contains(strings.ToLower(cell), search) {
			return true
		}
	}
	return false
}

func (s *Service) GetOrderDetail(ctx context.Context, orderID uint64) (OrderDetail, error) {
	order, err := s.store.FindOrder(ctx, orderID)
	if store.IsNotFound(err) {
		return OrderDetail{}, apperr.Wrapf(ErrOrderNotFound, "order %d", orderID)
	}
	if err != nil {
		return OrderDetail{}, err
	}

	lines, err := s.store.OrderLines(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}
	review, err := s.store.FindReview(ctx, orderID)
	if err != nil {
		return OrderDetail{}, err
	}

	detail := OrderDetail{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Status:      order.Status,
		PurchasedAt: order.PurchasedAt,
		Lines:       make([]DetailLine, 0, len(lines)),
		Review:      Review{Score: NoReview, Comment: NoComments},
	}
	for _, l := range lines {
		detail.Lines = append(detail.Lines, DetailLine{
			ProductID:   l.ProductID,
			Description: l.Description,
			Price:       l.Price,
			Quantity:    l.Quantity,
		})
	}
	if review != nil {
		at := review.ReviewedAt
		detail.Review = Review{
			Reviewed:   true,
			Score:      strconv.Itoa(review.Score),
			Comment:    review.Comment,
			ReviewedAt: &at,
		}
	}
	return detail, nil
}

// SubmitReview stores the review of an order, replacing any earlier one.
func (s *Service) SubmitReview(ctx context.Context, orderID uint64, score int, comment string) error {
	comment = strings.TrimSpace(comment)
	if score == 0 || comment == "" {
		return ErrReviewIncomplete
	}
	if score < 1 || score > 5 {
		return apperr.Wrapf(ErrReviewScore, "got %d", score)
	}

	if _, err := s.store.FindOrder(ctx, orderID); err != nil {
		if store.IsNotFound(err) {
			return apperr.Wrapf(ErrOrderNotFound, "order %d", orderID)
		}
		return err
	}

	err := s.store.UpsertReview(ctx, &data.OrderReview{
		OrderID:    orderID,
		Score:      score,
		Comment:    comment,
		ReviewedAt: s.now(),
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "review saved", "order_id", orderID, "score", score)
	return nil
}

// Package events fans domain events out to in-process subscribers. Delivery
// is synchronous and best effort; a failing subscriber is logged and never
// fails the publisher.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/logger"
)

// OrderPlaced is emitted after a checkout transaction commits.
type OrderPlaced struct {
	AttemptID  string          `json:"attempt_id"`
	OrderID    uint64          `json:"order_id"`
	CustomerID uint64          `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	PlacedAt   time.Time       `json:"placed_at"`
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, e OrderPlaced)
}

type Handler func(ctx context.Context, e OrderPlaced) error

type subscriber struct {
	name string
	fn   Handler
}

type Bus struct {
	mu   sync.RWMutex
	subs []subscriber
	log  *slog.Logger
}

func NewBus(log *slog.Logger) *Bus {
	return &Bus{log: logger.Or(log)}
}

func (b *Bus) Subscribe(name string, fn Handler) {
	b.mu.Lock()
	b.subs = append(b.subs, subscriber{name: name, fn: fn})
	b.mu.Unlock()
}

func (b *Bus) PublishOrderPlaced(ctx context.Context, e OrderPlaced) {
	b.mu.RLock()
	subs := append([]subscriber(nil), b.subs...)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.fn(ctx, e); err != nil {
			b.log.WarnContext(ctx, "order placed subscriber failed",
				"subscriber", s.name, "order_id", e.OrderID, "error", err)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) PublishOrderPlaced(context.Context, OrderPlaced) {}

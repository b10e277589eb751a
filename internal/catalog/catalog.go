// Package catalog serves the product list customers browse. The list is
// loaded once into a snapshot, filtered and sorted in memory, and reloaded
// on Refresh or after the cache is invalidated.
package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/events"
	"storefront/internal/logger"
	"storefront/internal/store"
)

// AllCategories disables the category filter.
const AllCategories = "All Categories"

var ErrProductNotFound = apperr.New(apperr.NotFound, apperr.CodeProductNotFound)

type Item struct {
	ID          string          `json:"product_id"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// PriceLabel is the price as shown to customers, e.g. "$10.00".
func (i Item) PriceLabel() string {
	return "$" + i.Price.StringFixed(2)
}

// Product snapshots the item for a cart line.
func (i Item) Product() cart.Product {
	return cart.Product{ID: i.ID, Category: i.Category, Description: i.Description, Price: i.Price}
}

type Order string

const (
	PriceDesc Order = "desc"
	PriceAsc  Order = "asc"
)

// Query filters and sorts a snapshot. An empty Order sorts by price descending.
type Query struct {
	Category string
	Search   string
	Order    Order
}

// Source loads catalog rows from storage.
type Source interface {
	CatalogRows(ctx context.Context) ([]store.CatalogRow, error)
}

type Catalog struct {
	src   Source
	cache Cache
	log   *slog.Logger
}

func New(src Source, cache Cache, log *slog.Logger) *Catalog {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Catalog{src: src, cache: cache, log: logger.Or(log)}
}

// Snapshot returns the cached items, loading them on a miss.
func (c *Catalog) Snapshot(ctx context.Context) ([]Item, error) {
	items, ok, err := c.cache.Load(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "catalog cache read failed", "error", err)
	}
	if ok {
		return items, nil
	}
	return c.Refresh(ctx)
}

// Refresh reloads the snapshot from storage.
func (c *Catalog) Refresh(ctx context.Context) ([]Item, error) {
	rows, err := c.src.CatalogRows(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, Item{
			ID:          r.ProductID,
			Category:    r.Category,
			Description: r.Description,
			Price:       r.Price,
			Stock:       r.Stock,
		})
	}
	if err := c.cache.Store(ctx, items); err != nil {
		c.log.WarnContext(ctx, "catalog cache write failed", "error", err)
	}
	c.log.DebugContext(ctx, "catalog snapshot loaded", "products", len(items))
	return items, nil
}

// Invalidate drops the cached snapshot so the next read reloads it.
func (c *Catalog) Invalidate(ctx context.Context) error {
	return c.cache.Invalidate(ctx)
}

// OnOrderPlaced invalidates the snapshot so the next read shows the
// decremented stock. It is an events.Handler.
func (c *Catalog) OnOrderPlaced(ctx context.Context, _ events.OrderPlaced) error {
	return c.Invalidate(ctx)
}

func (c *Catalog) Query(ctx context.Context, q Query) ([]Item, error) {
	items, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(items, q), nil
}

// Categories lists the distinct categories of the snapshot, sorted.
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	items, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, it := range items {
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (c *Catalog) Lookup(ctx context.Context, productID string) (Item, error) {
	items, err := c.Snapshot(ctx)
	if err != nil {
		return Item{}, err
	}
	for _, it := range items {
		if it.ID == productID {
			return it, nil
		}
	}
	return Item{}, apperr.Wrapf(ErrProductNotFound, "%s", productID)
}

// Filter applies q to items without modifying them. Search is a
// case-insensitive substring match over id, category, description and
// price label; ties in price keep snapshot order.
func Filter(items []Item, q Query) []Item {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	category := strings.TrimSpace(q.Category)
	if category == AllCategories {
		category = ""
	}

	out := make([]Item, 0, len(items))
	for _, it := range items {
		if category != "" && !strings.EqualFold(it.Category, category) {
			continue
		}
		if search != "" && !matches(it, search) {
			continue
		}
		out = append(out, it)
	}

	asc := q.Order == PriceAsc
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].Price.GreaterThan(out[j].Price)
	})
	return out
}

func matches(it Item, search string) bool {
	fields := []string{it.ID, it.Category, it.Description, it.PriceLabel()}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

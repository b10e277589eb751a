package data

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Probe is one of the storefront's hot queries, timed and explained against
// the live schema to confirm it stays on an index.
type Probe struct {
	Group       string
	Name        string
	Description string
	Query       string
	// Args picks sample arguments from existing rows.
	Args func(context.Context, *gorm.DB) ([]any, error)
}

// ProbeResult captures timing and plan output for a probe.
type ProbeResult struct {
	Group       string
	Name        string
	Description string
	Duration    time.Duration
	RowCount    int64
	Explain     []string
	Err         error
}

// Probes returns the built-in probe set.
func Probes() []Probe {
	return []Probe{
		{
			Group:       "customer",
			Name:        "order history",
			Description: "Orders of one customer, newest first.",
			Query:       "SELECT order_id, order_status, order_purchase_timestamp FROM orders WHERE customer_id = ? ORDER BY order_purchase_timestamp DESC",
			Args:        sampleArg("SELECT customer_id FROM orders ORDER BY order_id LIMIT 1"),
		},
		{
			Group:       "customer",
			Name:        "order totals",
			Description: "Payment sums for the orders of one customer.",
			Query:       "SELECT order_id, SUM(payment_value) FROM order_payments WHERE order_id IN (SELECT order_id FROM orders WHERE customer_id = ?) GROUP BY order_id",
			Args:        sampleArg("SELECT customer_id FROM orders ORDER BY order_id LIMIT 1"),
		},
		{
			Group:       "checkout",
			Name:        "stock row",
			Description: "Stock and owning seller of one product.",
			Query:       "SELECT stock, seller_id FROM product_stock WHERE product_id = ?",
			Args:        sampleArg("SELECT product_id FROM product_stock ORDER BY product_id LIMIT 1"),
		},
		{
			Group:       "seller",
			Name:        "orders by category",
			Description: "Orders containing at least one product of a category.",
			Query:       "SELECT order_id, order_status FROM orders WHERE order_id IN (SELECT oi.order_id FROM order_items oi JOIN products p ON p.product_id = oi.product_id WHERE p.product_category = ?)",
			Args:        sampleArg("SELECT product_category FROM products ORDER BY product_id LIMIT 1"),
		},
		{
			Group:       "seller",
			Name:        "review lookup",
			Description: "Review of one order through the unique order_id index.",
			Query:       "SELECT review_score, comment_message FROM order_reviews WHERE order_id = ?",
			Args:        sampleArg("SELECT order_id FROM orders ORDER BY order_id LIMIT 1"),
		},
		{
			Group:       "dashboard",
			Name:        "revenue window",
			Description: "Payments of orders purchased in the last 90 days.",
			Query:       "SELECT o.order_purchase_timestamp, op.payment_value FROM orders o JOIN order_payments op ON op.order_id = o.order_id WHERE o.order_purchase_timestamp >= ?",
			Args: func(context.Context, *gorm.DB) ([]any, error) {
				return []any{time.Now().AddDate(0, 0, -90)}, nil
			},
		},
	}
}

func sampleArg(query string) func(context.Context, *gorm.DB) ([]any, error) {
	return func(ctx context.Context, db *gorm.DB) ([]any, error) {
		rows, err := db.WithContext(ctx).Raw(query).Rows()
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		if !rows.Next() {
			return nil, fmt.Errorf("no sample row for %q", query)
		}
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		return []any{v}, rows.Err()
	}
}

// RunProbes executes each probe and collects its plan.
func RunProbes(ctx context.Context, db *gorm.DB, probes []Probe) []ProbeResult {
	results := make([]ProbeResult, 0, len(probes))
	for _, p := range probes {
		res := ProbeResult{Group: p.Group, Name: p.Name, Description: p.Description}

		var args []any
		if p.Args != nil {
			var err error
			if args, err = p.Args(ctx, db); err != nil {
				res.Err = fmt.Errorf("sample args: %w", err)
				results = append(results, res)
				continue
			}
		}

		start := time.Now()
		count, err := countRows(ctx, db, p.Query, args...)
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		res.Duration = time.Since(start)
		res.RowCount = count

		explain, err := explainQuery(ctx, db, p.Query, args...)
		if err == nil {
			res.Explain = explain
		} else {
			res.Explain = []string{fmt.Sprintf("failed to collect EXPLAIN: %v", err)}
		}
		results = append(results, res)
	}
	return results
}

func countRows(ctx context.Context, db *gorm.DB, query string, args ...any) (int64, error) {
	rows, err := db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		count++
	}
	return count, rows.Err()
}

func explainQuery(ctx context.Context, db *gorm.DB, query string, args ...any) ([]string, error) {
	prefix := "EXPLAIN "
	if db.Dialector.Name() == "sqlite" {
		prefix = "EXPLAIN QUERY PLAN "
	}

	var rows []map[string]any
	if err := db.WithContext(ctx).Raw(prefix+query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			v := row[k]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines, nil
}

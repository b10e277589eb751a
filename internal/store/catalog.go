package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/data"
)

// CatalogRow is a product with its stock row, if any.
type CatalogRow struct {
	ProductID   string
	Category    string
	Description string
	Price       decimal.Decimal
	Stock       int
	SellerID    string
}

func (s *Store) CatalogRows(ctx context.Context) ([]CatalogRow, error) {
	var rows []CatalogRow
	err := s.db.WithContext(ctx).
		Table("products p").
		Select(`p.product_id, p.product_category AS category, p.product_description AS description,
			p.product_price AS price, COALESCE(ps.stock, 0) AS stock, COALESCE(ps.seller_id, '') AS seller_id`).
		Joins("LEFT JOIN product_stock ps ON ps.product_id = p.product_id").
		Order("p.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "load catalog rows")
	}
	for i := range rows {
		rows[i].Price = rows[i].Price.Round(2)
	}
	return rows, nil
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).Model(&data.Product{}).
		Distinct().
		Order("product_category").
		Pluck("product_category", &out).Error
	return out, errors.Wrap(err, "load categories")
}

// LockStock reads the stock row of a product, holding a row lock until the
// surrounding transaction ends where the dialect supports it.
func (s *Store) LockStock(ctx context.Context, productID string) (*data.ProductStock, error) {
	var row data.ProductStock
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).
		Take(&row).Error
	if err != nil {
		return nil, errors.Wrapf(err, "lock stock of %s", productID)
	}
	return &row, nil
}

// DecrementStock removes qty units when at least qty are available and
// reports whether it did.
func (s *Store) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	res := s.db.WithContext(ctx).Model(&data.ProductStock{}).
		Where("product_id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "decrement stock of %s", productID)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) StockOf(ctx context.Context, productID string) (int, error) {
	var row data.ProductStock
	if err := s.db.WithContext(ctx).Where("product_id = ?", productID).Take(&row).Error; err != nil {
		return 0, errors.Wrapf(err, "stock of %s", productID)
	}
	return row.Stock, nil
}

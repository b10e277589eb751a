package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"storefront/internal/data"
)

// SellerActivity is a seller with the number of order items it fulfilled.
type SellerActivity struct {
	SellerID  string `json:"seller_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ItemCount int64  `json:"item_count"`
}

// SellerLocation is a seller joined with the city and state of its zip code.
type SellerLocation struct {
	data.Seller
	City  string `json:"city"`
	State string `json:"state"`
}

type SellerFilter struct {
	ID        string
	FirstName string
	LastName  string
}

// SellerActivity lists every seller, most order items first.
func (s *Store) SellerActivity(ctx context.Context) ([]SellerActivity, error) {
	var rows []SellerActivity
	err := s.db.WithContext(ctx).
		Table("sellers s").
		Select("s.seller_id, s.seller_first_name AS first_name, s.seller_last_name AS last_name, COUNT(oi.order_item_id) AS item_count").
		Joins("LEFT JOIN order_items oi ON oi.seller_id = s.seller_id").
		Group("s.seller_id, s.seller_first_name, s.seller_last_name").
		Order("item_count DESC").
		Order("s.seller_id").
		Scan(&rows).Error
	return rows, errors.Wrap(err, "load seller activity")
}

func (s *Store) SellerWithLocation(ctx context.Context, sellerID string) (*SellerLocation, error) {
	var row SellerLocation
	res := s.db.WithContext(ctx).
		Table("sellers s").
		Select("s.*, COALESCE(g.city, '') AS city, COALESCE(g.state_name, '') AS state").
		Joins("LEFT JOIN geolocation g ON g.geolocation_id = s.seller_zip_code").
		Where("s.seller_id = ?", sellerID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return nil, errors.Wrapf(res.Error, "find seller %s", sellerID)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

func (s *Store) FindSeller(ctx context.Context, sellerID string) (*data.Seller, error) {
	var row data.Seller
	if err := s.db.WithContext(ctx).Where("seller_id = ?", sellerID).Take(&row).Error; err != nil {
		return nil, errors.Wrapf(err, "find seller %s", sellerID)
	}
	return &row, nil
}

func (s *Store) SearchSellers(ctx context.Context, f SellerFilter) ([]data.Seller, error) {
	q := s.db.WithContext(ctx).Model(&data.Seller{})
	if f.ID != "" {
		q = q.Where("seller_id = ?", f.ID)
	}
	if f.FirstName != "" {
		q = q.Where("LOWER(seller_first_name) LIKE ?", likeArg(strings.ToLower(f.FirstName)))
	}
	if f.LastName != "" {
		q = q.Where("LOWER(seller_last_name) LIKE ?", likeArg(strings.ToLower(f.LastName)))
	}

	var out []data.Seller
	err := q.Order("seller_id").Find(&out).Error
	return out, errors.Wrap(err, "search sellers")
}

func (s *Store) SellerIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&data.Seller{}).Order("seller_id").Pluck("seller_id", &ids).Error
	return ids, errors.Wrap(err, "load seller ids")
}

func (s *Store) CreateSeller(ctx context.Context, seller *data.Seller) error {
	return errors.Wrapf(s.db.WithContext(ctx).Create(seller).Error, "insert seller %s", seller.ID)
}

// UpdateSeller overwrites every editable column of the seller.
func (s *Store) UpdateSeller(ctx context.Context, seller *data.Seller) error {
	err := s.db.WithContext(ctx).Model(&data.Seller{}).
		Where("seller_id = ?", seller.ID).
		Updates(map[string]any{
			"seller_first_name": seller.FirstName,
			"seller_last_name":  seller.LastName,
			"seller_email":      seller.Email,
			"seller_phone":      seller.Phone,
			"seller_zip_code":   seller.ZipCode,
		}).Error
	return errors.Wrapf(err, "update seller %s", seller.ID)
}

// DeleteSeller removes the seller, its stock rows and those of its products
// that no order references. Run it inside Transaction.
func (s *Store) DeleteSeller(ctx context.Context, sellerID string) error {
	db := s.db.WithContext(ctx)

	var productIDs []string
	if err := db.Model(&data.ProductStock{}).Where("seller_id = ?", sellerID).Pluck("product_id", &productIDs).Error; err != nil {
		return errors.Wrapf(err, "load products of seller %s", sellerID)
	}
	if err := db.Where("seller_id = ?", sellerID).Delete(&data.ProductStock{}).Error; err != nil {
		return errors.Wrapf(err, "delete stock of seller %s", sellerID)
	}
	if len(productIDs) > 0 {
		referenced := s.db.Model(&data.OrderItem{}).Select("product_id")
		err := db.Where("product_id IN ? AND product_id NOT IN (?)", productIDs, referenced).
			Delete(&data.Product{}).Error
		if err != nil {
			return errors.Wrapf(err, "delete products of seller %s", sellerID)
		}
	}
	err := db.Where("seller_id = ?", sellerID).Delete(&data.Seller{}).Error
	return errors.Wrapf(err, "delete seller %s", sellerID)
}

// ZipFor resolves a city and state to a zip code.
func (s *Store) ZipFor(ctx context.Context, city, state string) (string, error) {
	var g data.Geolocation
	err := s.db.WithContext(ctx).
		Where("city = ? AND state_name = ?", city, state).
		Order("geolocation_id").
		Take(&g).Error
	if err != nil {
		return "", errors.Wrapf(err, "zip of %s/%s", city, state)
	}
	return g.ZipCode, nil
}

func (s *Store) States(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).Model(&data.Geolocation{}).
		Distinct().
		Order("state_name").
		Pluck("state_name", &out).Error
	return out, errors.Wrap(err, "load states")
}

// Cities lists the cities of state, or of every state when state is empty.
func (s *Store) Cities(ctx context.Context, state string) ([]string, error) {
	q := s.db.WithContext(ctx).Model(&data.Geolocation{}).Distinct()
	if state != "" {
		q = q.Where("state_name = ?", state)
	}
	var out []string
	err := q.Order("city").Pluck("city", &out).Error
	return out, errors.Wrap(err, "load cities")
}

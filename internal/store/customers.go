package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"storefront/internal/data"
)

// CustomerFilter narrows SearchCustomers. Names match as case-insensitive
// substrings; Status keeps customers having at least one order in it.
type CustomerFilter struct {
	CustomerID uint64
	FirstName  string
	LastName   string
	Status     string
}

func (s *Store) CreateCustomer(ctx context.Context, c *data.Customer) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(c).Error, "insert customer")
}

func (s *Store) FindCustomer(ctx context.Context, customerID uint64) (*data.Customer, error) {
	var c data.Customer
	if err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).Take(&c).Error; err != nil {
		return nil, errors.Wrapf(err, "find customer %d", customerID)
	}
	return &c, nil
}

func (s *Store) CustomerByEmail(ctx context.Context, email string) (*data.Customer, error) {
	var c data.Customer
	if err := s.db.WithContext(ctx).Where("customer_email = ?", email).Take(&c).Error; err != nil {
		return nil, errors.Wrapf(err, "find customer %s", email)
	}
	return &c, nil
}

// EmailTaken reports whether email is already a customer email or a login.
func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&data.Customer{}).Where("customer_email = ?", email).Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "check customer email")
	}
	if n > 0 {
		return true, nil
	}
	if err := s.db.WithContext(ctx).Model(&data.UserPortal{}).Where("user_name = ?", email).Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "check login name")
	}
	return n > 0, nil
}

func (s *Store) ZipExists(ctx context.Context, zip string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&data.Geolocation{}).Where("geolocation_id = ?", zip).Count(&n).Error
	return n > 0, errors.Wrapf(err, "check zip %s", zip)
}

func (s *Store) SearchCustomers(ctx context.Context, f CustomerFilter) ([]data.Customer, error) {
	q := s.db.WithContext(ctx).Model(&data.Customer{})
	if f.CustomerID != 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.FirstName != "" {
		q = q.Where("LOWER(customer_first_name) LIKE ?", likeArg(strings.ToLower(f.FirstName)))
	}
	if f.LastName != "" {
		q = q.Where("LOWER(customer_last_name) LIKE ?", likeArg(strings.ToLower(f.LastName)))
	}
	if f.Status != "" {
		sub := s.db.Model(&data.Order{}).
			Select("customer_id").
			Where("LOWER(order_status) = ?", strings.ToLower(f.Status))
		q = q.Where("customer_id IN (?)", sub)
	}

	var out []data.Customer
	err := q.Order("customer_id").Find(&out).Error
	return out, errors.Wrap(err, "search customers")
}

// DeleteCustomer removes the customer row and its login.
func (s *Store) DeleteCustomer(ctx context.Context, c *data.Customer) error {
	if err := s.db.WithContext(ctx).Where("user_name = ?", c.Email).Delete(&data.UserPortal{}).Error; err != nil {
		return errors.Wrapf(err, "delete login of customer %d", c.ID)
	}
	err := s.db.WithContext(ctx).Where("customer_id = ?", c.ID).Delete(&data.Customer{}).Error
	return errors.Wrapf(err, "delete customer %d", c.ID)
}

func (s *Store) CreateLogin(ctx context.Context, u *data.UserPortal) error {
	return errors.Wrapf(s.db.WithContext(ctx).Create(u).Error, "insert login %s", u.UserName)
}

func (s *Store) FindLogin(ctx context.Context, userName string) (*data.UserPortal, error) {
	var u data.UserPortal
	if err := s.db.WithContext(ctx).Where("user_name = ?", userName).Take(&u).Error; err != nil {
		return nil, errors.Wrapf(err, "find login %s", userName)
	}
	return &u, nil
}


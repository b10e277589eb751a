// Package manager backs the manager portal: seller administration and the
// sales dashboard.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/data"
	"storefront/internal/logger"
	"storefront/internal/store"
)

// Seller ids are S1001 through S9998.
const (
	firstSellerNumber = 1001
	lastSellerNumber  = 9998
)

var (
	ErrSellerNotFound     = apperr.New(apperr.NotFound, apperr.CodeSellerNotFound)
	ErrSellerIDExhausted  = apperr.New(apperr.Conflict, apperr.CodeSellerIDExhausted)
	ErrUnknownLocation    = apperr.New(apperr.Validation, apperr.CodeUnknownZip)
	ErrMissingSellerField = apperr.New(apperr.Validation, apperr.CodeMissingFields)
)

// SellerForm is the editable part of a seller. The zip code is resolved from
// City and State.
type SellerForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	State     string `json:"state"`
}

func (f *SellerForm) normalize() error {
	fields := []*string{&f.FirstName, &f.LastName, &f.Email, &f.Phone, &f.City, &f.State}
	for _, p := range fields {
		*p = strings.TrimSpace(*p)
		if *p == "" {
			return ErrMissingSellerField
		}
	}
	return nil
}

type SellerFilter struct {
	ID        string `form:"id"`
	FirstName string `form:"first_name"`
	LastName  string `form:"last_name"`
}

type Service struct {
	store *store.Store
	log   *slog.Logger
}

func NewService(st *store.Store, log *slog.Logger) *Service {
	return &Service{store: st, log: logger.Or(log)}
}

// ListSellers returns every seller with its order-item count, most active
// first.
func (s *Service) ListSellers(ctx context.Context) ([]store.SellerActivity, error) {
	return s.store.SellerActivity(ctx)
}

func (s *Service) SellerDetail(ctx context.Context, sellerID string) (*store.SellerLocation, error) {
	seller, err := s.store.SellerWithLocation(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, apperr.Wrapf(ErrSellerNotFound, "seller %s", sellerID)
	}
	return seller, nil
}

func (s *Service) SearchSellers(ctx context.Context, f SellerFilter) ([]data.Seller, error) {
	return s.store.SearchSellers(ctx, store.SellerFilter{
		ID:        strings.TrimSpace(f.ID),
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
	})
}

// CreateSeller stores a new seller under the lowest free seller id.
func (s *Service) CreateSeller(ctx context.Context, form SellerForm) (*data.Seller, error) {
	if err := form.normalize(); err != nil {
		return nil, err
	}

	seller := &data.Seller{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
	}
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		zip, err := s.zipFor(ctx, tx, form)
		if err != nil {
			return err
		}
		seller.ZipCode = zip

		ids, err := tx.SellerIDs(ctx)
		if err != nil {
			return err
		}
		id, ok := NextSellerID(ids)
		if !ok {
			return ErrSellerIDExhausted
		}
		seller.ID = id
		return tx.CreateSeller(ctx, seller)
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "seller created", "seller_id", seller.ID)
	return seller, nil
}

func (s *Service) UpdateSeller(ctx context.Context, sellerID string, form SellerForm) (*data.Seller, error) {
	if err := form.normalize(); err != nil {
		return nil, err
	}

	var seller *data.Seller
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		current, err := tx.FindSeller(ctx, sellerID)
		if store.IsNotFound(err) {
			return apperr.Wrapf(ErrSellerNotFound, "seller %s", sellerID)
		}
		if err != nil {
			return err
		}
		zip, err := s.zipFor(ctx, tx, form)
		if err != nil {
			return err
		}

		current.FirstName = form.FirstName
		current.LastName = form.LastName
		current.Email = form.Email
		current.Phone = form.Phone
		current.ZipCode = zip
		seller = current
		return tx.UpdateSeller(ctx, current)
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "seller updated", "seller_id", sellerID)
	return seller, nil
}

// DeleteSeller removes a seller, its stock rows and its products that no
// order references.
func (s *Service) DeleteSeller(ctx context.Context, sellerID string) error {
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if _, err := tx.FindSeller(ctx, sellerID); err != nil {
			if store.IsNotFound(err) {
				return apperr.Wrapf(ErrSellerNotFound, "seller %s", sellerID)
			}
			return err
		}
		return tx.DeleteSeller(ctx, sellerID)
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "seller deleted", "seller_id", sellerID)
	return nil
}

func (s *Service) States(ctx context.Context) ([]string, error) {
	return s.store.States(ctx)
}

func (s *Service) Cities(ctx context.Context, state string) ([]string, error) {
	return s.store.Cities(ctx, strings.TrimSpace(state))
}

func (s *Service) zipFor(ctx context.Context, tx *store.Store, form SellerForm) (string, error) {
	zip, err := tx.ZipFor(ctx, form.City, form.State)
	if store.IsNotFound(err) {
		return "", apperr.Wrapf(ErrUnknownLocation, "%s/%s", form.City, form.State)
	}
	return zip, err
}

// NextSellerID returns the lowest id in S1001..S9998 missing from taken.
func NextSellerID(taken []string) (string, bool) {
	used := make(map[string]struct{}, len(taken))
	for _, id := range taken {
		used[id] = struct{}{}
	}
	for n := firstSellerNumber; n <= lastSellerNumber; n++ {
		id := fmt.Sprintf("S%d", n)
		if _, ok := used[id]; !ok {
			return id, true
		}
	}
	return "", false
}

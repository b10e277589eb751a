package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrStatusChanged reports a conditional status update that matched no row.
var ErrStatusChanged = errors.New("order status changed")

// Store is the storefront's data access over one gorm handle. Inside
// Transaction the same methods run on the transaction.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

// Transaction runs fn in one database transaction. An error returned by fn
// rolls back every statement fn issued through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// IsNotFound reports whether err is a missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique or primary key violation. The
// gorm handle must be opened with TranslateError.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func likeArg(s string) string {
	return "%" + s + "%"
}

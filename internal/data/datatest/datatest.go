// Package datatest opens throwaway SQLite databases carrying the storefront
// schema and a small, fully known dataset.
package datatest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/data"
)

// Password of every fixture login.
const Password = "secret"

const (
	ManagerLogin = "manager@example.com"
	SellerLogin  = "seller@example.com"
)

// Fixture names the rows Seed inserted.
//
// Orders: O1 (Ana, delivered on time, reviewed 5), O2 (Ana, in progress),
// O3 (Bruno, delivered late, reviewed 3), O4 (Bruno, on the way).
// Products: P1 electronics 10.00 stock 5 S1001, P2 books 5.50 stock 3 S1002,
// P3 toys 20.00 without stock row, P4 garden 7.25 stock 10 without seller.
type Fixture struct {
	Ana, Bruno, Carla uint64
	O1, O2, O3, O4    uint64
	AnaEmail          string
	BrunoEmail        string
	CarlaEmail        string
	Jan10, Feb05      time.Time
	Feb20, Mar01      time.Time
}

// Open returns an empty, migrated SQLite database in t's temp dir.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "storefront.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// SQLite serializes writers; one connection keeps transactions and
	// plain statements from contending for the file lock.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, data.EnsureSchema(gdb))
	return gdb
}

// OpenSeeded returns a migrated database holding the Fixture dataset.
func OpenSeeded(t testing.TB) (*gorm.DB, Fixture) {
	t.Helper()
	gdb := Open(t)
	return gdb, Seed(t, gdb)
}

func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Seed inserts the Fixture dataset.
func Seed(t testing.TB, gdb *gorm.DB) Fixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	f := Fixture{
		AnaEmail:   "ana@example.com",
		BrunoEmail: "bruno@example.com",
		CarlaEmail: "carla@example.com",
		Jan10:      time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
		Feb05:      time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC),
		Feb20:      time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC),
		Mar01:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	create := func(v any) {
		t.Helper()
		require.NoError(t, gdb.Create(v).Error)
	}

	create(&[]data.Geolocation{
		{ZipCode: "01001", City: "sao paulo", State: "SP"},
		{ZipCode: "13010", City: "campinas", State: "SP"},
		{ZipCode: "20010", City: "rio de janeiro", State: "RJ"},
	})
	create(&[]data.Seller{
		{ID: "S1001", FirstName: "Maria", LastName: "Souza", Email: "maria@sellers.example.com", Phone: "1111", ZipCode: "01001"},
		{ID: "S1002", FirstName: "Paulo", LastName: "Lima", Email: "paulo@sellers.example.com", Phone: "2222", ZipCode: "20010"},
		{ID: "S1004", FirstName: "Rita", LastName: "Costa", Email: "rita@sellers.example.com", Phone: "4444", ZipCode: "13010"},
	})
	create(&[]data.Product{
		{ID: "P1", Category: "electronics", Description: "Wireless Mouse", Price: Money("10.00")},
		{ID: "P2", Category: "books", Description: "Go Programming", Price: Money("5.50")},
		{ID: "P3", Category: "toys", Description: "Puzzle", Price: Money("20.00")},
		{ID: "P4", Category: "garden", Description: "Shovel", Price: Money("7.25")},
	})
	create(&[]data.ProductStock{
		{ProductID: "P1", SellerID: "S1001", Stock: 5},
		{ProductID: "P2", SellerID: "S1002", Stock: 3},
		{ProductID: "P4", SellerID: "", Stock: 10},
	})

	customers := []data.Customer{
		{FirstName: "Ana", LastName: "Silva", Email: f.AnaEmail, Phone: "5551", ZipCode: "01001"},
		{FirstName: "Bruno", LastName: "Santos", Email: f.BrunoEmail, Phone: "5552", ZipCode: "20010"},
		{FirstName: "Carla", LastName: "Lima", Email: f.CarlaEmail, Phone: "5553", ZipCode: "13010"},
	}
	create(&customers)
	f.Ana, f.Bruno, f.Carla = customers[0].ID, customers[1].ID, customers[2].ID

	create(&[]data.UserPortal{
		{UserName: f.AnaEmail, Password: string(hash), Portal: data.PortalCustomer},
		{UserName: f.BrunoEmail, Password: string(hash), Portal: data.PortalCustomer},
		{UserName: f.CarlaEmail, Password: string(hash), Portal: data.PortalCustomer},
		{UserName: ManagerLogin, Password: string(hash), Portal: data.PortalManager},
		{UserName: SellerLogin, Password: string(hash), Portal: data.PortalSeller},
	})

	week := 7 * 24 * time.Hour
	ptr := func(t time.Time) *time.Time { return &t }
	orders := []data.Order{
		{CustomerID: f.Ana, Status: data.StatusDelivered, PurchasedAt: f.Jan10,
			EstimatedDeliveryAt: ptr(f.Jan10.Add(week)), DeliveredCustomerAt: ptr(f.Jan10.Add(5 * 24 * time.Hour))},
		{CustomerID: f.Ana, Status: data.StatusInProgress, PurchasedAt: f.Feb05,
			EstimatedDeliveryAt: ptr(f.Feb05.Add(week))},
		{CustomerID: f.Bruno, Status: data.StatusDelivered, PurchasedAt: f.Feb20,
			EstimatedDeliveryAt: ptr(f.Feb20.Add(week)), DeliveredCustomerAt: ptr(f.Feb20.Add(11 * 24 * time.Hour))},
		{CustomerID: f.Bruno, Status: data.StatusOnTheWay, PurchasedAt: f.Mar01,
			EstimatedDeliveryAt: ptr(f.Mar01.Add(week))},
	}
	create(&orders)
	f.O1, f.O2, f.O3, f.O4 = orders[0].ID, orders[1].ID, orders[2].ID, orders[3].ID

	item := func(order uint64, product, seller string, qty int, placed time.Time) data.OrderItem {
		return data.OrderItem{OrderID: order, ProductID: product, SellerID: seller, Quantity: qty,
			ShippingLimit: placed.Add(week), Freight: decimal.Zero}
	}
	create(&[]data.OrderItem{
		item(f.O1, "P1", "S1001", 2, f.Jan10),
		item(f.O2, "P2", "S1002", 1, f.Feb05),
		item(f.O2, "P1", "S1001", 1, f.Feb05),
		item(f.O3, "P2", "S1002", 2, f.Feb20),
		item(f.O4, "P1", "S1001", 1, f.Mar01),
	})
	create(&[]data.OrderPayment{
		{OrderID: f.O1, Type: "credit_card", Installments: 1, Value: Money("20.00")},
		{OrderID: f.O2, Type: "boleto", Installments: 1, Value: Money("15.50")},
		{OrderID: f.O3, Type: "credit_card", Installments: 2, Value: Money("11.00")},
		{OrderID: f.O4, Type: "voucher", Installments: 1, Value: Money("10.00")},
	})
	create(&[]data.OrderReview{
		{OrderID: f.O1, Score: 5, Comment: "Great", ReviewedAt: f.Jan10.Add(6 * 24 * time.Hour)},
		{OrderID: f.O3, Score: 3, Comment: "Late", ReviewedAt: f.Feb20.Add(12 * 24 * time.Hour)},
	})

	return f
}

package data

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Demo logins created by SeedDataset. Customers log in with their email.
const (
	DemoPassword     = "storefront"
	DemoManagerLogin = "manager@storefront.local"
	DemoSellerLogin  = "seller@storefront.local"
)

// SeedConfig controls the size of the demo dataset.
type SeedConfig struct {
	Customers int
	Sellers   int
	Products  int
	Orders    int
	BatchSize int
	Seed      int64
}

func (c *SeedConfig) normalize() {
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.Customers <= 0 {
		c.Customers = 50
	}
	if c.Sellers <= 0 {
		c.Sellers = 10
	}
	if c.Products <= 0 {
		c.Products = 60
	}
	if c.Orders < 0 {
		c.Orders = 0
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
}

// EnsureSchema applies the storefront schema.
func EnsureSchema(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}

// SeedDataset populates an empty database with deterministic demo data. A
// database that already holds products is left untouched.
func SeedDataset(ctx context.Context, db *gorm.DB, cfg SeedConfig) error {
	cfg.normalize()

	var existing int64
	if err := db.WithContext(ctx).Model(&Product{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s := &seeder{
		cfg:  cfg,
		rnd:  rand.New(rand.NewSource(cfg.Seed)),
		now:  time.Now(),
		hash: string(hash),
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []func(*gorm.DB) error{
			s.seedGeolocation,
			s.seedSellers,
			s.seedProducts,
			s.seedCustomers,
			s.seedStaffLogins,
			s.seedOrders,
		}
		for _, step := range steps {
			if err := step(tx); err != nil {
				return err
			}
		}
		return nil
	})
}

type seeder struct {
	cfg  SeedConfig
	rnd  *rand.Rand
	now  time.Time
	hash string

	sellerIDs   []string
	customerIDs []uint64
	products    []Product
	stockOwner  map[string]string
}

func (s *seeder) seedGeolocation(tx *gorm.DB) error {
	return tx.CreateInBatches(&geolocations, s.cfg.BatchSize).Error
}

func (s *seeder) seedSellers(tx *gorm.DB) error {
	sellers := make([]Seller, 0, s.cfg.Sellers)
	for i := 0; i < s.cfg.Sellers; i++ {
		first, last := randomName(s.rnd)
		id := fmt.Sprintf("S%d", 1001+i)
		sellers = append(sellers, Seller{
			ID:        id,
			FirstName: first,
			LastName:  last,
			Email:     fmt.Sprintf("%s.%s@sellers.storefront.local", strings.ToLower(first), strings.ToLower(last)),
			Phone:     randomPhone(s.rnd),
			ZipCode:   randomChoice(geolocations, s.rnd).ZipCode,
		})
		s.sellerIDs = append(s.sellerIDs, id)
	}
	return tx.CreateInBatches(&sellers, s.cfg.BatchSize).Error
}

func (s *seeder) seedProducts(tx *gorm.DB) error {
	s.stockOwner = make(map[string]string, s.cfg.Products)
	stock := make([]ProductStock, 0, s.cfg.Products)
	for i := 0; i < s.cfg.Products; i++ {
		category := randomChoice(categories, s.rnd)
		p := Product{
			ID:          fmt.Sprintf("P%05d", i+1),
			Category:    category,
			Description: fmt.Sprintf("%s %s", randomChoice(adjectives, s.rnd), category),
			Price:       decimal.New(int64(199+s.rnd.Intn(49800)), -2),
		}
		s.products = append(s.products, p)

		seller := randomChoice(s.sellerIDs, s.rnd)
		s.stockOwner[p.ID] = seller
		stock = append(stock, ProductStock{ProductID: p.ID, SellerID: seller, Stock: 5 + s.rnd.Intn(200)})
	}
	if err := tx.CreateInBatches(&s.products, s.cfg.BatchSize).Error; err != nil {
		return err
	}
	return tx.CreateInBatches(&stock, s.cfg.BatchSize).Error
}

func (s *seeder) seedCustomers(tx *gorm.DB) error {
	customers := make([]Customer, 0, s.cfg.Customers)
	logins := make([]UserPortal, 0, s.cfg.Customers)
	for i := 0; i < s.cfg.Customers; i++ {
		first, last := randomName(s.rnd)
		email := fmt.Sprintf("customer%04d@storefront.local", i+1)
		customers = append(customers, Customer{
			FirstName: first,
			LastName:  last,
			Email:     email,
			Phone:     randomPhone(s.rnd),
			ZipCode:   randomChoice(geolocations, s.rnd).ZipCode,
		})
		logins = append(logins, UserPortal{UserName: email, Password: s.hash, Portal: PortalCustomer})
	}
	if err := tx.CreateInBatches(&customers, s.cfg.BatchSize).Error; err != nil {
		return err
	}
	for _, c := range customers {
		s.customerIDs = append(s.customerIDs, c.ID)
	}
	return tx.CreateInBatches(&logins, s.cfg.BatchSize).Error
}

func (s *seeder) seedStaffLogins(tx *gorm.DB) error {
	staff := []UserPortal{
		{UserName: DemoManagerLogin, Password: s.hash, Portal: PortalManager},
		{UserName: DemoSellerLogin, Password: s.hash, Portal: PortalSeller},
	}
	return tx.Create(&staff).Error
}

func (s *seeder) seedOrders(tx *gorm.DB) error {
	for start := 0; start < s.cfg.Orders; start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, s.cfg.Orders)
		if err := s.seedOrderBatch(tx, end-start); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) seedOrderBatch(tx *gorm.DB, n int) error {
	orders := make([]Order, 0, n)
	for i := 0; i < n; i++ {
		orders = append(orders, s.buildOrder())
	}
	if err := tx.Create(&orders).Error; err != nil {
		return err
	}

	var (
		items    []OrderItem
		payments []OrderPayment
		reviews  []OrderReview
	)
	for _, o := range orders {
		total := decimal.Zero
		lines := 1 + s.rnd.Intn(3)
		for j := 0; j < lines; j++ {
			p := randomChoice(s.products, s.rnd)
			qty := 1 + s.rnd.Intn(3)
			items = append(items, OrderItem{
				OrderID:       o.ID,
				ProductID:     p.ID,
				SellerID:      s.stockOwner[p.ID],
				ShippingLimit: o.PurchasedAt.Add(7 * 24 * time.Hour),
				Freight:       decimal.Zero,
				Quantity:      qty,
			})
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
		}
		payments = append(payments, OrderPayment{
			OrderID:      o.ID,
			Type:         randomChoiceWeighted(paymentTypes, paymentWeights, s.rnd),
			Installments: 1 + s.rnd.Intn(6),
			Value:        total,
		})
		if o.DeliveredCustomerAt != nil && s.rnd.Float64() < 0.7 {
			reviews = append(reviews, OrderReview{
				OrderID:    o.ID,
				Score:      1 + s.rnd.Intn(5),
				Comment:    randomChoice(reviewComments, s.rnd),
				ReviewedAt: o.DeliveredCustomerAt.Add(24 * time.Hour),
			})
		}
	}

	if err := tx.CreateInBatches(&items, s.cfg.BatchSize).Error; err != nil {
		return err
	}
	if err := tx.CreateInBatches(&payments, s.cfg.BatchSize).Error; err != nil {
		return err
	}
	if len(reviews) == 0 {
		return nil
	}
	return tx.CreateInBatches(&reviews, s.cfg.BatchSize).Error
}

func (s *seeder) buildOrder() Order {
	purchased := s.now.Add(-time.Duration(24+s.rnd.Intn(365*24)) * time.Hour)
	estimated := purchased.Add(7 * 24 * time.Hour)
	order := Order{
		CustomerID:          randomChoice(s.customerIDs, s.rnd),
		Status:              randomChoiceWeighted(seedStatuses, statusWeights, s.rnd),
		PurchasedAt:         purchased,
		EstimatedDeliveryAt: &estimated,
	}

	if order.Status == StatusInProgress {
		return order
	}
	approved := purchased.Add(time.Duration(1+s.rnd.Intn(12)) * time.Hour)
	order.ApprovedAt = &approved
	if order.Status == StatusCanceled {
		return order
	}
	carrier := approved.Add(time.Duration(12+s.rnd.Intn(48)) * time.Hour)
	order.DeliveredCarrierAt = &carrier
	if order.Status == StatusDelivered {
		delivered := carrier.Add(time.Duration(24+s.rnd.Intn(9*24)) * time.Hour)
		order.DeliveredCustomerAt = &delivered
	}
	return order
}

var (
	geolocations = []Geolocation{
		{ZipCode: "01001", City: "sao paulo", State: "SP"},
		{ZipCode: "13010", City: "campinas", State: "SP"},
		{ZipCode: "20010", City: "rio de janeiro", State: "RJ"},
		{ZipCode: "24020", City: "niteroi", State: "RJ"},
		{ZipCode: "30110", City: "belo horizonte", State: "MG"},
		{ZipCode: "38400", City: "uberlandia", State: "MG"},
		{ZipCode: "40010", City: "salvador", State: "BA"},
		{ZipCode: "70040", City: "brasilia", State: "DF"},
		{ZipCode: "80010", City: "curitiba", State: "PR"},
		{ZipCode: "90010", City: "porto alegre", State: "RS"},
	}
	categories     = []string{"electronics", "books", "toys", "garden_tools", "health_beauty", "sports_leisure", "housewares"}
	adjectives     = []string{"Compact", "Deluxe", "Classic", "Portable", "Premium", "Everyday"}
	firstNames     = []string{"Ana", "Bruno", "Carla", "Diego", "Elisa", "Felipe", "Gabriela", "Hugo", "Isabela", "Joao"}
	lastNames      = []string{"Silva", "Santos", "Oliveira", "Souza", "Lima", "Pereira", "Costa", "Almeida"}
	seedStatuses   = []string{StatusDelivered, StatusInProgress, StatusOnTheWay, StatusDelayed, StatusCanceled}
	statusWeights  = []int{60, 15, 12, 8, 5}
	paymentTypes   = []string{"credit_card", "boleto", "voucher", "debit_card"}
	paymentWeights = []int{70, 18, 7, 5}
	reviewComments = []string{
		"Arrived quickly and well packed.",
		"Product as described.",
		"Took longer than expected.",
		"Great value for the price.",
		"Box was damaged but the item works.",
	}
)

func randomChoice[T any](items []T, rnd *rand.Rand) T {
	return items[rnd.Intn(len(items))]
}

func randomChoiceWeighted(items []string, weights []int, rnd *rand.Rand) string {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rnd.Intn(total)
	for i, item := range items {
		n -= weights[i]
		if n < 0 {
			return item
		}
	}
	return items[0]
}

func randomName(rnd *rand.Rand) (string, string) {
	return randomChoice(firstNames, rnd), randomChoice(lastNames, rnd)
}

func randomPhone(rnd *rand.Rand) string {
	prefixes := []string{"11", "21", "31", "41", "51"}
	return fmt.Sprintf("(%s) 9%04d-%04d", randomChoice(prefixes, rnd), rnd.Intn(10000), rnd.Intn(10000))
}

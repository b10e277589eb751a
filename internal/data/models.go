package data

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Comparisons against stored values are case-insensitive.
const (
	StatusInProgress = "in progress"
	StatusOnTheWay   = "On the way"
	StatusDelayed    = "Order Delayed"
	StatusDelivered  = "delivered"
	StatusCanceled   = "canceled"
)

// Portals a login belongs to.
const (
	PortalCustomer = "customer"
	PortalSeller   = "seller"
	PortalManager  = "manager"
)

type Geolocation struct {
	ZipCode string `gorm:"column:geolocation_id;primaryKey;size:16" json:"zip_code"`
	City    string `gorm:"column:city;size:64;index" json:"city"`
	State   string `gorm:"column:state_name;size:64;index" json:"state"`
}

func (Geolocation) TableName() string { return "geolocation" }

type Customer struct {
	ID        uint64 `gorm:"column:customer_id;primaryKey;autoIncrement" json:"id"`
	FirstName string `gorm:"column:customer_first_name;size:64;index" json:"first_name"`
	LastName  string `gorm:"column:customer_last_name;size:64;index" json:"last_name"`
	Email     string `gorm:"column:customer_email;size:128;uniqueIndex" json:"email"`
	Phone     string `gorm:"column:customer_phone;size:32" json:"phone"`
	ZipCode   string `gorm:"column:customer_zip_code;size:16" json:"zip_code"`
}

func (Customer) TableName() string { return "customers" }

type Seller struct {
	ID        string `gorm:"column:seller_id;primaryKey;size:16" json:"id"`
	FirstName string `gorm:"column:seller_first_name;size:64;index" json:"first_name"`
	LastName  string `gorm:"column:seller_last_name;size:64;index" json:"last_name"`
	Email     string `gorm:"column:seller_email;size:128" json:"email"`
	Phone     string `gorm:"column:seller_phone;size:32" json:"phone"`
	ZipCode   string `gorm:"column:seller_zip_code;size:16" json:"zip_code"`
}

func (Seller) TableName() string { return "sellers" }

type Product struct {
	ID          string          `gorm:"column:product_id;primaryKey;size:64"`
	Category    string          `gorm:"column:product_category;size:64;index"`
	Description string          `gorm:"column:product_description;size:255"`
	Price       decimal.Decimal `gorm:"column:product_price;type:decimal(10,2)"`
}

func (Product) TableName() string { return "products" }

// ProductStock is the single stock row of a product and names its seller.
type ProductStock struct {
	ProductID string `gorm:"column:product_id;primaryKey;size:64"`
	SellerID  string `gorm:"column:seller_id;size:16;index"`
	Stock     int    `gorm:"column:stock"`
}

func (ProductStock) TableName() string { return "product_stock" }

type Order struct {
	ID                  uint64     `gorm:"column:order_id;primaryKey;autoIncrement"`
	CustomerID          uint64     `gorm:"column:customer_id;index"`
	Status              string     `gorm:"column:order_status;size:32;index"`
	PurchasedAt         time.Time  `gorm:"column:order_purchase_timestamp;index"`
	ApprovedAt          *time.Time `gorm:"column:order_approved_at"`
	DeliveredCarrierAt  *time.Time `gorm:"column:order_delivered_carrier_date"`
	DeliveredCustomerAt *time.Time `gorm:"column:order_delivered_customer_date"`
	EstimatedDeliveryAt *time.Time `gorm:"column:order_estimated_delivery_date"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID            uint64          `gorm:"column:order_item_id;primaryKey;autoIncrement"`
	OrderID       uint64          `gorm:"column:order_id;index"`
	ProductID     string          `gorm:"column:product_id;size:64;index"`
	SellerID      string          `gorm:"column:seller_id;size:16;index"`
	ShippingLimit time.Time       `gorm:"column:shipping_limit_date"`
	Freight       decimal.Decimal `gorm:"column:freight_value;type:decimal(10,2)"`
	Quantity      int             `gorm:"column:quantity"`
}

func (OrderItem) TableName() string { return "order_items" }

type OrderPayment struct {
	ID           uint64          `gorm:"column:payment_id;primaryKey;autoIncrement"`
	OrderID      uint64          `gorm:"column:order_id;index"`
	Type         string          `gorm:"column:payment_type;size:32;index"`
	Installments int             `gorm:"column:payment_installments"`
	Value        decimal.Decimal `gorm:"column:payment_value;type:decimal(10,2)"`
}

func (OrderPayment) TableName() string { return "order_payments" }

// OrderReview is unique per order; writes go through an upsert on order_id.
type OrderReview struct {
	ID         uint64    `gorm:"column:review_id;primaryKey;autoIncrement"`
	OrderID    uint64    `gorm:"column:order_id;uniqueIndex"`
	Score      int       `gorm:"column:review_score"`
	Comment    string    `gorm:"column:comment_message;size:1024"`
	ReviewedAt time.Time `gorm:"column:review_date"`
}

func (OrderReview) TableName() string { return "order_reviews" }

// UserPortal is a login. Customers log in with their email.
type UserPortal struct {
	UserName string `gorm:"column:user_name;primaryKey;size:128"`
	Password string `gorm:"column:password;size:255"`
	Portal   string `gorm:"column:portal;size:16"`
}

func (UserPortal) TableName() string { return "user_portal" }

// All lists every model in migration order.
func All() []any {
	return []any{
		&Geolocation{},
		&Customer{},
		&Seller{},
		&Product{},
		&ProductStock{},
		&Order{},
		&OrderItem{},
		&OrderPayment{},
		&OrderReview{},
		&UserPortal{},
	}
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order sources
const (
	SourceWhatsApp = "whatsapp"
)

// Customer is the buyer behind one or more orders. Rows are keyed by email and
// overwritten with the latest checkout details.
type Customer struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:200;not null" json:"name"`
	Email             string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone             string    `gorm:"size:30;not null" json:"phone"`
	Street            string    `gorm:"size:255" json:"street"`
	Colony            string    `gorm:"size:150" json:"colony"`
	City              string    `gorm:"size:100" json:"city"`
	State             string    `gorm:"size:100" json:"state"`
	ZipCode           string    `gorm:"size:10" json:"zip_code"`
	AddressReferences string    `gorm:"type:text" json:"address_references"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// Order is a checkout submitted through the storefront. Orders are never
// deleted; after creation only the status endpoint mutates them.
type Order struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	OrderNumber         string          `gorm:"size:30;uniqueIndex;not null" json:"order_number"`
	CustomerID          uint            `gorm:"not null;index" json:"customer_id"`
	Customer            Customer        `gorm:"foreignKey:CustomerID" json:"customer"`
	Subtotal            decimal.Decimal `gorm:"type:decimal(10,2);not null;check:subtotal >= 0" json:"subtotal"`
	ShippingCost        decimal.Decimal `gorm:"type:decimal(10,2);not null;check:shipping_cost >= 0" json:"shipping_cost"`
	Discount            decimal.Decimal `gorm:"type:decimal(10,2);not null;check:discount >= 0" json:"discount"`
	Total               decimal.Decimal `gorm:"type:decimal(10,2);not null;check:total >= 0" json:"total"`
	PaymentMethod       string          `gorm:"size:50;not null" json:"payment_method"`
	Notes               string          `gorm:"type:text" json:"notes"`
	Status              OrderStatus     `gorm:"type:varchar(30);not null;index" json:"status"`
	Source              string          `gorm:"size:30;not null" json:"source"`
	IntentConfirmedAt   *time.Time      `json:"intent_confirmed_at"`
	AdminConfirmedBy    *uint           `json:"admin_confirmed_by"`
	ShippedAt           *time.Time      `json:"shipped_at"`
	DeliveredAt         *time.Time      `json:"delivered_at"`
	LastStatusChangedAt *time.Time      `json:"last_status_changed_at"`
	TrackingNumber      *string         `gorm:"size:100" json:"tracking_number"`
	PaymentReference    *string         `gorm:"size:100" json:"payment_reference"`
	WhatsAppMessage     *string         `gorm:"column:whatsapp_message;type:text" json:"whatsapp_message,omitempty"`
	Items               []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt           time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one line of an order. Product name and SKU are copied at
// checkout so the line survives later catalog edits or deletion.
type OrderItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	ProductID       *uint           `gorm:"index" json:"product_id"`
	ProductName     string          `gorm:"size:200;not null" json:"product_name"`
	ProductSKU      string          `gorm:"column:product_sku;size:50" json:"product_sku"`
	SelectedOptions SelectedOptions `gorm:"type:text" json:"selected_options"`
	Quantity        int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

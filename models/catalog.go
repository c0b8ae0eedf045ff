package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products on the storefront (anillos, cadenas, dijes...)
type Category struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Slug         string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	ImageURL     string    `gorm:"size:500" json:"image_url"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	Active       bool      `gorm:"not null" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// Product is a sellable catalog entry
type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:200;not null" json:"name"`
	Slug            string          `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	Description     string          `gorm:"type:text" json:"description"`
	BasePrice       decimal.Decimal `gorm:"type:decimal(10,2);not null;check:base_price >= 0" json:"base_price"`
	CategoryID      uint            `gorm:"not null;index" json:"category_id"`
	Category        *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SKU             string          `gorm:"column:sku;size:50" json:"sku"`
	Active          bool            `gorm:"not null;index" json:"active"`
	Featured        bool            `gorm:"not null" json:"featured"`
	MetaTitle       string          `gorm:"size:200" json:"meta_title"`
	MetaDescription string          `gorm:"size:500" json:"meta_description"`
	Images          []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`
	Options         []ProductOption `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"options"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// ProductImage is a picture shown on the product page. StorageKey is set when
// the file was uploaded through the API rather than linked by URL.
type ProductImage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProductID    uint      `gorm:"not null;index" json:"product_id"`
	ImageURL     string    `gorm:"size:500;not null" json:"image_url"`
	StorageKey   *string   `gorm:"size:300" json:"-"`
	AltText      string    `gorm:"size:200" json:"alt_text"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	IsPrimary    bool      `gorm:"not null" json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for the ProductImage model
func (ProductImage) TableName() string {
	return "product_images"
}

// ProductOption is a customer choice offered for a product, e.g. ring size
type ProductOption struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ProductID    uint       `gorm:"not null;index" json:"product_id"`
	OptionName   string     `gorm:"size:100;not null" json:"option_name"`
	OptionValues StringList `gorm:"type:text;not null" json:"option_values"`
	DisplayOrder int        `gorm:"not null;default:0" json:"display_order"`
	Required     bool       `gorm:"not null" json:"required"`
}

// TableName specifies the table name for the ProductOption model
func (ProductOption) TableName() string {
	return "product_options"
}

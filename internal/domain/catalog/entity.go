// internal/domain/catalog/entity.go
package catalog

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Product represents the product entity
type Product struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	SKU               string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name              string         `gorm:"not null;size:255" json:"name"`
	Slug              string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description       string         `gorm:"type:text" json:"description"`
	Price             int64          `gorm:"not null" json:"price"` // Price in minor units (kobo)
	DiscountPrice     *int64         `json:"discount_price,omitempty"`
	InStock           int            `gorm:"default:0" json:"in_stock"`
	Available         bool           `gorm:"default:true" json:"available"`
	LowStockThreshold int            `gorm:"default:5" json:"low_stock_threshold"`
	RatingAverage     float64        `gorm:"default:0" json:"rating_average"`
	RatingCount       int            `gorm:"default:0" json:"rating_count"`
	CategoryID        uint           `gorm:"not null;index" json:"category_id"`
	BrandID           *uint          `gorm:"index" json:"brand_id,omitempty"`
	Image             string         `gorm:"size:500" json:"image"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
	Brand    *Brand   `gorm:"foreignKey:BrandID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"brand,omitempty"`
	Reviews  []Review `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"reviews,omitempty"`
}

// Category represents product categories
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	ParentID    *uint          `gorm:"index" json:"parent_id,omitempty"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Products []Product  `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// Brand represents product brands
type Brand struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	Logo        string         `gorm:"size:500" json:"logo"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:BrandID" json:"products,omitempty"`
}

// HomepageSection is a curated product collection rendered on the landing
// page. It exists as the cache's aggregate-read consumer.
type HomepageSection struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"not null;size:255" json:"title"`
	Slug      string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Position  int            `gorm:"default:0" json:"position"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"many2many:homepage_section_products;" json:"products,omitempty"`
}

// Review represents a customer review. One review per (product, user).
type Review struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ProductID  uint           `gorm:"not null;uniqueIndex:idx_reviews_product_user" json:"product_id"`
	UserID     uint           `gorm:"not null;uniqueIndex:idx_reviews_product_user" json:"user_id"`
	Rating     int            `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment    string         `gorm:"type:text" json:"comment"`
	IsVerified bool           `gorm:"default:false" json:"is_verified"` // Verified purchase
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// MovementType classifies a stock movement
type MovementType string

const (
	MovementSale    MovementType = "sale"    // Checkout decrement
	MovementRelease MovementType = "release" // Cancellation restore
	MovementRestock MovementType = "restock" // Manual or seeded increase
)

// StockMovement is an audit row appended inside the same transaction as the
// stock change it records.
type StockMovement struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	ProductID     uint         `gorm:"not null;index" json:"product_id"`
	Type          MovementType `gorm:"not null;size:20" json:"type"`
	Quantity      int          `gorm:"not null" json:"quantity"`
	PreviousStock int          `gorm:"not null" json:"previous_stock"`
	NewStock      int          `gorm:"not null" json:"new_stock"`
	Reference     string       `gorm:"size:50;index" json:"reference"` // Order number
	CreatedAt     time.Time    `json:"created_at"`
}

// TableName overrides
func (Product) TableName() string         { return "products" }
func (Category) TableName() string        { return "categories" }
func (Brand) TableName() string           { return "brands" }
func (HomepageSection) TableName() string { return "homepage_sections" }
func (Review) TableName() string          { return "reviews" }
func (StockMovement) TableName() string   { return "stock_movements" }

// BeforeSave keeps the discount invariant at the storage boundary.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.DiscountPrice != nil && *p.DiscountPrice >= p.Price {
		return fmt.Errorf("discount price %d must be below price %d", *p.DiscountPrice, p.Price)
	}
	return nil
}

// Business methods for Product

// FinalPrice is the effective unit price: the discount price when set, the
// list price otherwise.
func (p *Product) FinalPrice() int64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// IsPurchasable reports whether the product can enter a cart.
func (p *Product) IsPurchasable() bool {
	return p.Available && p.InStock > 0
}

func (p *Product) IsLowStock() bool {
	return p.InStock <= p.LowStockThreshold
}

func (p *Product) GetDiscountPercentage() int {
	if p.DiscountPrice != nil && *p.DiscountPrice < p.Price && p.Price > 0 {
		return int(((p.Price - *p.DiscountPrice) * 100) / p.Price)
	}
	return 0
}

// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
)

// Cart represents a shopping cart. A cart belongs either to a user
// (UserID set) or to an anonymous browser session (SessionKey set).
// Total is denormalized and recomputed after every mutation so that
// it always equals the sum of the line subtotals.
type Cart struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	SessionKey string    `gorm:"index;size:64" json:"-"`
	Total      int64     `gorm:"not null;default:0" json:"total"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// CartItem is one line in a cart. A cart holds at most one line per
// (product, size) pair; adds against an existing pair merge quantities.
// Rows are hard-deleted so a removed pair can be re-added without
// colliding with the unique index.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product_size" json:"cart_id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_cart_items_cart_product_size" json:"product_id"`
	Size      string    `gorm:"size:20;default:'';uniqueIndex:idx_cart_items_cart_product_size" json:"size,omitempty"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	Subtotal  int64     `gorm:"not null" json:"subtotal"` // Final unit price x quantity
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Product catalog.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product"`
}

// TableName overrides the table name
func (Cart) TableName() string {
	return "carts"
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

// IsAnonymous reports whether the cart is keyed by session rather than user.
func (c *Cart) IsAnonymous() bool {
	return c.UserID == nil
}

// TotalQuantity sums the quantities across all lines.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

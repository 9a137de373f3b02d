// internal/domain/wishlist/entity.go
package wishlist

import (
	"time"

	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
)

// Item is one saved product. A user saves a product at most once;
// rows are hard-deleted so a re-save never collides with a tombstone.
type Item struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_wishlist_items_user_product" json:"user_id"`
	ProductID uint            `gorm:"not null;uniqueIndex:idx_wishlist_items_user_product" json:"product_id"`
	Product   catalog.Product `gorm:"foreignKey:ProductID" json:"product"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName overrides the table name
func (Item) TableName() string {
	return "wishlist_items"
}

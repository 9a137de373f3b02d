// internal/domain/wishlist/service.go
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/domain/cart"
	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
)

// Service handles wishlist business logic
type Service struct {
	db    *gorm.DB
	carts *cart.Service
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB, carts *cart.Service) *Service {
	return &Service{db: db, carts: carts}
}

// ItemResponse is one saved product with its live availability.
type ItemResponse struct {
	ID        uint             `json:"id"`
	ProductID uint             `json:"product_id"`
	Product   *catalog.Product `json:"product,omitempty"`
	Available bool             `json:"available"`
	AddedAt   time.Time        `json:"added_at"`
}

// ListResponse is the user's full wishlist.
type ListResponse struct {
	Items []ItemResponse `json:"items"`
	Count int            `json:"count"`
}

// List returns everything the user has saved, newest first.
func (s *Service) List(ctx context.Context, userID uint) (*ListResponse, error) {
	var items []Item
	err := s.db.WithContext(ctx).
		Preload("Product").Preload("Product.Category").Preload("Product.Brand").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}

	resp := &ListResponse{Items: make([]ItemResponse, 0, len(items)), Count: len(items)}
	for i := range items {
		resp.Items = append(resp.Items, toItemResponse(&items[i]))
	}
	return resp, nil
}

// Add saves a product. Out-of-stock products can be saved, that is
// what a wishlist is for; only missing products are rejected.
func (s *Service) Add(ctx context.Context, userID, productID uint) (*ItemResponse, error) {
	var product catalog.Product
	err := s.db.WithContext(ctx).First(&product, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	item := Item{UserID: userID, ProductID: productID}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadySaved
		}
		return nil, fmt.Errorf("failed to save wishlist item: %w", err)
	}

	item.Product = product
	resp := toItemResponse(&item)
	return &resp, nil
}

// Remove drops one saved product.
func (s *Service) Remove(ctx context.Context, userID, productID uint) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&Item{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Clear drops the whole wishlist.
func (s *Service) Clear(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Item{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear wishlist: %w", err)
	}
	return nil
}

// Count returns how many products the user has saved.
func (s *Service) Count(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Item{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count wishlist items: %w", err)
	}
	return count, nil
}

// Contains reports whether a product is already saved.
func (s *Service) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Item{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return count > 0, nil
}

// MoveToCart puts a saved product into the cart and removes it from
// the wishlist. When the cart rejects it (out of stock, unavailable)
// the wishlist entry stays put.
func (s *Service) MoveToCart(ctx context.Context, userID, productID uint, quantity int) (*cart.CartResponse, error) {
	saved, err := s.Contains(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !saved {
		return nil, ErrItemNotFound
	}

	if quantity < 1 {
		quantity = 1
	}

	resp, err := s.carts.AddItem(ctx, cart.Identity{UserID: &userID}, &cart.AddItemRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Remove(ctx, userID, productID); err != nil && !errors.Is(err, ErrItemNotFound) {
		return nil, err
	}
	return resp, nil
}

func toItemResponse(item *Item) ItemResponse {
	resp := ItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		AddedAt:   item.CreatedAt,
	}
	if item.Product.ID != 0 {
		product := item.Product
		resp.Product = &product
		resp.Available = product.IsPurchasable()
	}
	return resp
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

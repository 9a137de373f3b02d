// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// Identity resolves which cart a request operates on. Authenticated
// requests carry a user ID; anonymous requests carry the session key
// issued in the cart cookie. When both are present the anonymous cart
// is merged into the user cart before the operation proceeds.
type Identity struct {
	UserID     *uint
	SessionKey string
}

// Actions accepted by UpdateItem.
const (
	ActionIncrement = "increment"
	ActionDecrement = "decrement"
	ActionSet       = "set"
	ActionRemove    = "remove"
)

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents update cart item request
type UpdateItemRequest struct {
	Action   string `json:"action" binding:"required,oneof=increment decrement set remove"`
	Quantity *int   `json:"quantity" binding:"omitempty,min=0"`
}

// CartItemResponse represents a cart line with product details
type CartItemResponse struct {
	ID        uint   `json:"id"`
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Image     string `json:"image,omitempty"`
	Size      string `json:"size,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

// CartResponse represents a shopping cart with items and totals
type CartResponse struct {
	ID            uint               `json:"id"`
	UserID        *uint              `json:"user_id,omitempty"`
	Items         []CartItemResponse `json:"items"`
	ItemCount     int                `json:"item_count"`
	TotalQuantity int                `json:"total_quantity"`
	Total         int64              `json:"total"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// GetCart resolves the identity's cart, creating one if needed, and
// returns it with product details loaded.
func (s *Service) GetCart(ctx context.Context, ident Identity) (*CartResponse, error) {
	cart, err := s.GetOrCreateCart(ctx, ident)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, cart.ID)
}

// GetOrCreateCart finds the cart for the identity or creates an empty
// one. For an authenticated identity that also carries a session key,
// any anonymous cart under that key is merged into the user cart and
// deleted; quantities for matching (product, size) lines are summed and
// capped at live stock.
func (s *Service) GetOrCreateCart(ctx context.Context, ident Identity) (*Cart, error) {
	if ident.UserID != nil {
		return s.getOrCreateUserCart(ctx, *ident.UserID, ident.SessionKey)
	}
	if ident.SessionKey == "" {
		return nil, ErrCartNotFound
	}
	return s.getOrCreateSessionCart(ctx, ident.SessionKey)
}

func (s *Service) getOrCreateSessionCart(ctx context.Context, sessionKey string) (*Cart, error) {
	var cart Cart
	err := s.db.WithContext(ctx).
		Where("session_key = ? AND user_id IS NULL", sessionKey).
		First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to retrieve session cart: %w", err)
	}

	cart = Cart{SessionKey: sessionKey}
	if err := s.db.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to create session cart: %w", err)
	}
	return &cart, nil
}

func (s *Service) getOrCreateUserCart(ctx context.Context, userID uint, sessionKey string) (*Cart, error) {
	var userCart Cart
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&userCart).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to retrieve user cart: %w", err)
	}
	hasUserCart := err == nil

	var anonCart Cart
	hasAnonCart := false
	if sessionKey != "" {
		err := s.db.WithContext(ctx).
			Where("session_key = ? AND user_id IS NULL", sessionKey).
			First(&anonCart).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to retrieve session cart: %w", err)
		}
		hasAnonCart = err == nil
	}

	switch {
	case hasUserCart && hasAnonCart:
		if err := s.mergeCarts(ctx, &userCart, &anonCart); err != nil {
			return nil, err
		}
		return &userCart, nil
	case hasUserCart:
		return &userCart, nil
	case hasAnonCart:
		// Claim the anonymous cart. The session key is cleared so a
		// later logged-out visit starts fresh instead of sharing it.
		updates := map[string]interface{}{"user_id": userID, "session_key": ""}
		if err := s.db.WithContext(ctx).Model(&anonCart).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to claim session cart: %w", err)
		}
		return &anonCart, nil
	default:
		userCart = Cart{UserID: &userID}
		if err := s.db.WithContext(ctx).Create(&userCart).Error; err != nil {
			return nil, fmt.Errorf("failed to create user cart: %w", err)
		}
		return &userCart, nil
	}
}

// mergeCarts folds the anonymous cart's lines into the user cart and
// deletes the anonymous cart. Lines whose product is gone or no longer
// purchasable are dropped rather than carried over.
func (s *Service) mergeCarts(ctx context.Context, userCart, anonCart *Cart) error {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var anonItems []CartItem
	if err := tx.Where("cart_id = ?", anonCart.ID).Find(&anonItems).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to load session cart items: %w", err)
	}

	for _, anonItem := range anonItems {
		var prod catalog.Product
		if err := tx.First(&prod, anonItem.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			tx.Rollback()
			return fmt.Errorf("failed to load product %d: %w", anonItem.ProductID, err)
		}
		if !prod.IsPurchasable() {
			continue
		}

		var userItem CartItem
		err := tx.Where("cart_id = ? AND product_id = ? AND size = ?",
			userCart.ID, anonItem.ProductID, anonItem.Size).First(&userItem).Error
		switch {
		case err == nil:
			merged := userItem.Quantity + anonItem.Quantity
			if merged > prod.InStock {
				merged = prod.InStock
			}
			userItem.Quantity = merged
			userItem.Subtotal = prod.FinalPrice() * int64(merged)
			if err := tx.Save(&userItem).Error; err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to merge cart item: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			quantity := anonItem.Quantity
			if quantity > prod.InStock {
				quantity = prod.InStock
			}
			item := CartItem{
				CartID:    userCart.ID,
				ProductID: anonItem.ProductID,
				Size:      anonItem.Size,
				Quantity:  quantity,
				Subtotal:  prod.FinalPrice() * int64(quantity),
			}
			if err := tx.Create(&item).Error; err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to move cart item: %w", err)
			}
		default:
			tx.Rollback()
			return fmt.Errorf("failed to look up cart item: %w", err)
		}
	}

	if err := tx.Where("cart_id = ?", anonCart.ID).Delete(&CartItem{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete session cart items: %w", err)
	}
	if err := tx.Delete(anonCart).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete session cart: %w", err)
	}

	if err := s.recomputeTotal(tx, userCart.ID); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit cart merge: %w", err)
	}
	return nil
}

// AddItem adds a product to the identity's cart. Adding a (product,
// size) pair that is already in the cart merges quantities; the merged
// quantity is validated against live stock and on failure the existing
// line is left untouched.
func (s *Service) AddItem(ctx context.Context, ident Identity, req *AddItemRequest) (*CartResponse, error) {
	cart, err := s.GetOrCreateCart(ctx, ident)
	if err != nil {
		return nil, err
	}

	var prod catalog.Product
	if err := s.db.WithContext(ctx).First(&prod, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !prod.IsPurchasable() {
		return nil, ErrProductUnavailable
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var item CartItem
	err = tx.Where("cart_id = ? AND product_id = ? AND size = ?",
		cart.ID, req.ProductID, req.Size).First(&item).Error
	switch {
	case err == nil:
		newQuantity := item.Quantity + req.Quantity
		if newQuantity > prod.InStock {
			tx.Rollback()
			return nil, &OutOfStockError{ProductName: prod.Name, Requested: newQuantity, Available: prod.InStock}
		}
		item.Quantity = newQuantity
		item.Subtotal = prod.FinalPrice() * int64(newQuantity)
		if err := tx.Save(&item).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if req.Quantity > prod.InStock {
			tx.Rollback()
			return nil, &OutOfStockError{ProductName: prod.Name, Requested: req.Quantity, Available: prod.InStock}
		}
		item = CartItem{
			CartID:    cart.ID,
			ProductID: prod.ID,
			Size:      req.Size,
			Quantity:  req.Quantity,
			Subtotal:  prod.FinalPrice() * int64(req.Quantity),
		}
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			if isUniqueViolation(err) {
				return nil, ErrConcurrentUpdate
			}
			return nil, fmt.Errorf("failed to create cart item: %w", err)
		}
	default:
		tx.Rollback()
		return nil, fmt.Errorf("failed to look up cart item: %w", err)
	}

	if err := s.recomputeTotal(tx, cart.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cart update: %w", err)
	}

	return s.respond(ctx, cart.ID)
}

// UpdateItem applies an action to one cart line. Increment and set are
// validated against live stock; decrementing to zero, setting zero and
// remove all delete the line.
func (s *Service) UpdateItem(ctx context.Context, ident Identity, itemID uint, req *UpdateItemRequest) (*CartResponse, error) {
	cart, err := s.GetOrCreateCart(ctx, ident)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var item CartItem
	if err := tx.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to look up cart item: %w", err)
	}

	newQuantity := item.Quantity
	switch req.Action {
	case ActionIncrement:
		newQuantity = item.Quantity + 1
	case ActionDecrement:
		newQuantity = item.Quantity - 1
	case ActionSet:
		if req.Quantity == nil {
			tx.Rollback()
			return nil, ErrQuantityRequired
		}
		newQuantity = *req.Quantity
	case ActionRemove:
		newQuantity = 0
	default:
		tx.Rollback()
		return nil, fmt.Errorf("unknown cart action %q", req.Action)
	}

	if newQuantity <= 0 {
		if err := tx.Delete(&item).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to remove cart item: %w", err)
		}
	} else {
		var prod catalog.Product
		if err := tx.First(&prod, item.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProductUnavailable
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		if !prod.IsPurchasable() {
			tx.Rollback()
			return nil, ErrProductUnavailable
		}
		if newQuantity > prod.InStock {
			tx.Rollback()
			return nil, &OutOfStockError{ProductName: prod.Name, Requested: newQuantity, Available: prod.InStock}
		}
		item.Quantity = newQuantity
		item.Subtotal = prod.FinalPrice() * int64(newQuantity)
		if err := tx.Save(&item).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	}

	if err := s.recomputeTotal(tx, cart.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cart update: %w", err)
	}

	return s.respond(ctx, cart.ID)
}

// Clear removes every line from the identity's cart.
func (s *Service) Clear(ctx context.Context, ident Identity) (*CartResponse, error) {
	cart, err := s.GetOrCreateCart(ctx, ident)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	if err := tx.Model(&Cart{}).Where("id = ?", cart.ID).Update("total", 0).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to reset cart total: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cart clear: %w", err)
	}

	return s.respond(ctx, cart.ID)
}

// PruneAbandoned deletes anonymous carts untouched for longer than
// olderThan and returns how many were removed.
func (s *Service) PruneAbandoned(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	var ids []uint
	err := s.db.WithContext(ctx).Model(&Cart{}).
		Where("user_id IS NULL AND updated_at < ?", cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find abandoned carts: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("cart_id IN ?", ids).Delete(&CartItem{}).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to delete abandoned cart items: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&Cart{}).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to delete abandoned carts: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit cart prune: %w", err)
	}
	return int64(len(ids)), nil
}

// recomputeTotal rewrites the cart's denormalized total from its lines.
// Runs inside the caller's transaction as the last step of a mutation.
func (s *Service) recomputeTotal(tx *gorm.DB, cartID uint) error {
	var total int64
	err := tx.Model(&CartItem{}).
		Where("cart_id = ?", cartID).
		Select("COALESCE(SUM(subtotal), 0)").
		Scan(&total).Error
	if err != nil {
		return fmt.Errorf("failed to sum cart items: %w", err)
	}
	if err := tx.Model(&Cart{}).Where("id = ?", cartID).Update("total", total).Error; err != nil {
		return fmt.Errorf("failed to update cart total: %w", err)
	}
	return nil
}

func (s *Service) respond(ctx context.Context, cartID uint) (*CartResponse, error) {
	var cart Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC")
		}).
		Preload("Items.Product").
		First(&cart, cartID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	items := make([]CartItemResponse, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Slug:      item.Product.Slug,
			Image:     item.Product.Image,
			Size:      item.Size,
			UnitPrice: item.Product.FinalPrice(),
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
	}

	return &CartResponse{
		ID:            cart.ID,
		UserID:        cart.UserID,
		Items:         items,
		ItemCount:     len(items),
		TotalQuantity: cart.TotalQuantity(),
		Total:         cart.Total,
		UpdatedAt:     cart.UpdatedAt,
	}, nil
}

// isUniqueViolation reports whether err came from a uniqueness constraint.
// Matching on message text keeps this portable across postgres and the
// sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

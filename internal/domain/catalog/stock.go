// internal/domain/catalog/stock.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Stock primitives. Checkout and cancellation mutate stock through these on
// their own transaction so the guarded update, the counter, and the
// movement row commit or roll back together.

// DecrementStock takes qty units from a product's stock with a guarded
// conditional update. Returns false when the product had fewer than qty
// units left; the caller must then roll back. The guard is what keeps two
// concurrent checkouts from driving stock negative.
func DecrementStock(tx *gorm.DB, productID uint, qty int) (bool, error) {
	result := tx.Model(&Product{}).
		Where("id = ? AND in_stock >= ?", productID, qty).
		UpdateColumn("in_stock", gorm.Expr("in_stock - ?", qty))
	if result.Error != nil {
		return false, fmt.Errorf("failed to decrement stock for product %d: %w", productID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// RestoreStock returns qty units to a product's stock.
func RestoreStock(tx *gorm.DB, productID uint, qty int) error {
	result := tx.Model(&Product{}).
		Where("id = ?", productID).
		UpdateColumn("in_stock", gorm.Expr("in_stock + ?", qty))
	if result.Error != nil {
		return fmt.Errorf("failed to restore stock for product %d: %w", productID, result.Error)
	}
	return nil
}

// RecordMovement appends an audit row for a stock change on the caller's
// transaction. newStock is read back from the row so the ledger reflects
// what actually landed.
func RecordMovement(tx *gorm.DB, productID uint, movementType MovementType, qty int, reference string) error {
	var current struct{ InStock int }
	if err := tx.Model(&Product{}).Select("in_stock").Where("id = ?", productID).Scan(&current).Error; err != nil {
		return fmt.Errorf("failed to read stock for movement: %w", err)
	}

	previous := current.InStock
	switch movementType {
	case MovementSale:
		previous = current.InStock + qty
	case MovementRelease, MovementRestock:
		previous = current.InStock - qty
	}

	movement := StockMovement{
		ProductID:     productID,
		Type:          movementType,
		Quantity:      qty,
		PreviousStock: previous,
		NewStock:      current.InStock,
		Reference:     reference,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

// Restock adds stock outside the checkout path (seeding, ops CLI) and
// invalidates the product's cached reads.
func (s *Service) Restock(ctx context.Context, productID uint, qty int) (*Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("restock quantity must be positive, got %d", qty)
	}

	var product Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := RestoreStock(tx, product.ID, qty); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := RecordMovement(tx, product.ID, MovementRestock, qty, ""); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit restock: %w", err)
	}

	s.InvalidateProduct(ctx, product.Slug)

	product.InStock += qty
	return &product, nil
}

// ListMovements returns a product's stock history, newest first.
func (s *Service) ListMovements(ctx context.Context, productID uint, limit int) ([]StockMovement, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	var movements []StockMovement
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve stock movements: %w", err)
	}
	return movements, nil
}

// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/domain/cart"
	"github.com/estyshop/ecommerce-backend/internal/domain/catalog"
	"github.com/estyshop/ecommerce-backend/internal/domain/user"
	"github.com/estyshop/ecommerce-backend/internal/pkg/token"
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CheckoutRequest carries the shipping and contact details for checkout.
// Either AddressID (a saved address of the authenticated user) or the
// inline address fields must be provided.
type CheckoutRequest struct {
	Email       string `json:"email" binding:"required,email"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone" binding:"required"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	AddressID   *uint  `json:"address_id,omitempty"`
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Page     int         `form:"page,default=1"`
	PageSize int         `form:"page_size,default=20"`
	Status   OrderStatus `form:"status"`
}

// ListResponse represents order list response with pagination
type ListResponse struct {
	Orders     []Order            `json:"orders"`
	Pagination catalog.Pagination `json:"pagination"`
}

// Checkout converts the identity's cart into a pending order. Inside a
// single transaction it creates the order and its line snapshots,
// decrements each product's stock through a guarded conditional update,
// records sale movements and clears the cart. Any failure, including a
// concurrent purchase taking the last stock, rolls the whole thing back.
func (s *Service) Checkout(ctx context.Context, ident cart.Identity, req *CheckoutRequest) (*Order, error) {
	cartRow, err := s.findCart(ctx, ident)
	if err != nil {
		return nil, err
	}

	shipping, err := s.resolveShipping(ctx, ident.UserID, req)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var items []cart.CartItem
	if err := tx.Where("cart_id = ?", cartRow.ID).Find(&items).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	if len(items) == 0 {
		tx.Rollback()
		return nil, ErrEmptyCart
	}

	// Re-validate every line against live stock before touching anything.
	products := make(map[uint]catalog.Product, len(items))
	for _, item := range items {
		var prod catalog.Product
		if err := tx.First(&prod, item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				tx.Rollback()
				return nil, &InsufficientStockError{
					ProductName: fmt.Sprintf("product #%d", item.ProductID),
					Requested:   item.Quantity,
					Available:   0,
				}
			}
			tx.Rollback()
			return nil, fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
		}
		if !prod.Available {
			tx.Rollback()
			return nil, &InsufficientStockError{ProductName: prod.Name, Requested: item.Quantity, Available: 0}
		}
		if item.Quantity > prod.InStock {
			tx.Rollback()
			return nil, &InsufficientStockError{ProductName: prod.Name, Requested: item.Quantity, Available: prod.InStock}
		}
		products[item.ProductID] = prod
	}

	orderNumber, err := s.uniqueOrderNumber(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	reference, err := s.uniqueReference(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	currency := s.config.Checkout.Currency
	if currency == "" {
		currency = "NGN"
	}
	shippingFee := s.config.Checkout.ShippingFee

	ord := Order{
		OrderNumber:   orderNumber,
		Reference:     reference,
		UserID:        ident.UserID,
		CartID:        &cartRow.ID,
		Status:        OrderStatusPending,
		PaymentMethod: "paystack",
		Subtotal:      cartRow.Total,
		ShippingFee:   shippingFee,
		Amount:        cartRow.Total + shippingFee,
		Currency:      currency,
		Shipping:      shipping,
	}
	if err := tx.Create(&ord).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range items {
		prod := products[item.ProductID]
		productID := item.ProductID

		snapshot := OrderItem{
			OrderID:   ord.ID,
			ProductID: &productID,
			SKU:       prod.SKU,
			Name:      prod.Name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: item.Subtotal / int64(item.Quantity),
			Subtotal:  item.Subtotal,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}

		ok, err := catalog.DecrementStock(tx, item.ProductID, item.Quantity)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		if !ok {
			// A concurrent purchase won the race between validation
			// and decrement. Report what is left now.
			var current catalog.Product
			available := 0
			if err := tx.First(&current, item.ProductID).Error; err == nil {
				available = current.InStock
			}
			tx.Rollback()
			return nil, &InsufficientStockError{ProductName: prod.Name, Requested: item.Quantity, Available: available}
		}
		if err := catalog.RecordMovement(tx, item.ProductID, catalog.MovementSale, item.Quantity, orderNumber); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to record stock movement: %w", err)
		}
	}

	if err := tx.Where("cart_id = ?", cartRow.ID).Delete(&cart.CartItem{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	if err := tx.Model(&cart.Cart{}).Where("id = ?", cartRow.ID).Update("total", 0).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to reset cart total: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	return s.load(ctx, ord.ID)
}

// Cancel cancels a pending order owned by the user. The snapshotted
// quantities go back onto product stock with release movements.
func (s *Service) Cancel(ctx context.Context, userID uint, orderNumber string) (*Order, error) {
	var ord Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("order_number = ? AND user_id = ?", orderNumber, userID).
		First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !ord.CanBeCancelled() {
		return nil, ErrCancelNotAllowed
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := s.applyCancel(tx, &ord); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	return s.load(ctx, ord.ID)
}

// UpdateStatus moves an order along the state graph. Moving to
// processing requires a completed payment; moving to cancelled restores
// stock like Cancel does.
func (s *Service) UpdateStatus(ctx context.Context, orderNumber string, next OrderStatus) (*Order, error) {
	var ord Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if !ord.CanTransitionTo(next) {
		return nil, &InvalidTransitionError{From: ord.Status, To: next}
	}
	if next == OrderStatusProcessing && !ord.PaymentComplete {
		return nil, ErrPaymentRequired
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if next == OrderStatusCancelled {
		if err := s.applyCancel(tx, &ord); err != nil {
			tx.Rollback()
			return nil, err
		}
	} else {
		now := time.Now().UTC()
		updates := map[string]interface{}{"status": next}
		switch next {
		case OrderStatusProcessing:
			updates["processed_at"] = now
		case OrderStatusShipped:
			updates["shipped_at"] = now
		case OrderStatusDelivered:
			updates["delivered_at"] = now
		}
		if err := tx.Model(&ord).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update order status: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return s.load(ctx, ord.ID)
}

// applyCancel flips the order to cancelled and puts the snapshotted
// quantities back on stock. Products that no longer exist are skipped.
func (s *Service) applyCancel(tx *gorm.DB, ord *Order) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{"status": OrderStatusCancelled, "cancelled_at": now}
	if err := tx.Model(ord).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	for _, item := range ord.Items {
		if item.ProductID == nil {
			continue
		}
		var count int64
		if err := tx.Model(&catalog.Product{}).Where("id = ?", *item.ProductID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check product %d: %w", *item.ProductID, err)
		}
		if count == 0 {
			continue
		}
		if err := catalog.RestoreStock(tx, *item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
		if err := catalog.RecordMovement(tx, *item.ProductID, catalog.MovementRelease, item.Quantity, ord.OrderNumber); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
	}
	return nil
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID uint, req *ListRequest) (*ListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = catalog.DefaultPageSize
	}
	if pageSize > catalog.MaxPageSize {
		pageSize = catalog.MaxPageSize
	}

	query := s.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", userID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &ListResponse{
		Orders:     orders,
		Pagination: catalog.NewPagination(page, pageSize, total),
	}, nil
}

// GetByNumber fetches one order by number, scoped to its owner.
func (s *Service) GetByNumber(ctx context.Context, userID uint, orderNumber string) (*Order, error) {
	var ord Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("order_number = ? AND user_id = ?", orderNumber, userID).
		First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &ord, nil
}

// FindForPayment locates an order about to be paid for. Authenticated
// callers only see their own orders; anonymous callers only see guest
// orders, so a leaked order number is useless against an account.
func (s *Service) FindForPayment(ctx context.Context, userID *uint, orderNumber string) (*Order, error) {
	query := s.db.WithContext(ctx).Where("order_number = ?", orderNumber)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	} else {
		query = query.Where("user_id IS NULL")
	}

	var ord Order
	if err := query.First(&ord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &ord, nil
}

// GetByReference fetches one order by its payment reference. Used by
// payment verification, which is keyed by reference rather than owner.
func (s *Service) GetByReference(ctx context.Context, reference string) (*Order, error) {
	var ord Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("reference = ?", reference).
		First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &ord, nil
}

// MarkPaymentComplete records a verified payment. A pending order moves
// to processing; re-applying to an already paid order is a no-op, so
// repeated verification stays safe.
func (s *Service) MarkPaymentComplete(ctx context.Context, orderID uint) (*Order, error) {
	var ord Order
	if err := s.db.WithContext(ctx).First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if ord.PaymentComplete && ord.Status != OrderStatusPending {
		return s.load(ctx, ord.ID)
	}

	updates := map[string]interface{}{"payment_complete": true}
	if ord.Status == OrderStatusPending {
		updates["status"] = OrderStatusProcessing
		updates["processed_at"] = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Model(&ord).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to mark payment complete: %w", err)
	}
	return s.load(ctx, ord.ID)
}

// ResetToPending handles the provider reporting an abandoned
// transaction. Unpaid, non-terminal orders go back to pending; anything
// else is left alone, so replays are harmless.
func (s *Service) ResetToPending(ctx context.Context, orderID uint) (*Order, error) {
	var ord Order
	if err := s.db.WithContext(ctx).First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if ord.PaymentComplete || ord.Status == OrderStatusPending || ord.IsTerminal() {
		return s.load(ctx, ord.ID)
	}

	if err := s.db.WithContext(ctx).Model(&ord).Update("status", OrderStatusPending).Error; err != nil {
		return nil, fmt.Errorf("failed to reset order: %w", err)
	}
	return s.load(ctx, ord.ID)
}

func (s *Service) findCart(ctx context.Context, ident cart.Identity) (*cart.Cart, error) {
	query := s.db.WithContext(ctx)
	switch {
	case ident.UserID != nil:
		query = query.Where("user_id = ?", *ident.UserID)
	case ident.SessionKey != "":
		query = query.Where("session_key = ? AND user_id IS NULL", ident.SessionKey)
	default:
		return nil, ErrEmptyCart
	}

	var cartRow cart.Cart
	if err := query.First(&cartRow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cartRow, nil
}

func (s *Service) resolveShipping(ctx context.Context, userID *uint, req *CheckoutRequest) (ShippingDetails, error) {
	if req.AddressID != nil {
		if userID == nil {
			return ShippingDetails{}, user.ErrAddressNotFound
		}
		var addr user.Address
		err := s.db.WithContext(ctx).
			Where("id = ? AND user_id = ?", *req.AddressID, *userID).
			First(&addr).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ShippingDetails{}, user.ErrAddressNotFound
			}
			return ShippingDetails{}, fmt.Errorf("failed to load address: %w", err)
		}
		return ShippingDetails{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Phone:       req.Phone,
			AddressLine: addr.AddressLine,
			City:        addr.City,
			State:       addr.State,
			PostalCode:  addr.PostalCode,
			Country:     addr.Country,
		}, nil
	}

	if req.AddressLine == "" || req.City == "" {
		return ShippingDetails{}, ErrAddressRequired
	}
	country := req.Country
	if country == "" {
		country = "NG"
	}
	return ShippingDetails{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		AddressLine: req.AddressLine,
		City:        req.City,
		State:       req.State,
		PostalCode:  req.PostalCode,
		Country:     country,
	}, nil
}

// uniqueOrderNumber draws order numbers until one passes the existence
// check. Collisions on 10 hex characters are rare enough that the loop
// terminates in practice on the first draw.
func (s *Service) uniqueOrderNumber(tx *gorm.DB) (string, error) {
	for {
		number := token.OrderNumber()
		var count int64
		if err := tx.Model(&Order{}).Where("order_number = ?", number).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check order number: %w", err)
		}
		if count == 0 {
			return number, nil
		}
	}
}

// uniqueReference draws payment references the same way.
func (s *Service) uniqueReference(tx *gorm.DB) (string, error) {
	for {
		reference, err := token.PaymentReference()
		if err != nil {
			return "", fmt.Errorf("failed to generate reference: %w", err)
		}
		var count int64
		if err := tx.Model(&Order{}).Where("reference = ?", reference).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check reference: %w", err)
		}
		if count == 0 {
			return reference, nil
		}
	}
}

func (s *Service) load(ctx context.Context, orderID uint) (*Order, error) {
	var ord Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&ord, orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &ord, nil
}

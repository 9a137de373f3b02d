// internal/domain/order/entity.go
package order

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// statusTransitions is the legal state graph. Cancelled and refunded
// are side exits from the two pre-shipment states; delivered and the
// exits are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// Order represents the order entity. Immutable once created except for
// status, the payment flag and the status timestamps.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	// Reference is the opaque payment reference handed to the provider
	// at initialization and used to verify the transaction later.
	Reference       string      `gorm:"uniqueIndex;not null;size:80" json:"reference"`
	UserID          *uint       `gorm:"index" json:"user_id,omitempty"` // Nullable for guest orders
	CartID          *uint       `gorm:"index" json:"-"`                 // Nullable after cart pruning
	Status          OrderStatus `gorm:"not null;default:'pending'" json:"status"`
	PaymentComplete bool        `gorm:"not null;default:false" json:"payment_complete"`
	PaymentMethod   string      `gorm:"size:50;default:'paystack'" json:"payment_method"`

	// Financial information, minor units
	Subtotal    int64  `gorm:"not null" json:"subtotal"`
	ShippingFee int64  `gorm:"default:0" json:"shipping_fee"`
	Amount      int64  `gorm:"not null" json:"amount"` // Subtotal + ShippingFee
	Currency    string `gorm:"size:3;default:'NGN'" json:"currency"`

	// Contact and shipping snapshot captured at checkout
	Shipping ShippingDetails `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`

	// Status timestamps
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
	ShippedAt   *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is a point-in-time snapshot of a cart line. Name, SKU and
// prices are plain values so the order stays accurate if the product
// later changes or disappears.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID *uint     `gorm:"index" json:"product_id,omitempty"` // Nullable on product removal
	SKU       string    `gorm:"not null;size:100" json:"sku"`
	Name      string    `gorm:"not null;size:255" json:"name"`
	Size      string    `gorm:"size:20" json:"size,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	Subtotal  int64     `gorm:"not null" json:"subtotal"` // UnitPrice x Quantity
	CreatedAt time.Time `json:"created_at"`
}

// ShippingDetails is the shipping/contact snapshot embedded in Order.
type ShippingDetails struct {
	FirstName   string `gorm:"size:100" json:"first_name"`
	LastName    string `gorm:"size:100" json:"last_name"`
	Email       string `gorm:"size:255" json:"email"`
	Phone       string `gorm:"size:20" json:"phone"`
	AddressLine string `gorm:"size:255" json:"address_line"`
	City        string `gorm:"size:100" json:"city"`
	State       string `gorm:"size:100" json:"state"`
	PostalCode  string `gorm:"size:20" json:"postal_code"`
	Country     string `gorm:"size:2;default:'NG'" json:"country"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// Business methods for Order

// CanTransitionTo reports whether the state graph allows moving to next.
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[o.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanBeCancelled reports whether the owner may still cancel the order.
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending
}

// IsTerminal reports whether no further transitions are possible.
func (o *Order) IsTerminal() bool {
	return len(statusTransitions[o.Status]) == 0
}

// CustomerName joins the snapshot names for display.
func (o *Order) CustomerName() string {
	if o.Shipping.LastName == "" {
		return o.Shipping.FirstName
	}
	return o.Shipping.FirstName + " " + o.Shipping.LastName
}

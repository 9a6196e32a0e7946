package models

import "time"

// Order status values. The status axis is administrative; payment state
// lives on paid_at and the Payment row.
const (
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// Order represents a placed customer order. paid_at is set exactly once,
// by webhook reconciliation, never by client-facing endpoints.
type Order struct {
	ID            string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID       string        `json:"buyer_id" gorm:"type:varchar(36);index"`
	TotalPrice    float64       `json:"total_price"`
	TaxPrice      float64       `json:"tax_price"`
	ShippingPrice float64       `json:"shipping_price"`
	OrderStatus   string        `json:"order_status" gorm:"type:varchar(20);default:Processing"`
	PaidAt        *time.Time    `json:"paid_at"`
	Items         []OrderItem   `json:"order_items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingInfo  *ShippingInfo `json:"shipping_info" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time     `json:"created_at"`
}

// OrderItem is a product snapshot captured at order time. Price, image and
// title are frozen here so historical orders stay accurate when the catalog
// changes. Rows are immutable after creation.
type OrderItem struct {
	ID        string  `json:"order_item_id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string  `json:"order_id" gorm:"type:varchar(36);index"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36)"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Title     string  `json:"title"`
}

// ShippingInfo holds the postal and contact details for one order.
type ShippingInfo struct {
	ID       string `json:"-" gorm:"primaryKey;type:varchar(36)"`
	OrderID  string `json:"-" gorm:"type:varchar(36);uniqueIndex"`
	FullName string `json:"full_name" validate:"required"`
	State    string `json:"state" validate:"required"`
	City     string `json:"city" validate:"required"`
	Country  string `json:"country" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Pincode  string `json:"pincode" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

// IsValidOrderStatus reports whether s is one of the known order statuses.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

package models

// Payment status values.
const (
	PaymentStatusPending = "Pending"
	PaymentStatusPaid    = "Paid"
	PaymentStatusFailed  = "Failed"
)

// Payment links a gateway payment intent to an order. There is exactly one
// Payment per Order, and the intent ID is the sole correlation key the
// webhook uses to find the order.
type Payment struct {
	ID              string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID         string `json:"order_id" gorm:"type:varchar(36);uniqueIndex"`
	PaymentIntentID string `json:"payment_intent_id" gorm:"type:varchar(255);uniqueIndex"`
	PaymentStatus   string `json:"payment_status" gorm:"type:varchar(20);default:Pending"`
}

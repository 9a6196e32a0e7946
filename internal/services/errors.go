package services

import "fmt"

// ValidationError signals missing or malformed input, detected before any
// write occurs.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// EmptyCartError signals an order submitted with no line items.
type EmptyCartError struct{}

func (e *EmptyCartError) Error() string {
	return "no items in cart"
}

// ProductNotFoundError names the cart line whose product does not exist in
// the catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found for ID: %s", e.ProductID)
}

// InsufficientStockError names the product whose requested quantity exceeds
// current stock, and how many units are actually available.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d units available for %s", e.Available, e.ProductName)
}

// PaymentInitiationError signals that payment-intent creation failed after
// the order graph already committed. The order persists; the caller is told
// payment must be retried.
type PaymentInitiationError struct {
	OrderID string
	Err     error
}

func (e *PaymentInitiationError) Error() string {
	return fmt.Sprintf("payment initiation failed for order %s: %v", e.OrderID, e.Err)
}

func (e *PaymentInitiationError) Unwrap() error {
	return e.Err
}

// ReconciliationLookupError signals a webhook event whose intent has no
// matching payment row. Retryable: the gateway should redeliver.
type ReconciliationLookupError struct {
	IntentID string
	Err      error
}

func (e *ReconciliationLookupError) Error() string {
	return fmt.Sprintf("no payment found for intent %s", e.IntentID)
}

func (e *ReconciliationLookupError) Unwrap() error {
	return e.Err
}

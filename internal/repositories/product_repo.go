package repositories

import (
	"shopbud/internal/models"
)

// ProductRepository defines the interface for catalog data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	// GetByIDs returns the products matching the given IDs. Missing IDs are
	// simply absent from the result; callers decide whether that is an error.
	GetByIDs(ids []string) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
	// DecrementStock atomically subtracts quantity from the product's stock,
	// but only while enough stock remains. It returns false when the guard
	// rejected the decrement (product missing or stock too low).
	DecrementStock(id string, quantity int) (bool, error)
}

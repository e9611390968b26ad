package repository

import (
	"scanstation/internal/models"
)

// ProductRepository defines the interface for product catalog operations.
type ProductRepository interface {
	// Create operations
	Insert(product *models.Product) error

	// Read operations
	GetByBarcode(barcode string) (*models.Product, error)
	GetByUID(uid string) (*models.Product, error)
	GetCategories() ([]string, error)
	Count() (int, error)
}

// LinkRepository defines the interface for user/product link operations.
type LinkRepository interface {
	// Create operations
	Insert(link *models.ProductLink) (int64, error)

	// Read operations
	GetByUser(userID string) ([]models.UserProduct, error)
}

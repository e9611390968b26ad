package sqlite

import (
	"database/sql"
	"fmt"
	"scanstation/internal/models"
)

// ProductRepository implements repository.ProductRepository for SQLite.
type ProductRepository struct {
	db *DB
}

// NewProductRepository creates a new SQLite product repository.
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Insert adds a new product to the catalog.
func (r *ProductRepository) Insert(p *models.Product) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO products (uid, barcode, item_name, category, scanned_date, expiry_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.UID, p.Barcode, p.ItemName, p.Category, p.ScannedDate, p.ExpiryDate)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// GetByBarcode retrieves a product by barcode. Returns nil when absent.
func (r *ProductRepository) GetByBarcode(barcode string) (*models.Product, error) {
	return r.getOne(`WHERE barcode = ?`, barcode)
}

// GetByUID retrieves a product by its UID. Returns nil when absent.
func (r *ProductRepository) GetByUID(uid string) (*models.Product, error) {
	return r.getOne(`WHERE uid = ?`, uid)
}

func (r *ProductRepository) getOne(where string, arg interface{}) (*models.Product, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var p models.Product
	err := r.db.Conn().QueryRow(`
		SELECT uid, barcode, item_name, category, scanned_date, expiry_date, created_at
		FROM products `+where, arg).
		Scan(&p.UID, &p.Barcode, &p.ItemName, &p.Category, &p.ScannedDate, &p.ExpiryDate, &p.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// GetCategories returns the sorted list of categories in use.
func (r *ProductRepository) GetCategories() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT DISTINCT category FROM products WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

// Count returns the number of products in the catalog.
func (r *ProductRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

package sqlite

import (
	"fmt"
	"scanstation/internal/models"
)

// LinkRepository implements repository.LinkRepository for SQLite.
type LinkRepository struct {
	db *DB
}

// NewLinkRepository creates a new SQLite link repository.
func NewLinkRepository(db *DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Insert records a user/product link.
func (r *LinkRepository) Insert(link *models.ProductLink) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO user_product_links (user_id, product_uid, scan_date, quantity)
		VALUES (?, ?, ?, ?)
	`, link.UserID, link.ProductUID, link.ScanDate, link.Quantity)
	if err != nil {
		return 0, fmt.Errorf("failed to insert link: %w", err)
	}

	return result.LastInsertId()
}

// GetByUser returns the products a user has scanned, newest first.
func (r *LinkRepository) GetByUser(userID string) ([]models.UserProduct, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT p.uid, p.barcode, p.item_name, p.category, p.scanned_date, p.expiry_date, p.created_at,
			l.scan_date, l.quantity
		FROM user_product_links l
		JOIN products p ON p.uid = l.product_uid
		WHERE l.user_id = ?
		ORDER BY l.scan_date DESC, l.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user products: %w", err)
	}
	defer rows.Close()

	var products []models.UserProduct
	for rows.Next() {
		var up models.UserProduct
		if err := rows.Scan(&up.UID, &up.Barcode, &up.ItemName, &up.Category, &up.ScannedDate, &up.ExpiryDate,
			&up.CreatedAt, &up.ScanDate, &up.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan user product: %w", err)
		}
		products = append(products, up)
	}

	return products, rows.Err()
}

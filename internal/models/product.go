package models

import "time"

// DateLayout is the calendar date format used for scan and expiry dates.
const DateLayout = "2006-01-02"

// Product represents a catalog entry keyed by barcode.
type Product struct {
	UID         string    `json:"uid"`
	Barcode     string    `json:"barcode"`
	ItemName    string    `json:"item_name"`
	Category    string    `json:"category"`
	ScannedDate string    `json:"scanned_date"`
	ExpiryDate  string    `json:"expiry_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductLink records that a user scanned a product.
type ProductLink struct {
	ID         int64  `json:"id"`
	UserID     string `json:"user_id"`
	ProductUID string `json:"product_uid"`
	ScanDate   string `json:"scan_date"`
	Quantity   int    `json:"quantity"`
}

// UserProduct is a link joined with its product.
type UserProduct struct {
	Product
	ScanDate string `json:"scan_date"`
	Quantity int    `json:"quantity"`
}

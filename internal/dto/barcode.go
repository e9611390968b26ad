package dto

// ScanRequest is the body of POST /api/barcode/scan.
type ScanRequest struct {
	Barcode string `json:"barcode"`
}

// ScanLookup describes a scanned barcode. Known products carry Category and
// ExpiryDate; unknown ones carry Categories and SuggestedExpiry instead.
type ScanLookup struct {
	Barcode         string   `json:"barcode"`
	ItemName        string   `json:"item_name"`
	Category        string   `json:"category,omitempty"`
	ExpiryDate      string   `json:"expiry_date,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	SuggestedExpiry string   `json:"suggested_expiry,omitempty"`
	ScanDate        string   `json:"scan_date"`
	AlreadyExists   bool     `json:"already_exists"`
}

// ConfirmRequest is the body of POST /api/barcode/confirm.
type ConfirmRequest struct {
	Barcode  string `json:"barcode"`
	Category string `json:"category"`
	UserID   string `json:"user_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
}

// ConfirmedProduct is the record returned after a confirmation.
type ConfirmedProduct struct {
	UID        string `json:"uid"`
	Barcode    string `json:"barcode"`
	ItemName   string `json:"item_name"`
	Category   string `json:"category"`
	ExpiryDate string `json:"expiry_date"`
	ScanDate   string `json:"scan_date"`
	Quantity   int    `json:"quantity"`
}

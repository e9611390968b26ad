// Package catalog resolves scanned barcodes to products and records which
// user scanned what.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"scanstation/internal/dto"
	"scanstation/internal/logger"
	"scanstation/internal/models"
	"scanstation/internal/repository"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	UnknownProduct = "Unknown product"
	// fallbackShelfLife applies to categories without a default.
	fallbackShelfLife = 30
)

// DefaultShelfLife is the number of days a product keeps, per category.
var DefaultShelfLife = map[string]int{
	"Dairy":        7,
	"Meat":         3,
	"Produce":      5,
	"Bakery":       2,
	"Frozen":       180,
	"Canned Goods": 365,
	"Snacks":       120,
	"Beverages":    90,
}

var (
	ErrBarcodeRequired = errors.New("barcode required")
	ErrMissingFields   = errors.New("barcode, category & user_id required")
)

type Service struct {
	products repository.ProductRepository
	links    repository.LinkRepository
	lookup   NameLookup
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(products repository.ProductRepository, links repository.LinkRepository, lookup NameLookup, logger *logger.Logger) *Service {
	return &Service{
		products: products,
		links:    links,
		lookup:   lookup,
		logger:   logger,
		now:      time.Now,
	}
}

// Lookup returns the catalog entry for barcode, or a suggestion for a new one.
func (s *Service) Lookup(ctx context.Context, barcode string) (*dto.ScanLookup, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, ErrBarcodeRequired
	}

	today := s.now()
	existing, err := s.products.GetByBarcode(barcode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &dto.ScanLookup{
			Barcode:       barcode,
			ItemName:      existing.ItemName,
			Category:      existing.Category,
			ExpiryDate:    existing.ExpiryDate,
			ScanDate:      today.Format(models.DateLayout),
			AlreadyExists: true,
		}, nil
	}

	name := s.productName(ctx, barcode)

	categories, err := s.categories()
	if err != nil {
		return nil, err
	}

	defaultCategory := "Misc"
	if len(categories) > 0 {
		defaultCategory = categories[0]
	}

	return &dto.ScanLookup{
		Barcode:         barcode,
		ItemName:        name,
		Categories:      categories,
		SuggestedExpiry: ExpiryFor(today, defaultCategory),
		ScanDate:        today.Format(models.DateLayout),
		AlreadyExists:   false,
	}, nil
}

// Confirm adds the product to the catalog when missing and links it to the user.
func (s *Service) Confirm(ctx context.Context, req dto.ConfirmRequest) (*dto.ConfirmedProduct, error) {
	req.Barcode = strings.TrimSpace(req.Barcode)
	req.Category = strings.TrimSpace(req.Category)
	req.UserID = strings.TrimSpace(req.UserID)
	if req.Barcode == "" || req.Category == "" || req.UserID == "" {
		return nil, ErrMissingFields
	}
	if strings.TrimSpace(req.ItemName) == "" {
		req.ItemName = UnknownProduct
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	today := s.now()
	scanDate := today.Format(models.DateLayout)

	product, err := s.products.GetByBarcode(req.Barcode)
	if err != nil {
		return nil, err
	}
	if product == nil {
		product = &models.Product{
			UID:         uuid.NewString(),
			Barcode:     req.Barcode,
			ItemName:    req.ItemName,
			Category:    req.Category,
			ScannedDate: scanDate,
			ExpiryDate:  ExpiryFor(today, req.Category),
		}
		if err := s.products.Insert(product); err != nil {
			s.logger.Error("Saving product %s failed: %v", req.Barcode, err)
			return nil, fmt.Errorf("could not save product catalog: %w", err)
		}
		s.logger.Info("Added product %s (%s) to catalog", product.Barcode, product.Category)
	}

	link := &models.ProductLink{
		UserID:     req.UserID,
		ProductUID: product.UID,
		ScanDate:   scanDate,
		Quantity:   req.Quantity,
	}
	if _, err := s.links.Insert(link); err != nil {
		s.logger.Error("Saving link for user %s failed: %v", req.UserID, err)
		return nil, fmt.Errorf("could not save user link: %w", err)
	}

	return &dto.ConfirmedProduct{
		UID:        product.UID,
		Barcode:    product.Barcode,
		ItemName:   req.ItemName,
		Category:   req.Category,
		ExpiryDate: product.ExpiryDate,
		ScanDate:   scanDate,
		Quantity:   req.Quantity,
	}, nil
}

// UserProducts lists what a user has confirmed.
func (s *Service) UserProducts(userID string) ([]models.UserProduct, error) {
	return s.links.GetByUser(strings.TrimSpace(userID))
}

// productName never fails: lookup problems are logged and the name falls
// back to UnknownProduct.
func (s *Service) productName(ctx context.Context, barcode string) string {
	if s.lookup == nil {
		return UnknownProduct
	}

	name, err := s.lookup.ProductName(ctx, barcode)
	if err != nil {
		s.logger.Warning("Product lookup for %s failed: %v", barcode, err)
	}
	if name == "" {
		return UnknownProduct
	}
	return name
}

// categories merges the catalog categories with the defaults, sorted.
func (s *Service) categories() ([]string, error) {
	existing, err := s.products.GetCategories()
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(existing)+len(DefaultShelfLife))
	for _, c := range existing {
		set[c] = true
	}
	for c := range DefaultShelfLife {
		set[c] = true
	}

	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories, nil
}

// ExpiryFor returns the default expiry date, as text, of a product of category bought on day.
func ExpiryFor(day time.Time, category string) string {
	days, ok := DefaultShelfLife[category]
	if !ok {
		days = fallbackShelfLife
	}
	return day.AddDate(0, 0, days).Format(models.DateLayout)
}

package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"scanstation/internal/models"
	"scanstation/internal/repository"
	"scanstation/internal/repository/sqlite"
	"scanstation/internal/service/catalog"
	"strings"
	"time"

	"github.com/google/uuid"
)

func main() {
	dbPath := flag.String("db", "data/catalog.db", "Database path")
	csvPath := flag.String("csv", "", "Optional products CSV (barcode,item_name,category,expiry_date)")
	flag.Parse()

	fmt.Printf("Migrating catalog database %s\n", *dbPath)

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	products := sqlite.NewProductRepository(db)

	if *csvPath != "" {
		file, err := os.Open(*csvPath)
		if err != nil {
			log.Fatalf("Failed to open CSV: %v", err)
		}
		defer file.Close()

		imported, skipped, err := importProducts(file, products, time.Now())
		if err != nil {
			log.Fatalf("Failed to import products: %v", err)
		}
		fmt.Printf("✅ Imported %d products\n", imported)
		if skipped > 0 {
			fmt.Printf("⚠️  Skipped %d rows (duplicates or invalid)\n", skipped)
		}
	}

	count, err := products.Count()
	if err == nil {
		fmt.Printf("\n📊 Catalog: %d products\n", count)
	}
}

// importProducts reads barcode,item_name,category[,expiry_date] rows. An
// optional header row is skipped, as are barcodes already in the catalog.
func importProducts(r io.Reader, products repository.ProductRepository, now time.Time) (int, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	imported, skipped := 0, 0
	scanDate := now.Format(models.DateLayout)

	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("line %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "barcode") {
			continue
		}
		if len(record) < 3 || strings.TrimSpace(record[0]) == "" || strings.TrimSpace(record[2]) == "" {
			log.Printf("⚠️  Skipping line %d: expected barcode,item_name,category", line)
			skipped++
			continue
		}

		barcode := strings.TrimSpace(record[0])
		existing, err := products.GetByBarcode(barcode)
		if err != nil {
			return imported, skipped, err
		}
		if existing != nil {
			skipped++
			continue
		}

		category := strings.TrimSpace(record[2])
		expiry := ""
		if len(record) > 3 {
			expiry = strings.TrimSpace(record[3])
		}
		if expiry == "" {
			expiry = catalog.ExpiryFor(now, category)
		} else if _, err := time.Parse(models.DateLayout, expiry); err != nil {
			log.Printf("⚠️  Skipping line %d: invalid expiry date %q", line, expiry)
			skipped++
			continue
		}

		name := strings.TrimSpace(record[1])
		if name == "" {
			name = catalog.UnknownProduct
		}

		err = products.Insert(&models.Product{
			UID:         uuid.NewString(),
			Barcode:     barcode,
			ItemName:    name,
			Category:    category,
			ScannedDate: scanDate,
			ExpiryDate:  expiry,
		})
		if err != nil {
			return imported, skipped, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}

	return imported, skipped, nil
}

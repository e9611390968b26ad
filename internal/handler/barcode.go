package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"scanstation/internal/dto"
	"scanstation/internal/logger"
	"scanstation/internal/models"
	"scanstation/internal/service/catalog"
	"strings"
)

// Catalog is the product catalog as used by the barcode endpoints.
type Catalog interface {
	Lookup(ctx context.Context, barcode string) (*dto.ScanLookup, error)
	Confirm(ctx context.Context, req dto.ConfirmRequest) (*dto.ConfirmedProduct, error)
	UserProducts(userID string) ([]models.UserProduct, error)
}

// ScanBarcodeHandler looks a barcode up in the catalog.
func ScanBarcodeHandler(products Catalog, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.ScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid JSON body"})
			return
		}

		result, err := products.Lookup(r.Context(), req.Barcode)
		if err != nil {
			writeCatalogError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// ConfirmBarcodeHandler stores a confirmed product for a user. A missing
// user_id falls back to defaultUserID.
func ConfirmBarcodeHandler(products Catalog, defaultUserID string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.ConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid JSON body"})
			return
		}
		if strings.TrimSpace(req.UserID) == "" {
			req.UserID = defaultUserID
		}

		confirmed, err := products.Confirm(r.Context(), req)
		if err != nil {
			writeCatalogError(w, logger, err)
			return
		}
		logger.Info("User %s confirmed %s", req.UserID, confirmed.Barcode)
		writeJSON(w, http.StatusCreated, confirmed)
	}
}

// UserProductsHandler lists the products a user has confirmed.
func UserProductsHandler(products Catalog, defaultUserID string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			userID = defaultUserID
		}

		list, err := products.UserProducts(userID)
		if err != nil {
			writeCatalogError(w, logger, err)
			return
		}
		if list == nil {
			list = []models.UserProduct{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func writeCatalogError(w http.ResponseWriter, logger *logger.Logger, err error) {
	if errors.Is(err, catalog.ErrBarcodeRequired) || errors.Is(err, catalog.ErrMissingFields) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	logger.Error("Catalog request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal Server Error"})
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// NameLookup resolves a barcode to a product name from an external source.
type NameLookup interface {
	ProductName(ctx context.Context, barcode string) (string, error)
}

// OpenFoodFacts queries the Open Food Facts product API (or a compatible mirror).
type OpenFoodFacts struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenFoodFacts(baseURL string, timeout time.Duration) *OpenFoodFacts {
	return &OpenFoodFacts{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type offResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName string `json:"product_name"`
	} `json:"product"`
}

// ProductName returns "" without error when the product is unknown.
func (o *OpenFoodFacts) ProductName(ctx context.Context, barcode string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", o.baseURL, url.PathEscape(barcode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("product lookup returned status %d", resp.StatusCode)
	}

	var parsed offResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Status != 1 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Product.ProductName), nil
}

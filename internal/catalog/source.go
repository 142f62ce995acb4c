// internal/catalog/source.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lubebot/internal/common/config"
	commonhttp "lubebot/internal/common/http"
	"lubebot/internal/common/logger"
	"lubebot/internal/models"
)

var (
	ErrCatalogUnavailable = errors.New("CATALOG_UNAVAILABLE")
)

// Source fetches the full product catalog. Fetches are idempotent whole-catalog
// reads, which is what makes retries and concurrent refills safe.
type Source interface {
	FetchProducts(ctx context.Context) ([]models.CatalogEntry, error)
}

// StoreClient is the HTTP catalog provider: GET <base>/products returning
// {success, products[]}.
type StoreClient struct {
	baseURL    string
	apiKey     string
	maxRetries int
	client     *commonhttp.Client
	logger     logger.Logger
}

func NewStoreClient(cfg config.CatalogConfig, log logger.Logger) *StoreClient {
	return &StoreClient{
		baseURL:    cfg.StoreURL,
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		client:     commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		logger:     log.WithFields(map[string]interface{}{"component": "catalog-store"}),
	}
}

func (s *StoreClient) FetchProducts(ctx context.Context) ([]models.CatalogEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/products", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", s.apiKey)
	}

	resp, err := s.client.DoWithRetry(ctx, req, s.maxRetries, 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Success  bool                  `json:"success"`
		Products []models.CatalogEntry `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrCatalogUnavailable, err)
	}
	if !apiResponse.Success {
		return nil, fmt.Errorf("%w: provider reported failure", ErrCatalogUnavailable)
	}

	s.logger.Debug("catalog fetched", map[string]interface{}{
		"productCount": len(apiResponse.Products),
	})

	return apiResponse.Products, nil
}

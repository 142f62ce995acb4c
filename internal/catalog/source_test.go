// internal/catalog/source_test.go
package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lubebot/internal/common/config"
	"lubebot/internal/common/logger"
)

func storeConfig(url string) config.CatalogConfig {
	return config.CatalogConfig{
		StoreURL:   url,
		APIKey:     "test-key",
		Timeout:    2000,
		MaxRetries: 2,
	}
}

func TestFetchProducts_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"products": [
				{"id": "p1", "title": "Motorbike 4T", "partNumber": "LM-2210", "category": "motorcycle engine oil"},
				{"id": "p2", "title": "Scooter Street", "partNumber": "LM-2101"}
			]
		}`))
	}))
	defer server.Close()

	client := NewStoreClient(storeConfig(server.URL), logger.NewTestLogger(t))
	entries, err := client.FetchProducts(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "LM-2210", entries[0].PartNumber)
	assert.Equal(t, "Motorbike 4T", entries[0].Title)
}

func TestFetchProducts_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"success": true, "products": [{"id": "p1"}]}`))
	}))
	defer server.Close()

	client := NewStoreClient(storeConfig(server.URL), logger.NewTestLogger(t))
	entries, err := client.FetchProducts(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Len(t, entries, 1)
}

func TestFetchProducts_ProviderFailureFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	}))
	defer server.Close()

	client := NewStoreClient(storeConfig(server.URL), logger.NewTestLogger(t))
	_, err := client.FetchProducts(context.Background())

	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
}

func TestFetchProducts_UnreachableHost(t *testing.T) {
	cfg := storeConfig("http://127.0.0.1:1")
	cfg.MaxRetries = 0
	client := NewStoreClient(cfg, logger.NewTestLogger(t))

	_, err := client.FetchProducts(context.Background())
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
}

// internal/catalog/essource.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"lubebot/internal/common/logger"
	"lubebot/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// ESSource reads the catalog from an Elasticsearch index. Used by deployments
// that mirror the store catalog into ES; retrieval semantics stay identical
// since ranking happens in the search stage, not in the index.
type ESSource struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

const esFetchSize = 1000

func NewESSource(es *elasticsearch.Client, index string, log logger.Logger) *ESSource {
	return &ESSource{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-es"}),
	}
}

func (s *ESSource) FetchProducts(ctx context.Context) ([]models.CatalogEntry, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
	}
	body, _ := json.Marshal(queryBody)

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(strings.NewReader(string(body))),
		s.es.Search.WithSize(esFetchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search error: %s", ErrCatalogUnavailable, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string              `json:"_id"`
				Source models.CatalogEntry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrCatalogUnavailable, err)
	}

	entries := make([]models.CatalogEntry, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		entry := hit.Source
		if entry.ID == "" {
			entry.ID = hit.ID
		}
		entries = append(entries, entry)
	}

	s.logger.Debug("catalog fetched from elasticsearch", map[string]interface{}{
		"productCount": len(entries),
	})

	return entries, nil
}

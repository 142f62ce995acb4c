// internal/pipeline/search-products/models.go
package searchproducts

import "lubebot/internal/models"

type Input struct {
	Catalog []models.CatalogEntry `json:"catalog"`
	Message string                `json:"message"`
	Intent  models.Intent         `json:"intent"`
}

type Output struct {
	Candidates []models.ScoredCandidate `json:"candidates"`
	// Phase records which retrieval phase produced the candidates:
	// "directed", "keyword", "category" or "none".
	Phase    string `json:"phase"`
	Expanded bool   `json:"expanded"`
}

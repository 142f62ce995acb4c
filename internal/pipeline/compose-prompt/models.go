// internal/pipeline/compose-prompt/models.go
package composeprompt

import "lubebot/internal/models"

type Input struct {
	Message   string                   `json:"message"`
	Intent    models.Intent            `json:"intent"`
	Knowledge models.KnowledgeBundle   `json:"knowledge"`
	Products  []models.ScoredCandidate `json:"products"`
	// CatalogUnavailable switches the product section to an outage notice.
	CatalogUnavailable bool `json:"catalogUnavailable"`
}

type Output struct {
	Prompt       string `json:"prompt"`
	SectionCount int    `json:"sectionCount"`
}

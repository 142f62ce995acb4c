// internal/pipeline/validate-response/models.go
package validateresponse

import "lubebot/internal/models"

type Input struct {
	Response string                `json:"response"`
	Catalog  []models.CatalogEntry `json:"catalog"`
}

type Output struct {
	Result models.ValidationResult `json:"result"`
}

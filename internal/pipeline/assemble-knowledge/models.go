// internal/pipeline/assemble-knowledge/models.go
package assembleknowledge

import "lubebot/internal/models"

type Input struct {
	Intent models.Intent `json:"intent"`
}

type Output struct {
	Bundle models.KnowledgeBundle `json:"bundle"`
}

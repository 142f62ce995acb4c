// internal/pipeline/resolve-intent/models.go
package resolveintent

import "lubebot/internal/models"

type Input struct {
	Message string            `json:"message"`
	History []models.ChatTurn `json:"history,omitempty"`
}

type Output struct {
	Intent           models.Intent `json:"intent"`
	UsedAIClassifier bool          `json:"usedAIClassifier"`
}

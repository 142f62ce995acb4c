// internal/pipeline/compose-prompt/handler_test.go
package composeprompt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lubebot/internal/common/logger"
	"lubebot/internal/models"
)

func newHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func TestExecute_SectionOrder(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Message: "oil for my classic 350",
		Intent: models.Intent{
			Type:         models.IntentProductRecommendation,
			VehicleBrand: "royal enfield",
			VehicleModel: "classic 350",
			VehicleType:  "motorcycle",
		},
		Knowledge: models.KnowledgeBundle{
			CoreIdentity:   json.RawMessage(`{"role": "support assistant"}`),
			VehicleSpec:    json.RawMessage(`{"classic 350": {"jaso": "MA2"}}`),
			JASOMotorcycle: json.RawMessage(`{"MA2": "wet clutch"}`),
		},
		Products: []models.ScoredCandidate{
			{Entry: models.CatalogEntry{Title: "Motorbike 4T", PartNumber: "LM-2210", Size: "1L"}, Score: 180},
		},
	})
	require.NoError(t, err)

	prompt := output.Prompt
	roleIdx := strings.Index(prompt, "## Role")
	vehicleIdx := strings.Index(prompt, "## Confirmed vehicle details")
	specIdx := strings.Index(prompt, "## Vehicle specifications")
	techIdx := strings.Index(prompt, "## Technical reference")
	productsIdx := strings.Index(prompt, "## Matching products")
	rulesIdx := strings.Index(prompt, "## Rules")

	for name, idx := range map[string]int{
		"role": roleIdx, "vehicle": vehicleIdx, "spec": specIdx,
		"tech": techIdx, "products": productsIdx, "rules": rulesIdx,
	} {
		require.GreaterOrEqual(t, idx, 0, "missing section %s", name)
	}
	assert.Less(t, roleIdx, vehicleIdx)
	assert.Less(t, vehicleIdx, specIdx)
	assert.Less(t, specIdx, techIdx)
	assert.Less(t, techIdx, productsIdx)
	assert.Less(t, productsIdx, rulesIdx)
}

func TestExecute_EmptySectionsOmitted(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Message: "hello",
		Intent:  models.Intent{Type: models.IntentGeneralInquiry},
	})
	require.NoError(t, err)

	assert.NotContains(t, output.Prompt, "## Vehicle specifications")
	assert.NotContains(t, output.Prompt, "## Matching products")
	assert.NotContains(t, output.Prompt, "## Confirmed vehicle details")
	// The rules section always closes the prompt.
	assert.Contains(t, output.Prompt, "## Rules")
	assert.Equal(t, 1, output.SectionCount)
}

func TestExecute_ProductListContent(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Message: "oil",
		Intent:  models.Intent{Type: models.IntentProductRecommendation},
		Products: []models.ScoredCandidate{
			{Entry: models.CatalogEntry{
				Title:      "Motorbike 4T Synth",
				PartNumber: "LM-2210",
				Size:       "1L",
				Category:   "motorcycle engine oil",
				ProductURL: "https://example.com/p/lm-2210",
			}},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, output.Prompt, "Motorbike 4T Synth")
	assert.Contains(t, output.Prompt, "LM-2210")
	assert.Contains(t, output.Prompt, "1L")
	assert.Contains(t, output.Prompt, "https://example.com/p/lm-2210")
	assert.Contains(t, output.Prompt, "Never invent product names")
}

func TestExecute_ProductCapApplied(t *testing.T) {
	h := newHandler(t)

	products := make([]models.ScoredCandidate, 0, 12)
	for i := 0; i < 12; i++ {
		products = append(products, models.ScoredCandidate{
			Entry: models.CatalogEntry{Title: "Oil", PartNumber: fmt.Sprintf("LM-90%02d", i)},
		})
	}

	output, err := h.Execute(context.Background(), &Input{
		Message:  "oil",
		Intent:   models.Intent{Type: models.IntentProductRecommendation},
		Products: products,
	})
	require.NoError(t, err)

	assert.Contains(t, output.Prompt, "1. Oil")
	assert.Contains(t, output.Prompt, "8. Oil")
	assert.NotContains(t, output.Prompt, "9. Oil")
}

func TestExecute_CatalogOutageNotice(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Message:            "oil for activa",
		Intent:             models.Intent{Type: models.IntentProductRecommendation},
		CatalogUnavailable: true,
	})
	require.NoError(t, err)

	assert.Contains(t, output.Prompt, "temporarily unavailable")
	assert.NotContains(t, output.Prompt, "## Matching products")
}

// Templates render in name order so identical inputs yield identical prompts.
func TestExecute_TemplatesDeterministic(t *testing.T) {
	h := newHandler(t)

	input := &Input{
		Message: "price and where to buy",
		Intent:  models.Intent{Type: models.IntentPriceInquiry},
		Knowledge: models.KnowledgeBundle{
			Templates: map[string]json.RawMessage{
				"purchase_channels": json.RawMessage(`"official store"`),
				"price_guidance":    json.RawMessage(`"printed MRP"`),
			},
		},
	}

	first, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := h.Execute(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, first.Prompt, again.Prompt)
	}
	assert.Less(t,
		strings.Index(first.Prompt, "printed MRP"),
		strings.Index(first.Prompt, "official store"))
}

func TestExecute_ElectricScenarioIncluded(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Message: "oil for my EV",
		Intent:  models.Intent{Type: models.IntentProductRecommendation, IsElectricVehicle: true},
		Knowledge: models.KnowledgeBundle{
			SpecialScenario: json.RawMessage(`"An EV needs no engine oil."`),
		},
	})
	require.NoError(t, err)

	assert.Contains(t, output.Prompt, "## Scenario guidance")
	assert.Contains(t, output.Prompt, "An EV needs no engine oil.")
	assert.Contains(t, output.Prompt, "The vehicle is electric.")
}

// internal/pipeline/validate-response/handler_test.go
package validateresponse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lubebot/internal/common/logger"
	"lubebot/internal/models"
)

func newHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func knownCatalog() []models.CatalogEntry {
	return []models.CatalogEntry{
		{ID: "p1", PartNumber: "LM-2210"},
		{ID: "p2", PartNumber: "LM-2101"},
	}
}

func TestExecute_ValidResponsePassesThrough(t *testing.T) {
	h := newHandler(t)

	response := "I recommend Motorbike 4T (part LM-2210) for your Classic 350."
	output, err := h.Execute(context.Background(), &Input{
		Response: response,
		Catalog:  knownCatalog(),
	})
	require.NoError(t, err)

	assert.False(t, output.Result.HasInvalidIdentifiers)
	assert.Empty(t, output.Result.InvalidIdentifiers)
	assert.Equal(t, response, output.Result.SanitizedText)
}

func TestExecute_InventedPartNumberLineStripped(t *testing.T) {
	h := newHandler(t)

	response := "Two options:\n" +
		"1. Motorbike 4T (part LM-2210), 1L\n" +
		"2. Super Premium (part LM-9999), 1L\n" +
		"Both suit your bike."
	output, err := h.Execute(context.Background(), &Input{
		Response: response,
		Catalog:  knownCatalog(),
	})
	require.NoError(t, err)

	assert.True(t, output.Result.HasInvalidIdentifiers)
	assert.Equal(t, []string{"LM-9999"}, output.Result.InvalidIdentifiers)
	assert.Contains(t, output.Result.SanitizedText, "LM-2210")
	assert.NotContains(t, output.Result.SanitizedText, "LM-9999")
	assert.NotContains(t, output.Result.SanitizedText, "Super Premium")
	assert.Contains(t, output.Result.SanitizedText, "Both suit your bike.")
}

func TestExecute_FullyInventedResponseBecomesDisclaimer(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Response: "Buy LM-8888 today!",
		Catalog:  knownCatalog(),
	})
	require.NoError(t, err)

	assert.True(t, output.Result.HasInvalidIdentifiers)
	assert.Equal(t, LoadConfig().Disclaimer, output.Result.SanitizedText)
}

// Viscosity grades and years must never be mistaken for part numbers.
func TestExecute_NonPartTokensIgnored(t *testing.T) {
	h := newHandler(t)

	response := "Use a 10W-40 oil; the grade was updated in 2023. SAE 20W-50 also works."
	output, err := h.Execute(context.Background(), &Input{
		Response: response,
		Catalog:  nil,
	})
	require.NoError(t, err)

	assert.False(t, output.Result.HasInvalidIdentifiers)
	assert.Equal(t, response, output.Result.SanitizedText)
}

func TestExecute_CaseInsensitiveCatalogMatch(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Response: "Part LM-2210 fits.",
		Catalog:  []models.CatalogEntry{{PartNumber: "lm-2210"}},
	})
	require.NoError(t, err)

	assert.False(t, output.Result.HasInvalidIdentifiers)
}

func TestExecute_DuplicateInvalidCountedOnce(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Response: "LM-7777 is great. Really, LM-7777 is the one.",
		Catalog:  knownCatalog(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"LM-7777"}, output.Result.InvalidIdentifiers)
}

func TestExecute_InvalidIdentifiersSorted(t *testing.T) {
	h := newHandler(t)

	response := "Try LM-9999, or LM-5555, or maybe LM-7777."
	for i := 0; i < 10; i++ {
		output, err := h.Execute(context.Background(), &Input{
			Response: response,
			Catalog:  knownCatalog(),
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"LM-5555", "LM-7777", "LM-9999"}, output.Result.InvalidIdentifiers)
	}
}

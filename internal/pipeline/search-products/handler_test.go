// internal/pipeline/search-products/handler_test.go
package searchproducts

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lubebot/internal/common/logger"
	"lubebot/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), nil, logger.NewTestLogger(t))
}

func testCatalog() []models.CatalogEntry {
	return []models.CatalogEntry{
		{ID: "p1", Title: "Motorbike 4T Synth 10W-40", PartNumber: "LM-2210", Category: "motorcycle engine oil", Certifications: []string{"JASO MA2", "API SN"}, Viscosity: "10W-40", Size: "1L"},
		{ID: "p2", Title: "Motorbike 4T Synth 10W-40", PartNumber: "LM-2211", Category: "motorcycle engine oil", Certifications: []string{"JASO MA2", "API SN"}, Viscosity: "10W-40", Size: "4L"},
		{ID: "p3", Title: "Scooter Street 10W-30", PartNumber: "LM-2101", Category: "motorcycle engine oil", Certifications: []string{"JASO MB"}, Viscosity: "10W-30", Size: "800ml"},
		{ID: "p4", Title: "Top Tec 0W-20", PartNumber: "LM-3001", Category: "car engine oil", Certifications: []string{"API SP"}, Viscosity: "0W-20", Size: "3.5L"},
		{ID: "p5", Title: "Radiator Coolant RTU", PartNumber: "LM-4001", Category: "coolant", Size: "1L"},
		{ID: "p6", Title: "Brake Fluid DOT 4", PartNumber: "LM-4101", Category: "brake fluid", Size: "500ml"},
		{ID: "p7", Title: "Engine Flush Plus", PartNumber: "LM-5001", Category: "additive", Description: "oil system flush before oil change"},
	}
}

// ==========================
// Phase Tests
// ==========================

func TestExecute_DirectedTasksRunFirst(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Catalog: testCatalog(),
		Message: "need LM-2210",
		Intent: models.Intent{
			Type: models.IntentProductRecommendation,
			SearchTasks: []models.SearchTask{
				{Field: "partNumber", Value: "LM-2210", Method: "equals"},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "directed", output.Phase)
	require.NotEmpty(t, output.Candidates)
	// Title expansion pulls in the 4L pack of the same product.
	assert.True(t, output.Expanded)
	ids := candidateIDs(output.Candidates)
	assert.Contains(t, ids, "p1")
	assert.Contains(t, ids, "p2")
}

func TestExecute_KeywordPhaseWhenTasksFindLittle(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Catalog: testCatalog(),
		Message: "my radiator needs coolant",
		Intent: models.Intent{
			Type:            models.IntentProductRecommendation,
			ProductCategory: "coolant",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "keyword", output.Phase)
	assert.Contains(t, candidateIDs(output.Candidates), "p5")
}

func TestExecute_CategoryFallbackWhenNothingMatches(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Catalog: testCatalog(),
		Message: "something for my ride",
		Intent: models.Intent{
			Type:            models.IntentProductRecommendation,
			ProductCategory: "oil",
			VehicleType:     "motorcycle",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "category", output.Phase)
	for _, c := range output.Candidates {
		assert.Contains(t, c.Entry.Category, "motorcycle engine oil")
	}
}

func TestExecute_ThresholdShortCircuitsLaterPhases(t *testing.T) {
	catalog := make([]models.CatalogEntry, 0, 12)
	for i := 0; i < 12; i++ {
		catalog = append(catalog, models.CatalogEntry{
			ID:       fmt.Sprintf("oil-%d", i),
			Title:    fmt.Sprintf("Engine Oil Variant %d", i),
			Category: "engine oil",
		})
	}
	// A coolant entry that the keyword phase would pick up.
	catalog = append(catalog, models.CatalogEntry{ID: "c1", Title: "Coolant", Category: "coolant"})

	h := newHandler(t)
	output, err := h.Execute(context.Background(), &Input{
		Catalog: catalog,
		Message: "engine oil and coolant",
		Intent: models.Intent{
			Type: models.IntentProductRecommendation,
			SearchTasks: []models.SearchTask{
				{Field: "category", Value: "engine oil", Limit: 6},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "directed", output.Phase)
	assert.NotContains(t, candidateIDs(output.Candidates), "c1")
}

func TestExecute_TaskLimitRespected(t *testing.T) {
	catalog := make([]models.CatalogEntry, 0, 30)
	for i := 0; i < 30; i++ {
		catalog = append(catalog, models.CatalogEntry{
			ID:       fmt.Sprintf("oil-%d", i),
			Title:    fmt.Sprintf("Oil %d", i),
			Category: "engine oil",
		})
	}

	h := newHandler(t)
	output, err := h.Execute(context.Background(), &Input{
		Catalog: catalog,
		Message: "oil",
		Intent: models.Intent{
			Type: models.IntentProductRecommendation,
			SearchTasks: []models.SearchTask{
				{Field: "category", Value: "engine oil", Limit: 3},
			},
		},
	})
	require.NoError(t, err)

	// Titles are all distinct, so expansion adds nothing back.
	assert.Len(t, output.Candidates, 3)
}

// ==========================
// Title Expansion Tests
// ==========================

func TestExpandByTitle_DedupAndTitleCap(t *testing.T) {
	h := newHandler(t)

	catalog := []models.CatalogEntry{
		{ID: "a1", Title: "Alpha"},
		{ID: "a2", Title: "Alpha"},
		{ID: "b1", Title: "Beta"},
		{ID: "b2", Title: "Beta"},
		{ID: "c1", Title: "Gamma"},
		{ID: "c2", Title: "Gamma"},
		{ID: "d1", Title: "Delta"},
		{ID: "d2", Title: "Delta"},
	}
	results := []models.CatalogEntry{
		catalog[0], catalog[2], catalog[4], catalog[6],
	}

	expanded := h.expandByTitle(results, catalog)

	ids := make(map[string]int)
	for _, e := range expanded {
		ids[e.ID]++
	}
	for id, n := range ids {
		assert.Equal(t, 1, n, "entry %s duplicated", id)
	}
	// Only the first three distinct titles expand.
	assert.Contains(t, ids, "a2")
	assert.Contains(t, ids, "b2")
	assert.Contains(t, ids, "c2")
	assert.NotContains(t, ids, "d2")
}

func TestExecute_NoExpansionAboveWindow(t *testing.T) {
	catalog := make([]models.CatalogEntry, 0, 25)
	for i := 0; i < 25; i++ {
		catalog = append(catalog, models.CatalogEntry{
			ID:       fmt.Sprintf("e-%d", i),
			Title:    "Shared Title",
			Category: "engine oil",
		})
	}

	h := newHandler(t)
	output, err := h.Execute(context.Background(), &Input{
		Catalog: catalog,
		Message: "engine oil",
		Intent:  models.Intent{Type: models.IntentProductRecommendation},
	})
	require.NoError(t, err)

	assert.False(t, output.Expanded)
}

func TestExecute_EmptyCatalogYieldsNone(t *testing.T) {
	h := newHandler(t)

	output, err := h.Execute(context.Background(), &Input{
		Catalog: nil,
		Message: "engine oil",
		Intent:  models.Intent{Type: models.IntentProductRecommendation},
	})
	require.NoError(t, err)

	assert.Equal(t, "none", output.Phase)
	assert.Empty(t, output.Candidates)
}

func candidateIDs(candidates []models.ScoredCandidate) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Entry.ID)
	}
	return ids
}

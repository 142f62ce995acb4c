// internal/pipeline/assemble-knowledge/handler.go
package assembleknowledge

import (
	"context"
	"encoding/json"

	"lubebot/internal/common/logger"
	"lubebot/internal/knowledge"
	"lubebot/internal/models"
)

const StageName = "assemble-knowledge"

// otherVerticals are the product categories with their own spec bundle under
// category_specs/. Oil is handled by the certification table instead.
var otherVerticals = map[string]bool{
	"coolant":     true,
	"brake_fluid": true,
	"grease":      true,
	"additive":    true,
	"car_care":    true,
}

type Handler struct {
	config    *Config
	knowledge *knowledge.Store
	logger    logger.Logger
}

func NewHandler(config *Config, ks *knowledge.Store, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		knowledge: ks,
		logger:    log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute is a pure conditional loader: each optional section is gated by one
// Intent predicate and loaded lazily. A bundle that fails to load stays nil;
// the request degrades instead of aborting.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	intent := input.Intent

	// No store means no knowledge, not a crash; the prompt composer skips
	// empty sections.
	if h.knowledge == nil {
		return &Output{}, nil
	}

	bundle := models.KnowledgeBundle{
		CoreIdentity: h.knowledge.LoadNamed("core_identity"),
	}

	if intent.NeedsVehicleSpec && intent.VehicleBrand != "" {
		bundle.VehicleSpec = h.knowledge.LoadNamed("vehicle_specs")
	}

	if intent.ProductCategory == "oil" {
		bundle.Certifications = h.knowledge.LoadNamed("certifications")
		if intent.IsMotorcycle {
			bundle.JASOMotorcycle = h.knowledge.LoadNamed("jaso_motorcycle")
		}
	}

	if intent.NeedsSymptomGuide {
		bundle.SymptomGuide = h.knowledge.LoadNamed("symptom_guide")
	}

	if len(intent.NeedsTemplates) > 0 {
		bundle.Templates = h.loadTemplates(intent.NeedsTemplates)
	}

	if intent.SpecialScenario != "" {
		bundle.SpecialScenario = h.loadScenario(intent.SpecialScenario)
	}

	if otherVerticals[intent.ProductCategory] {
		bundle.CategorySpec = h.knowledge.LoadNamed("category_specs/" + intent.ProductCategory)
	}

	h.logger.Debug("knowledge assembled", map[string]interface{}{
		"sections": bundle.SectionCount(),
		"category": intent.ProductCategory,
	})

	return &Output{Bundle: bundle}, nil
}

// loadTemplates picks only the requested keys out of the templates bundle.
func (h *Handler) loadTemplates(names []string) map[string]json.RawMessage {
	var all map[string]json.RawMessage
	if !h.knowledge.DecodeNamed("templates", &all) {
		return nil
	}

	selected := make(map[string]json.RawMessage)
	for _, name := range names {
		if tmpl, ok := all[name]; ok {
			selected[name] = tmpl
		}
	}
	if len(selected) == 0 {
		return nil
	}
	return selected
}

// loadScenario returns the override text for one named special scenario.
func (h *Handler) loadScenario(name string) json.RawMessage {
	var all map[string]json.RawMessage
	if !h.knowledge.DecodeNamed("special_scenarios", &all) {
		return nil
	}
	return all[name]
}

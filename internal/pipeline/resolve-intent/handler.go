// internal/pipeline/resolve-intent/handler.go
package resolveintent

import (
	"context"
	"strings"

	"lubebot/internal/clients/genai"
	"lubebot/internal/common/logger"
	"lubebot/internal/common/metrics"
	"lubebot/internal/knowledge"
	"lubebot/internal/models"
)

const StageName = "resolve-intent"

// Classifier is the probabilistic classification collaborator, injected so the
// stage can run without one (rule-only mode) and so tests can fake it.
type Classifier interface {
	Configured() bool
	Classify(ctx context.Context, message string, history []models.ChatTurn) (*genai.ClassifyResult, error)
}

type Handler struct {
	config     *Config
	classifier Classifier
	knowledge  *knowledge.Store
	logger     logger.Logger
}

func NewHandler(config *Config, classifier Classifier, ks *knowledge.Store, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		classifier: classifier,
		knowledge:  ks,
		logger:     log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute resolves the message into an Intent. It never fails: classifier
// trouble of any kind falls back to the deterministic rules, and the
// enhancement pass runs on both paths.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	lowerMsg := strings.ToLower(input.Message)

	var intent models.Intent
	usedAI := false

	if h.classifier != nil && h.classifier.Configured() {
		result, err := h.classifier.Classify(ctx, input.Message, input.History)
		if err != nil {
			h.logger.Warn("classifier unusable, using rule fallback", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			intent = h.fromClassifier(result)
			usedAI = true
		}
	}

	if !usedAI {
		intent = h.ruleClassify(lowerMsg)
	}

	// Keyword detection overrides the model's judgment for the narrow
	// categories below, on both paths. Product policy, not a bug.
	h.enhance(lowerMsg, &intent)

	if intent.VehicleType == "" {
		tables := h.vehicleTables()
		deriveVehicle(lowerMsg, tables, &intent)
	}
	if intent.Viscosity == "" {
		if m := viscosityPattern.FindString(input.Message); m != "" {
			intent.Viscosity = strings.ToUpper(m)
		}
	}
	intent.NeedsVehicleSpec = intent.VehicleBrand != ""

	path := "rules"
	if usedAI {
		path = "ai"
	}
	metrics.IntentResolutions.WithLabelValues(path).Inc()

	h.logger.Info("intent resolved", map[string]interface{}{
		"type":         intent.Type,
		"path":         path,
		"vehicleType":  intent.VehicleType,
		"vehicleBrand": intent.VehicleBrand,
		"isMotorcycle": intent.IsMotorcycle,
	})

	return &Output{Intent: intent, UsedAIClassifier: usedAI}, nil
}

// fromClassifier maps a shape-validated classifier result onto the closed
// Intent record.
func (h *Handler) fromClassifier(result *genai.ClassifyResult) models.Intent {
	intent := models.Intent{
		Type:            models.IntentType(result.IntentType),
		ProductCategory: result.ProductCategory,
		Certifications:  result.Certifications,
		Viscosity:       result.Viscosity,
		SpecialScenario: result.UsageScenario,
		SearchTasks:     result.SearchTasks,
		SearchKeywords:  result.SearchKeywords,
		RawAnalysis:     result.Raw,
	}

	if !intent.Type.Valid() {
		if result.NeedsProductRecommendation {
			intent.Type = models.IntentProductRecommendation
		} else {
			intent.Type = models.IntentGeneralInquiry
		}
	}

	if len(result.Vehicles) > 0 {
		v := result.Vehicles[0]
		intent.VehicleType = strings.ToLower(v.Type)
		intent.VehicleBrand = strings.ToLower(v.Brand)
		intent.VehicleModel = strings.ToLower(v.Model)
		intent.IsMotorcycle = intent.VehicleType == "motorcycle"
	}

	if intent.ProductCategory == "" && len(result.Vehicles) > 0 {
		intent.ProductCategory = "oil"
	}

	return intent
}

// ruleClassify is the deterministic fallback: ordered keyword tables, highest
// priority first, defaulting to a product recommendation.
func (h *Handler) ruleClassify(lowerMsg string) models.Intent {
	tables := h.keywordTables()

	intent := models.Intent{
		Type:            models.IntentProductRecommendation,
		ProductCategory: "oil",
	}

	switch {
	case matchAny(lowerMsg, tables.Authentication):
		intent.Type = models.IntentAuthentication
	case matchAny(lowerMsg, tables.Price):
		intent.Type = models.IntentPriceInquiry
	case matchAny(lowerMsg, tables.Purchase):
		intent.Type = models.IntentPurchaseInquiry
	case matchAny(lowerMsg, tables.Cooperation):
		intent.Type = models.IntentCooperationInquiry
	}

	if matchAny(lowerMsg, tables.Symptoms) {
		intent.NeedsSymptomGuide = true
	}

	return intent
}

// enhance re-scans the raw message and overrides type/templates for five
// narrow categories the classifier under-recognizes.
func (h *Handler) enhance(lowerMsg string, intent *models.Intent) {
	tables := h.keywordTables()

	switch {
	case matchAny(lowerMsg, tables.Authentication):
		intent.Type = models.IntentAuthentication
		intent.NeedsTemplates = appendTemplate(intent.NeedsTemplates, "authenticity_check")
	case matchAny(lowerMsg, tables.Price):
		intent.Type = models.IntentPriceInquiry
		intent.NeedsTemplates = appendTemplate(intent.NeedsTemplates, "price_guidance")
	case matchAny(lowerMsg, tables.Purchase):
		intent.Type = models.IntentPurchaseInquiry
		intent.NeedsTemplates = appendTemplate(intent.NeedsTemplates, "purchase_channels")
	case matchAny(lowerMsg, tables.Cooperation):
		intent.Type = models.IntentCooperationInquiry
		intent.NeedsTemplates = appendTemplate(intent.NeedsTemplates, "cooperation_contact")
	}

	if matchAny(lowerMsg, tables.Electric) {
		intent.IsElectricVehicle = true
		intent.SpecialScenario = "electric_vehicle"
	}

	if matchAny(lowerMsg, tables.Symptoms) {
		intent.NeedsSymptomGuide = true
	}
}

func appendTemplate(templates []string, name string) []string {
	for _, t := range templates {
		if t == name {
			return templates
		}
	}
	return append(templates, name)
}

func (h *Handler) keywordTables() *keywordTables {
	var tables keywordTables
	if h.knowledge != nil && h.knowledge.DecodeNamed("intent_keywords", &tables) {
		return &tables
	}
	return defaultKeywordTables()
}

func (h *Handler) vehicleTables() *vehicleTables {
	var tables vehicleTables
	if h.knowledge != nil && h.knowledge.DecodeNamed("vehicle_keywords", &tables) {
		return &tables
	}
	return defaultVehicleTables()
}

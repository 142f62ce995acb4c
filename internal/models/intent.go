// internal/models/intent.go
package models

import "encoding/json"

// IntentType is the closed set of conversation intents the resolver can emit.
type IntentType string

const (
	IntentProductRecommendation IntentType = "product_recommendation"
	IntentGeneralInquiry        IntentType = "general_inquiry"
	IntentAuthentication        IntentType = "authentication"
	IntentPriceInquiry          IntentType = "price_inquiry"
	IntentPurchaseInquiry       IntentType = "purchase_inquiry"
	IntentCooperationInquiry    IntentType = "cooperation_inquiry"
)

// Valid reports whether t is one of the known intent types.
func (t IntentType) Valid() bool {
	switch t {
	case IntentProductRecommendation, IntentGeneralInquiry, IntentAuthentication,
		IntentPriceInquiry, IntentPurchaseInquiry, IntentCooperationInquiry:
		return true
	}
	return false
}

// Intent is the structured interpretation of one user message. It is built once
// by the intent resolver and read-only for every downstream stage.
type Intent struct {
	Type              IntentType      `json:"type"`
	VehicleType       string          `json:"vehicleType,omitempty"` // car | motorcycle | truck
	VehicleBrand      string          `json:"vehicleBrand,omitempty"`
	VehicleModel      string          `json:"vehicleModel,omitempty"`
	ProductCategory   string          `json:"productCategory"`
	Certifications    []string        `json:"certifications,omitempty"`
	Viscosity         string          `json:"viscosity,omitempty"`
	IsMotorcycle      bool            `json:"isMotorcycle"`
	IsElectricVehicle bool            `json:"isElectricVehicle"`
	SpecialScenario   string          `json:"specialScenario,omitempty"`
	NeedsTemplates    []string        `json:"needsTemplates,omitempty"`
	NeedsVehicleSpec  bool            `json:"needsVehicleSpec"`
	NeedsSymptomGuide bool            `json:"needsSymptomGuide"`
	SearchTasks       []SearchTask    `json:"searchTasks,omitempty"`
	SearchKeywords    []string        `json:"searchKeywords,omitempty"`
	RawAnalysis       json.RawMessage `json:"rawAnalysis,omitempty"`
}

// SearchTask is one directed retrieval instruction, produced by the classifier
// or synthesized by the fallback rules.
type SearchTask struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Method string `json:"method"` // contains | equals
	Limit  int    `json:"limit"`
}

// ChatTurn is one prior exchange turn, formatted for the generation service.
type ChatTurn struct {
	Role string `json:"role"` // user | model
	Text string `json:"text"`
}

// internal/pipeline/resolve-intent/keywords.go
package resolveintent

import (
	"regexp"
	"strings"

	"lubebot/internal/models"
)

// keywordTables holds the rule vocabulary for the deterministic classifier.
// It is loaded from the knowledge store ("intent_keywords") so the vocabulary
// can grow without a redeploy; the built-in defaults below only cover a store
// outage.
type keywordTables struct {
	Authentication []string `json:"authentication"`
	Price          []string `json:"price"`
	Purchase       []string `json:"purchase"`
	Cooperation    []string `json:"cooperation"`
	Electric       []string `json:"electric"`
	Symptoms       []string `json:"symptoms"`
}

// defaultKeywordTables mirrors configs/knowledge/intent_keywords.json entry
// for entry so the outage fallback cannot classify differently from the
// store-backed path.
func defaultKeywordTables() *keywordTables {
	return &keywordTables{
		Authentication: []string{"fake", "genuine", "authentic", "counterfeit", "duplicate product", "verify", "hologram", "qr code", "original or not"},
		Price:          []string{"price", "cost", "how much", "mrp", "rate", "expensive", "cheap"},
		Purchase:       []string{"buy", "order", "purchase", "where can i get", "dealer near", "nearest shop", "online", "amazon", "flipkart"},
		Cooperation:    []string{"distributor", "dealership", "partnership", "wholesale", "bulk order", "franchise", "become a dealer", "business inquiry"},
		Electric:       []string{"electric vehicle", " ev ", "e-scooter", "electric scooter", "hybrid"},
		Symptoms:       []string{"smoke", "noise", "knocking", "leak", "overheat", "overheating", "mileage drop", "vibration", "clutch slip"},
	}
}

// vehicleRule is one substring rule mapping a message token to vehicle facts.
type vehicleRule struct {
	Keyword string `json:"keyword"`
	Type    string `json:"type"` // car | motorcycle | truck
	Brand   string `json:"brand,omitempty"`
	Model   string `json:"model,omitempty"`
}

type vehicleTables struct {
	Models []vehicleRule `json:"models"`
	Brands []vehicleRule `json:"brands"`
}

func defaultVehicleTables() *vehicleTables {
	return &vehicleTables{
		Models: []vehicleRule{
			{Keyword: "activa", Type: "motorcycle", Brand: "honda", Model: "activa"},
			{Keyword: "classic 350", Type: "motorcycle", Brand: "royal enfield", Model: "classic 350"},
			{Keyword: "splendor", Type: "motorcycle", Brand: "hero", Model: "splendor"},
			{Keyword: "swift", Type: "car", Brand: "maruti suzuki", Model: "swift"},
			{Keyword: "creta", Type: "car", Brand: "hyundai", Model: "creta"},
		},
		Brands: []vehicleRule{
			{Keyword: "royal enfield", Type: "motorcycle", Brand: "royal enfield"},
			{Keyword: "bajaj", Type: "motorcycle", Brand: "bajaj"},
			{Keyword: "tvs", Type: "motorcycle", Brand: "tvs"},
			{Keyword: "maruti", Type: "car", Brand: "maruti suzuki"},
			{Keyword: "hyundai", Type: "car", Brand: "hyundai"},
			{Keyword: "tata", Type: "car", Brand: "tata"},
			{Keyword: "toyota", Type: "car", Brand: "toyota"},
		},
	}
}

var viscosityPattern = regexp.MustCompile(`\b\d{1,2}[Ww]-\d{2}\b`)

// matchAny reports whether any keyword occurs in the lowercased message.
func matchAny(lowerMsg string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowerMsg, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// deriveVehicle fills vehicle facts from substring rules; model rules run
// before brand rules because they are more specific.
func deriveVehicle(lowerMsg string, tables *vehicleTables, intent *models.Intent) {
	for _, rule := range tables.Models {
		if strings.Contains(lowerMsg, strings.ToLower(rule.Keyword)) {
			intent.VehicleType = rule.Type
			intent.VehicleBrand = rule.Brand
			intent.VehicleModel = rule.Model
			intent.IsMotorcycle = rule.Type == "motorcycle"
			return
		}
	}
	for _, rule := range tables.Brands {
		if strings.Contains(lowerMsg, strings.ToLower(rule.Keyword)) {
			intent.VehicleType = rule.Type
			intent.VehicleBrand = rule.Brand
			intent.IsMotorcycle = rule.Type == "motorcycle"
			return
		}
	}
}

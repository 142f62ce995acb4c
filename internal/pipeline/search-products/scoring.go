// internal/pipeline/search-products/scoring.go
package searchproducts

import (
	"sort"
	"strings"

	"lubebot/internal/knowledge"
	"lubebot/internal/models"
)

// Scoring weights. A direct part-number recommendation outranks everything;
// a sub-type conflict has to be able to sink an otherwise strong match.
const (
	weightRecommendedPart = 200
	weightSubTypeMatch    = 100
	weightSubTypeConflict = -50
	weightCertExact       = 80
	weightCertPartial     = 60
	weightFullSynthetic   = 50
	weightVehicleKeyword  = 20
	weightCategoryType    = 10
)

type scoringContext struct {
	vehicleType      string
	vehicleSubType   string
	certifications   []string
	preferSynthetic  bool
	recommendedParts []string
	tables           motoTables
}

func buildScoringContext(message string, intent models.Intent, store *knowledge.Store, tables motoTables) scoringContext {
	lower := strings.ToLower(message)
	return scoringContext{
		vehicleType:      strings.ToLower(intent.VehicleType),
		vehicleSubType:   classifyVehicleSubType(message, intent, tables),
		certifications:   intent.Certifications,
		preferSynthetic:  strings.Contains(lower, "synthetic"),
		recommendedParts: lookupRecommendedParts(intent, store),
		tables:           tables,
	}
}

// lookupRecommendedParts returns the catalog part numbers the service manual
// data names for the user's vehicle model. Keys in the bundle are lowercase
// model names; a key matches when it appears in the model or the brand+model.
func lookupRecommendedParts(intent models.Intent, store *knowledge.Store) []string {
	if store == nil {
		return nil
	}
	var byModel map[string][]string
	if !store.DecodeNamed("recommended_parts", &byModel) {
		return nil
	}
	target := strings.ToLower(strings.TrimSpace(intent.VehicleBrand + " " + intent.VehicleModel))
	if target == "" {
		return nil
	}
	for key, parts := range byModel {
		if strings.Contains(target, strings.ToLower(key)) {
			return parts
		}
	}
	return nil
}

func scoreEntry(entry models.CatalogEntry, sctx scoringContext) int {
	score := 0

	for _, part := range sctx.recommendedParts {
		if strings.EqualFold(part, entry.PartNumber) {
			score += weightRecommendedPart
			break
		}
	}

	if sctx.vehicleSubType != "" {
		switch classifyEntrySubType(entry, sctx.tables) {
		case sctx.vehicleSubType:
			score += weightSubTypeMatch
		case "":
			// Untagged entries are neutral.
		default:
			score += weightSubTypeConflict
		}
	}

	text := strings.ToLower(entry.Title + " " + entry.Description)
	for _, cert := range sctx.certifications {
		if certMatches(cert, entry.Certifications) {
			score += weightCertExact
		} else if certMatches(cert, []string{entry.Title, entry.Description}) {
			// Same whole-token rules as the exact tier; a short code like
			// "MA" must not score off "formula" or "MA2".
			score += weightCertPartial
		}
	}

	if sctx.preferSynthetic && syntheticGrade(entry.Title) == 3 {
		score += weightFullSynthetic
	}

	if sctx.vehicleType != "" {
		if strings.Contains(text, sctx.vehicleType) {
			score += weightVehicleKeyword
		}
		if strings.Contains(strings.ToLower(entry.Category), sctx.vehicleType) {
			score += weightCategoryType
		}
	}

	return score
}

// rankCandidates scores and orders candidates. Scoring runs only when the
// vehicle type is known; without one every signal is guesswork, so candidates
// keep their discovery order at score zero. The sort is stable so entries with
// equal scores keep their discovery order and results are deterministic.
func rankCandidates(entries []models.CatalogEntry, sctx scoringContext) []models.ScoredCandidate {
	candidates := make([]models.ScoredCandidate, 0, len(entries))
	if sctx.vehicleType == "" {
		for _, entry := range entries {
			candidates = append(candidates, models.ScoredCandidate{Entry: entry})
		}
		return candidates
	}
	for _, entry := range entries {
		candidates = append(candidates, models.ScoredCandidate{
			Entry: entry,
			Score: scoreEntry(entry, sctx),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// internal/pipeline/search-products/handler.go
package searchproducts

import (
	"context"
	"strings"
	"time"

	"lubebot/internal/common/logger"
	"lubebot/internal/common/metrics"
	"lubebot/internal/knowledge"
	"lubebot/internal/models"
)

const StageName = "search-products"

// Retrieval runs in phases against the in-memory catalog snapshot. Each phase
// only runs when the earlier ones found too little, so a precise directed
// search never gets diluted by broad keyword matches.
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	}()

	tables := loadMotoTables(h.knowledge)

	entries, phase := h.retrieve(input)

	expanded := false
	if n := len(entries); n > 0 && n <= h.config.ExpansionMaxResults {
		before := n
		entries = h.expandByTitle(entries, input.Catalog)
		expanded = len(entries) > before
	}

	sctx := buildScoringContext(input.Message, input.Intent, h.knowledge, tables)
	candidates := rankCandidates(entries, sctx)

	h.logger.Info("search completed", map[string]interface{}{
		"phase":      phase,
		"candidates": len(candidates),
		"expanded":   expanded,
		"subType":    sctx.vehicleSubType,
	})

	return &Output{Candidates: candidates, Phase: phase, Expanded: expanded}, nil
}

func (h *Handler) retrieve(input *Input) ([]models.CatalogEntry, string) {
	seen := make(map[string]bool)
	var results []models.CatalogEntry

	add := func(entry models.CatalogEntry) {
		if !seen[entry.ID] {
			seen[entry.ID] = true
			results = append(results, entry)
		}
	}

	phase := "none"
	if len(input.Intent.SearchTasks) > 0 {
		for _, task := range input.Intent.SearchTasks {
			h.runTask(task, input.Catalog, add)
		}
		if len(results) > 0 {
			phase = "directed"
		}
	}
	if len(results) >= h.config.PhaseThreshold {
		return results, phase
	}

	keywords := h.collectKeywords(input.Message, input.Intent)
	if len(keywords) > 0 {
		for _, entry := range input.Catalog {
			if entryMatchesAny(entry, keywords) {
				add(entry)
			}
		}
		if phase == "none" && len(results) > 0 {
			phase = "keyword"
		}
	}
	if len(results) > 0 {
		return results, phase
	}

	label := h.categoryLabel(input.Intent)
	if label != "" {
		for _, entry := range input.Catalog {
			if strings.Contains(strings.ToLower(entry.Category), label) ||
				strings.Contains(strings.ToLower(entry.Title), label) {
				add(entry)
			}
		}
		if len(results) > 0 {
			phase = "category"
		}
	}

	return results, phase
}

// runTask applies one directed search task. Unknown fields are skipped rather
// than failed; the classifier's task list is advisory.
func (h *Handler) runTask(task models.SearchTask, catalog []models.CatalogEntry, add func(models.CatalogEntry)) {
	value := strings.ToLower(strings.TrimSpace(task.Value))
	if value == "" {
		return
	}
	limit := task.Limit
	if limit <= 0 {
		limit = h.config.DefaultTaskLimit
	}

	matched := 0
	for _, entry := range catalog {
		if matched >= limit {
			return
		}
		field := fieldText(entry, task.Field)
		if field == "" {
			continue
		}
		ok := false
		if strings.EqualFold(task.Method, "equals") {
			ok = field == value
		} else {
			ok = strings.Contains(field, value)
		}
		if ok {
			add(entry)
			matched++
		}
	}
}

func fieldText(entry models.CatalogEntry, field string) string {
	switch field {
	case "title":
		return strings.ToLower(entry.Title)
	case "description":
		return strings.ToLower(entry.Description)
	case "category":
		return strings.ToLower(entry.Category)
	case "partNumber", "part_number":
		return strings.ToLower(entry.PartNumber)
	case "viscosity":
		return strings.ToLower(entry.Viscosity)
	case "certifications":
		return strings.ToLower(strings.Join(entry.Certifications, " "))
	}
	return ""
}

// collectKeywords merges the classifier's keywords with phrases the keyword
// mapping table finds in the raw message.
func (h *Handler) collectKeywords(message string, intent models.Intent) []string {
	lower := strings.ToLower(message)
	seen := make(map[string]bool)
	var keywords []string

	push := func(kw string) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && !seen[kw] {
			seen[kw] = true
			keywords = append(keywords, kw)
		}
	}

	for _, kw := range intent.SearchKeywords {
		push(kw)
	}

	mapping := defaultKeywordMapping()
	if h.knowledge != nil {
		var loaded map[string]string
		if h.knowledge.DecodeNamed("search_keywords", &loaded) && len(loaded) > 0 {
			mapping = loaded
		}
	}
	for phrase, keyword := range mapping {
		if strings.Contains(lower, phrase) {
			push(keyword)
		}
	}

	if intent.Viscosity != "" {
		push(intent.Viscosity)
	}

	return keywords
}

func defaultKeywordMapping() map[string]string {
	return map[string]string{
		"engine oil":  "engine oil",
		"gear oil":    "gear oil",
		"chain lube":  "chain",
		"chain spray": "chain",
		"coolant":     "coolant",
		"brake fluid": "brake fluid",
		"grease":      "grease",
		"radiator":    "coolant",
		"flush":       "flush",
		"injector":    "injection",
		"octane":      "octane",
	}
}

func entryMatchesAny(entry models.CatalogEntry, keywords []string) bool {
	text := strings.ToLower(entry.Title + " " + entry.Description + " " +
		entry.Category + " " + entry.Viscosity + " " + strings.Join(entry.Certifications, " "))
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// categoryLabel maps the intent's product category and vehicle type to the
// canonical catalog label used as the last-resort filter.
func (h *Handler) categoryLabel(intent models.Intent) string {
	labels := defaultCategoryLabels()
	if h.knowledge != nil {
		var loaded map[string]map[string]string
		if h.knowledge.DecodeNamed("category_labels", &loaded) && len(loaded) > 0 {
			labels = loaded
		}
	}

	category := strings.ToLower(intent.ProductCategory)
	if category == "" {
		category = "oil"
	}
	byType, ok := labels[category]
	if !ok {
		return category
	}
	if label, ok := byType[strings.ToLower(intent.VehicleType)]; ok {
		return label
	}
	return byType["default"]
}

func defaultCategoryLabels() map[string]map[string]string {
	return map[string]map[string]string{
		"oil": {
			"motorcycle": "motorcycle engine oil",
			"car":        "car engine oil",
			"default":    "engine oil",
		},
		"coolant":     {"default": "coolant"},
		"brake_fluid": {"default": "brake fluid"},
		"grease":      {"default": "grease"},
		"additive":    {"default": "additive"},
		"car_care":    {"default": "car care"},
	}
}

// expandByTitle pulls in catalog entries sharing a title with the found ones,
// so every pack size of a matched product reaches the ranking step. Up to
// ExpansionMaxTitles distinct titles expand, in discovery order.
func (h *Handler) expandByTitle(results []models.CatalogEntry, catalog []models.CatalogEntry) []models.CatalogEntry {
	seen := make(map[string]bool, len(results))
	for _, entry := range results {
		seen[entry.ID] = true
	}

	titlesDone := make(map[string]bool)
	expanded := results
	for _, entry := range results {
		if len(titlesDone) >= h.config.ExpansionMaxTitles {
			break
		}
		title := strings.ToLower(strings.TrimSpace(entry.Title))
		if title == "" || titlesDone[title] {
			continue
		}
		titlesDone[title] = true
		for _, candidate := range catalog {
			if seen[candidate.ID] {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(candidate.Title), strings.TrimSpace(entry.Title)) {
				seen[candidate.ID] = true
				expanded = append(expanded, candidate)
			}
		}
	}
	return expanded
}

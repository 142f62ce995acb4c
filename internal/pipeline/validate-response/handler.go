// internal/pipeline/validate-response/handler.go
package validateresponse

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"lubebot/internal/common/logger"
	"lubebot/internal/common/metrics"
	"lubebot/internal/models"
)

const StageName = "validate-response"

// partNumberPattern matches the catalog part numbering scheme. Viscosity
// grades like 10W-40 and plain years never match it.
var partNumberPattern = regexp.MustCompile(`\bLM-\d{4}\b`)

// Handler strips part numbers the generation model invented. Every line
// carrying an identifier that is not in the live catalog is removed; if
// nothing survives, a fixed disclaimer goes out instead.
type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	}()

	known := make(map[string]bool, len(input.Catalog))
	for _, entry := range input.Catalog {
		if entry.PartNumber != "" {
			known[strings.ToUpper(entry.PartNumber)] = true
		}
	}

	mentioned := partNumberPattern.FindAllString(input.Response, -1)

	invalidSet := make(map[string]bool)
	for _, id := range mentioned {
		if !known[strings.ToUpper(id)] {
			invalidSet[strings.ToUpper(id)] = true
		}
	}

	result := models.ValidationResult{SanitizedText: input.Response}
	if len(invalidSet) == 0 {
		return &Output{Result: result}, nil
	}

	result.HasInvalidIdentifiers = true
	for id := range invalidSet {
		result.InvalidIdentifiers = append(result.InvalidIdentifiers, id)
	}
	// Map iteration order would leak into logs and JSON output.
	sort.Strings(result.InvalidIdentifiers)
	result.SanitizedText = stripLines(input.Response, invalidSet)
	if strings.TrimSpace(result.SanitizedText) == "" {
		result.SanitizedText = h.config.Disclaimer
	}

	metrics.InvalidIdentifiersStripped.Add(float64(len(invalidSet)))
	h.logger.Warn("invented part numbers removed from response", map[string]interface{}{
		"identifiers": result.InvalidIdentifiers,
	})

	return &Output{Result: result}, nil
}

// stripLines removes every line containing an invalid identifier. Dropping
// the whole line avoids leaving half a recommendation behind.
func stripLines(text string, invalid map[string]bool) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		bad := false
		for _, id := range partNumberPattern.FindAllString(line, -1) {
			if invalid[strings.ToUpper(id)] {
				bad = true
				break
			}
		}
		if !bad {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

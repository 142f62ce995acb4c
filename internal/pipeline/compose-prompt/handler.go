// internal/pipeline/compose-prompt/handler.go
package composeprompt

import (
	"context"
	"time"

	"lubebot/internal/common/logger"
	"lubebot/internal/common/metrics"
)

const StageName = "compose-prompt"

// Prompt assembly is a fixed order of independent section builders. A builder
// with nothing to say contributes nothing; the order never changes so the
// generation model sees a stable document shape across requests.
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

	builders := []func(*Input) string{
		h.identitySection,
		h.vehicleFactsSection,
		h.vehicleSpecSection,
		h.certificationSection,
		h.scenarioSection,
		h.templateSection,
		h.productSection,
		h.closingSection,
	}

	var sections []string
	for _, build := range builders {
		if section := build(input); section != "" {
			sections = append(sections, section)
		}
	}

	prompt := joinSections(sections)

	h.logger.Debug("prompt composed", map[string]interface{}{
		"sections": len(sections),
		"products": len(input.Products),
		"length":   len(prompt),
	})

	return &Output{Prompt: prompt, SectionCount: len(sections)}, nil
}

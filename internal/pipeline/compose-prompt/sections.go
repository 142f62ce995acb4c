// internal/pipeline/compose-prompt/sections.go
package composeprompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"lubebot/internal/models"
)

const catalogOutageNotice = "## Product availability\n" +
	"The product database is temporarily unavailable. Tell the user you cannot " +
	"look up specific products right now and suggest they try again shortly. " +
	"Do not list or name any product."

func (h *Handler) identitySection(input *Input) string {
	if len(input.Knowledge.CoreIdentity) == 0 {
		return ""
	}
	return "## Role\n" + renderJSON(input.Knowledge.CoreIdentity)
}

// vehicleFactsSection restates only what the user actually said about their
// vehicle. The model must not be handed guesses as facts.
func (h *Handler) vehicleFactsSection(input *Input) string {
	intent := input.Intent
	var facts []string
	if intent.VehicleBrand != "" {
		facts = append(facts, "Brand: "+intent.VehicleBrand)
	}
	if intent.VehicleModel != "" {
		facts = append(facts, "Model: "+intent.VehicleModel)
	}
	if intent.VehicleType != "" {
		facts = append(facts, "Vehicle type: "+intent.VehicleType)
	}
	if intent.Viscosity != "" {
		facts = append(facts, "Requested viscosity: "+intent.Viscosity)
	}
	if len(intent.Certifications) > 0 {
		facts = append(facts, "Requested certifications: "+strings.Join(intent.Certifications, ", "))
	}
	if intent.IsElectricVehicle {
		facts = append(facts, "The vehicle is electric.")
	}
	if len(facts) == 0 {
		return ""
	}
	return "## Confirmed vehicle details\n" + strings.Join(facts, "\n")
}

func (h *Handler) vehicleSpecSection(input *Input) string {
	if len(input.Knowledge.VehicleSpec) == 0 {
		return ""
	}
	return "## Vehicle specifications\n" + renderJSON(input.Knowledge.VehicleSpec)
}

func (h *Handler) certificationSection(input *Input) string {
	var parts []string
	if len(input.Knowledge.Certifications) > 0 {
		parts = append(parts, renderJSON(input.Knowledge.Certifications))
	}
	if len(input.Knowledge.JASOMotorcycle) > 0 {
		parts = append(parts, renderJSON(input.Knowledge.JASOMotorcycle))
	}
	if len(input.Knowledge.CategorySpec) > 0 {
		parts = append(parts, renderJSON(input.Knowledge.CategorySpec))
	}
	if len(input.Knowledge.SymptomGuide) > 0 {
		parts = append(parts, renderJSON(input.Knowledge.SymptomGuide))
	}
	if len(parts) == 0 {
		return ""
	}
	return "## Technical reference\n" + strings.Join(parts, "\n")
}

func (h *Handler) scenarioSection(input *Input) string {
	if len(input.Knowledge.SpecialScenario) == 0 {
		return ""
	}
	return "## Scenario guidance\n" + renderJSON(input.Knowledge.SpecialScenario)
}

// templateSection emits requested templates sorted by name so the prompt text
// is byte-stable for identical inputs.
func (h *Handler) templateSection(input *Input) string {
	if len(input.Knowledge.Templates) == 0 {
		return ""
	}
	names := make([]string, 0, len(input.Knowledge.Templates))
	for name := range input.Knowledge.Templates {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("## Response guidance\n")
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderJSON(input.Knowledge.Templates[name]))
	}
	return b.String()
}

func (h *Handler) productSection(input *Input) string {
	if input.CatalogUnavailable {
		return catalogOutageNotice
	}
	if input.Intent.Type != models.IntentProductRecommendation || len(input.Products) == 0 {
		return ""
	}

	limit := len(input.Products)
	if h.config.MaxProducts > 0 && limit > h.config.MaxProducts {
		limit = h.config.MaxProducts
	}

	var b strings.Builder
	b.WriteString("## Matching products\n")
	b.WriteString("Recommend only from this list, in this order of preference:\n")
	for i := 0; i < limit; i++ {
		entry := input.Products[i].Entry
		b.WriteString(fmt.Sprintf("%d. %s", i+1, entry.Title))
		if entry.PartNumber != "" {
			b.WriteString(" (part " + entry.PartNumber + ")")
		}
		if entry.Size != "" {
			b.WriteString(", " + entry.Size)
		}
		if entry.Category != "" {
			b.WriteString(", " + entry.Category)
		}
		if entry.ProductURL != "" {
			b.WriteString(", " + entry.ProductURL)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) closingSection(input *Input) string {
	rules := []string{
		"Answer in the language the user wrote in.",
		"Never invent product names, part numbers, prices, or links. " +
			"If it is not in the list above, it does not exist.",
		"If you are unsure, say so and ask a clarifying question.",
	}
	return "## Rules\n" + strings.Join(rules, "\n")
}

func joinSections(sections []string) string {
	return strings.Join(sections, "\n\n")
}

// renderJSON turns a raw knowledge fragment into prompt text. Plain JSON
// strings are unquoted; objects and arrays are pretty-printed.
func renderJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

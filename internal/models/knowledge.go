// internal/models/knowledge.go
package models

import "encoding/json"

// KnowledgeBundle holds the knowledge sections assembled for one request.
// A nil section means it was either not requested or failed to load; the prompt
// composer omits nil sections entirely. The bundle is never mutated after
// assembly.
type KnowledgeBundle struct {
	CoreIdentity    json.RawMessage            `json:"coreIdentity"`
	VehicleSpec     json.RawMessage            `json:"vehicleSpec,omitempty"`
	Certifications  json.RawMessage            `json:"certifications,omitempty"`
	JASOMotorcycle  json.RawMessage            `json:"jasoMotorcycle,omitempty"`
	SymptomGuide    json.RawMessage            `json:"symptomGuide,omitempty"`
	Templates       map[string]json.RawMessage `json:"templates,omitempty"`
	SpecialScenario json.RawMessage            `json:"specialScenario,omitempty"`
	CategorySpec    json.RawMessage            `json:"categorySpec,omitempty"`
}

// SectionCount returns how many sections were actually loaded.
func (b *KnowledgeBundle) SectionCount() int {
	n := 0
	for _, s := range []json.RawMessage{
		b.CoreIdentity, b.VehicleSpec, b.Certifications, b.JASOMotorcycle,
		b.SymptomGuide, b.SpecialScenario, b.CategorySpec,
	} {
		if len(s) > 0 {
			n++
		}
	}
	return n + len(b.Templates)
}

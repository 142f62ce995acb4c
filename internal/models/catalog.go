// internal/models/catalog.go
package models

import (
	"encoding/json"
	"strings"
)

// CertList holds a catalog entry's certification labels. Providers disagree on
// the wire form: the store API sends a comma-separated string, the indexed
// mirror sends a JSON array. Both decode to the same list.
type CertList []string

func (c *CertList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*c = list
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*c = nil
	for _, label := range strings.Split(joined, ",") {
		if label = strings.TrimSpace(label); label != "" {
			*c = append(*c, label)
		}
	}
	return nil
}

// CatalogEntry is one sellable product as served by the catalog provider.
// Entries are owned by the catalog cache and read-only everywhere else; a cache
// refresh replaces the whole snapshot, entries are never patched in place.
type CatalogEntry struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	PartNumber     string                 `json:"partNumber"`
	Size           string                 `json:"size"`
	Category       string                 `json:"category"`
	Certifications CertList               `json:"certifications"`
	Viscosity      string                 `json:"viscosity"`
	Price          float64                `json:"price,omitempty"`
	Description    string                 `json:"description"`
	ProductURL     string                 `json:"productUrl,omitempty"`
	Source         map[string]interface{} `json:"source,omitempty"`
}

// ScoredCandidate pairs a catalog entry with its ranking score. Ordering is
// descending by score; ties keep discovery order.
type ScoredCandidate struct {
	Entry CatalogEntry `json:"entry"`
	Score int          `json:"score"`
}

// ValidationResult is the outcome of the hallucination guard for one generated
// response.
type ValidationResult struct {
	HasInvalidIdentifiers bool     `json:"hasInvalidIdentifiers"`
	InvalidIdentifiers    []string `json:"invalidIdentifiers,omitempty"`
	SanitizedText         string   `json:"sanitizedText"`
}

// internal/models/catalog_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected CertList
	}{
		{
			name:     "json array",
			raw:      `{"certifications": ["JASO MA2", "API SN"]}`,
			expected: CertList{"JASO MA2", "API SN"},
		},
		{
			name:     "comma separated string",
			raw:      `{"certifications": "JASO MA2, API SN"}`,
			expected: CertList{"JASO MA2", "API SN"},
		},
		{
			name:     "single label string",
			raw:      `{"certifications": "JASO MB"}`,
			expected: CertList{"JASO MB"},
		},
		{
			name:     "empty string",
			raw:      `{"certifications": ""}`,
			expected: nil,
		},
		{
			name:     "string with blank segments",
			raw:      `{"certifications": "API SP, , "}`,
			expected: CertList{"API SP"},
		},
		{
			name:     "absent field",
			raw:      `{}`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry CatalogEntry
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &entry))
			assert.Equal(t, tt.expected, entry.Certifications)
		})
	}
}

func TestCertList_UnmarshalJSON_RejectsOtherShapes(t *testing.T) {
	var entry CatalogEntry
	err := json.Unmarshal([]byte(`{"certifications": 42}`), &entry)
	assert.Error(t, err)
}

func TestCertList_MarshalsAsArray(t *testing.T) {
	entry := CatalogEntry{Certifications: CertList{"JASO MA2"}}
	data, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"certifications":["JASO MA2"]`)
}

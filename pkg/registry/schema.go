// pkg/registry/schema.go
package registry

// BundleRegistry describes every knowledge bundle the pipeline may load, so
// the lint tool can verify a knowledge directory before deployment.
type BundleRegistry struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"lastUpdated"`
	Bundles     []Bundle `json:"bundles"`
}

type Bundle struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Required    bool                   `json:"required"`
	Schema      map[string]interface{} `json:"schema,omitempty"`
}

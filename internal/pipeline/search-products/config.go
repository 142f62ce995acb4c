// internal/pipeline/search-products/config.go
package searchproducts

import "time"

type Config struct {
	Timeout time.Duration

	// PhaseThreshold is how many candidates end the phased retrieval early.
	PhaseThreshold int
	// ExpansionMaxResults caps the result size at which title expansion runs.
	ExpansionMaxResults int
	// ExpansionMaxTitles caps how many distinct titles get expanded.
	ExpansionMaxTitles int
	// DefaultTaskLimit applies when a directed task has no result limit.
	DefaultTaskLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:             10 * time.Second,
		PhaseThreshold:      5,
		ExpansionMaxResults: 20,
		ExpansionMaxTitles:  3,
		DefaultTaskLimit:    10,
	}
}

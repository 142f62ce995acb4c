// internal/pipeline/assemble-knowledge/config.go
package assembleknowledge

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

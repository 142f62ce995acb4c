// internal/pipeline/compose-prompt/config.go
package composeprompt

type Config struct {
	// MaxProducts caps how many ranked candidates reach the prompt.
	MaxProducts int
}

func LoadConfig() *Config {
	return &Config{
		MaxProducts: 8,
	}
}

// internal/pipeline/validate-response/config.go
package validateresponse

type Config struct {
	// Disclaimer replaces a response that becomes empty after stripping.
	Disclaimer string
}

func LoadConfig() *Config {
	return &Config{
		Disclaimer: "I could not verify the exact part number for that product. " +
			"Please check the product page or ask me to search again.",
	}
}

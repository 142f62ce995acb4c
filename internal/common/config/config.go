// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig              `mapstructure:"app"`
	Server       ServerConfig           `mapstructure:"server"`
	Catalog      CatalogConfig          `mapstructure:"catalog"`
	Knowledge    KnowledgeConfig        `mapstructure:"knowledge"`
	Database     DatabaseConfig         `mapstructure:"database"`
	Stages       map[string]StageConfig `mapstructure:"stages"`
	APIs         APIsConfig             `mapstructure:"apis"`
	Integrations IntegrationConfig      `mapstructure:"integrations"`
	Logging      LoggingConfig          `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address        string `mapstructure:"address"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	HistoryTurns   int    `mapstructure:"history_turns"`   // turns carried to the generator
}

// CatalogConfig describes the product catalog provider and its cache window.
type CatalogConfig struct {
	Source     string `mapstructure:"source"` // store | elasticsearch
	StoreURL   string `mapstructure:"store_url"`
	APIKey     string `mapstructure:"api_key"`
	Index      string `mapstructure:"index"` // elasticsearch index name
	Timeout    int    `mapstructure:"timeout"`     // milliseconds
	MaxRetries int    `mapstructure:"max_retries"` // fixed-backoff retry budget
	CacheTTL   int    `mapstructure:"cache_ttl"`   // seconds
}

// KnowledgeConfig describes the named knowledge store.
type KnowledgeConfig struct {
	Dir      string `mapstructure:"dir"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig      `mapstructure:"postgres"`
	Redis    RedisConfig         `mapstructure:"redis"`
	Elastic  ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// StageConfig holds the core settings applicable to every pipeline stage.
type StageConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Timeout    int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries int  `mapstructure:"max_retries"` // For error handling
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	GenAI struct {
		BaseURL         string `mapstructure:"base_url"`
		APIKey          string `mapstructure:"api_key"`
		ClassifyTimeout int    `mapstructure:"classify_timeout"` // milliseconds
		GenerateTimeout int    `mapstructure:"generate_timeout"` // milliseconds
		MaxRetries      int    `mapstructure:"max_retries"`
	} `mapstructure:"genai"`
}

// IntegrationConfig holds settings for CRM and notification integrations.
type IntegrationConfig struct {
	CRM struct {
		BaseURL    string `mapstructure:"base_url"`
		OAuthToken string `mapstructure:"oauth_token"`
	} `mapstructure:"crm"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
			LeadsTo   string `mapstructure:"leads_to"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Chat          ChatConfig         `mapstructure:"chat"`
	Parser        ParserConfig       `mapstructure:"parser"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Analyzer      AnalyzerConfig     `mapstructure:"analyzer"`
	Triggers      TriggersConfig     `mapstructure:"triggers"`
	Registry      RegistryConfig     `mapstructure:"registry"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ChatConfig holds settings for the conversation orchestration layer.
type ChatConfig struct {
	MaxConversationTurns   int `mapstructure:"max_conversation_turns"`
	ResponseTimeout        int `mapstructure:"response_timeout"` // milliseconds
	CacheTTLMinutes        int `mapstructure:"cache_ttl_minutes"`
	MaxSuggestions         int `mapstructure:"max_suggestions"`
	MemoryMaxAgeMinutes    int `mapstructure:"memory_max_age_minutes"`
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes"`
}

// ParserConfig holds settings for the command parser.
type ParserConfig struct {
	EnableAdvancedNLP                bool    `mapstructure:"enable_advanced_nlp"`
	EnableContextualAnalysis         bool    `mapstructure:"enable_contextual_analysis"`
	EnableAlternativeInterpretations bool    `mapstructure:"enable_alternative_interpretations"`
	MaxAlternatives                  int     `mapstructure:"max_alternatives"`
	ConfidenceThreshold              float64 `mapstructure:"confidence_threshold"`
	EnableParameterInference         bool    `mapstructure:"enable_parameter_inference"`
	EnableTemporalParsing            bool    `mapstructure:"enable_temporal_parsing"`
	ParsingTimeout                   int     `mapstructure:"parsing_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
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

type ElasticsearchConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	Index      string   `mapstructure:"index"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AnalyzerConfig holds settings for the external intent analysis API.
type AnalyzerConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

// TriggersConfig holds settings for workflow execution backends.
type TriggersConfig struct {
	Webhook struct {
		BaseURL    string `mapstructure:"base_url"`
		AuthToken  string `mapstructure:"auth_token"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		MaxRetries int    `mapstructure:"max_retries"`
	} `mapstructure:"webhook"`

	Zeebe struct {
		Enabled                bool   `mapstructure:"enabled"`
		GatewayAddress         string `mapstructure:"gateway_address"`
		UsePlaintextConnection bool   `mapstructure:"use_plaintext"`
		RequestTimeout         int    `mapstructure:"request_timeout"` // milliseconds
	} `mapstructure:"zeebe"`
}

// RegistryConfig points at the intent registry file consumed by tooling.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// NotificationConfig holds settings for escalation notifications.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled           bool   `mapstructure:"enabled"`
		TopicARN          string `mapstructure:"topic_arn"`
		PriorityThreshold string `mapstructure:"priority_threshold"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds settings for the metrics/health HTTP endpoint.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

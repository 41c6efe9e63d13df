// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like CHAT_RESPONSE_TIMEOUT
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	setViperDefaults()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// 1️⃣ LOAD BASE CONFIG
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// 2️⃣ LOAD ENV CONFIG
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	// 3️⃣ EXPAND ENV PLACEHOLDERS
	expandEnvVars(viper.GetViper())

	// 4️⃣ Unmarshal final config
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	// 5️⃣ DIRECT OVERRIDE IF STILL EMPTY
	overrideEmptyConfig(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations
func loadEnvFile() {
	// Try multiple paths (for running from different directories)
	possiblePaths := []string{
		".env",          // Current directory
		"../.env",       // Parent directory
		"../../.env",    // Two levels up (for tests in test/e2e/)
		"../../../.env", // Three levels up
	}

	// Also try to find project root by looking for go.mod
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("✅ Loaded .env from: %s\n", path)
				return
			}
		}
	}

	fmt.Printf("⚠️  .env file not found in any location, using system environment variables\n")
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Walk up directories looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}

// setViperDefaults registers defaults for keys whose zero value is a valid
// setting. Booleans that default to true must be declared here because an
// absent key and an explicit false are indistinguishable after unmarshal.
func setViperDefaults() {
	viper.SetDefault("parser.enable_contextual_analysis", true)
	viper.SetDefault("parser.enable_alternative_interpretations", true)
	viper.SetDefault("parser.enable_parameter_inference", true)
	viper.SetDefault("parser.enable_temporal_parsing", true)
}

// Improved environment variable expansion
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		// Only process string values
		if strVal, ok := val.(string); ok {
			// Check if it contains environment variable pattern
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	// Intent analysis API
	if cfg.Analyzer.BaseURL == "" {
		if val := os.Getenv("ANALYZER_BASE_URL"); val != "" {
			cfg.Analyzer.BaseURL = val
		}
	}
	if cfg.Analyzer.APIKey == "" {
		if val := os.Getenv("ANALYZER_API_KEY"); val != "" {
			cfg.Analyzer.APIKey = val
		}
	}

	// Webhook trigger
	if cfg.Triggers.Webhook.BaseURL == "" {
		if val := os.Getenv("WEBHOOK_BASE_URL"); val != "" {
			cfg.Triggers.Webhook.BaseURL = val
		}
	}
	if cfg.Triggers.Webhook.AuthToken == "" {
		if val := os.Getenv("WEBHOOK_AUTH_TOKEN"); val != "" {
			cfg.Triggers.Webhook.AuthToken = val
		}
	}

	// Database overrides
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile() // Load env file first

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	setViperDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Expand environment variables before unmarshal
	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Chat defaults
	if cfg.Chat.MaxConversationTurns == 0 {
		cfg.Chat.MaxConversationTurns = 50
	}
	if cfg.Chat.ResponseTimeout == 0 {
		cfg.Chat.ResponseTimeout = 30000
	}
	if cfg.Chat.CacheTTLMinutes == 0 {
		cfg.Chat.CacheTTLMinutes = 5
	}
	if cfg.Chat.MaxSuggestions == 0 {
		cfg.Chat.MaxSuggestions = 5
	}
	if cfg.Chat.MemoryMaxAgeMinutes == 0 {
		cfg.Chat.MemoryMaxAgeMinutes = 60
	}
	if cfg.Chat.CleanupIntervalMinutes == 0 {
		cfg.Chat.CleanupIntervalMinutes = 10
	}

	// Parser defaults
	if cfg.Parser.MaxAlternatives == 0 {
		cfg.Parser.MaxAlternatives = 3
	}
	if cfg.Parser.ConfidenceThreshold == 0 {
		cfg.Parser.ConfidenceThreshold = 0.6
	}
	if cfg.Parser.ParsingTimeout == 0 {
		cfg.Parser.ParsingTimeout = 5000
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "workflows"
	}

	// Elasticsearch URL fallback
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	// Analyzer defaults
	if cfg.Analyzer.Timeout == 0 {
		cfg.Analyzer.Timeout = 10000
	}
	if cfg.Analyzer.MaxRetries == 0 {
		cfg.Analyzer.MaxRetries = 3
	}

	// Trigger defaults
	if cfg.Triggers.Webhook.Timeout == 0 {
		cfg.Triggers.Webhook.Timeout = 15000
	}
	if cfg.Triggers.Webhook.MaxRetries == 0 {
		cfg.Triggers.Webhook.MaxRetries = 3
	}
	if cfg.Triggers.Zeebe.RequestTimeout == 0 {
		cfg.Triggers.Zeebe.RequestTimeout = 30000
	}

	// Registry defaults
	if cfg.Registry.Path == "" {
		cfg.Registry.Path = "configs/intent-registry.json"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 8080
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Chat.MaxConversationTurns < 1 {
		return fmt.Errorf("chat.max_conversation_turns must be at least 1")
	}
	if cfg.Chat.ResponseTimeout < 1 {
		return fmt.Errorf("chat.response_timeout must be positive")
	}

	if cfg.Parser.MaxAlternatives < 0 {
		return fmt.Errorf("parser.max_alternatives must not be negative")
	}
	if cfg.Parser.ConfidenceThreshold < 0 || cfg.Parser.ConfidenceThreshold > 1 {
		return fmt.Errorf("parser.confidence_threshold must be within [0, 1]")
	}
	if cfg.Parser.ParsingTimeout < 1 {
		return fmt.Errorf("parser.parsing_timeout must be positive")
	}

	if cfg.Database.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	if cfg.Database.Elasticsearch.Enabled {
		if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required")
		}
	}

	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Triggers.Zeebe.Enabled && cfg.Triggers.Zeebe.GatewayAddress == "" {
		return fmt.Errorf("triggers.zeebe.gateway_address is required")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

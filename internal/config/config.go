package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Zoho      ZohoConfig      `yaml:"zoho" mapstructure:"zoho"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer" mapstructure:"analyzer"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Results   ResultsConfig   `yaml:"results" mapstructure:"results"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ZohoConfig holds Zoho Books OAuth and API settings.
type ZohoConfig struct {
	AccountsURL       string `yaml:"accounts_url" mapstructure:"accounts_url"`
	APIURL            string `yaml:"api_url" mapstructure:"api_url"`
	TokenFile         string `yaml:"token_file" mapstructure:"token_file"`
	OrganizationID    string `yaml:"organization_id" mapstructure:"organization_id"`
	PerPage           int    `yaml:"per_page" mapstructure:"per_page"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// Timeout returns the per-request timeout for Zoho calls.
func (z ZohoConfig) Timeout() time.Duration {
	return time.Duration(z.TimeoutSecs) * time.Second
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// AnalyzerConfig configures the duplicate analyzer calls.
type AnalyzerConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RulesFile   string  `yaml:"rules_file" mapstructure:"rules_file"`
}

// Timeout returns the per-call timeout for analyzer requests.
func (a AnalyzerConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// PipelineConfig configures batching.
type PipelineConfig struct {
	BatchSize         int `yaml:"batch_size" mapstructure:"batch_size"`
	LargeSetThreshold int `yaml:"large_set_threshold" mapstructure:"large_set_threshold"`
}

// ResultsConfig configures where run artifacts are written.
type ResultsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the HTTP control surface.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEDUPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("zoho.accounts_url", "https://accounts.zoho.com")
	v.SetDefault("zoho.api_url", "https://www.zohoapis.com")
	v.SetDefault("zoho.token_file", "zoho_tokens.json")
	v.SetDefault("zoho.organization_id", "")
	v.SetDefault("zoho.per_page", 1000)
	v.SetDefault("zoho.timeout_secs", 30)
	v.SetDefault("zoho.requests_per_minute", 90)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 32000)
	v.SetDefault("analyzer.timeout_secs", 600)
	v.SetDefault("analyzer.temperature", 0.1)
	v.SetDefault("analyzer.max_attempts", 1)
	v.SetDefault("analyzer.rules_file", "")
	v.SetDefault("pipeline.batch_size", 1000)
	v.SetDefault("pipeline.large_set_threshold", 2500)
	v.SetDefault("results.dir", "results")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the config carries what the given command needs.
// Mode is one of "detect", "serve" or "setup".
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Zoho.PerPage <= 0 || c.Zoho.PerPage > 1000 {
		problems = append(problems, fmt.Sprintf("zoho.per_page must be between 1 and 1000, got %d", c.Zoho.PerPage))
	}
	if c.Zoho.TokenFile == "" {
		problems = append(problems, "zoho.token_file is required")
	}

	switch mode {
	case "setup":
	case "detect", "serve":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.Pipeline.BatchSize <= 0 {
			problems = append(problems, fmt.Sprintf("pipeline.batch_size must be > 0, got %d", c.Pipeline.BatchSize))
		}
		if c.Pipeline.LargeSetThreshold < 0 {
			problems = append(problems, "pipeline.large_set_threshold must be >= 0")
		}
		if c.Analyzer.MaxAttempts < 1 {
			problems = append(problems, "analyzer.max_attempts must be >= 1")
		}
		if c.Results.Dir == "" {
			problems = append(problems, "results.dir is required")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

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

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	YouTube   YouTubeConfig   `mapstructure:"youtube"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Export    ExportConfig    `mapstructure:"export"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	DSN    string `mapstructure:"dsn"`    // Connection string
}

// YouTubeConfig holds YouTube Data API settings
type YouTubeConfig struct {
	APIKey string `mapstructure:"api_key"`
	// OAuth access token, used instead of the API key when set
	AccessToken    string        `mapstructure:"access_token"`
	MaxComments    int           `mapstructure:"max_comments"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LLMConfig holds the language-model fallback chain settings
type LLMConfig struct {
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	// Candidate models in priority order, written provider:model
	Models            []string      `mapstructure:"models"`
	MaxPromptComments int           `mapstructure:"max_prompt_comments"`
	MaxCommentWords   int           `mapstructure:"max_comment_words"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// OpenRouterConfig holds OpenRouter-compatible chat API settings
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Referer string `mapstructure:"referer"`
	Title   string `mapstructure:"title"`
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// BatchConfig holds batch orchestration settings
type BatchConfig struct {
	// Pacing is "interval" (fixed sleep) or "bucket" (shared token bucket)
	Pacing         string        `mapstructure:"pacing"`
	PacingInterval time.Duration `mapstructure:"pacing_interval"`
	MaxVideos      int           `mapstructure:"max_videos"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Host                 string   `mapstructure:"host"`
	Port                 int      `mapstructure:"port"`
	MaxRequestsPerMinute int      `mapstructure:"max_requests_per_minute"`
	AllowedOrigins       []string `mapstructure:"allowed_origins"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SchedulerConfig holds scheduled batch settings
type SchedulerConfig struct {
	Cron       string       `mapstructure:"cron"`
	Queries    []string     `mapstructure:"queries"`
	VideoCount int          `mapstructure:"video_count"`
	Analyzer   string       `mapstructure:"analyzer"`
	Feeds      []FeedConfig `mapstructure:"feeds"`
}

// FeedConfig is one channel feed watched by the scheduler
type FeedConfig struct {
	Name      string `mapstructure:"name"`
	ChannelID string `mapstructure:"channel_id"`
	URL       string `mapstructure:"url"` // overrides the channel feed URL
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	YouTubeRequestsPerSecond float64 `mapstructure:"youtube_requests_per_second"`
	LLMRequestsPerMinute     int     `mapstructure:"llm_requests_per_minute"`
}

// ExportConfig holds result export settings
type ExportConfig struct {
	Sheets SheetsConfig `mapstructure:"sheets"`
}

// SheetsConfig holds Google Sheets export settings
type SheetsConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	SheetName          string `mapstructure:"sheet_name"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	ServiceAccountJSON string `mapstructure:"service_account_json"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".comment-insights"))
		}
	}

	v.SetEnvPrefix("INSIGHTS")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("youtube.api_key", "INSIGHTS_YOUTUBE_API_KEY", "YOUTUBE_API_KEY")
	v.BindEnv("youtube.access_token", "INSIGHTS_YOUTUBE_ACCESS_TOKEN")
	v.BindEnv("llm.openrouter.api_key", "INSIGHTS_LLM_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "INSIGHTS_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("database.driver", "INSIGHTS_DATABASE_DRIVER")
	v.BindEnv("database.dsn", "INSIGHTS_DATABASE_DSN")
	v.BindEnv("server.port", "INSIGHTS_SERVER_PORT", "PORT")
	v.BindEnv("server.max_requests_per_minute", "INSIGHTS_SERVER_MAX_REQUESTS_PER_MINUTE", "MAX_REQUESTS_PER_MINUTE")
	v.BindEnv("export.sheets.enabled", "INSIGHTS_EXPORT_SHEETS_ENABLED")
	v.BindEnv("export.sheets.spreadsheet_id", "INSIGHTS_EXPORT_SHEETS_SPREADSHEET_ID")
	v.BindEnv("export.sheets.credentials_file", "INSIGHTS_EXPORT_SHEETS_CREDENTIALS_FILE")
	v.BindEnv("export.sheets.service_account_json", "INSIGHTS_EXPORT_SHEETS_SERVICE_ACCOUNT_JSON")
	v.BindEnv("logging.level", "INSIGHTS_LOGGING_LEVEL")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/insights.db")

	v.SetDefault("youtube.max_comments", 100)
	v.SetDefault("youtube.request_timeout", "30s")

	v.SetDefault("llm.openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.openrouter.referer", "https://openrouter.ai/")
	v.SetDefault("llm.openrouter.title", "YouTube Comment Analyzer")
	v.SetDefault("llm.anthropic.max_tokens", 1024)
	v.SetDefault("llm.anthropic.temperature", 0.3)
	v.SetDefault("llm.models", []string{
		"openrouter:mistralai/mistral-7b-instruct:free",
		"openrouter:meta-llama/llama-3.2-3b-instruct:free",
		"openrouter:google/gemma-2-9b-it:free",
	})
	v.SetDefault("llm.max_prompt_comments", 50)
	v.SetDefault("llm.max_comment_words", 100)
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("batch.pacing", "interval")
	v.SetDefault("batch.pacing_interval", "1s")
	v.SetDefault("batch.max_videos", 50)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.max_requests_per_minute", 60)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("scheduler.cron", "0 */6 * * *") // Every 6 hours
	v.SetDefault("scheduler.video_count", 5)
	v.SetDefault("scheduler.analyzer", "heuristic")

	v.SetDefault("rate_limit.youtube_requests_per_second", 5)
	v.SetDefault("rate_limit.llm_requests_per_minute", 20)

	v.SetDefault("export.sheets.enabled", false)
	v.SetDefault("export.sheets.sheet_name", "Results")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
}

// LLM providers accepted in llm.models
var llmProviders = []string{"openrouter", "anthropic"}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Batch.MaxVideos < 1 || c.Batch.MaxVideos > 50 {
		return fmt.Errorf("batch.max_videos must be between 1 and 50")
	}
	switch c.Batch.Pacing {
	case "", "interval", "bucket":
	default:
		return fmt.Errorf("batch.pacing must be interval or bucket, got %q", c.Batch.Pacing)
	}
	for _, m := range c.LLM.Models {
		provider, model, ok := strings.Cut(m, ":")
		if !ok || model == "" || !contains(llmProviders, provider) {
			return fmt.Errorf("llm.models entry %q must be provider:model with provider one of %s",
				m, strings.Join(llmProviders, ", "))
		}
	}
	if c.Export.Sheets.Enabled && c.Export.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("export.sheets.spreadsheet_id is required when sheets export is enabled")
	}
	return nil
}

// RequireYouTube checks that some YouTube credential is configured
func (c *Config) RequireYouTube() error {
	if c.YouTube.APIKey == "" && c.YouTube.AccessToken == "" {
		return fmt.Errorf("youtube.api_key (or YOUTUBE_API_KEY) is required")
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

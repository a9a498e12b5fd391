// Package config loads runtime configuration from a JSON file and
// TASKWEAVE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings.
type Config struct {
	// Backend selects the model provider: "openai", "anthropic" or "echo".
	Backend string `mapstructure:"backend"`

	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`

	Loop LoopConfig `mapstructure:"loop"`

	// SystemPrompt is the default instruction set for the assistant role.
	SystemPrompt string `mapstructure:"system_prompt"`

	// DataDir holds databases and logs, defaults to ~/.taskweave.
	DataDir string `mapstructure:"data_dir"`

	// MemoryPath is the SQLite file for conversation history. Empty means
	// in-process memory only.
	MemoryPath string `mapstructure:"memory_path"`

	// CompanyDBPath is the SQLite database queried by the sql_query tool.
	CompanyDBPath string `mapstructure:"company_db_path"`

	// KnowledgePath is the SQLite database holding the vector index for
	// the knowledge_search tool.
	KnowledgePath string `mapstructure:"knowledge_path"`

	LogLevel string `mapstructure:"log_level"`
}

// OpenAIConfig holds OpenAI credentials and generation parameters.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

// AnthropicConfig holds Anthropic credentials and generation parameters.
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

// LoopConfig bounds the reasoning loop.
type LoopConfig struct {
	MaxIterations    int           `mapstructure:"max_iterations"`
	MaxRetries       int           `mapstructure:"max_retries"`
	BackendTimeout   time.Duration `mapstructure:"backend_timeout"`
	ToolTimeout      time.Duration `mapstructure:"tool_timeout"`
	MaxParallelTools int           `mapstructure:"max_parallel_tools"`
	HistoryWindow    int           `mapstructure:"history_window"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Backend: "openai",
		OpenAI: OpenAIConfig{
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Anthropic: AnthropicConfig{
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Loop: LoopConfig{
			MaxIterations:    10,
			MaxRetries:       2,
			BackendTimeout:   60 * time.Second,
			ToolTimeout:      30 * time.Second,
			MaxParallelTools: 4,
			HistoryWindow:    50,
		},
		SystemPrompt: "You are a helpful and concise AI assistant.",
		LogLevel:     "info",
	}
}

// Load reads the config file at path, falling back to
// ~/.taskweave/taskweave.json and then to defaults. Environment variables
// prefixed with TASKWEAVE_ override file values.
func Load(path string) (*Config, error) {
	configPath := path
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		configPath = filepath.Join(home, ".taskweave", "taskweave.json")
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("TASKWEAVE")
	v.AutomaticEnv()

	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".taskweave")
	}

	// API keys are commonly supplied through the environment rather than
	// the config file.
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Anthropic.APIKey == "" {
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	return cfg, nil
}

// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for weave configuration.
	DefaultConfigDir = ".weave"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDBFile is the default SQLite database file name.
	DefaultDBFile = "weave.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite collection store.
type SQLiteConfig struct {
	Path string `yaml:"path,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// RequestsPerSecond throttles embedding calls; zero disables the limit.
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// ServerConfig holds configuration for the HTTP API server.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// WriteRatePerSec limits mutating requests; zero disables the limit.
	WriteRatePerSec float64 `yaml:"write_rate_per_sec,omitempty"`
	WriteBurst      int     `yaml:"write_burst,omitempty"`
}

// LoggingConfig selects the logger profile.
type LoggingConfig struct {
	Env string `yaml:"env,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "weave_entities",
		},
		Embedder: EmbedderConfig{
			Provider:          "openai",
			Model:             "text-embedding-3-small",
			RequestsPerSecond: 5,
		},
		Server: ServerConfig{
			Addr:            ":8787",
			WriteRatePerSec: 20,
			WriteBurst:      10,
		},
		Logging: LoggingConfig{
			Env: "development",
		},
	}
}

// Load loads configuration from the .weave directory in the given path.
// Missing files yield the defaults so fresh checkouts work without setup.
func Load(basePath string) (*Config, error) {
	cfg := Default()
	cfg.SQLite.Path = filepath.Join(basePath, DefaultConfigDir, DefaultDBFile)

	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.SQLite.Path != "" && !filepath.IsAbs(cfg.SQLite.Path) {
		cfg.SQLite.Path = filepath.Join(basePath, DefaultConfigDir, cfg.SQLite.Path)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to the .weave directory in the given path.
func Save(basePath string, cfg *Config) error {
	dir := filepath.Join(basePath, DefaultConfigDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	configFile := filepath.Join(dir, DefaultConfigFile)
	if err := os.WriteFile(configFile, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ConfigDir returns the path to the .weave config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a weave config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Embedder.APIKey == "" {
		c.Embedder.APIKey = key
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" && c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = key
	}
	if host := os.Getenv("QDRANT_HOST"); host != "" {
		c.Qdrant.Host = host
	}
	if port := os.Getenv("QDRANT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Qdrant.Port = p
		}
	}
	if path := os.Getenv("WEAVE_DB_PATH"); path != "" {
		c.SQLite.Path = path
	}
	if addr := os.Getenv("WEAVE_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if env := os.Getenv("WEAVE_ENV"); env != "" {
		c.Logging.Env = env
	}
}

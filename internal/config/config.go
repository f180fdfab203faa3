// Package config provides configuration loading and structs for crmsheet.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/crmsheet/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Loader  LoaderConfig  `yaml:"loader"`
	Sink    SinkConfig    `yaml:"sink"`
	Watch   WatchConfig   `yaml:"watch"`
	Sheets  []SheetConfig `yaml:"sheets"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// StorageConfig holds the path of the SQLite record store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoaderConfig selects where record documents are fetched from.
// Kind is one of "store", "dir", "http" or "redis".
type LoaderConfig struct {
	Kind      string           `yaml:"kind"`
	Directory string           `yaml:"directory"`
	HTTP      HTTPLoaderConfig `yaml:"http"`
	Redis     RedisConfig      `yaml:"redis"`
}

// HTTPLoaderConfig points at the CRM REST endpoint serving record files.
type HTTPLoaderConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Token      string        `yaml:"token"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// RedisConfig holds the Redis connection used by the redis loader.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SinkConfig selects where extracted tables are sent.
// Kind is one of "console", "store", "http" or "amqp".
type SinkConfig struct {
	Kind string         `yaml:"kind"`
	HTTP HTTPSinkConfig `yaml:"http"`
	AMQP AMQPConfig     `yaml:"amqp"`
}

// HTTPSinkConfig points at the data platform ingestion endpoint.
type HTTPSinkConfig struct {
	URL        string        `yaml:"url"`
	Token      string        `yaml:"token"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// AMQPConfig holds the RabbitMQ publishing target.
type AMQPConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// SheetConfig names a recognized sheet and the ranges extracted from it.
type SheetConfig struct {
	Name   string   `yaml:"name"`
	Ranges []string `yaml:"ranges"`
}

// SheetRanges converts the sheets list into the sheet → ranges table used by
// the extractor. Returns an error for an unnamed sheet, a duplicate name or a
// malformed range.
func (c *Config) SheetRanges() (map[string][]models.RangeBoundary, error) {
	table := make(map[string][]models.RangeBoundary, len(c.Sheets))
	for _, s := range c.Sheets {
		if s.Name == "" {
			return nil, fmt.Errorf("sheet entry without a name")
		}
		if _, dup := table[s.Name]; dup {
			return nil, fmt.Errorf("sheet %q configured twice", s.Name)
		}
		ranges := make([]models.RangeBoundary, 0, len(s.Ranges))
		for _, r := range s.Ranges {
			b, err := models.ParseRange(r)
			if err != nil {
				return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
			}
			ranges = append(ranges, b)
		}
		table[s.Name] = ranges
	}
	return table, nil
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Loader.Directory != "" {
		cfg.Loader.Directory = expandPath(cfg.Loader.Directory, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type LLMConfig struct {
	Provider string `yaml:"provider"` // "claude" or "openai"
	Model    string `yaml:"model"`
}

type FetchConfig struct {
	ExportURL     string `yaml:"export_url"`       // message export service base URL
	Sources       string `yaml:"sources"`          // "channel:label,channel2" list
	Lookback      string `yaml:"lookback"`         // e.g. "24h"
	MaxPerChannel int    `yaml:"max_per_channel"`  // cap per channel per run
}

type PipelineConfig struct {
	BatchSize int    `yaml:"batch_size"` // messages per LLM call
	Retention string `yaml:"retention"`  // e.g. "7d" or "168h"
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type GeoConfig struct {
	Dataset string `yaml:"dataset"` // country dataset path; empty = embedded
}

type Config struct {
	LLM           LLMConfig      `yaml:"llm"`
	Fetch         FetchConfig    `yaml:"fetch"`
	Pipeline      PipelineConfig `yaml:"pipeline"`
	Server        ServerConfig   `yaml:"server"`
	Geo           GeoConfig      `yaml:"geo,omitempty"`
	MessagingHost string         `yaml:"messaging_host"`
	DBPath        string         `yaml:"db_path,omitempty"`
}

// LLMKey returns the API key for the configured provider. OSINT_LLM_KEY wins;
// the provider-specific conventional variable is the fallback.
func (c *Config) LLMKey() string {
	if key := os.Getenv("OSINT_LLM_KEY"); key != "" {
		return key
	}
	switch c.LLM.Provider {
	case "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

func (c *Config) LookbackDuration() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Lookback)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// RetentionDuration parses the retention window. Supports "Nd" day syntax on
// top of the standard duration forms; defaults to 7 days.
func (c *Config) RetentionDuration() time.Duration {
	r := c.Pipeline.Retention
	if r == "" {
		return 7 * 24 * time.Hour
	}
	if len(r) > 1 && r[len(r)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(r, "%dd", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(r)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

func (c *Config) GetBatchSize() int {
	if c.Pipeline.BatchSize <= 0 {
		return 20
	}
	return c.Pipeline.BatchSize
}

func (c *Config) GetMaxPerChannel() int {
	if c.Fetch.MaxPerChannel <= 0 {
		return 50
	}
	return c.Fetch.MaxPerChannel
}

func (c *Config) GetMessagingHost() string {
	if c.MessagingHost == "" {
		return "t.me"
	}
	return c.MessagingHost
}

func (c *Config) GetDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(xdg.DataHome, "osint", "osint.db")
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "osint", "config.yaml")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return loadDefaults()
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.LLM.Provider {
	case "", "claude", "openai":
	default:
		return fmt.Errorf("llm: unknown provider %q (valid: claude, openai)", cfg.LLM.Provider)
	}
	if cfg.Fetch.ExportURL != "" {
		u, err := url.Parse(cfg.Fetch.ExportURL)
		if err != nil {
			return fmt.Errorf("fetch: invalid export_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("fetch: export_url scheme must be http or https, got %q", u.Scheme)
		}
	}
	return nil
}

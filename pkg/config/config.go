package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	// Engine
	Engine struct {
		BaseURL        string `toml:"base_url"`
		APIKey         string `toml:"api_key"`
		RequestTimeout int    `toml:"request_timeout"` // seconds, per request
	} `toml:"engine"`

	// Scrape
	Scrape struct {
		DefaultURL string `toml:"default_url"`
		MaxPages   int    `toml:"max_pages"`
		DelayMS    int    `toml:"delay_ms"` // per-page delay forwarded to the engine
	} `toml:"scrape"`

	// Console
	Console struct {
		AutoScroll bool   `toml:"auto_scroll"`
		ExportDir  string `toml:"export_dir"`
		LogDir     string `toml:"log_dir"`
	} `toml:"console"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Engine.BaseURL = "http://localhost:8420"
	cfg.Engine.RequestTimeout = 30
	cfg.Scrape.DefaultURL = "https://example.com"
	cfg.Scrape.MaxPages = 10
	cfg.Scrape.DelayMS = 1000
	cfg.Console.AutoScroll = true
	cfg.Console.ExportDir = "exports"
	cfg.Console.LogDir = "tmp"
	return cfg
}

// Path returns the location of the config file.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "chainscrape", "config.toml"), nil
}

// Load reads configuration from ~/.config/chainscrape/config.toml, creating
// the file with defaults when it does not exist. Missing values are merged
// with defaults; CHAINSCRAPE_ENGINE_URL overrides the engine address.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from an explicit path.
func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		applyEnv(cfg)
		if err := SaveTo(cfg, configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func mergeDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Engine.BaseURL == "" {
		cfg.Engine.BaseURL = def.Engine.BaseURL
	}
	if cfg.Engine.RequestTimeout == 0 {
		cfg.Engine.RequestTimeout = def.Engine.RequestTimeout
	}
	if cfg.Scrape.DefaultURL == "" {
		cfg.Scrape.DefaultURL = def.Scrape.DefaultURL
	}
	if cfg.Scrape.MaxPages == 0 {
		cfg.Scrape.MaxPages = def.Scrape.MaxPages
	}
	if cfg.Console.ExportDir == "" {
		cfg.Console.ExportDir = def.Console.ExportDir
	}
	if cfg.Console.LogDir == "" {
		cfg.Console.LogDir = def.Console.LogDir
	}
}

func applyEnv(cfg *Config) {
	if engineURL := os.Getenv("CHAINSCRAPE_ENGINE_URL"); engineURL != "" {
		cfg.Engine.BaseURL = engineURL
	}
}

// Save writes the configuration to the default config path.
func Save(cfg *Config) error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(cfg, configPath)
}

// SaveTo writes the configuration to an explicit path.
func SaveTo(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Set updates one value addressed as "section.key=value" and returns the
// mutated config. Used by the --config-set flag.
func Set(cfg *Config, setStr string) error {
	parts := strings.SplitN(setStr, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid format: expected 'section.key=value'")
	}

	keyPath := strings.Split(parts[0], ".")
	value := parts[1]
	if len(keyPath) != 2 {
		return fmt.Errorf("invalid key format: expected 'section.key'")
	}

	section, key := keyPath[0], keyPath[1]
	switch section {
	case "engine":
		switch key {
		case "base_url":
			cfg.Engine.BaseURL = value
		case "api_key":
			cfg.Engine.APIKey = value
		case "request_timeout":
			return setInt(&cfg.Engine.RequestTimeout, key, value)
		default:
			return fmt.Errorf("unknown engine key: %s", key)
		}
	case "scrape":
		switch key {
		case "default_url":
			cfg.Scrape.DefaultURL = value
		case "max_pages":
			return setInt(&cfg.Scrape.MaxPages, key, value)
		case "delay_ms":
			return setInt(&cfg.Scrape.DelayMS, key, value)
		default:
			return fmt.Errorf("unknown scrape key: %s", key)
		}
	case "console":
		switch key {
		case "auto_scroll":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid auto_scroll value: %s", value)
			}
			cfg.Console.AutoScroll = b
		case "export_dir":
			cfg.Console.ExportDir = value
		case "log_dir":
			cfg.Console.LogDir = value
		default:
			return fmt.Errorf("unknown console key: %s", key)
		}
	default:
		return fmt.Errorf("unknown section: %s", section)
	}

	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s value: %s", key, value)
	}
	*dst = n
	return nil
}

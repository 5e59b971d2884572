package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"serverstatus/internal/iteminfo"
	"serverstatus/internal/models"
)

const (
	defaultTimeoutSeconds = 3
	defaultLinksTimeout   = 10
	defaultAddr           = ":8080"
	maxConcurrency        = 256
)

// Config represents configuration data for the status tools.
type Config struct {
	TimeoutSeconds int             `yaml:"timeout_seconds"`
	Concurrency    int             `yaml:"concurrency"`
	Targets        []models.Target `yaml:"targets"`
	Server         Server          `yaml:"server"`
	Links          Links           `yaml:"links"`
	Strip          Strip           `yaml:"strip"`
	Convert        Convert         `yaml:"convert"`
}

// Server configures the HTTP front end.
type Server struct {
	Addr string `yaml:"addr"`
}

// Links configures the link scraper.
type Links struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Strip configures the item-info stripper.
type Strip struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Field  string `yaml:"field"`
}

// Convert configures the item-info to JSON converter.
type Convert struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		TimeoutSeconds: defaultTimeoutSeconds,
		Concurrency:    1,
		Targets: []models.Target{
			{
				ID:    "login",
				Name:  "Login Server",
				Host:  "18.136.20.146",
				Ports: []int{6900},
			},
		},
		Server: Server{Addr: defaultAddr},
		Links: Links{
			URL:            "https://roggh.com",
			TimeoutSeconds: defaultLinksTimeout,
		},
		Strip: Strip{
			Input:  "iteminfo.txt",
			Output: "iteminfo2.txt",
			Field:  iteminfo.DefaultField,
		},
		Convert: Convert{
			Input:  "iteminfo.txt",
			Output: "iteminfo.json",
		},
	}
}

// Timeout returns the per-endpoint dial timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LinksTimeout returns the request timeout for the link scraper.
func (c Config) LinksTimeout() time.Duration {
	return time.Duration(c.Links.TimeoutSeconds) * time.Second
}

// Load reads configuration from yaml file. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Concurrency > maxConcurrency {
		c.Concurrency = maxConcurrency
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Links.TimeoutSeconds <= 0 {
		c.Links.TimeoutSeconds = defaultLinksTimeout
	}
	if c.Strip.Input == "" {
		c.Strip.Input = defaults.Strip.Input
	}
	if c.Strip.Output == "" {
		c.Strip.Output = defaults.Strip.Output
	}
	if c.Strip.Field == "" {
		c.Strip.Field = defaults.Strip.Field
	}
	if c.Convert.Input == "" {
		c.Convert.Input = defaults.Convert.Input
	}
	if c.Convert.Output == "" {
		c.Convert.Output = defaults.Convert.Output
	}
	for i := range c.Targets {
		t := &c.Targets[i]
		t.Host = strings.TrimSpace(t.Host)
		if t.ID == "" {
			t.ID = t.Host
		}
		if t.Name == "" {
			t.Name = t.ID
		}
	}
}

// Validate checks the target list. Hosts are not resolved here; resolution
// failures surface as Error results at check time.
func (c Config) Validate() error {
	if len(c.Targets) == 0 {
		return errors.New("configuration must define at least one target")
	}
	for i, t := range c.Targets {
		if t.Host == "" {
			return fmt.Errorf("target %d is missing host", i)
		}
		if len(t.Ports) == 0 {
			return fmt.Errorf("target %s must define at least one port", t.ID)
		}
		for _, p := range t.Ports {
			if err := ValidatePort(p); err != nil {
				return fmt.Errorf("target %s: %w", t.ID, err)
			}
		}
	}
	return nil
}

// ValidatePort rejects ports outside 1-65535.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", port)
	}
	return nil
}

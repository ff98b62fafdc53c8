// Package config loads the tool configuration from a YAML file and fills in
// conservative defaults for everything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete tool configuration
type Config struct {
	Fetch   FetchConfig   `yaml:"fetch"`
	Enrich  EnrichConfig  `yaml:"enrich"`
	Logging LoggingConfig `yaml:"logging"`
}

// FetchConfig controls delegation-file downloads
type FetchConfig struct {
	DataDir            string `yaml:"data_dir"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	Attempts           int    `yaml:"attempts"`
	BackoffBaseSeconds int    `yaml:"backoff_base_seconds"`
	BackoffMaxSeconds  int    `yaml:"backoff_max_seconds"`
	UserAgent          string `yaml:"user_agent"`
	KeepDownloaded     bool   `yaml:"keep_downloaded"`
}

// EnrichConfig controls organization lookups
type EnrichConfig struct {
	Workers            int `yaml:"workers"`
	TimeoutSeconds     int `yaml:"timeout_seconds"`
	Attempts           int `yaml:"attempts"`
	BackoffBaseSeconds int `yaml:"backoff_base_seconds"`
	BackoffMaxSeconds  int `yaml:"backoff_max_seconds"`
}

// LoggingConfig contains log file settings
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Fetch: FetchConfig{
			DataDir:            "data",
			TimeoutSeconds:     300,
			Attempts:           3,
			BackoffBaseSeconds: 1,
			BackoffMaxSeconds:  30,
			UserAgent:          "ririnfo/1.0",
		},
		Enrich: EnrichConfig{
			Workers:            16,
			TimeoutSeconds:     15,
			Attempts:           3,
			BackoffBaseSeconds: 1,
			BackoffMaxSeconds:  8,
		},
		Logging: LoggingConfig{
			Enabled:       false,
			Dir:           "logs",
			RetentionDays: 7,
		},
	}
}

// Load loads configuration from a YAML file, layered over the defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.sanitize()
	return cfg, nil
}

// Timeout returns the per-download timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// BackoffBase returns the initial retry delay for downloads.
func (f FetchConfig) BackoffBase() time.Duration {
	return time.Duration(f.BackoffBaseSeconds) * time.Second
}

// BackoffMax returns the retry delay cap for downloads.
func (f FetchConfig) BackoffMax() time.Duration {
	return time.Duration(f.BackoffMaxSeconds) * time.Second
}

// Timeout returns the per-lookup timeout.
func (e EnrichConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// BackoffBase returns the initial retry delay for lookups.
func (e EnrichConfig) BackoffBase() time.Duration {
	return time.Duration(e.BackoffBaseSeconds) * time.Second
}

// BackoffMax returns the retry delay cap for lookups.
func (e EnrichConfig) BackoffMax() time.Duration {
	return time.Duration(e.BackoffMaxSeconds) * time.Second
}

func (c *Config) sanitize() {
	d := Default()
	if c.Fetch.DataDir == "" {
		c.Fetch.DataDir = d.Fetch.DataDir
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = d.Fetch.TimeoutSeconds
	}
	if c.Fetch.Attempts <= 0 {
		c.Fetch.Attempts = d.Fetch.Attempts
	}
	if c.Fetch.BackoffBaseSeconds <= 0 {
		c.Fetch.BackoffBaseSeconds = d.Fetch.BackoffBaseSeconds
	}
	if c.Fetch.BackoffMaxSeconds < c.Fetch.BackoffBaseSeconds {
		c.Fetch.BackoffMaxSeconds = c.Fetch.BackoffBaseSeconds
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = d.Fetch.UserAgent
	}
	if c.Enrich.Workers <= 0 {
		c.Enrich.Workers = d.Enrich.Workers
	}
	if c.Enrich.TimeoutSeconds <= 0 {
		c.Enrich.TimeoutSeconds = d.Enrich.TimeoutSeconds
	}
	if c.Enrich.Attempts <= 0 {
		c.Enrich.Attempts = d.Enrich.Attempts
	}
	if c.Enrich.BackoffBaseSeconds <= 0 {
		c.Enrich.BackoffBaseSeconds = d.Enrich.BackoffBaseSeconds
	}
	if c.Enrich.BackoffMaxSeconds < c.Enrich.BackoffBaseSeconds {
		c.Enrich.BackoffMaxSeconds = c.Enrich.BackoffBaseSeconds
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = d.Logging.RetentionDays
	}
}

// Print displays the effective configuration
func (c *Config) Print() {
	fmt.Printf("Fetch: data_dir=%s timeout=%s attempts=%d\n",
		c.Fetch.DataDir, c.Fetch.Timeout(), c.Fetch.Attempts)
	fmt.Printf("Enrich: workers=%d timeout=%s attempts=%d backoff=%s..%s\n",
		c.Enrich.Workers, c.Enrich.Timeout(), c.Enrich.Attempts,
		c.Enrich.BackoffBase(), c.Enrich.BackoffMax())
	if c.Logging.Enabled {
		fmt.Printf("Logging: dir=%s retention=%dd\n", c.Logging.Dir, c.Logging.RetentionDays)
	}
}

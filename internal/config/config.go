// Package config loads and saves the YAML configuration of the minc2json
// command. Command-line flags override the values read here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-minc/hdf5"
	"github.com/robert-malhotra/go-minc/internal/log"
)

// Config is the on-disk configuration.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// MaxDepth bounds group nesting while building the tree.
	MaxDepth int `yaml:"max_depth"`

	// VerifyChecksums turns on lookup3 verification of version 2 metadata.
	VerifyChecksums bool `yaml:"verify_checksums"`

	// Workers is the number of files converted in parallel.
	Workers int `yaml:"workers"`

	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		MaxDepth:   hdf5.DefaultMaxDepth,
		Workers:    runtime.NumCPU(),
		ListenAddr: "localhost:8089",
		DataDir:    ".",
	}
}

// LoadConfig reads configPath over the defaults. A missing file yields the
// defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to configPath, creating its directory.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

// HDF5Options returns the decoder options the configuration selects.
func (c *Config) HDF5Options() []hdf5.Option {
	return []hdf5.Option{
		hdf5.WithMaxDepth(c.MaxDepth),
		hdf5.WithChecksumVerification(c.VerifyChecksums),
	}
}

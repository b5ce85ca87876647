package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mmendiet/anyeval"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by every command.
//
// It is read from a YAML file and then overridden by any
// flags given on the command line.
type Config struct {
	GymURL    string `yaml:"gym_url"`
	EnvID     string `yaml:"env_id"`
	ModelPath string `yaml:"model_path"`

	// Precision is "float32" or "float64" and must match the
	// saved model.
	Precision string `yaml:"precision"`

	NumEval     int           `yaml:"num_eval"`
	Workers     int           `yaml:"workers"`
	Epsilon     float64       `yaml:"epsilon"`
	MaxSteps    int           `yaml:"max_steps"`
	StartDelay  time.Duration `yaml:"start_delay"`
	JoinTimeout time.Duration `yaml:"join_timeout"`
	Render      bool          `yaml:"render"`

	// HistoryDB, if set, is a SQLite file which every
	// evaluation result is appended to.
	HistoryDB string `yaml:"history_db"`

	// OTel reports results as OpenTelemetry gauges too.
	OTel bool `yaml:"otel"`

	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the configuration used when no
// file is given.
func DefaultConfig() *Config {
	return &Config{
		GymURL:      "http://localhost:5000",
		Precision:   "float32",
		NumEval:     50,
		Workers:     anyeval.DefaultWorkers(8),
		Epsilon:     anyeval.DefaultEpsilon,
		MaxSteps:    0,
		StartDelay:  anyeval.DefaultStartDelay,
		JoinTimeout: anyeval.DefaultJoinTimeout,
	}
}

// LoadConfig reads a YAML config file on top of the
// defaults.
// An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings needed to run episodes.
func (c *Config) Validate() error {
	if c.GymURL == "" {
		return errors.New("gym_url is required")
	}
	if c.EnvID == "" {
		return errors.New("env_id is required")
	}
	if c.ModelPath == "" {
		return errors.New("model_path is required")
	}
	if c.Precision != "float32" && c.Precision != "float64" {
		return fmt.Errorf("unsupported precision: %q", c.Precision)
	}
	if c.NumEval < 0 {
		return errors.New("num_eval must not be negative")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.Epsilon > 1 {
		return errors.New("epsilon must be at most 1")
	}
	if c.MaxSteps < 0 {
		return errors.New("max_steps must not be negative")
	}
	return nil
}

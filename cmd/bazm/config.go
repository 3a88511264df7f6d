package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/bazm/internal/api"
	"github.com/samcharles93/bazm/internal/generator"
)

// Config represents the bazm configuration file (~/.config/bazm/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	Model string `yaml:"model"`
	Vocab string `yaml:"vocab"`
	Seed  *int64 `yaml:"seed"`

	// Form and API defaults
	NumLines     *int     `yaml:"num_lines"`
	WordsPerLine *int     `yaml:"words_per_line"`
	Temperature  *float64 `yaml:"temperature"`

	Limits *generator.Limits `yaml:"limits"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
	Metrics       *bool  `yaml:"metrics"`

	found bool
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "bazm", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config;
// a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.found = true
	return c, nil
}

// applyCommonConfig applies config file defaults to the shared flag
// variables when the corresponding flag was not explicitly set.
func applyCommonConfig(c *cli.Command, cfg Config) {
	if cfg.Model != "" && !c.IsSet("model") {
		modelPath = cfg.Model
	}
	if cfg.Vocab != "" && !c.IsSet("vocab") {
		vocabPath = cfg.Vocab
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		seed = *cfg.Seed
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, enableMetrics *bool) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.Metrics != nil && !c.IsSet("metrics") {
		*enableMetrics = *cfg.Metrics
	}
}

// applyGenerateConfig applies config file defaults to generate command
// variables.
func applyGenerateConfig(c *cli.Command, cfg Config, lines, words *int64, temp *float64) {
	if cfg.NumLines != nil && !c.IsSet("lines") {
		*lines = int64(*cfg.NumLines)
	}
	if cfg.WordsPerLine != nil && !c.IsSet("words") {
		*words = int64(*cfg.WordsPerLine)
	}
	if cfg.Temperature != nil && !c.IsSet("temperature") {
		*temp = *cfg.Temperature
	}
}

// limits returns the configured bounds, falling back to the defaults for
// fields left at zero.
func (c Config) limits() generator.Limits {
	l := generator.DefaultLimits()
	if c.Limits == nil {
		return l
	}
	if c.Limits.MaxLines > 0 {
		l.MaxLines = c.Limits.MaxLines
	}
	if c.Limits.MaxWordsPerLine > 0 {
		l.MaxWordsPerLine = c.Limits.MaxWordsPerLine
	}
	if c.Limits.MinTemperature > 0 {
		l.MinTemperature = c.Limits.MinTemperature
	}
	if c.Limits.MaxTemperature > 0 {
		l.MaxTemperature = c.Limits.MaxTemperature
	}
	return l
}

// defaults returns the initial form values.
func (c Config) defaults() generator.Request {
	d := api.DefaultRequest()
	if c.NumLines != nil {
		d.NumLines = *c.NumLines
	}
	if c.WordsPerLine != nil {
		d.WordsPerLine = *c.WordsPerLine
	}
	if c.Temperature != nil {
		d.Temperature = *c.Temperature
	}
	return d
}

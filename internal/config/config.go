// Package config loads the decision policy and engine settings.
//
// Precedence, lowest first: defaults, YAML file, .env file, process
// environment. Command-line flags are applied on top by the cli package.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/headline-goat/abverdict/internal/stats"
)

const (
	EnvConfidenceThreshold = "ABV_CONFIDENCE_THRESHOLD"
	EnvMinSampleSize       = "ABV_MIN_SAMPLE_SIZE"
	EnvMinDetectableEffect = "ABV_MIN_DETECTABLE_EFFECT"
	EnvSeed                = "ABV_SEED"
	EnvSampler             = "ABV_SAMPLER"
	EnvLogLevel            = "ABV_LOG_LEVEL"
)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

type Config struct {
	Statistics stats.StatisticalConfig `yaml:"statistics"`
	Seed       *uint64                 `yaml:"seed"`
	Sampler    string                  `yaml:"sampler"`
	LogLevel   string                  `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Statistics: stats.DefaultConfig(),
		Sampler:    stats.SamplerMarsaglia.String(),
		LogLevel:   "info",
	}
}

// Load reads the optional YAML file at path and the optional .env file at
// envFile, then applies ABV_* environment variables. Empty paths are skipped;
// a missing .env file is not an error.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvConfidenceThreshold); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvConfidenceThreshold, err)
		}
		c.Statistics.ConfidenceThreshold = f
	}
	if v := os.Getenv(EnvMinSampleSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMinSampleSize, err)
		}
		c.Statistics.MinimumSampleSize = n
	}
	if v := os.Getenv(EnvMinDetectableEffect); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMinDetectableEffect, err)
		}
		c.Statistics.MinimumDetectableEffect = f
	}
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		c.Seed = &seed
	}
	c.Sampler = getEnvOrDefault(EnvSampler, c.Sampler)
	c.LogLevel = getEnvOrDefault(EnvLogLevel, c.LogLevel)
	return nil
}

func (c Config) Validate() error {
	if err := c.Statistics.Validate(); err != nil {
		return err
	}
	if _, err := stats.ParseSampler(c.Sampler); err != nil {
		return err
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// CalculatorOptions translates the engine settings for stats.NewCalculator.
func (c Config) CalculatorOptions() ([]stats.Option, error) {
	sampler, err := stats.ParseSampler(c.Sampler)
	if err != nil {
		return nil, err
	}
	opts := []stats.Option{stats.WithSampler(sampler)}
	if c.Seed != nil {
		opts = append(opts, stats.WithSeed(*c.Seed))
	}
	return opts, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/screener/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'screener config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateScoring() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"scoring.plot_weight", c.Scoring.PlotWeight},
		{"scoring.keyword_weight", c.Scoring.KeywordWeight},
		{"scoring.title_weight", c.Scoring.TitleWeight},
	}
	sum := 0.0
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1", w.name)
		}
		sum += w.value
	}
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1, got %.3f", sum)
	}
	if c.Scoring.MatchThreshold < 0 || c.Scoring.MatchThreshold > 1 {
		return errors.New("scoring.match_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.MaxAttempts < 1 {
		return errors.New("queue.max_attempts must be at least 1")
	}
	if c.Queue.BackoffCapSeconds < c.Queue.BackoffBaseSeconds {
		return errors.New("queue.backoff_cap_seconds must not be below queue.backoff_base_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}

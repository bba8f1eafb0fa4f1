// Package config provides configuration management for cutterd using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultQueueCapacity   = 36
	defaultQuality         = 23
	defaultReencodeTimeout = 5 * time.Minute
)

// Config holds all configuration for the application.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Render   RenderConfig   `mapstructure:"render"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// PipelineConfig holds the four-worker cutting pipeline's tunables.
type PipelineConfig struct {
	// QueueCapacity is the soft cap each inter-worker Queue blocks producers
	// against (spec default 36).
	QueueCapacity int `mapstructure:"queue_capacity"`
	// Quality is the default re-encode quality passed to render() when the
	// caller's Arguments don't override -q/--quality.
	Quality int `mapstructure:"quality"`
}

// RenderConfig holds output-side rendering configuration.
type RenderConfig struct {
	// Container selects the output muxer adapter. Only "mpegts" is built in.
	Container string `mapstructure:"container"`
	// Reencode enables the optional forced-keyframe re-encode path for
	// B-frame-straddled GOPs instead of the default DISCARD-only path.
	Reencode bool `mapstructure:"reencode"`
	// ReencodeTimeout bounds each shelled-out re-encode of a single GOP.
	ReencodeTimeout time.Duration `mapstructure:"reencode_timeout"`
	// FFmpegPath overrides auto-detection of the ffmpeg binary used by the
	// re-encode path.
	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with CUTTERD_ and use underscores for
// nesting. Example: CUTTERD_PIPELINE_QUALITY=18.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/cutterd")
		v.AddConfigPath("$HOME/.cutterd")
	}

	v.SetEnvPrefix("CUTTERD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults
// are in place.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("pipeline.queue_capacity", defaultQueueCapacity)
	v.SetDefault("pipeline.quality", defaultQuality)

	v.SetDefault("render.container", "mpegts")
	v.SetDefault("render.reencode", false)
	v.SetDefault("render.reencode_timeout", defaultReencodeTimeout)
	v.SetDefault("render.ffmpeg_path", "")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Pipeline.QueueCapacity < 1 {
		return fmt.Errorf("pipeline.queue_capacity must be at least 1")
	}
	if c.Pipeline.Quality < 0 {
		return fmt.Errorf("pipeline.quality must be non-negative")
	}

	if c.Render.Container != "mpegts" {
		return fmt.Errorf("render.container must be: mpegts")
	}

	return nil
}

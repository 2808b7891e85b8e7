// Package config defines the application configuration and its loader.
// Configuration merges, in order of precedence: command-line flags,
// IDVERIFY_* environment variables, a config file, and defaults.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete configuration for the idverify
// application.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir" json:"data_dir"`

	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine" json:"engine"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
	Email    EmailConfig    `mapstructure:"email" yaml:"email" json:"email"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
}

// EngineConfig contains OCR engine settings.
type EngineConfig struct {
	ModelPath   string `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	DictPath    string `mapstructure:"dict_path" yaml:"dict_path" json:"dict_path"`
	ImageHeight int    `mapstructure:"image_height" yaml:"image_height" json:"image_height"`
	NumThreads  int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// PipelineConfig contains verification pipeline settings.
type PipelineConfig struct {
	ExtractionTimeout time.Duration `mapstructure:"extraction_timeout" yaml:"extraction_timeout" json:"extraction_timeout"`
	MaxImageSide      int           `mapstructure:"max_image_side" yaml:"max_image_side" json:"max_image_side"`
	QueueWorkers      int           `mapstructure:"queue_workers" yaml:"queue_workers" json:"queue_workers"`
	QueueDepth        int           `mapstructure:"queue_depth" yaml:"queue_depth" json:"queue_depth"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// EmailConfig contains institutional address synthesis settings.
type EmailConfig struct {
	Domain string `mapstructure:"domain" yaml:"domain" json:"domain"`
}

// OutputConfig contains CLI output settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"` // json, yaml or text
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Engine: EngineConfig{
			ImageHeight: 48,
		},
		Pipeline: PipelineConfig{
			ExtractionTimeout: 10 * time.Second,
			MaxImageSide:      2000,
			QueueWorkers:      2,
			QueueDepth:        64,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			MaxUploadMB:     10,
			ShutdownTimeout: 10,
		},
		Email: EmailConfig{
			Domain: "college.edu",
		},
		Output: OutputConfig{
			Format: "json",
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}
	if c.Pipeline.ExtractionTimeout <= 0 {
		return fmt.Errorf("extraction timeout must be positive, got %v", c.Pipeline.ExtractionTimeout)
	}
	if c.Pipeline.MaxImageSide <= 0 {
		return fmt.Errorf("max image side must be positive, got %d", c.Pipeline.MaxImageSide)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Output.Format {
	case "json", "yaml", "text":
	default:
		return fmt.Errorf("invalid output format: %q", c.Output.Format)
	}
	return nil
}

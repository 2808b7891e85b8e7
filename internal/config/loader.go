package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without
	// extension).
	ConfigFileName = "idverify"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "IDVERIFY"
)

// Loader handles loading configuration from files, environment variables
// and bound flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader on the global viper
// instance so cobra flag bindings are honored.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load merges all configuration sources and returns the result.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetConfigFile points the loader at an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	if path != "" {
		l.v.SetConfigFile(path)
	}
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "idverify"))
	}
	l.v.AddConfigPath("/etc/idverify")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	def := Default()
	l.v.SetDefault("log_level", def.LogLevel)
	l.v.SetDefault("verbose", def.Verbose)
	l.v.SetDefault("data_dir", def.DataDir)
	l.v.SetDefault("engine.model_path", def.Engine.ModelPath)
	l.v.SetDefault("engine.dict_path", def.Engine.DictPath)
	l.v.SetDefault("engine.image_height", def.Engine.ImageHeight)
	l.v.SetDefault("engine.num_threads", def.Engine.NumThreads)
	l.v.SetDefault("pipeline.extraction_timeout", def.Pipeline.ExtractionTimeout)
	l.v.SetDefault("pipeline.max_image_side", def.Pipeline.MaxImageSide)
	l.v.SetDefault("pipeline.queue_workers", def.Pipeline.QueueWorkers)
	l.v.SetDefault("pipeline.queue_depth", def.Pipeline.QueueDepth)
	l.v.SetDefault("server.host", def.Server.Host)
	l.v.SetDefault("server.port", def.Server.Port)
	l.v.SetDefault("server.max_upload_mb", def.Server.MaxUploadMB)
	l.v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
	l.v.SetDefault("email.domain", def.Email.Domain)
	l.v.SetDefault("output.format", def.Output.Format)
	l.v.SetDefault("output.file", def.Output.File)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"zero extraction timeout", func(c *Config) { c.Pipeline.ExtractionTimeout = 0 }, true},
		{"zero max image side", func(c *Config) { c.Pipeline.MaxImageSide = 0 }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad output format", func(c *Config) { c.Output.Format = "xml" }, true},
		{"uppercase log level ok", func(c *Config) { c.LogLevel = "DEBUG" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoaderDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Pipeline.ExtractionTimeout)
	assert.Equal(t, 2000, cfg.Pipeline.MaxImageSide)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "college.edu", cfg.Email.Domain)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoaderReadsConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "idverify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: warn
server:
  port: 9090
pipeline:
  extraction_timeout: 5s
`), 0o600))

	loader := NewLoader()
	loader.SetConfigFile(path)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.ExtractionTimeout)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2000, cfg.Pipeline.MaxImageSide)
}

func TestLoaderEnvironmentOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("IDVERIFY_LOG_LEVEL", "error")
	t.Setenv("IDVERIFY_SERVER_PORT", "7070")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoaderVerbosePromotesLogLevel(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("IDVERIFY_VERBOSE", "true")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoaderRejectsInvalidConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("IDVERIFY_LOG_LEVEL", "shouting")

	_, err := NewLoader().Load()
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waypost.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	// No file: defaults apply.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err, "an explicitly named missing file is an error")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "echo", cfg.Server.Adapter)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"app/domains"}, cfg.Discovery.Roots)
	assert.Empty(t, cfg.Plugins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Empty(t, cfg.Path())
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `server:
  adapter: gin
  host: 127.0.0.1
  port: 9000
  shutdown_timeout: 5s

discovery:
  roots:
    - app/domains
    - extra/handlers

plugins:
  - events
  - realtime

plugin_options:
  realtime:
    path: /live

logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gin", cfg.Server.Adapter)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"app/domains", "extra/handlers"}, cfg.Discovery.Roots)
	assert.Equal(t, []string{"events", "realtime"}, cfg.Plugins)
	assert.Equal(t, "/live", cfg.PluginOptions["realtime"]["path"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, path, cfg.Path())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"unknown adapter", func(c *Config) { c.Server.Adapter = "express" }, "adapter"},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, "level"},
		{"unknown format", func(c *Config) { c.Logging.Format = "xml" }, "format"},
		{"duplicate plugin", func(c *Config) { c.Plugins = []string{"events", "events"} }, "twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:  ServerConfig{Adapter: "echo", Port: 8080},
				Logging: LoggingConfig{Level: "info", Format: "text"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := writeConfig(t, "server:\n  adapter: express\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "express")
}

func TestRuntimeMapping(t *testing.T) {
	path := writeConfig(t, `server:
  host: 0.0.0.0
  port: 9000
  shutdown_timeout: 10s
plugins:
  - events
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	logger := cfg.Logger()
	rt := cfg.Runtime(logger)
	assert.Equal(t, "0.0.0.0", rt.Host)
	assert.Equal(t, 9000, rt.Port)
	assert.Equal(t, []string{"app/domains"}, rt.Roots)
	assert.Equal(t, []string{"events"}, rt.Plugins)
	assert.Equal(t, 10*time.Second, rt.ShutdownTimeout)
	assert.Same(t, logger, rt.Logger)
}

func TestLoggerLevels(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug", Format: "json"}}
	assert.NotNil(t, cfg.Logger())
	cfg.Logging = LoggingConfig{Level: "warn", Format: "text"}
	assert.NotNil(t, cfg.Logger())
}

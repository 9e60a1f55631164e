// Package config loads waypost configuration from waypost.yml and
// WAYPOST_* environment variables, flags taking precedence in the CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/waypost-dev/waypost/pkg/waypost"
)

// DefaultFile is the config file name searched in the working directory.
const DefaultFile = "waypost.yml"

// ServerConfig configures the listen address and adapter.
type ServerConfig struct {
	Adapter         string        `mapstructure:"adapter"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DiscoveryConfig configures the walker roots, processed in order.
type DiscoveryConfig struct {
	Roots []string `mapstructure:"roots"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the full waypost configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`

	// Plugins is the enabled-plugin list in enable order. An absent entry
	// means disabled.
	Plugins []string `mapstructure:"plugins"`

	// PluginOptions carries per-plugin settings keyed by plugin name.
	PluginOptions map[string]map[string]any `mapstructure:"plugin_options"`

	Logging LoggingConfig `mapstructure:"logging"`

	path string
}

var adapters = map[string]bool{"echo": true, "gin": true, "fiber": true}

// Load reads configuration from the given file, or from waypost.yml in the
// working directory when file is empty. A missing default file is not an
// error; defaults apply.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("waypost")
		v.AddConfigPath(".")
	}

	v.SetDefault("server.adapter", "echo")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("discovery.roots", []string{"app/domains"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetEnvPrefix("WAYPOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			if file != "" {
				if _, statErr := os.Stat(file); statErr != nil {
					return nil, fmt.Errorf("config file %s: %w", file, statErr)
				}
			}
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.path = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if !adapters[c.Server.Adapter] {
		return fmt.Errorf("unknown server adapter %q (want echo, gin or fiber)", c.Server.Adapter)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Logging.Format)
	}
	seen := make(map[string]bool)
	for _, p := range c.Plugins {
		if seen[p] {
			return fmt.Errorf("plugin %q enabled twice", p)
		}
		seen[p] = true
	}
	return nil
}

// Path returns the file the configuration was loaded from, or empty when
// defaults applied.
func (c *Config) Path() string {
	return c.path
}

// Logger builds the slog logger selected by the logging section.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	switch c.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// Runtime maps the file configuration onto the runtime waypost.Config.
func (c *Config) Runtime(logger *slog.Logger) waypost.Config {
	return waypost.Config{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		Roots:           c.Discovery.Roots,
		Plugins:         c.Plugins,
		PluginOptions:   c.PluginOptions,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		Logger:          logger,
	}
}

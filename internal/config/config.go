package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultModulesPath is where additional manifests are looked up.
	DefaultModulesPath = "modules"
	// DefaultListen is the address the serve command binds to.
	DefaultListen = "127.0.0.1:8080"
	// EnvPrefix is the prefix of all environment overrides.
	EnvPrefix = "PROCBRIDGE"
)

// Config holds all configuration for procbridge.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Graph   GraphConfig   `mapstructure:"graph"`
	Modules ModulesConfig `mapstructure:"modules"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Server  ServerConfig  `mapstructure:"server"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GraphConfig selects the snapshot the reference engine serves. At most one
// source may be set; with none the graph is empty.
type GraphConfig struct {
	YAML   string `mapstructure:"yaml"`
	SQLite string `mapstructure:"sqlite"`
}

// ModulesConfig holds manifest discovery settings.
type ModulesConfig struct {
	// Path is a directory searched for additional .hcl manifests. A missing
	// directory is not an error.
	Path string `mapstructure:"path"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	// File, when set, receives the metrics in text exposition format after
	// every command.
	File string `mapstructure:"file"`
}

// ServerConfig holds settings of the serve command.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"graph":        "graph.yaml",
	"sqlite":       "graph.sqlite",
	"modules-path": "modules.path",
	"metrics-file": "metrics.file",
	"listen":       "server.listen",
}

// Load reads configuration. file may be empty, in which case procbridge.yaml
// is looked up in the working directory and its absence is fine. flags may be
// nil; flags the user did not set do not override other sources.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("graph.yaml", "")
	v.SetDefault("graph.sqlite", "")
	v.SetDefault("modules.path", DefaultModulesPath)
	v.SetDefault("metrics.file", "")
	v.SetDefault("server.listen", DefaultListen)

	// Config file
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("procbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment variables, e.g. PROCBRIDGE_LOG_LEVEL
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag --%s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that configuration fields are set and consistent.
func (c *Config) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'; got %q", c.Log.Format)
	}
	if c.Graph.YAML != "" && c.Graph.SQLite != "" {
		return fmt.Errorf("graph.yaml and graph.sqlite are mutually exclusive")
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	return nil
}

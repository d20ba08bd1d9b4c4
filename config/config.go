// Package config loads the YAML configuration of feedgen serve.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/robertmeta/feedgen/feed"
	"github.com/robertmeta/feedgen/logger"
	"github.com/robertmeta/feedgen/store"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidAddress = errors.New("invalid server address")
	ErrUnknownDriver  = errors.New("unknown database driver")
	ErrNoRoutes       = errors.New("no feed routes configured")
	ErrInvalidRoute   = errors.New("invalid feed route")
)

// Config is the top-level configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      logger.Config  `yaml:"log"`
	Routes   []RouteConfig  `yaml:"routes"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address string `yaml:"address"`
	// Domain makes relative links absolute. Empty uses the request Host.
	Domain   string `yaml:"domain"`
	Encoding string `yaml:"encoding"`
	// Timeouts in seconds.
	ReadTimeout     int `yaml:"read_timeout"`
	WriteTimeout    int `yaml:"write_timeout"`
	ShutdownTimeout int `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects the store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RouteConfig maps a URL path to a stored channel.
type RouteConfig struct {
	// Path is a net/http pattern path such as /feeds/{slug}/rss.
	Path string `yaml:"path"`
	// Channel is the channel slug. When empty, Path must contain {slug}.
	Channel  string `yaml:"channel"`
	Format   string `yaml:"format"`
	Limit    int    `yaml:"limit"`
	Since    string `yaml:"since"`
	Category string `yaml:"category"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			Encoding:        feed.DefaultEncoding,
			ReadTimeout:     10,
			WriteTimeout:    30,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver: store.DriverSQLite,
			DSN:    "feedgen.db",
		},
		Log: logger.Config{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
// ${VAR} references are expanded from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	expanded := os.Expand(string(data), os.Getenv)

	cfg := New()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	for i := range cfg.Routes {
		if cfg.Routes[i].Format == "" {
			cfg.Routes[i].Format = feed.DefaultFormat.String()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, c.Server.Address)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}

	switch c.Database.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDriver, c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	if len(c.Routes) == 0 {
		return ErrNoRoutes
	}
	seen := make(map[string]bool, len(c.Routes))
	for i, r := range c.Routes {
		if err := r.validate(); err != nil {
			return fmt.Errorf("%w: routes[%d]: %v", ErrInvalidRoute, i, err)
		}
		if seen[r.Path] {
			return fmt.Errorf("%w: routes[%d]: duplicate path %s", ErrInvalidRoute, i, r.Path)
		}
		seen[r.Path] = true
	}

	return nil
}

func (r RouteConfig) validate() error {
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("path must start with /: %q", r.Path)
	}
	if r.Channel == "" && !strings.Contains(r.Path, "{slug}") {
		return fmt.Errorf("path %s needs a channel or a {slug} segment", r.Path)
	}
	if _, err := feed.ParseFormat(r.Format); err != nil {
		return err
	}
	if r.Limit < 0 {
		return fmt.Errorf("limit must not be negative: %d", r.Limit)
	}
	if r.Since != "" {
		if _, err := store.ParseDuration(r.Since); err != nil {
			return err
		}
	}
	return nil
}

// FeedFormat returns the parsed format of the route.
func (r RouteConfig) FeedFormat() feed.Format {
	f, err := feed.ParseFormat(r.Format)
	if err != nil {
		return feed.DefaultFormat
	}
	return f
}

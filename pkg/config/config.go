// Package config loads lineageview settings from a TOML file.
//
// Settings are layered: built-in defaults, then the config file, then
// command-line flags (applied by the caller). The file lives at
// $XDG_CONFIG_HOME/lineageview/config.toml (~/.config/... when unset):
//
//	[layout]
//	direction = "LR"
//	rank_sep = 160.0
//
//	[view]
//	width = 1440.0
//	height = 900.0
//
//	[icons.table]
//	kafka = "icon-kafka"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//	data = "./lineage"
//	watch = true
//
//	[remote]
//	ttl = "1h"
//	timeout = "10s"
//	headers = { Authorization = "Bearer ..." }
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	lverrors "github.com/matzehuels/lineageview/pkg/errors"
	"github.com/matzehuels/lineageview/pkg/icons"
	"github.com/matzehuels/lineageview/pkg/layout"
	"github.com/matzehuels/lineageview/pkg/scene"
)

const appName = "lineageview"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// DefaultAddr is the default listen address of the server.
const DefaultAddr = ":8080"

// Config is the complete file configuration.
type Config struct {
	Layout layout.Config `toml:"layout"`
	View   ViewConfig    `toml:"view"`
	Icons  IconsConfig   `toml:"icons"`
	Cache  CacheConfig   `toml:"cache"`
	Server ServerConfig  `toml:"server"`
	Remote RemoteConfig  `toml:"remote"`
}

// ViewConfig sets the container the scene is drawn into.
type ViewConfig struct {
	Width  float64      `toml:"width"`
	Height float64      `toml:"height"`
	Scale  float64      `toml:"scale"` // initial zoom, 0 means 0.8
	Fit    bool         `toml:"fit"`   // fit the scene into the viewport instead
	Margin scene.Margin `toml:"margin"`
}

// IconsConfig overrides source → icon class mappings per resource type.
type IconsConfig struct {
	Table     map[string]string `toml:"table"`
	Dashboard map[string]string `toml:"dashboard"`
	Feature   map[string]string `toml:"feature"`
	User      map[string]string `toml:"user"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend  string        `toml:"backend"`
	RedisURL string        `toml:"redis_url"`
	Prefix   string        `toml:"prefix"`
	TTL      time.Duration `toml:"ttl"`
}

// ServerConfig configures `lineageview serve`.
type ServerConfig struct {
	Addr  string `toml:"addr"`
	Data  string `toml:"data"`
	Watch bool   `toml:"watch"`
}

// RemoteConfig controls fetching datasets from http(s) URLs.
type RemoteConfig struct {
	Headers map[string]string `toml:"headers"`
	TTL     time.Duration     `toml:"ttl"`
	Timeout time.Duration     `toml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: layout.DefaultConfig(),
		Cache:  CacheConfig{Backend: CacheFile, TTL: 7 * 24 * time.Hour},
		Server: ServerConfig{Addr: DefaultAddr},
		Remote: RemoteConfig{TTL: time.Hour, Timeout: 30 * time.Second},
	}
}

// DefaultPath returns the config file location following the XDG layout.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file at path over the defaults. An empty path means
// [DefaultPath], which may be absent; an explicitly named file must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return Config{}, lverrors.Wrap(lverrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, lverrors.Wrap(lverrors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, lverrors.New(lverrors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Layout.WithDefaults().Validate(); err != nil {
		return lverrors.Wrap(lverrors.ErrCodeInvalidConfig, err, "[layout]")
	}
	if c.View.Width < 0 || c.View.Height < 0 {
		return lverrors.New(lverrors.ErrCodeInvalidConfig, "[view] width and height must not be negative")
	}
	if c.View.Scale != 0 && (c.View.Scale < scene.MinScale || c.View.Scale > scene.MaxScale) {
		return lverrors.New(lverrors.ErrCodeInvalidConfig, "[view] scale must be between %g and %g", scene.MinScale, scene.MaxScale)
	}
	backends := []string{CacheFile, CacheRedis, CacheNone}
	if !slices.Contains(backends, c.Cache.Backend) {
		return lverrors.New(lverrors.ErrCodeInvalidConfig, "[cache] backend %q (must be one of: %s)", c.Cache.Backend, strings.Join(backends, ", "))
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return lverrors.New(lverrors.ErrCodeInvalidConfig, "[cache] redis_url is required for the redis backend")
	}
	if c.Cache.TTL < 0 {
		return lverrors.New(lverrors.ErrCodeInvalidConfig, "[cache] ttl must not be negative")
	}
	if c.Remote.TTL < 0 || c.Remote.Timeout < 0 {
		return lverrors.New(lverrors.ErrCodeInvalidConfig, "[remote] ttl and timeout must not be negative")
	}
	return nil
}

// IconOverrides returns the configured icon classes keyed by resource type.
// Types without overrides are omitted.
func (c Config) IconOverrides() map[icons.ResourceType]map[string]string {
	out := make(map[icons.ResourceType]map[string]string)
	for rt, m := range map[icons.ResourceType]map[string]string{
		icons.Table:     c.Icons.Table,
		icons.Dashboard: c.Icons.Dashboard,
		icons.Feature:   c.Icons.Feature,
		icons.User:      c.Icons.User,
	} {
		if len(m) > 0 {
			out[rt] = m
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// IconResolver builds a resolver from the icon overrides.
func (c Config) IconResolver() *icons.Resolver {
	return icons.NewResolver(c.IconOverrides())
}

// Viewport resolves the configured container size.
func (c Config) Viewport() scene.Viewport {
	return scene.Dimensions(c.View.Width, c.View.Height, c.View.Margin)
}

// String renders the configuration as TOML.
func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}

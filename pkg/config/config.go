// Package config loads the artboard configuration file.
//
// The file is TOML with one table per concern:
//
//	[layout]
//	columns = 12
//	column_width = 350.0
//	gap = 80.0
//	jitter = 400.0
//	seed = 42
//
//	[camera]
//	smoothing = 0.1
//	click_threshold = 0.5
//
//	[viewport]
//	width = 1280.0
//	height = 800.0
//	buffer = 1000.0
//
//	[source]
//	kind = "strapi"
//	url = "http://localhost:1337"
//
//	[cache]
//	backend = "file"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//
// Every key is optional. [Load] starts from [Default] and overlays whatever
// the file sets; command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/artboard/pkg/artboard"
	"github.com/matzehuels/artboard/pkg/cull"
	"github.com/matzehuels/artboard/pkg/errors"
	"github.com/matzehuels/artboard/pkg/layout"
)

const appName = "artboard"

// Source kinds.
const (
	SourceDemo   = "demo"
	SourceStrapi = "strapi"
	SourceMongo  = "mongo"
	SourceSQLite = "sqlite"
)

// Cache backends.
const (
	CacheNull  = "null"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the whole configuration file.
type Config struct {
	Layout   layout.Config `toml:"layout"`
	Camera   Camera        `toml:"camera"`
	Viewport cull.Viewport `toml:"viewport"`
	Source   Source        `toml:"source"`
	Cache    Cache         `toml:"cache"`
	Server   Server        `toml:"server"`
}

// Camera holds the motion constants.
type Camera struct {
	Smoothing      float64 `toml:"smoothing"`
	ClickThreshold float64 `toml:"click_threshold"`
}

// Source selects and configures the item source.
type Source struct {
	Kind    string   `toml:"kind"`
	Timeout Duration `toml:"timeout"`

	// Strapi
	URL   string `toml:"url"`
	Token string `toml:"token"`

	// MongoDB
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`

	// SQLite
	SQLitePath string `toml:"sqlite_path"`
}

// Cache selects the HTTP response cache backend.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	TTL       Duration `toml:"ttl"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
}

// Server configures the HTTP host.
type Server struct {
	Addr string `toml:"addr"`

	// FrameInterval, when non-zero, makes the server tick the engine on its
	// own instead of waiting for /api/tick.
	FrameInterval Duration `toml:"frame_interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	eng := artboard.DefaultConfig()
	return Config{
		Layout:   eng.Layout,
		Viewport: eng.Viewport,
		Camera: Camera{
			Smoothing:      eng.Smoothing,
			ClickThreshold: eng.ClickThreshold,
		},
		Source: Source{
			Kind:       SourceDemo,
			Timeout:    Duration{10 * time.Second},
			Database:   appName,
			Collection: "projects",
		},
		Cache: Cache{
			Backend:   CacheFile,
			TTL:       Duration{24 * time.Hour},
			RedisAddr: "localhost:6379",
		},
		Server: Server{
			Addr: ":8080",
		},
	}
}

// Path returns the default configuration file location,
// $XDG_CONFIG_HOME/artboard/config.toml or ~/.config/artboard/config.toml.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads path over the defaults. An empty path means the default
// location, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result. Unknown
// keys are rejected so typos do not pass silently.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Engine().Validate(); err != nil {
		return err
	}

	switch c.Source.Kind {
	case SourceDemo:
	case SourceStrapi:
		if err := errors.ValidateURL(c.Source.URL); err != nil {
			return err
		}
	case SourceMongo:
		if c.Source.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "source: mongo_uri is required for kind %q", SourceMongo)
		}
	case SourceSQLite:
		if c.Source.SQLitePath == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "source: sqlite_path is required for kind %q", SourceSQLite)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "source: unknown kind %q (want one of %s)", c.Source.Kind, strings.Join(SourceKinds(), ", "))
	}
	if c.Source.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "source: timeout must not be negative")
	}

	if !slices.Contains([]string{CacheNull, CacheFile, CacheRedis}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "cache: unknown backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache: ttl must not be negative")
	}
	if c.Server.FrameInterval.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server: frame_interval must not be negative")
	}
	return nil
}

// SourceKinds lists the accepted source kinds.
func SourceKinds() []string {
	return []string{SourceDemo, SourceStrapi, SourceMongo, SourceSQLite}
}

// Engine returns the engine constants.
func (c Config) Engine() artboard.Config {
	return artboard.Config{
		Layout:         c.Layout,
		Viewport:       c.Viewport,
		Smoothing:      c.Camera.Smoothing,
		ClickThreshold: c.Camera.ClickThreshold,
	}
}

// Write encodes c as TOML. Secrets are written as-is.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

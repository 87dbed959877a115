// Package config loads intelgraph settings from defaults, a TOML file,
// environment variables and command-line flags.
//
// Priority, highest first:
//
//	flags > INTELGRAPH_* env > intelgraph.toml > defaults
//
// Nested keys use "." in koanf and "_" in the environment, so
// INTELGRAPH_SIM_SPRING_K sets sim.spring_k and INTELGRAPH_REDIS_ADDR sets
// redis.addr.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	tomlparser "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/matzehuels/intelgraph/pkg/errors"
	"github.com/matzehuels/intelgraph/pkg/sim"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = "intelgraph.toml"

	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "INTELGRAPH_"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds all settings.
type Config struct {
	Seed   uint64  `koanf:"seed" toml:"seed"`
	Ticks  int     `koanf:"ticks" toml:"ticks"`
	Settle float64 `koanf:"settle" toml:"settle"`
	FPS    int     `koanf:"fps" toml:"fps"`
	Width  float64 `koanf:"width" toml:"width"`
	Height float64 `koanf:"height" toml:"height"`

	Sim    SimConfig    `koanf:"sim" toml:"sim"`
	Cache  CacheConfig  `koanf:"cache" toml:"cache"`
	Redis  RedisConfig  `koanf:"redis" toml:"redis"`
	Server ServerConfig `koanf:"server" toml:"server"`
}

// SimConfig holds the physical constants. The frame size lives at the top
// level because the viewers share it.
type SimConfig struct {
	SpringK         float64 `koanf:"spring_k" toml:"spring_k"`
	RestLength      float64 `koanf:"rest_length" toml:"rest_length"`
	Repulsion       float64 `koanf:"repulsion" toml:"repulsion"`
	Damping         float64 `koanf:"damping" toml:"damping"`
	MinSeparation   float64 `koanf:"min_separation" toml:"min_separation"`
	CollisionMargin float64 `koanf:"collision_margin" toml:"collision_margin"`
	CenterPull      float64 `koanf:"center_pull" toml:"center_pull"`
	Jitter          float64 `koanf:"jitter" toml:"jitter"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string `koanf:"backend" toml:"backend"`
	Dir       string `koanf:"dir" toml:"dir,omitempty"`
	Namespace string `koanf:"namespace" toml:"namespace,omitempty"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `koanf:"addr" toml:"addr"`
	Password string `koanf:"password" toml:"-"`
	DB       int    `koanf:"db" toml:"db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `koanf:"addr" toml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	p := sim.DefaultParams()
	return &Config{
		Seed:   42,
		Ticks:  300,
		FPS:    30,
		Width:  p.Width,
		Height: p.Height,
		Sim: SimConfig{
			SpringK:         p.SpringK,
			RestLength:      p.RestLength,
			Repulsion:       p.Repulsion,
			Damping:         p.Damping,
			MinSeparation:   p.MinSeparation,
			CollisionMargin: p.CollisionMargin,
			CenterPull:      p.CenterPull,
			Jitter:          p.Jitter,
		},
		Cache:  CacheConfig{Backend: CacheFile},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"addr":       "server.addr",
	"cache":      "cache.backend",
	"cache-dir":  "cache.dir",
	"redis-addr": "redis.addr",
	"redis-db":   "redis.db",
}

// Load builds a Config. path names an explicit config file; when empty,
// FileName in the working directory is used if it exists. f may be nil.
func Load(f *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaultsMap()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
	} else if _, err := os.Stat(FileName); err == nil {
		path = FileName
	}
	if path != "" {
		if err := k.Load(file.Provider(path), tomlparser.Parser()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, any) {
			return flagKey(fl.Name), posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that koanf cannot type-check.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	if c.Ticks < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "ticks must not be negative, got %d", c.Ticks)
	}
	if c.Settle < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "settle must not be negative, got %g", c.Settle)
	}
	if c.FPS <= 0 || c.FPS > 240 {
		return errors.New(errors.ErrCodeInvalidConfig, "fps must be in 1..240, got %d", c.FPS)
	}
	_, err := c.SimParams()
	return err
}

// SimParams assembles validated engine parameters.
func (c *Config) SimParams() (sim.Params, error) {
	p := sim.Params{
		SpringK:         c.Sim.SpringK,
		RestLength:      c.Sim.RestLength,
		Repulsion:       c.Sim.Repulsion,
		Damping:         c.Sim.Damping,
		MinSeparation:   c.Sim.MinSeparation,
		CollisionMargin: c.Sim.CollisionMargin,
		CenterPull:      c.Sim.CenterPull,
		Width:           c.Width,
		Height:          c.Height,
		Jitter:          c.Sim.Jitter,
	}
	if err := p.Validate(); err != nil {
		return sim.Params{}, err
	}
	return p, nil
}

// CacheDir returns the configured cache directory, defaulting to the
// XDG cache home (~/.cache/intelgraph).
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, "intelgraph"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "intelgraph"), nil
}

// WriteTOML encodes the effective configuration. Secrets are omitted.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// sections are the nested tables; env keys starting with one get a "."
// after the section name.
var sections = []string{"sim", "cache", "redis", "server"}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(key, sec+"_"); ok {
			return sec + "." + rest
		}
	}
	return key
}

func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"seed":                 d.Seed,
		"ticks":                d.Ticks,
		"settle":               d.Settle,
		"fps":                  d.FPS,
		"width":                d.Width,
		"height":               d.Height,
		"sim.spring_k":         d.Sim.SpringK,
		"sim.rest_length":      d.Sim.RestLength,
		"sim.repulsion":        d.Sim.Repulsion,
		"sim.damping":          d.Sim.Damping,
		"sim.min_separation":   d.Sim.MinSeparation,
		"sim.collision_margin": d.Sim.CollisionMargin,
		"sim.center_pull":      d.Sim.CenterPull,
		"sim.jitter":           d.Sim.Jitter,
		"cache.backend":        d.Cache.Backend,
		"cache.dir":            d.Cache.Dir,
		"cache.namespace":      d.Cache.Namespace,
		"redis.addr":           d.Redis.Addr,
		"redis.password":       d.Redis.Password,
		"redis.db":             d.Redis.DB,
		"server.addr":          d.Server.Addr,
	}
}

// mapProvider feeds a flat "a.b" keyed map to koanf.
type mapProvider map[string]any

func (p mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(p))
	for k, v := range p {
		setNested(out, strings.Split(k, "."), v)
	}
	return out, nil
}

func (p mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

func setNested(m map[string]any, path []string, v any) {
	if len(path) == 1 {
		m[path[0]] = v
		return
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		m[path[0]] = child
	}
	setNested(child, path[1:], v)
}

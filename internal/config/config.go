// Package config loads blik settings.
//
// Settings are layered: built-in defaults, then an optional TOML or YAML
// file, then BLIK_* environment variables. Nested keys in the environment use
// a double underscore, so BLIK_CACHE__BACKEND=redis sets cache.backend.
package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	"github.com/matzehuels/blik/pkg/depict"
	"github.com/matzehuels/blik/pkg/errors"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "BLIK_"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the complete blik configuration.
type Config struct {
	LogLevel string       `koanf:"log_level" toml:"log_level"`
	Cache    CacheConfig  `koanf:"cache" toml:"cache"`
	Load     LoadConfig   `koanf:"load" toml:"load"`
	Depict   DepictConfig `koanf:"depict" toml:"depict"`
	Server   ServerConfig `koanf:"server" toml:"server"`
}

// CacheConfig selects where parsed records and scenes are cached.
type CacheConfig struct {
	Backend string      `koanf:"backend" toml:"backend"`
	Dir     string      `koanf:"dir" toml:"dir"` // empty uses the XDG cache directory
	Redis   RedisConfig `koanf:"redis" toml:"redis"`
}

// RedisConfig addresses the Redis cache backend.
type RedisConfig struct {
	Addr     string `koanf:"addr" toml:"addr"`
	Password string `koanf:"password" toml:"password"`
	DB       int    `koanf:"db" toml:"db"`
	Prefix   string `koanf:"prefix" toml:"prefix"`
}

// LoadConfig holds reader defaults.
type LoadConfig struct {
	Strict    bool    `koanf:"strict" toml:"strict"`
	PixelSize float64 `koanf:"pixel_size" toml:"pixel_size"`
}

// DepictConfig holds depiction defaults.
type DepictConfig struct {
	VectorLength float64 `koanf:"vector_length" toml:"vector_length"`
}

// ServerConfig configures the layer server.
type ServerConfig struct {
	Addr string `koanf:"addr" toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Cache: CacheConfig{
			Backend: BackendFile,
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "blik:"},
		},
		Depict: DepictConfig{VectorLength: depict.DefaultVectorLength},
		Server: ServerConfig{Addr: "127.0.0.1:8642"},
	}
}

// Load builds the configuration from defaults, the file at path (skipped when
// empty) and the environment.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, err
	}
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "load config %s", path)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, err
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// envKey maps BLIK_CACHE__REDIS__ADDR to cache.redis.addr.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return tomlParser{}, nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "config file %s: use .toml, .yaml or .yml", path)
	}
}

// Validate checks the values that the commands cannot correct themselves.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Load.PixelSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "load.pixel_size must not be negative")
	}
	if c.Depict.VectorLength < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "depict.vector_length must not be negative")
	}
	return nil
}

// TOML renders c as a TOML document, as written by "blik config".
func (c Config) TOML() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return buf.String(), nil
}

// tomlParser adapts BurntSushi/toml to koanf.Parser.
type tomlParser struct{}

func (tomlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if _, err := toml.Decode(string(b), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (tomlParser) Marshal(m map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Package config loads wheelpeek settings from a TOML file and the
// environment.
//
// Settings are layered, later layers winning: built-in defaults, the config
// file, environment variables, then command-line flags (applied by the CLI).
//
// # File
//
// The file lives at $XDG_CONFIG_HOME/wheelpeek/config.toml (falling back to
// ~/.config/wheelpeek/config.toml) and is optional:
//
//	index_url = "https://pypi.org/simple"
//
//	[http]
//	timeout = "30s"
//	retries = 3
//
//	[cache]
//	ttl = "1h"
//	dir = "/var/cache/wheelpeek"
//	redis_url = "redis://localhost:6379/0"
//
//	[extract]
//	marker = "/top_level.txt"
//	concurrency = 8
//
//	[serve]
//	addr = ":8080"
//
// # Environment
//
// WHEELPEEK_INDEX_URL overrides index_url and WHEELPEEK_REDIS_URL overrides
// cache.redis_url.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/pipeline"
)

const (
	// AppName names the config and cache directories.
	AppName = "wheelpeek"

	// FileName is the config file name inside Dir.
	FileName = "config.toml"

	// DefaultServeAddr is where "wheelpeek serve" listens by default.
	DefaultServeAddr = "127.0.0.1:8080"
)

// Environment variables read by ApplyEnv.
const (
	EnvIndexURL = "WHEELPEEK_INDEX_URL"
	EnvRedisURL = "WHEELPEEK_REDIS_URL"
)

// Config is the full set of user settings.
type Config struct {
	IndexURL string        `toml:"index_url"`
	HTTP     HTTPConfig    `toml:"http"`
	Cache    CacheConfig   `toml:"cache"`
	Extract  ExtractConfig `toml:"extract"`
	Serve    ServeConfig   `toml:"serve"`
}

// HTTPConfig controls outbound requests.
type HTTPConfig struct {
	Timeout time.Duration `toml:"timeout"`
	Retries int           `toml:"retries"` // Total attempts per request
}

// CacheConfig controls the index listing cache.
type CacheConfig struct {
	TTL      time.Duration `toml:"ttl"`
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url"` // Takes precedence over Dir when set
}

// ExtractConfig controls marker extraction.
type ExtractConfig struct {
	Marker      string `toml:"marker"`
	Concurrency int    `toml:"concurrency"`
}

// ServeConfig controls the HTTP API.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		IndexURL: pipeline.DefaultIndexURL,
		HTTP: HTTPConfig{
			Timeout: pipeline.DefaultTimeout,
			Retries: pipeline.DefaultAttempts,
		},
		Cache: CacheConfig{
			TTL: pipeline.DefaultCacheTTL,
		},
		Extract: ExtractConfig{
			Marker: pipeline.DefaultMarker,
		},
		Serve: ServeConfig{
			Addr: DefaultServeAddr,
		},
	}
}

// Dir returns the config directory ($XDG_CONFIG_HOME/wheelpeek or
// ~/.config/wheelpeek).
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns the default file cache directory ($XDG_CACHE_HOME/wheelpeek
// or ~/.cache/wheelpeek).
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Load reads the config file at path over the defaults and then applies the
// environment. An empty path means the default location, where a missing
// file is not an error; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err == nil {
			path = filepath.Join(dir, FileName)
		}
	}

	if path != "" {
		if err := cfg.loadFile(path, explicit); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	return c.Decode(string(data), path)
}

// Decode merges TOML text into c. Keys the config does not know are
// rejected so that typos surface instead of being ignored.
func (c *Config) Decode(data, source string) error {
	md, err := toml.Decode(data, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", source)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidInput, "unknown config keys in %s: %s", source, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read via getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvIndexURL); v != "" {
		c.IndexURL = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if err := errors.ValidateURL(c.IndexURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "index_url")
	}
	switch {
	case c.HTTP.Timeout < 0:
		return errors.New(errors.ErrCodeInvalidInput, "http.timeout must not be negative")
	case c.HTTP.Retries < 0:
		return errors.New(errors.ErrCodeInvalidInput, "http.retries must not be negative")
	case c.Cache.TTL < 0:
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	case c.Extract.Concurrency < 0:
		return errors.New(errors.ErrCodeInvalidInput, "extract.concurrency must not be negative")
	case c.Extract.Marker == "":
		return errors.New(errors.ErrCodeInvalidInput, "extract.marker must not be empty")
	}
	return nil
}

// PipelineOptions maps the settings onto pipeline options. Runtime fields
// (HTTP client, cache, logger) are left for the caller.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		IndexURL:    c.IndexURL,
		CacheTTL:    c.Cache.TTL,
		Timeout:     c.HTTP.Timeout,
		Attempts:    c.HTTP.Retries,
		Marker:      c.Extract.Marker,
		Concurrency: c.Extract.Concurrency,
	}
}

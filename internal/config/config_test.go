package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/pipeline"
)

const fullConfig = `
index_url = "https://mirror.example/simple"

[http]
timeout = "5s"
retries = 5

[cache]
ttl = "10m"
dir = "/tmp/wheelpeek-cache"
redis_url = "redis://localhost:6379/1"

[extract]
marker = "/entry_points.txt"
concurrency = 4

[serve]
addr = ":9090"
`

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.IndexURL != pipeline.DefaultIndexURL {
		t.Errorf("IndexURL = %q", cfg.IndexURL)
	}
	if cfg.Extract.Marker != pipeline.DefaultMarker {
		t.Errorf("Marker = %q", cfg.Extract.Marker)
	}
	if cfg.Cache.TTL != pipeline.DefaultCacheTTL {
		t.Errorf("TTL = %v", cfg.Cache.TTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestDecode(t *testing.T) {
	cfg := Default()
	if err := cfg.Decode(fullConfig, "test"); err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	want := Config{
		IndexURL: "https://mirror.example/simple",
		HTTP:     HTTPConfig{Timeout: 5 * time.Second, Retries: 5},
		Cache:    CacheConfig{TTL: 10 * time.Minute, Dir: "/tmp/wheelpeek-cache", RedisURL: "redis://localhost:6379/1"},
		Extract:  ExtractConfig{Marker: "/entry_points.txt", Concurrency: 4},
		Serve:    ServeConfig{Addr: ":9090"},
	}
	if *cfg != want {
		t.Errorf("Decode() = %+v\nwant %+v", *cfg, want)
	}
}

func TestDecode_PartialKeepsDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Decode("[extract]\nconcurrency = 2\n", "test"); err != nil {
		t.Fatal(err)
	}
	if cfg.Extract.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Extract.Concurrency)
	}
	if cfg.Extract.Marker != pipeline.DefaultMarker || cfg.IndexURL != pipeline.DefaultIndexURL {
		t.Error("unset keys should keep their defaults")
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", "index_url = "},
		{"unknown key", "[http]\ntimeot = \"5s\"\n"},
		{"wrong type", "[extract]\nconcurrency = \"many\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Default().Decode(tt.data, "test")
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Decode() = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad index", func(c *Config) { c.IndexURL = "not a url" }},
		{"negative timeout", func(c *Config) { c.HTTP.Timeout = -time.Second }},
		{"negative retries", func(c *Config) { c.HTTP.Retries = -1 }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }},
		{"negative concurrency", func(c *Config) { c.Extract.Concurrency = -2 }},
		{"empty marker", func(c *Config) { c.Extract.Marker = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Validate() = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvIndexURL: "https://env.example/simple",
		EnvRedisURL: "redis://env:6379/0",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.IndexURL != env[EnvIndexURL] || cfg.Cache.RedisURL != env[EnvRedisURL] {
		t.Errorf("ApplyEnv() = %+v", cfg)
	}

	cfg = Default()
	cfg.ApplyEnv(func(string) string { return "" })
	if cfg.IndexURL != pipeline.DefaultIndexURL {
		t.Error("empty variables must not override")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvIndexURL, "")
	t.Setenv(EnvRedisURL, "")

	// Missing default file is fine.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() without a file: %v", err)
	}
	if cfg.IndexURL != pipeline.DefaultIndexURL {
		t.Errorf("IndexURL = %q", cfg.IndexURL)
	}

	if err := os.MkdirAll(filepath.Join(dir, AppName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, AppName, FileName), []byte(fullConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Extract.Concurrency != 4 {
		t.Errorf("default-location file not read: %+v", cfg.Extract)
	}

	// Environment beats the file.
	t.Setenv(EnvIndexURL, "https://env.example/simple")
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.IndexURL != "https://env.example/simple" {
		t.Errorf("IndexURL = %q, want env override", cfg.IndexURL)
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load() = %v, want INVALID_INPUT", err)
	}
}

func TestDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	if dir, _ := Dir(); dir != filepath.Join("/tmp/xdg-config", AppName) {
		t.Errorf("Dir() = %q", dir)
	}
	if dir, _ := CacheDir(); dir != filepath.Join("/tmp/xdg-cache", AppName) {
		t.Errorf("CacheDir() = %q", dir)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if dir, _ := CacheDir(); dir != filepath.Join(home, ".cache", AppName) {
		t.Errorf("CacheDir() = %q", dir)
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := Default()
	cfg.Decode(fullConfig, "test")
	opts := cfg.PipelineOptions()
	if opts.IndexURL != cfg.IndexURL || opts.Attempts != 5 || opts.Concurrency != 4 ||
		opts.Marker != "/entry_points.txt" || opts.CacheTTL != 10*time.Minute || opts.Timeout != 5*time.Second {
		t.Errorf("PipelineOptions() = %+v", opts)
	}
}

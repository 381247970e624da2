// Package config loads run settings from a YAML file, a .env file and
// ESTAT_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/estat-master/estat-master/internal/estat"
)

const CurrentVersion = 1

// Config is the top-level configuration.
type Config struct {
	Version   int               `yaml:"version"`
	EStat     EStatConfig       `yaml:"estat"`
	Fetch     FetchConfig       `yaml:"fetch"`
	Cache     CacheConfig       `yaml:"cache,omitempty"`
	Logging   LogConfig         `yaml:"logging,omitempty"`
	Revisions map[string]string `yaml:"revisions,omitempty"` // revision code -> release date
}

// EStatConfig points the fetchers at e-Stat or a compatible mock.
type EStatConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Charset        string        `yaml:"charset,omitempty"` // UTF-8 or Shift_JIS
	MasterTimeout  time.Duration `yaml:"master_timeout,omitempty"`
	ExampleTimeout time.Duration `yaml:"example_timeout,omitempty"`
}

// FetchConfig controls the example fetch worker pool.
type FetchConfig struct {
	Workers      int           `yaml:"workers,omitempty"`       // default 4
	RequestDelay time.Duration `yaml:"request_delay,omitempty"` // minimum spacing across all workers
	MaxRetries   int           `yaml:"max_retries,omitempty"`
	SkipFailed   bool          `yaml:"skip_failed,omitempty"`
}

// CacheConfig enables the SQLite example cache when Path is set.
type CacheConfig struct {
	Path string `yaml:"path,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		EStat: EStatConfig{
			BaseURL:        estat.DefaultBaseURL,
			Charset:        estat.CharsetUTF8,
			MasterTimeout:  60 * time.Second,
			ExampleTimeout: 30 * time.Second,
		},
		Fetch: FetchConfig{
			Workers:      4,
			RequestDelay: 500 * time.Millisecond,
			MaxRetries:   2,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Revisions: estat.DefaultRevisions(),
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if any), then .env, then the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// A file that sets revisions replaces the whole default table.
		cfg.Revisions = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		if cfg.Version != CurrentVersion {
			return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
		}
		if cfg.Revisions == nil {
			cfg.Revisions = estat.DefaultRevisions()
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.EStat.BaseURL == "" {
		c.EStat.BaseURL = def.EStat.BaseURL
	}
	if c.EStat.Charset == "" {
		c.EStat.Charset = def.EStat.Charset
	}
	if c.EStat.MasterTimeout == 0 {
		c.EStat.MasterTimeout = def.EStat.MasterTimeout
	}
	if c.EStat.ExampleTimeout == 0 {
		c.EStat.ExampleTimeout = def.EStat.ExampleTimeout
	}
	if c.Fetch.Workers == 0 {
		c.Fetch.Workers = def.Fetch.Workers
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
}

func (c *Config) applyEnv() error {
	var errs []error
	setString(&c.EStat.BaseURL, "ESTAT_BASE_URL")
	setString(&c.EStat.Charset, "ESTAT_CHARSET")
	setString(&c.Cache.Path, "ESTAT_CACHE_PATH")
	setString(&c.Logging.Level, "ESTAT_LOG_LEVEL")
	setString(&c.Logging.Format, "ESTAT_LOG_FORMAT")
	errs = append(errs,
		setDuration(&c.EStat.MasterTimeout, "ESTAT_MASTER_TIMEOUT"),
		setDuration(&c.EStat.ExampleTimeout, "ESTAT_EXAMPLE_TIMEOUT"),
		setDuration(&c.Fetch.RequestDelay, "ESTAT_REQUEST_DELAY"),
		setInt(&c.Fetch.Workers, "ESTAT_WORKERS"),
		setInt(&c.Fetch.MaxRetries, "ESTAT_MAX_RETRIES"),
		setBool(&c.Fetch.SkipFailed, "ESTAT_SKIP_FAILED"),
	)
	return errors.Join(errs...)
}

// Validate checks ranges and the revision table.
func (c *Config) Validate() error {
	if c.Fetch.Workers < 1 || c.Fetch.Workers > 32 {
		return fmt.Errorf("fetch.workers must be between 1 and 32 (got %d)", c.Fetch.Workers)
	}
	if c.Fetch.RequestDelay < 0 {
		return fmt.Errorf("fetch.request_delay must not be negative (got %s)", c.Fetch.RequestDelay)
	}
	if c.Fetch.MaxRetries < 0 || c.Fetch.MaxRetries > 10 {
		return fmt.Errorf("fetch.max_retries must be between 0 and 10 (got %d)", c.Fetch.MaxRetries)
	}
	if c.EStat.MasterTimeout <= 0 || c.EStat.ExampleTimeout <= 0 {
		return fmt.Errorf("estat timeouts must be positive")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}
	if len(c.Revisions) == 0 {
		return fmt.Errorf("revisions table must not be empty")
	}
	if err := estat.Revisions(c.Revisions).Validate(); err != nil {
		return fmt.Errorf("revisions: %w", err)
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, v)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %q is not a duration", key, v)
	}
	*dst = d
	return nil
}

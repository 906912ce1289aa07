package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Sync     SyncConfig
	Datasets []DatasetConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// SyncConfig holds reconciliation and retry settings shared by the
// scheduler, watcher, and loader.
type SyncConfig struct {
	Interval         time.Duration // periodic reconciliation interval
	JobTimeout       time.Duration // per-load deadline
	MaxAttempts      int           // total load attempts per trigger, including the first
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	Debounce         time.Duration // quiet period after a file event before checking content
	PollInterval     time.Duration // fallback poll cadence for missed file events
	MappingThreshold float64       // minimum similarity for fuzzy header matching
	DataDir          string        // base directory for dataset files without an explicit path
}

// DatasetConfig declares one reference table: where its file lives and
// which canonical schema its columns map onto.
type DatasetConfig struct {
	Key       string `mapstructure:"key"`
	Path      string `mapstructure:"path"`
	Schema    string `mapstructure:"schema"`
	Delimiter string `mapstructure:"delimiter"`
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MDSYNC_ prefix (e.g., MDSYNC_SYNC_INTERVAL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/masterdata")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("MDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Sync: SyncConfig{
			Interval:         v.GetDuration("sync.interval"),
			JobTimeout:       v.GetDuration("sync.job_timeout"),
			MaxAttempts:      v.GetInt("sync.max_attempts"),
			RetryBaseDelay:   v.GetDuration("sync.retry_base_delay"),
			RetryMaxDelay:    v.GetDuration("sync.retry_max_delay"),
			Debounce:         v.GetDuration("sync.debounce"),
			PollInterval:     v.GetDuration("sync.poll_interval"),
			MappingThreshold: v.GetFloat64("sync.mapping_threshold"),
			DataDir:          v.GetString("sync.data_dir"),
		},
	}

	// Datasets come from the [[datasets]] tables; environment variables
	// cannot override list entries.
	if err := v.UnmarshalKey("datasets", &cfg.Datasets); err != nil {
		return nil, fmt.Errorf("error parsing datasets config: %w", err)
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "masterdata-sync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, the API only accepts small JSON bodies
	}
	// CORS origins have no default on purpose. An empty list means no
	// cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 5 * time.Minute
	}
	if cfg.Sync.JobTimeout == 0 {
		cfg.Sync.JobTimeout = 2 * time.Minute
	}
	if cfg.Sync.MaxAttempts == 0 {
		cfg.Sync.MaxAttempts = 3
	}
	if cfg.Sync.RetryBaseDelay == 0 {
		cfg.Sync.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.Sync.RetryMaxDelay == 0 {
		cfg.Sync.RetryMaxDelay = 30 * time.Second
	}
	if cfg.Sync.Debounce == 0 {
		cfg.Sync.Debounce = 2 * time.Second
	}
	if cfg.Sync.PollInterval == 0 {
		cfg.Sync.PollInterval = 10 * time.Second
	}
	if cfg.Sync.MappingThreshold == 0 {
		cfg.Sync.MappingThreshold = 0.6
	}
	if cfg.Sync.DataDir == "" {
		cfg.Sync.DataDir = "./data"
	}
	// Without explicit [[datasets]] tables, register the builtin reference
	// tables under the data directory.
	if len(cfg.Datasets) == 0 {
		for _, name := range masterdata.SchemaNames() {
			cfg.Datasets = append(cfg.Datasets, DatasetConfig{Key: name, Schema: name})
		}
	}
	for i := range cfg.Datasets {
		d := &cfg.Datasets[i]
		if d.Schema == "" {
			d.Schema = d.Key
		}
		if d.Path == "" {
			d.Path = filepath.Join(cfg.Sync.DataDir, d.Key+".csv")
		}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive")
	}
	if c.Sync.JobTimeout <= 0 {
		return fmt.Errorf("sync.job_timeout must be positive")
	}
	if c.Sync.MaxAttempts < 1 {
		return fmt.Errorf("sync.max_attempts must be at least 1")
	}
	if c.Sync.RetryBaseDelay <= 0 {
		return fmt.Errorf("sync.retry_base_delay must be positive")
	}
	if c.Sync.RetryMaxDelay < c.Sync.RetryBaseDelay {
		return fmt.Errorf("sync.retry_max_delay (%s) cannot be shorter than sync.retry_base_delay (%s)",
			c.Sync.RetryMaxDelay, c.Sync.RetryBaseDelay)
	}
	if c.Sync.MappingThreshold <= 0 || c.Sync.MappingThreshold > 1 {
		return fmt.Errorf("sync.mapping_threshold must be between 0.0 and 1.0, got %f", c.Sync.MappingThreshold)
	}

	if len(c.Datasets) == 0 {
		return fmt.Errorf("at least one dataset must be configured")
	}
	seen := make(map[string]bool, len(c.Datasets))
	for i, d := range c.Datasets {
		if d.Key == "" {
			return fmt.Errorf("datasets[%d].key is required", i)
		}
		if seen[d.Key] {
			return fmt.Errorf("duplicate dataset key %q", d.Key)
		}
		seen[d.Key] = true
		if _, ok := masterdata.SchemaFor(d.Schema); !ok {
			return fmt.Errorf("dataset %s: unknown schema %q (known: %s)",
				d.Key, d.Schema, strings.Join(masterdata.SchemaNames(), ", "))
		}
		if utf8.RuneCountInString(d.Delimiter) > 1 {
			return fmt.Errorf("dataset %s: delimiter must be a single character, got %q", d.Key, d.Delimiter)
		}
	}

	// Production-specific validations
	if c.App.Env == "production" {
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DatasetList materializes the configured datasets into domain values with
// schema names and delimiters resolved.
func (c *Config) DatasetList() ([]masterdata.Dataset, error) {
	out := make([]masterdata.Dataset, 0, len(c.Datasets))
	for _, d := range c.Datasets {
		schema, ok := masterdata.SchemaFor(d.Schema)
		if !ok {
			return nil, fmt.Errorf("dataset %s: unknown schema %q", d.Key, d.Schema)
		}
		ds := masterdata.Dataset{Key: d.Key, Path: d.Path, Schema: schema}
		if d.Delimiter != "" {
			ds.Delimiter = []rune(d.Delimiter)[0]
		}
		out = append(out, ds)
	}
	return out, nil
}

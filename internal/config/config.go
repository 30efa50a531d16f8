// Package config provides configuration loading for the esql CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/canonica-labs/esql/internal/observability"
	"github.com/canonica-labs/esql/internal/planner"
	"github.com/canonica-labs/esql/internal/query"
	"github.com/canonica-labs/esql/internal/transport"
)

// DirName is the per-user configuration directory under $HOME.
const DirName = ".esql"

// Config holds the application configuration.
type Config struct {
	// Profile is the connection profile used when --profile is not given.
	Profile string `mapstructure:"profile"`

	// Search defaults
	Search SearchConfig `mapstructure:"search"`

	// Logging configuration
	Logging observability.LogConfig `mapstructure:"logging"`

	// Storage of connection profiles and their secrets
	Storage StorageConfig `mapstructure:"storage"`

	// Transport configuration
	Transport transport.Config `mapstructure:"transport"`
}

// SearchConfig holds the paging defaults of searches and SQL statements.
type SearchConfig struct {
	PageSize            int    `mapstructure:"page_size"`
	TrackTotalHits      string `mapstructure:"track_total_hits"`
	TrackTotalHitsValue int64  `mapstructure:"track_total_hits_value"`
}

// StorageConfig holds the profile store configuration.
type StorageConfig struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`

	Keyring KeyringConfig `mapstructure:"keyring"`
}

// KeyringConfig selects where profile passwords are kept.
type KeyringConfig struct {
	// Backend is empty for the OS default, or one of the keyring backend
	// names (keychain, secret-service, wincred, file, ...).
	Backend     string `mapstructure:"backend"`
	ServiceName string `mapstructure:"service_name"`
	// FileDir is used by the file backend.
	FileDir string `mapstructure:"file_dir"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	dir := defaultDir()
	return &Config{
		Search: SearchConfig{
			PageSize:       planner.DefaultPageSize,
			TrackTotalHits: string(query.TrackTotalHitsTrue),
		},
		Logging: observability.LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Storage: StorageConfig{
			Path: filepath.Join(dir, "esql.db"),
			Keyring: KeyringConfig{
				ServiceName: "esql",
				FileDir:     filepath.Join(dir, "keyring"),
			},
		},
		Transport: transport.Config{
			Timeout: transport.DefaultTimeout,
			Retry:   transport.DefaultRetryConfig(),
		},
	}
}

// Load loads configuration from file and environment. Environment
// variables use the ESQL prefix with dots replaced by underscores, e.g.
// ESQL_SEARCH_PAGE_SIZE.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, DefaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultDir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("ESQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that cannot be caught by decoding.
func (c *Config) Validate() error {
	if c.Search.PageSize < 1 {
		return fmt.Errorf("search.page_size must be at least 1, got %d", c.Search.PageSize)
	}
	if _, err := c.Search.TrackTotalHitsSetting(); err != nil {
		return err
	}
	if c.Transport.Timeout < 0 {
		return fmt.Errorf("transport.timeout must not be negative")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	return nil
}

// TrackTotalHitsSetting parses the configured track_total_hits mode.
func (s SearchConfig) TrackTotalHitsSetting() (query.TrackTotalHits, error) {
	return query.ParseTrackTotalHits(s.TrackTotalHits, s.TrackTotalHitsValue)
}

// PlannerDefaults returns the paging defaults of SQL statements.
func (s SearchConfig) PlannerDefaults() (planner.Defaults, error) {
	t, err := s.TrackTotalHitsSetting()
	if err != nil {
		return planner.Defaults{}, err
	}
	return planner.Defaults{PageSize: s.PageSize, TrackTotalHits: t}, nil
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("profile", d.Profile)
	v.SetDefault("search.page_size", d.Search.PageSize)
	v.SetDefault("search.track_total_hits", d.Search.TrackTotalHits)
	v.SetDefault("search.track_total_hits_value", d.Search.TrackTotalHitsValue)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.keyring.backend", d.Storage.Keyring.Backend)
	v.SetDefault("storage.keyring.service_name", d.Storage.Keyring.ServiceName)
	v.SetDefault("storage.keyring.file_dir", d.Storage.Keyring.FileDir)
	v.SetDefault("transport.timeout", d.Transport.Timeout.String())
	v.SetDefault("transport.insecure_skip_verify", d.Transport.InsecureSkipVerify)
	v.SetDefault("transport.retry.max_attempts", d.Transport.Retry.MaxAttempts)
	v.SetDefault("transport.retry.initial_delay", d.Transport.Retry.InitialDelay.String())
	v.SetDefault("transport.retry.max_delay", d.Transport.Retry.MaxDelay.String())
	v.SetDefault("transport.retry.backoff_multiplier", d.Transport.Retry.BackoffMultiplier)
}

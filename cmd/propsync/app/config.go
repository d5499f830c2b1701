package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/errors"
)

// Source modes.
const (
	SourceTableAPI = "tableapi"
	SourceLocal    = "local"
)

// DatabaseMemory selects the in-memory store.
const DatabaseMemory = "memory"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Source configuration
	Source      string
	BaseURL     string
	APIToken    string
	FixturePath string

	// Destination store: a sqlite path, ":memory:" or "memory".
	Database string

	// MappingFile overlays the built-in field mapping when set.
	MappingFile string

	// Run configuration
	DryRun           bool
	Propagate        bool
	WriteConcurrency int
	FetchTimeout     time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (PROPSYNC_*)
// 3. .env files
// 4. Config file (~/.propsync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("propsync")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	setDefaults(v)
	bindTokens(v)

	configFile := os.Getenv("PROPSYNC_CONFIG")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".propsync")
	}

	// A missing file is fine unless it was asked for explicitly.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config file", err.Error(), err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source", SourceTableAPI)
	v.SetDefault("database", defaultDatabasePath())
	v.SetDefault("write_concurrency", constants.DefaultWriteConcurrency)
	v.SetDefault("fetch_timeout", constants.PartitionFetchTimeout)
	v.SetDefault("log_level", "")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Source:      strings.ToLower(v.GetString("source")),
		BaseURL:     v.GetString("base_url"),
		APIToken:    v.GetString("api_token"),
		FixturePath: v.GetString("fixture"),

		Database:    v.GetString("database"),
		MappingFile: v.GetString("mapping"),

		DryRun:           v.GetBool("dry_run"),
		Propagate:        v.GetBool("propagate"),
		WriteConcurrency: v.GetInt("write_concurrency"),
		FetchTimeout:     v.GetDuration("fetch_timeout"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}
}

// Validate checks that the selected source has what it needs.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceTableAPI:
		if c.BaseURL == "" {
			return fmt.Errorf("source %s requires base_url (PROPSYNC_BASE_URL)", c.Source)
		}
		if c.APIToken == "" {
			return fmt.Errorf("source %s requires an API token (PROPSYNC_API_TOKEN)", c.Source)
		}
	case SourceLocal:
		if c.FixturePath == "" {
			return fmt.Errorf("source %s requires a fixture path (PROPSYNC_FIXTURE)", c.Source)
		}
	default:
		return fmt.Errorf("unknown source %q: must be %s or %s", c.Source, SourceTableAPI, SourceLocal)
	}
	if c.WriteConcurrency < 1 {
		return fmt.Errorf("write concurrency must be at least 1, got %d", c.WriteConcurrency)
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindTokens lets the API token come from the prefixed variable or the
// bare TABLE_API_TOKEN many deployments already export.
func bindTokens(v *viper.Viper) {
	if err := v.BindEnv("api_token", "PROPSYNC_API_TOKEN", "TABLE_API_TOKEN"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind API token variables: %v\n", err)
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "propsync.db"
	}
	return filepath.Join(home, ".propsync", "propsync.db")
}

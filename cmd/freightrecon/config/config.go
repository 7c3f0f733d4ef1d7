// Package config loads the CLI's runtime configuration from flags,
// environment variables (FREIGHTRECON prefix), and an optional config
// file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"freight-reconciliation-service/pkg/logger"
)

// Config is the full runtime configuration of the freightrecon CLI.
type Config struct {
	// Organization scopes every command; all data access is per-org.
	Organization string `mapstructure:"organization"`

	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Log        LogConfig        `mapstructure:"log"`

	// OutputFormat selects the report rendering: console or json.
	OutputFormat string `mapstructure:"output_format"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig configures the shared queue and distributed lock. When
// disabled, the CLI runs with in-process equivalents.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	QueueKey string `mapstructure:"queue_key"`
}

// WorkerConfig configures the document worker pool.
type WorkerConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
}

// ExtractionConfig configures the extraction provider. A fixture
// directory enables offline extraction from canned JSON results.
type ExtractionConfig struct {
	FixtureDir string `mapstructure:"fixture_dir"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from the optional config file and the
// environment, applying defaults for everything unset.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("organization", "")
	v.SetDefault("database.path", "freightrecon.db")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.queue_key", "freightrecon:documents")
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.lock_ttl", 30*time.Second)
	v.SetDefault("extraction.fixture_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("output_format", "console")

	v.SetEnvPrefix("FREIGHTRECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be positive, got %d", c.Worker.Concurrency)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}
	if c.OutputFormat != "console" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output format %q, want console or json", c.OutputFormat)
	}
	if err := c.LoggerConfig().Validate(); err != nil {
		return err
	}
	return nil
}

// LoggerConfig converts the log section into a logger configuration.
func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:  logger.Level(c.Log.Level),
		Format: logger.Format(c.Log.Format),
		Output: logger.Output(c.Log.Output),
		File:   c.Log.File,
	}
}

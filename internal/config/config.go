// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Comparison ComparisonConfig `mapstructure:"comparison"`
	Challenges ChallengesConfig `mapstructure:"challenges"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Seed       SeedConfig       `mapstructure:"seed"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig contains database connection settings for PostgreSQL and Redis.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	RunMigrations   bool   `mapstructure:"run_migrations"`
}

// RedisConfig contains Redis key-value store connection and pool settings.
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	PoolSize  int    `mapstructure:"pool_size"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ComparisonConfig tunes the similarity and verification engine.
type ComparisonConfig struct {
	// MaxContentLength caps the text fed into the cubic substring scan.
	// Zero disables the cap.
	MaxContentLength int `mapstructure:"max_content_length"`
}

// ChallengeTarget is one entry of the daily challenge pool.
type ChallengeTarget struct {
	Model  string `mapstructure:"model"`
	Reward int    `mapstructure:"reward"`
}

// ChallengesConfig contains the daily challenge rotation settings.
type ChallengesConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Pool    []ChallengeTarget `mapstructure:"pool"`
}

// NotifyConfig contains webhook announcement settings.
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
	Enabled    bool   `mapstructure:"enabled"`
}

// SchedulerConfig contains background job scheduling settings.
type SchedulerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	DigestTime string `mapstructure:"digest_time"` // "HH:MM" daily digest
	Timezone   string `mapstructure:"timezone"`
}

// MetricsConfig contains Prometheus exporter settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// SeedConfig controls demo-data seeding at startup.
type SeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/leakhub/")
	}

	// Bind specific environment variables (explicit bindings for 12-factor app compliance)
	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	// PostgreSQL configuration
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")
	_ = v.BindEnv("database.postgres.run_migrations", "POSTGRES_RUN_MIGRATIONS")

	// Redis configuration
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.pool_size", "REDIS_POOL_SIZE")
	_ = v.BindEnv("database.redis.key_prefix", "REDIS_KEY_PREFIX")

	// Notification configuration
	_ = v.BindEnv("notify.webhook_url", "NOTIFY_WEBHOOK_URL")
	_ = v.BindEnv("notify.channel", "NOTIFY_CHANNEL")
	_ = v.BindEnv("notify.enabled", "NOTIFY_ENABLED")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	// Scheduler configuration
	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.digest_time", "SCHEDULER_DIGEST_TIME")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")

	// Defaults that keep a bare config file workable.
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.redis.key_prefix", "leakhub_")
	v.SetDefault("comparison.max_content_length", 20000)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("metrics.path", "/metrics")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required")
	}
	if c.Challenges.Enabled && len(c.Challenges.Pool) == 0 {
		return fmt.Errorf("challenges.pool must not be empty when challenges are enabled")
	}
	for _, target := range c.Challenges.Pool {
		if target.Model == "" || target.Reward <= 0 {
			return fmt.Errorf("challenges.pool entries need a model and a positive reward")
		}
	}

	return nil
}

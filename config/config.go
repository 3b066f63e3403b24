// Package config loads server configuration from an optional YAML file and
// CIRCLOTH_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers
const (
	DriverDynamo   = "dynamodb"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// StorageConfig selects the document store backing the service.
type StorageConfig struct {
	Driver      string       `mapstructure:"driver"` // dynamodb, postgres, sqlite
	DSN         string       `mapstructure:"dsn"`
	AutoMigrate bool         `mapstructure:"auto_migrate"`
	Tables      TablesConfig `mapstructure:"tables"`
}

// TablesConfig names the DynamoDB tables.
type TablesConfig struct {
	Items    string `mapstructure:"items"`
	Users    string `mapstructure:"users"`
	Actions  string `mapstructure:"actions"`
	Chats    string `mapstructure:"chats"`
	Messages string `mapstructure:"messages"`
}

type AWSConfig struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"` // local DynamoDB / S3 compatible endpoint
	S3Bucket string `mapstructure:"s3_bucket"`
}

// RedisConfig holds Redis configuration. An empty Addr disables the like index.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a like index should be maintained.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// MatchingConfig tunes candidate selection.
type MatchingConfig struct {
	PassExpiry time.Duration `mapstructure:"pass_expiry"`
}

// RateLimitConfig bounds decisions per user.
type RateLimitConfig struct {
	ActionsPerSecond float64 `mapstructure:"actions_per_second"`
	Burst            int     `mapstructure:"burst"`
	// IdleTTL is how long a user's budget is kept after their last action
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// Load reads configuration from files and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/circloth")
	}

	v.SetEnvPrefix("CIRCLOTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Unset keys are invisible to AutomaticEnv during Unmarshal
	v.BindEnv("storage.dsn")
	v.BindEnv("redis.addr")
	v.BindEnv("redis.password")
	v.BindEnv("aws.endpoint")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverDynamo, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver != DriverDynamo && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver)
	}
	if c.Matching.PassExpiry < 0 {
		return fmt.Errorf("matching.pass_expiry must not be negative")
	}
	return nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("storage.driver", DriverDynamo)
	v.SetDefault("storage.auto_migrate", true)
	v.SetDefault("storage.tables.items", "Items")
	v.SetDefault("storage.tables.users", "Users")
	v.SetDefault("storage.tables.actions", "Actions")
	v.SetDefault("storage.tables.chats", "Chats")
	v.SetDefault("storage.tables.messages", "Messages")

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.s3_bucket", "")

	v.SetDefault("redis.db", 0)

	v.SetDefault("matching.pass_expiry", "60s")

	v.SetDefault("ratelimit.actions_per_second", 5)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("ratelimit.idle_ttl", "10m")
}

// Package config loads ledgerd settings from defaults, an optional YAML file,
// a .env file and LEDGER_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (LEDGER_SERVER_GRPC_ADDR)
const EnvPrefix = "LEDGER"

type Config struct {
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Lock       LockConfig     `mapstructure:"lock"`
	Events     EventsConfig   `mapstructure:"events"`
	Ledger     LedgerConfig   `mapstructure:"ledger"`
	Log        LogConfig      `mapstructure:"log"`
	Seed       SeedConfig     `mapstructure:"seed"`
	ConfigPath string         `mapstructure:"-"`
}

type ServerConfig struct {
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	APIToken        string        `mapstructure:"api_token"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"` // memory | postgres
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type LockConfig struct {
	Backend string        `mapstructure:"backend"` // local | redis
	Timeout time.Duration `mapstructure:"timeout"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	Expiry     time.Duration `mapstructure:"expiry"`
	Tries      int           `mapstructure:"tries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type EventsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LedgerConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

type LogConfig struct {
	Env   string `mapstructure:"env"`
	Level string `mapstructure:"level"`
}

type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// NewDefault returns the settings of a local development server
func NewDefault() *Config {
	return &Config{
		Server: ServerConfig{
			GRPCAddr:        ":8080",
			APIToken:        "dev-token",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Driver: "memory", AutoMigrate: true},
		Lock: LockConfig{
			Backend: "local",
			Timeout: 5 * time.Second,
			Redis: RedisConfig{
				Addr:       "localhost:6379",
				Expiry:     10 * time.Second,
				Tries:      32,
				RetryDelay: 50 * time.Millisecond,
			},
		},
		Events: EventsConfig{Topic: "ledger.events"},
		Ledger: LedgerConfig{
			MaxRetries:     5,
			BaseDelay:      5 * time.Millisecond,
			MaxDelay:       200 * time.Millisecond,
			PublishTimeout: 5 * time.Second,
		},
		Log:  LogConfig{Env: "production"},
		Seed: SeedConfig{Enabled: true},
	}
}

// Load reads the configuration. cfgFile may be empty, in which case
// ./ledger.yaml is used when present. envFile names a dotenv file loaded
// into the process environment when it exists.
func Load(cfgFile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("ledger")
		v.SetConfigType("yaml")
	}

	setDefaults(v, NewDefault())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	cfg := NewDefault()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.grpc_addr", d.Server.GRPCAddr)
	v.SetDefault("server.api_token", d.Server.APIToken)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.auto_migrate", d.Database.AutoMigrate)

	v.SetDefault("lock.backend", d.Lock.Backend)
	v.SetDefault("lock.timeout", d.Lock.Timeout)
	v.SetDefault("lock.redis.addr", d.Lock.Redis.Addr)
	v.SetDefault("lock.redis.password", d.Lock.Redis.Password)
	v.SetDefault("lock.redis.db", d.Lock.Redis.DB)
	v.SetDefault("lock.redis.expiry", d.Lock.Redis.Expiry)
	v.SetDefault("lock.redis.tries", d.Lock.Redis.Tries)
	v.SetDefault("lock.redis.retry_delay", d.Lock.Redis.RetryDelay)

	v.SetDefault("events.enabled", d.Events.Enabled)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	v.SetDefault("ledger.max_retries", d.Ledger.MaxRetries)
	v.SetDefault("ledger.base_delay", d.Ledger.BaseDelay)
	v.SetDefault("ledger.max_delay", d.Ledger.MaxDelay)
	v.SetDefault("ledger.publish_timeout", d.Ledger.PublishTimeout)

	v.SetDefault("log.env", d.Log.Env)
	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("seed.enabled", d.Seed.Enabled)
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Lock.Backend {
	case "local":
	case "redis":
		if c.Lock.Redis.Addr == "" {
			return fmt.Errorf("lock.redis.addr is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("unknown lock backend %q", c.Lock.Backend)
	}

	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers is required when events are enabled")
	}
	if c.Ledger.MaxRetries < 1 {
		return fmt.Errorf("ledger.max_retries must be at least 1")
	}
	if c.Server.APIToken == "" {
		return fmt.Errorf("server.api_token must not be empty")
	}
	return nil
}

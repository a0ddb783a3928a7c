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

// EnvPrefix prefixes every environment override, e.g. CAMPUS_SERVER_PORT.
const EnvPrefix = "CAMPUS"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Events    EventsConfig    `mapstructure:"events"`
	Orders    OrdersConfig    `mapstructure:"orders"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type CacheConfig struct {
	Backend   string        `mapstructure:"backend"` // memory, redis
	Capacity  int           `mapstructure:"capacity"`
	TTL       time.Duration `mapstructure:"ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
}

type EventsConfig struct {
	NATSURL string `mapstructure:"nats_url"`
}

type OrdersConfig struct {
	DeliveryFee float64 `mapstructure:"delivery_fee"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type JobsConfig struct {
	SubscriptionSweep string `mapstructure:"subscription_sweep"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "campus_eats.db")
	v.SetDefault("auth.jwt_secret", "campus_eats_dev_secret_change_me")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.capacity", 10000)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("events.nats_url", "")
	v.SetDefault("orders.delivery_fee", 1.5)
	v.SetDefault("ratelimit.rps", 5.0)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("jobs.subscription_sweep", "@every 1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Default returns the configuration with every default applied and no
// file or environment overrides.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load reads configuration from defaults, an optional config file, a .env
// file and CAMPUS_* environment variables, in increasing priority. An empty
// path searches for config.yaml in . and ./config.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid config: unknown server mode %q", c.Server.Mode)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("invalid config: unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("invalid config: database.dsn is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid config: unknown cache backend %q", c.Cache.Backend)
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("invalid config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("invalid config: auth.token_ttl must be positive")
	}
	if c.Orders.DeliveryFee < 0 {
		return errors.New("invalid config: orders.delivery_fee cannot be negative")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("invalid config: ratelimit.rps and ratelimit.burst must be positive")
	}
	return nil
}

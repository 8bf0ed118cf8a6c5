package config

import (
	"fmt"
	"routeflow/internal/optimizer"
	"routeflow/internal/platform/db"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Env       string          `mapstructure:"env"`
	LogLevel  string          `mapstructure:"log_level"`
	SeedPath  string          `mapstructure:"seed_path"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	ORS       ORSConfig       `mapstructure:"ors"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string { return fmt.Sprintf(":%d", s.Port) }

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// Redis is optional; an empty Addr disables the optimization cache.
type RedisConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// ORS is optional; without an API key only coordinate-bearing stops are accepted.
type ORSConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Country string `mapstructure:"country"`
}

type OptimizerConfig struct {
	AverageSpeedMetersPerSecond float64 `mapstructure:"averageSpeedMetersPerSecond"`
	DwellSeconds                float64 `mapstructure:"dwellSeconds"`
	MaxPasses                   int     `mapstructure:"maxPasses"`
}

func (o OptimizerConfig) Options() optimizer.Options {
	return optimizer.Options{
		AverageSpeedMetersPerSecond: o.AverageSpeedMetersPerSecond,
		DwellSeconds:                o.DwellSeconds,
		MaxPasses:                   o.MaxPasses,
	}
}

// Load reads configuration from an optional config.yaml and environment
// variables. Environment variables use the ROUTEFLOW_ prefix with dots
// replaced by underscores (ROUTEFLOW_SERVER_PORT -> server.port); a few
// common unprefixed names are accepted as well.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("seed_path", "data/seeds/routes.json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.driver", string(db.SQLite))
	v.SetDefault("database.url", "routeflow.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.ttl", "15m")
	v.SetDefault("ors.api_key", "")
	v.SetDefault("ors.base_url", "https://api.openrouteservice.org")
	v.SetDefault("ors.country", "")
	v.SetDefault("optimizer.averageSpeedMetersPerSecond", optimizer.DefaultAverageSpeedMetersPerSecond)
	v.SetDefault("optimizer.dwellSeconds", optimizer.DefaultDwellSeconds)
	v.SetDefault("optimizer.maxPasses", 0)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("ROUTEFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	aliases := map[string][]string{
		"database.driver": {"ROUTEFLOW_DATABASE_DRIVER", "DB_DRIVER"},
		"database.url":    {"ROUTEFLOW_DATABASE_URL", "DATABASE_URL"},
		"redis.addr":      {"ROUTEFLOW_REDIS_ADDR", "REDIS_ADDR"},
		"ors.api_key":     {"ROUTEFLOW_ORS_API_KEY", "ORS_API_KEY"},
		"seed_path":       {"ROUTEFLOW_SEED_PATH", "SEED_PATH"},
		"server.port":     {"ROUTEFLOW_SERVER_PORT", "PORT"},
	}
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if _, err := db.ParseDialect(c.Database.Driver); err != nil {
		errs = append(errs, err.Error())
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, "database.url is required")
	}
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		errs = append(errs, "redis.ttl must be positive")
	}
	if err := c.Optimizer.Options().Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

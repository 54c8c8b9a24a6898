/*
Package config loads application configuration.

PRIORITY (highest to lowest):
  1. Environment variables with COMMISSION_ prefix
     (COMMISSION_SERVER_PORT, COMMISSION_REDIS_ENABLED, ...)
  2. .env file in the working directory, loaded into the environment
  3. commission.toml (working directory or /etc/commission), or the file
     passed with --config
  4. Built-in defaults

Business rules (rates, thresholds, targets) are not configuration. They
live in the settings store and are edited through the admin API.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COMMISSION"

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Redis    RedisConfig
	Settings SettingsConfig
}

type ServerConfig struct {
	Port            int
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

type DatabaseConfig struct {
	Path string // ":memory:" for an in-memory database
	Seed bool   // seed defaults on start
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// RedisConfig configures the shared settings cache. Disabled by default.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type SettingsConfig struct {
	CacheTTL        time.Duration // Redis entry lifetime
	RefreshInterval time.Duration // periodic snapshot rebuild, 0 disables
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_upload_bytes", 32<<20)

	v.SetDefault("database.path", "commission.db")
	v.SetDefault("database.seed", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("settings.cache_ttl", "10m")
	v.SetDefault("settings.refresh_interval", "5m")
}

// Load reads configuration. An empty file means search the default
// locations; a missing default file is not an error.
func Load(file string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("commission")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/commission")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			AllowedOrigins:  v.GetStringSlice("server.allowed_origins"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			MaxUploadBytes:  v.GetInt64("server.max_upload_bytes"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
			Seed: v.GetBool("database.seed"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Settings: SettingsConfig{
			CacheTTL:        v.GetDuration("settings.cache_ttl"),
			RefreshInterval: v.GetDuration("settings.refresh_interval"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	if c.Settings.CacheTTL < 0 || c.Settings.RefreshInterval < 0 {
		return errors.New("settings durations must not be negative")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string { return fmt.Sprintf(":%d", s.Port) }

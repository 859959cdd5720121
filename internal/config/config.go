// Package config loads the messaging server settings from an optional file,
// a .env file and IM_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures the server runtime parameters.
type Config struct {
	Port                int             `mapstructure:"port"`
	Path                string          `mapstructure:"path"`
	MaxFrameSize        int64           `mapstructure:"max_frame_size"`
	AllowedOrigins      []string        `mapstructure:"allowed_origins"`
	LogLevel            string          `mapstructure:"log_level"`
	SendBuffer          int             `mapstructure:"send_buffer"`
	RateLimit           RateLimitConfig `mapstructure:"rate_limit"`
	Persist             PersistConfig   `mapstructure:"persist"`
	Store               StoreConfig     `mapstructure:"store"`
	ShutdownGracePeriod time.Duration   `mapstructure:"shutdown_grace_period"`
}

// RateLimitConfig bounds inbound frames per connection. A zero Burst
// disables limiting.
type RateLimitConfig struct {
	Burst    int           `mapstructure:"burst"`
	Interval time.Duration `mapstructure:"interval"`
}

// PersistConfig sizes the asynchronous message writer.
type PersistConfig struct {
	Workers int           `mapstructure:"workers"`
	Queue   int           `mapstructure:"queue"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	BadgerPath    string `mapstructure:"badger_path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

// Store drivers.
const (
	DriverBadger = "badger"
	DriverMongo  = "mongo"
)

const (
	defaultPort                = 58080
	defaultPath                = "/webSocket"
	defaultMaxFrameSize        = 65536 * 10
	defaultLogLevel            = "info"
	defaultSendBuffer          = 256
	defaultRateBurst           = 20
	defaultRateInterval        = time.Second
	defaultPersistWorkers      = 4
	defaultPersistQueue        = 1024
	defaultPersistTimeout      = 5 * time.Second
	defaultBadgerPath          = "data/im"
	defaultMongoURI            = "mongodb://localhost:27017"
	defaultMongoDatabase       = "scoder"
	defaultShutdownGracePeriod = 10 * time.Second
)

// Load reads configuration from the provided file path (if any) and the
// environment. Environment variables are prefixed with IM_ and override file
// values; a .env file in the working directory is applied first.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("IM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("port", defaultPort)
	v.SetDefault("path", defaultPath)
	v.SetDefault("max_frame_size", defaultMaxFrameSize)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("send_buffer", defaultSendBuffer)
	v.SetDefault("rate_limit.burst", defaultRateBurst)
	v.SetDefault("rate_limit.interval", defaultRateInterval.String())
	v.SetDefault("persist.workers", defaultPersistWorkers)
	v.SetDefault("persist.queue", defaultPersistQueue)
	v.SetDefault("persist.timeout", defaultPersistTimeout.String())
	v.SetDefault("store.driver", DriverBadger)
	v.SetDefault("store.badger_path", defaultBadgerPath)
	v.SetDefault("store.mongo_uri", defaultMongoURI)
	v.SetDefault("store.mongo_database", defaultMongoDatabase)
	v.SetDefault("shutdown_grace_period", defaultShutdownGracePeriod.String())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AllowedOrigins = splitOrigins(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot run a server.
func (c Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case !strings.HasPrefix(c.Path, "/"):
		return fmt.Errorf("path %q must start with /", c.Path)
	case c.MaxFrameSize <= 0:
		return fmt.Errorf("max_frame_size must be positive, got %d", c.MaxFrameSize)
	case c.SendBuffer <= 0:
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	case c.RateLimit.Burst < 0:
		return fmt.Errorf("rate_limit.burst must not be negative, got %d", c.RateLimit.Burst)
	case c.RateLimit.Burst > 0 && c.RateLimit.Interval <= 0:
		return fmt.Errorf("rate_limit.interval must be positive, got %s", c.RateLimit.Interval)
	case c.Persist.Workers <= 0:
		return fmt.Errorf("persist.workers must be positive, got %d", c.Persist.Workers)
	case c.Persist.Queue <= 0:
		return fmt.Errorf("persist.queue must be positive, got %d", c.Persist.Queue)
	case c.Persist.Timeout <= 0:
		return fmt.Errorf("persist.timeout must be positive, got %s", c.Persist.Timeout)
	case c.ShutdownGracePeriod <= 0:
		return fmt.Errorf("shutdown_grace_period must be positive, got %s", c.ShutdownGracePeriod)
	}
	switch c.Store.Driver {
	case DriverBadger:
		if c.Store.BadgerPath == "" {
			return errors.New("store.badger_path is required for the badger driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return errors.New("store.mongo_uri and store.mongo_database are required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// splitOrigins accepts both list values and a single comma separated string
// coming from the environment.
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		for _, part := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

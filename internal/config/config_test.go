package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load("")
	req.NoError(err)

	req.Equal(defaultPort, cfg.Port)
	req.Equal(":58080", cfg.Addr())
	req.Equal("/webSocket", cfg.Path)
	req.Equal(int64(655360), cfg.MaxFrameSize)
	req.Equal([]string{"*"}, cfg.AllowedOrigins)
	req.Equal(defaultLogLevel, cfg.LogLevel)
	req.Equal(defaultSendBuffer, cfg.SendBuffer)
	req.Equal(defaultRateBurst, cfg.RateLimit.Burst)
	req.Equal(time.Second, cfg.RateLimit.Interval)
	req.Equal(defaultPersistWorkers, cfg.Persist.Workers)
	req.Equal(defaultPersistQueue, cfg.Persist.Queue)
	req.Equal(5*time.Second, cfg.Persist.Timeout)
	req.Equal(DriverBadger, cfg.Store.Driver)
	req.Equal(defaultBadgerPath, cfg.Store.BadgerPath)
	req.Equal(defaultMongoDatabase, cfg.Store.MongoDatabase)
	req.Equal(defaultShutdownGracePeriod, cfg.ShutdownGracePeriod)
}

func TestLoadWithFileAndEnvOverride(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	req.NoError(os.WriteFile(configPath, []byte(`
port: 9000
path: "/ws"
log_level: "debug"
allowed_origins:
  - "http://localhost:3000"
rate_limit:
  burst: 3
  interval: "2s"
store:
  driver: "mongo"
  mongo_uri: "mongodb://db:27017"
shutdown_grace_period: "5s"
`), 0o644))

	t.Setenv("IM_PORT", "7001")
	t.Setenv("IM_PERSIST_WORKERS", "8")
	t.Setenv("IM_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load(configPath)
	req.NoError(err)

	req.Equal(7001, cfg.Port)
	req.Equal("/ws", cfg.Path)
	req.Equal("debug", cfg.LogLevel)
	req.Equal([]string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	req.Equal(3, cfg.RateLimit.Burst)
	req.Equal(2*time.Second, cfg.RateLimit.Interval)
	req.Equal(8, cfg.Persist.Workers)
	req.Equal(DriverMongo, cfg.Store.Driver)
	req.Equal("mongodb://db:27017", cfg.Store.MongoURI)
	req.Equal(5*time.Second, cfg.ShutdownGracePeriod)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"relative path", func(c *Config) { c.Path = "ws" }},
		{"frame size", func(c *Config) { c.MaxFrameSize = 0 }},
		{"send buffer", func(c *Config) { c.SendBuffer = 0 }},
		{"negative burst", func(c *Config) { c.RateLimit.Burst = -1 }},
		{"interval", func(c *Config) { c.RateLimit.Interval = 0 }},
		{"workers", func(c *Config) { c.Persist.Workers = 0 }},
		{"queue", func(c *Config) { c.Persist.Queue = 0 }},
		{"timeout", func(c *Config) { c.Persist.Timeout = 0 }},
		{"driver", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"badger path", func(c *Config) { c.Store.BadgerPath = "" }},
		{"grace period", func(c *Config) { c.ShutdownGracePeriod = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	t.Run("burst zero disables limiter", func(t *testing.T) {
		cfg := base
		cfg.RateLimit = RateLimitConfig{}
		require.NoError(t, cfg.Validate())
	})
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheBolt  = "bolt"
	CacheRedis = "redis"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	Host        HostConfig
	Cache       CacheConfig
	Redis       RedisConfig
	Refresh     RefreshConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type HostConfig struct {
	OsascriptPath string
	Timeout       time.Duration
}

type CacheConfig struct {
	Backend   string
	BoltPath  string
	Bucket    string
	TTL       time.Duration
	Retention time.Duration
}

type RedisConfig struct {
	URL       string
	Password  string
	DB        int
	KeyPrefix string
}

type RefreshConfig struct {
	Interval  time.Duration
	Documents []string
}

type ContextConfig struct {
	CommandTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults that work on a workstation with the host application
// installed.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "planbridge"),
		Environment: getString("APP_ENV", "development"),
		Host: HostConfig{
			OsascriptPath: getString("OSASCRIPT_PATH", "/usr/bin/osascript"),
			Timeout:       getDuration("HOST_TIMEOUT_SECONDS", 60*time.Second),
		},
		Cache: CacheConfig{
			Backend:   strings.ToLower(getString("CACHE_BACKEND", CacheNone)),
			BoltPath:  getString("BOLTDB_PATH", "./data/snapshots.db"),
			Bucket:    getString("BOLTDB_BUCKET", "snapshots"),
			TTL:       getDuration("CACHE_TTL", 0),
			Retention: getDuration("CACHE_RETENTION", 7*24*time.Hour),
		},
		Redis: RedisConfig{
			URL:       getString("REDIS_URL", "redis://localhost:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        getInt("REDIS_DB", 0),
			KeyPrefix: getString("REDIS_KEY_PREFIX", "planbridge:snapshot:"),
		},
		Refresh: RefreshConfig{
			Interval:  getDuration("REFRESH_INTERVAL", 5*time.Minute),
			Documents: getList("REFRESH_DOCUMENTS"),
		},
		Context: ContextConfig{
			CommandTimeout:  getDuration("COMMAND_TIMEOUT_SECONDS", 2*time.Minute),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "warn"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks settings that have no usable fallback.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheNone, CacheBolt, CacheRedis:
	default:
		return fmt.Errorf("unknown cache backend %q (want %s, %s or %s)", c.Cache.Backend, CacheNone, CacheBolt, CacheRedis)
	}
	if c.Cache.Backend == CacheBolt && c.Cache.BoltPath == "" {
		return fmt.Errorf("BOLTDB_PATH is required for the %s cache", CacheBolt)
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.Refresh.Interval)
	}
	return nil
}

// CacheEnabled reports whether snapshots are read and written.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Backend != CacheNone
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getList splits a comma separated value, dropping empty items.
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

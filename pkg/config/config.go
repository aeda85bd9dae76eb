package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Redis   RedisConfig
	Health  HealthConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(cfg.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPFRONT_APP_PORT" default:"7600"`
	LogLevel     string `envconfig:"SHOPFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig describes the remote storefront API this client talks to.
type APIConfig struct {
	BaseURL         string        `envconfig:"SHOPFRONT_API_BASE_URL" required:"true"`
	Timeout         time.Duration `envconfig:"SHOPFRONT_API_TIMEOUT" default:"10s"`
	AdminPathPrefix string        `envconfig:"SHOPFRONT_API_ADMIN_PREFIX" default:"/api/admin"`
	AdminLoginPath  string        `envconfig:"SHOPFRONT_ADMIN_LOGIN_PATH" default:"/admin/login"`
}

// StorageConfig selects the durable local snapshot backend.
type StorageConfig struct {
	Backend    string `envconfig:"SHOPFRONT_STORAGE_BACKEND" default:"sqlite"`
	SQLitePath string `envconfig:"SHOPFRONT_STORAGE_SQLITE_PATH" default:"shopfront.db"`
}

const (
	StorageBackendSQLite = "sqlite"
	StorageBackendRedis  = "redis"
	StorageBackendMemory = "memory"
)

func (s StorageConfig) NormalizedBackend() string {
	return strings.TrimSpace(strings.ToLower(s.Backend))
}

func (s StorageConfig) validate(redis RedisConfig) error {
	switch s.NormalizedBackend() {
	case StorageBackendSQLite:
		if strings.TrimSpace(s.SQLitePath) == "" {
			return fmt.Errorf("%s is required for the sqlite backend", EnvStorageSQLitePath)
		}
		return nil
	case StorageBackendRedis:
		if redis.URL == "" && redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis backend", EnvRedisURL, EnvRedisAddr)
		}
		return nil
	case StorageBackendMemory:
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPFRONT_REDIS_URL"`
	Address      string        `envconfig:"SHOPFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// HealthConfig tunes the session liveness probe.
type HealthConfig struct {
	ProbeTimeout time.Duration `envconfig:"SHOPFRONT_HEALTH_PROBE_TIMEOUT" default:"5s"`
}

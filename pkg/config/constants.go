package config

const EnvPrefix = "SHOPFRONT"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names, exported for tests and tooling.
const (
	EnvAppEnv            = "SHOPFRONT_APP_ENV"
	EnvAppPort           = "SHOPFRONT_APP_PORT"
	EnvLogLevel          = "SHOPFRONT_LOG_LEVEL"
	EnvAPIBaseURL        = "SHOPFRONT_API_BASE_URL"
	EnvAPITimeout        = "SHOPFRONT_API_TIMEOUT"
	EnvAPIAdminPrefix    = "SHOPFRONT_API_ADMIN_PREFIX"
	EnvAdminLoginPath    = "SHOPFRONT_ADMIN_LOGIN_PATH"
	EnvStorageBackend    = "SHOPFRONT_STORAGE_BACKEND"
	EnvStorageSQLitePath = "SHOPFRONT_STORAGE_SQLITE_PATH"
	EnvRedisURL          = "SHOPFRONT_REDIS_URL"
	EnvRedisAddr         = "SHOPFRONT_REDIS_ADDR"
	EnvHealthTimeout     = "SHOPFRONT_HEALTH_PROBE_TIMEOUT"
)

// Package common holds the constants shared by the configuration, HTTP and
// model packages of the SHDP backend.
package common

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvEnvFile         = "ENV_FILE"
	EnvHost            = "HOST"
	EnvPort            = "PORT"
	EnvGinMode         = "GIN_MODE"
	EnvModelsDir       = "MODELS_DIR"
	EnvCacheModels     = "CACHE_MODELS"
	EnvAllowedOrigins  = "ALLOWED_ORIGINS"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvRemoteTimeout   = "REMOTE_TIMEOUT"
	EnvBreakerFailures = "BREAKER_FAILURES"
	EnvMetricsEnabled  = "METRICS_ENABLED"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvLogFile         = "LOG_FILE"
	EnvLogMaxSizeMB    = "LOG_MAX_SIZE_MB"
	EnvLogMaxBackups   = "LOG_MAX_BACKUPS"
	EnvLogMaxAgeDays   = "LOG_MAX_AGE_DAYS"
	EnvLogCompress     = "LOG_COMPRESS"
)

// HTTP surface
const (
	RequestIDHeader      = "X-Request-ID"
	RequestIDContextKey  = "request_id"
	HealthyStatus        = "healthy"
	HealthyStatusMessage = "SHDP Backend is running"
)

// Configuration defaults
const (
	DefaultEnvFile         = ".env"
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 5000
	DefaultGinMode         = "release"
	DefaultModelsDir       = "."
	DefaultCacheModels     = true
	DefaultAllowedOrigins  = "*"
	DefaultMetricsEnabled  = true
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultLogMaxSizeMB    = 100
	DefaultLogMaxBackups   = 3
	DefaultLogMaxAgeDays   = 28
	DefaultBreakerFailures = 5
)

// Validation constants
const (
	MinPort            = 1
	MaxPort            = 65535
	MaxBreakerFailures = 100
	MaxLogMaxSizeMB    = 10240
)

// Common error messages
const (
	ErrMsgNoData           = "No data provided"
	ErrMsgDiseaseRequired  = "disease_type is required"
	ErrMsgSymptomsList     = "symptoms must be a list of numbers"
	ErrMsgPredictionFailed = "Prediction failed"
)

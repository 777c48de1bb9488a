package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"shdp-backend/internal/common"
)

type Settings struct {
	Host            string
	Port            int
	GinMode         string
	ModelsDir       string
	CacheModels     bool
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RemoteTimeout   time.Duration
	BreakerFailures int
	MetricsEnabled  bool
	Log             LogSettings
}

type LogSettings struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type ConfigFile struct {
	Server struct {
		Host            string   `yaml:"host"`
		Port            int      `yaml:"port"`
		GinMode         string   `yaml:"ginMode"`
		AllowedOrigins  []string `yaml:"allowedOrigins"`
		ReadTimeout     string   `yaml:"readTimeout"`
		WriteTimeout    string   `yaml:"writeTimeout"`
		ShutdownTimeout string   `yaml:"shutdownTimeout"`
		MetricsEnabled  *bool    `yaml:"metricsEnabled"`
	} `yaml:"server"`

	Models struct {
		Dir             string `yaml:"dir"`
		Cache           *bool  `yaml:"cache"`
		RemoteTimeout   string `yaml:"remoteTimeout"`
		BreakerFailures int    `yaml:"breakerFailures"`
	} `yaml:"models"`

	Logging struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"maxSizeMB"`
		MaxBackups int    `yaml:"maxBackups"`
		MaxAgeDays int    `yaml:"maxAgeDays"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logging"`
}

// Addr returns the host:port pair the HTTP server listens on.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func Load() (Settings, error) {
	if err := loadDotEnv(getEnvOrDefault(common.EnvEnvFile, common.DefaultEnvFile)); err != nil {
		return Settings{}, err
	}

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

// loadDotEnv populates unset environment variables from path. A missing file
// is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables override file values
	settings := Settings{
		Host:            getEnvOrDefault(common.EnvHost, orString(config.Server.Host, common.DefaultHost)),
		Port:            getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		GinMode:         getEnvOrDefault(common.EnvGinMode, orString(config.Server.GinMode, common.DefaultGinMode)),
		ModelsDir:       getEnvOrDefault(common.EnvModelsDir, orString(config.Models.Dir, common.DefaultModelsDir)),
		CacheModels:     getBoolOrDefault(common.EnvCacheModels, orBool(config.Models.Cache, common.DefaultCacheModels)),
		AllowedOrigins:  getOriginsFromEnvOrConfig(config.Server.AllowedOrigins),
		ReadTimeout:     getDurationFromEnvOrConfig(common.EnvReadTimeout, config.Server.ReadTimeout, 10*time.Second),
		WriteTimeout:    getDurationFromEnvOrConfig(common.EnvWriteTimeout, config.Server.WriteTimeout, 30*time.Second),
		ShutdownTimeout: getDurationFromEnvOrConfig(common.EnvShutdownTimeout, config.Server.ShutdownTimeout, 10*time.Second),
		RemoteTimeout:   getDurationFromEnvOrConfig(common.EnvRemoteTimeout, config.Models.RemoteTimeout, 5*time.Second),
		BreakerFailures: getIntFromEnvOrConfig(common.EnvBreakerFailures, config.Models.BreakerFailures, common.DefaultBreakerFailures),
		MetricsEnabled:  getBoolOrDefault(common.EnvMetricsEnabled, orBool(config.Server.MetricsEnabled, common.DefaultMetricsEnabled)),
		Log: LogSettings{
			Level:      getEnvOrDefault(common.EnvLogLevel, orString(config.Logging.Level, common.DefaultLogLevel)),
			Format:     getEnvOrDefault(common.EnvLogFormat, orString(config.Logging.Format, common.DefaultLogFormat)),
			File:       getEnvOrDefault(common.EnvLogFile, config.Logging.File),
			MaxSizeMB:  getIntFromEnvOrConfig(common.EnvLogMaxSizeMB, config.Logging.MaxSizeMB, common.DefaultLogMaxSizeMB),
			MaxBackups: getIntFromEnvOrConfig(common.EnvLogMaxBackups, config.Logging.MaxBackups, common.DefaultLogMaxBackups),
			MaxAgeDays: getIntFromEnvOrConfig(common.EnvLogMaxAgeDays, config.Logging.MaxAgeDays, common.DefaultLogMaxAgeDays),
			Compress:   getBoolOrDefault(common.EnvLogCompress, config.Logging.Compress),
		},
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Host:            getEnvOrDefault(common.EnvHost, common.DefaultHost),
		Port:            getIntOrDefault(common.EnvPort, common.DefaultPort),
		GinMode:         getEnvOrDefault(common.EnvGinMode, common.DefaultGinMode),
		ModelsDir:       getEnvOrDefault(common.EnvModelsDir, common.DefaultModelsDir),
		CacheModels:     getBoolOrDefault(common.EnvCacheModels, common.DefaultCacheModels),
		AllowedOrigins:  getOriginsFromEnvOrConfig(nil),
		ReadTimeout:     getDurationOrDefault(common.EnvReadTimeout, 10*time.Second),
		WriteTimeout:    getDurationOrDefault(common.EnvWriteTimeout, 30*time.Second),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, 10*time.Second),
		RemoteTimeout:   getDurationOrDefault(common.EnvRemoteTimeout, 5*time.Second),
		BreakerFailures: getIntOrDefault(common.EnvBreakerFailures, common.DefaultBreakerFailures),
		MetricsEnabled:  getBoolOrDefault(common.EnvMetricsEnabled, common.DefaultMetricsEnabled),
		Log: LogSettings{
			Level:      getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
			Format:     getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
			File:       os.Getenv(common.EnvLogFile), // optional
			MaxSizeMB:  getIntOrDefault(common.EnvLogMaxSizeMB, common.DefaultLogMaxSizeMB),
			MaxBackups: getIntOrDefault(common.EnvLogMaxBackups, common.DefaultLogMaxBackups),
			MaxAgeDays: getIntOrDefault(common.EnvLogMaxAgeDays, common.DefaultLogMaxAgeDays),
			Compress:   getBoolOrDefault(common.EnvLogCompress, false),
		},
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getOriginsFromEnvOrConfig(configOrigins []string) []string {
	if env := os.Getenv(common.EnvAllowedOrigins); env != "" {
		return splitOrDefault(env, nil)
	}
	if len(configOrigins) > 0 {
		return configOrigins
	}
	return []string{common.DefaultAllowedOrigins}
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if d, err := time.ParseDuration(configValue); err == nil {
		return d
	}
	return defaultValue
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orBool(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}

	switch settings.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("gin mode must be one of debug, release, test, got %q", settings.GinMode)
	}

	if strings.TrimSpace(settings.ModelsDir) == "" {
		return fmt.Errorf("models directory cannot be empty")
	}
	if len(settings.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	// Validate time durations
	if settings.ReadTimeout < time.Second || settings.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 5m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 5m, got %v", settings.WriteTimeout)
	}
	if settings.ShutdownTimeout < time.Second || settings.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown timeout must be between 1s and 5m, got %v", settings.ShutdownTimeout)
	}
	if settings.RemoteTimeout < 100*time.Millisecond || settings.RemoteTimeout > time.Minute {
		return fmt.Errorf("remote timeout must be between 100ms and 1m, got %v", settings.RemoteTimeout)
	}

	if settings.BreakerFailures < 1 || settings.BreakerFailures > common.MaxBreakerFailures {
		return fmt.Errorf("breaker failures must be between 1 and %d, got %d", common.MaxBreakerFailures, settings.BreakerFailures)
	}

	// Validate logging
	if _, err := zerolog.ParseLevel(strings.ToLower(settings.Log.Level)); err != nil || settings.Log.Level == "" {
		return fmt.Errorf("invalid log level %q", settings.Log.Level)
	}
	if settings.Log.Format != "json" && settings.Log.Format != "console" {
		return fmt.Errorf("log format must be json or console, got %q", settings.Log.Format)
	}
	if settings.Log.MaxSizeMB < 1 || settings.Log.MaxSizeMB > common.MaxLogMaxSizeMB {
		return fmt.Errorf("log max size must be between 1 and %d MB, got %d", common.MaxLogMaxSizeMB, settings.Log.MaxSizeMB)
	}
	if settings.Log.MaxBackups < 0 {
		return fmt.Errorf("log max backups cannot be negative, got %d", settings.Log.MaxBackups)
	}
	if settings.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log max age cannot be negative, got %d", settings.Log.MaxAgeDays)
	}

	return nil
}

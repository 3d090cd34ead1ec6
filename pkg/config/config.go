package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	AppEnv     string `mapstructure:"APP_ENV"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int    `mapstructure:"REDIS_DB"`
	CacheTTLMinutes int    `mapstructure:"CACHE_TTL_MINUTES"`

	MaxFileSizeMB    int `mapstructure:"MAX_FILE_SIZE_MB"`
	MaxFilesPerBatch int `mapstructure:"MAX_FILES_PER_BATCH"`
	AnalysisWorkers  int `mapstructure:"ANALYSIS_WORKERS"`
	PhotoMaxAgeDays  int `mapstructure:"PHOTO_MAX_AGE_DAYS"`
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit env file path.
func LoadFrom(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// The file is optional; production is configured purely through the environment.
	_ = v.ReadInConfig()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_MINUTES", 60)
	v.SetDefault("MAX_FILE_SIZE_MB", 10)
	v.SetDefault("MAX_FILES_PER_BATCH", 10)
	v.SetDefault("ANALYSIS_WORKERS", 4)
	v.SetDefault("PHOTO_MAX_AGE_DAYS", 30)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects limits that would make the service unusable.
func (c *Config) Validate() error {
	switch {
	case c.ServerPort == "":
		return fmt.Errorf("SERVER_PORT must be set")
	case c.MaxFileSizeMB <= 0:
		return fmt.Errorf("MAX_FILE_SIZE_MB must be positive, got %d", c.MaxFileSizeMB)
	case c.MaxFilesPerBatch <= 0:
		return fmt.Errorf("MAX_FILES_PER_BATCH must be positive, got %d", c.MaxFilesPerBatch)
	case c.AnalysisWorkers <= 0:
		return fmt.Errorf("ANALYSIS_WORKERS must be positive, got %d", c.AnalysisWorkers)
	case c.PhotoMaxAgeDays <= 0:
		return fmt.Errorf("PHOTO_MAX_AGE_DAYS must be positive, got %d", c.PhotoMaxAgeDays)
	case c.CacheTTLMinutes < 0:
		return fmt.Errorf("CACHE_TTL_MINUTES must not be negative, got %d", c.CacheTTLMinutes)
	}
	return nil
}

// MaxFileSize is the per-file upload limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

func (c *Config) PhotoMaxAge() time.Duration {
	return time.Duration(c.PhotoMaxAgeDays) * 24 * time.Hour
}

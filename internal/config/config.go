package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Limits   LimitsConfig   `yaml:"limits" envconfig:"LIMITS"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/rankcli.log"`
}

// LimitsConfig bounds uploaded files
type LimitsConfig struct {
	MaxUploadSizeMB int64 `yaml:"max_upload_size_mb" envconfig:"MAX_UPLOAD_SIZE_MB" default:"10"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExportsDir   string        `yaml:"exports_dir" envconfig:"EXPORTS_DIR" default:"exports"`
	ExportMaxAge time.Duration `yaml:"export_max_age" envconfig:"EXPORT_MAX_AGE" default:"30m"`
}

// MaxUploadBytes returns the upload size limit in bytes.
func (l LimitsConfig) MaxUploadBytes() int64 {
	return l.MaxUploadSizeMB * 1024 * 1024
}

// Load loads configuration from environment variables and, when present,
// a YAML config file. Environment values win over file values.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("RANK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func configFilePath() string {
	if p := os.Getenv("RANK_CONFIG_FILE"); p != "" {
		return p
	}
	return "rankcli.yaml"
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence,
// file fills fields the environment left at their zero value)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if os.Getenv("RANK_SERVER_PORT") == "" && fileConfig.Server.Port != 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if os.Getenv("RANK_LOGGING_LEVEL") == "" && fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if os.Getenv("RANK_LOGGING_OUTPUT") == "" && fileConfig.Logging.Output != "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if os.Getenv("RANK_PATHS_EXPORTS_DIR") == "" && fileConfig.Paths.ExportsDir != "" {
		envConfig.Paths.ExportsDir = fileConfig.Paths.ExportsDir
	}
	if os.Getenv("RANK_PATHS_EXPORT_MAX_AGE") == "" && fileConfig.Paths.ExportMaxAge != 0 {
		envConfig.Paths.ExportMaxAge = fileConfig.Paths.ExportMaxAge
	}
	if os.Getenv("RANK_LIMITS_MAX_UPLOAD_SIZE_MB") == "" && fileConfig.Limits.MaxUploadSizeMB != 0 {
		envConfig.Limits.MaxUploadSizeMB = fileConfig.Limits.MaxUploadSizeMB
	}
	if os.Getenv("RANK_SECURITY_ALLOWED_ORIGINS") == "" && len(fileConfig.Security.AllowedOrigins) > 0 {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	return envConfig
}

// validate checks configuration invariants
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Limits.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d MB", c.Limits.MaxUploadSizeMB)
	}
	if c.Paths.ExportsDir == "" {
		return fmt.Errorf("exports directory must be set")
	}
	return nil
}

// EnsureDirectories creates the directories the application writes to.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.ExportsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create exports directory: %w", err)
	}
	return nil
}

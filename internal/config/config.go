// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Session modes
const (
	SessionModeHeader = "header"
	SessionModeToken  = "token"
)

const defaultSessionSecret = "dev-session-secret-change-in-production"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Health   HealthConfig   `yaml:"health"`
}

type ServerConfig struct {
	HTTPPort         string        `yaml:"http_port"`
	GRPCPort         string        `yaml:"grpc_port"`
	Environment      string        `yaml:"environment"`
	AutoMigrate      bool          `yaml:"auto_migrate"`
	EnableReflection bool          `yaml:"enable_reflection"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// AuthConfig holds credential and session settings.
type AuthConfig struct {
	SessionMode          string        `yaml:"session_mode"`
	SessionSecret        string        `yaml:"session_secret"`
	SessionTokenDuration time.Duration `yaml:"session_token_duration"`
	MinPasswordLength    int           `yaml:"min_password_length"`
	RequirePasswordUpper bool          `yaml:"require_password_upper"`
	RequirePasswordLower bool          `yaml:"require_password_lower"`
	RequirePasswordDigit bool          `yaml:"require_password_digit"`
	BcryptCost           int           `yaml:"bcrypt_cost"`
}

type HealthConfig struct {
	CheckInterval time.Duration `yaml:"check_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:         "8080",
			GRPCPort:         "50051",
			Environment:      "development",
			AutoMigrate:      true,
			EnableReflection: false,
			ShutdownTimeout:  30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			DBName:          "dailytasks",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: AuthConfig{
			SessionMode:          SessionModeHeader,
			SessionSecret:        defaultSessionSecret,
			SessionTokenDuration: 24 * time.Hour,
			MinPasswordLength:    8,
			BcryptCost:           12,
		},
		Health: HealthConfig{
			CheckInterval: 15 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and finally environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.HTTPPort = getEnv("HTTP_PORT", c.Server.HTTPPort)
	c.Server.GRPCPort = getEnv("GRPC_PORT", c.Server.GRPCPort)
	c.Server.Environment = getEnv("ENVIRONMENT", c.Server.Environment)
	c.Server.AutoMigrate = getEnvAsBool("AUTO_MIGRATE", c.Server.AutoMigrate)
	c.Server.EnableReflection = getEnvAsBool("ENABLE_REFLECTION", c.Server.EnableReflection)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)

	c.Auth.SessionMode = getEnv("SESSION_MODE", c.Auth.SessionMode)
	c.Auth.SessionSecret = getEnv("SESSION_SECRET", c.Auth.SessionSecret)
	c.Auth.SessionTokenDuration = getEnvAsDuration("SESSION_TOKEN_DURATION", c.Auth.SessionTokenDuration)
	c.Auth.MinPasswordLength = getEnvAsInt("MIN_PASSWORD_LENGTH", c.Auth.MinPasswordLength)
	c.Auth.RequirePasswordUpper = getEnvAsBool("REQUIRE_PASSWORD_UPPER", c.Auth.RequirePasswordUpper)
	c.Auth.RequirePasswordLower = getEnvAsBool("REQUIRE_PASSWORD_LOWER", c.Auth.RequirePasswordLower)
	c.Auth.RequirePasswordDigit = getEnvAsBool("REQUIRE_PASSWORD_DIGIT", c.Auth.RequirePasswordDigit)
	c.Auth.BcryptCost = getEnvAsInt("BCRYPT_COST", c.Auth.BcryptCost)

	c.Health.CheckInterval = getEnvAsDuration("HEALTH_CHECK_INTERVAL", c.Health.CheckInterval)
}

// ValidateConfig checks settings that would otherwise fail at runtime.
func (c *Config) ValidateConfig() error {
	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Auth.SessionMode {
	case SessionModeHeader, SessionModeToken:
	default:
		return fmt.Errorf("unsupported session mode %q", c.Auth.SessionMode)
	}

	if c.Auth.MinPasswordLength < 8 {
		return errors.New("minimum password length cannot be lower than 8")
	}

	if c.Database.MaxOpenConns <= 0 {
		return errors.New("database pool needs at least one connection")
	}

	if c.Auth.SessionMode == SessionModeToken && !c.IsDevelopment() && c.Auth.SessionSecret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be set outside development")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Driver == "sqlite3" {
		return fmt.Sprintf("file:%s.db?_fk=1", d.DBName)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// Try parsing as duration string (e.g., "15m", "24h")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}

	return defaultValue
}

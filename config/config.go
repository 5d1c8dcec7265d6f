// Package config loads the process-wide configuration once at startup.
//
// Values come from the environment, optionally seeded from a .env file.
// The resulting Config is passed explicitly into module constructors;
// nothing else in the application reads the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// devSecret is only used when JWT_SECRET is unset.
const devSecret = "taskboard-dev-secret-change-me"

// Config holds all runtime settings.
type Config struct {
	HTTPPort       int
	AllowedOrigins string

	JWTSecret  string
	JWTIssuer  string
	TokenTTL   time.Duration
	BcryptCost int

	StoreDriver   string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
	LoginLimit    int
	LoginWindow   time.Duration

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	LogLevel        string
	ShutdownTimeout time.Duration
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		HTTPPort:        5000,
		AllowedOrigins:  "http://localhost:3000",
		JWTSecret:       devSecret,
		JWTIssuer:       "taskboard",
		TokenTTL:        time.Hour,
		BcryptCost:      10,
		StoreDriver:     DriverSQLite,
		SQLitePath:      "taskboard.db",
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "taskboard",
		CacheTTL:        5 * time.Minute,
		LoginLimit:      10,
		LoginWindow:     time.Minute,
		LogLevel:        "info",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Load reads .env (if present) and the environment on top of Default.
func Load() (Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg := Default()
	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.AllowedOrigins = getEnv("ALLOWED_ORIGIN", cfg.AllowedOrigins)

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", cfg.TokenTTL)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", cfg.BcryptCost)

	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", cfg.StoreDriver))
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getEnv("MONGO_DB", cfg.MongoDatabase)

	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.LoginLimit = getEnvInt("LOGIN_RATE_LIMIT", cfg.LoginLimit)
	cfg.LoginWindow = getEnvDuration("LOGIN_RATE_WINDOW", cfg.LoginWindow)

	cfg.AdminUsername = getEnv("ADMIN_USERNAME", cfg.AdminUsername)
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.AdminPassword)

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	if cfg.JWTSecret == devSecret {
		log.Println("Warning: JWT_SECRET is not set, using the development secret")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT secret must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: token TTL must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: bcrypt cost %d outside [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: SQLITE_PATH must not be empty")
		}
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return errors.New("config: MONGO_URI and MONGO_DB must not be empty")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.StoreDriver)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: invalid HTTP port %d", c.HTTPPort)
	}
	if c.RedisAddr != "" && (c.LoginLimit <= 0 || c.LoginWindow <= 0) {
		return errors.New("config: login rate limit and window must be positive")
	}
	if c.LogLevel != "info" && c.LogLevel != "error" {
		return fmt.Errorf("config: LOG_LEVEL must be info or error, got %q", c.LogLevel)
	}
	set := 0
	for _, v := range []string{c.AdminUsername, c.AdminEmail, c.AdminPassword} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return errors.New("config: ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// AdminBootstrap reports whether an admin account should be provisioned.
func (c Config) AdminBootstrap() bool {
	return c.AdminUsername != ""
}

// RedisEnabled reports whether Redis-backed features are on.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}

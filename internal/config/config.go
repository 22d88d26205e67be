package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every runtime setting of the service
type Config struct {
	Env             string
	Port            string
	DatabaseURL     string
	JWTSecret       string
	JWTExpire       time.Duration
	CookieExpire    time.Duration
	HashCost        int
	RedisURL        string
	RateLimitMax    int
	RateLimitWindow time.Duration
	LogLevel        string
	LogFormat       string
	SMTP            SMTPConfig
}

// SMTPConfig configures reset mail delivery. An empty Host disables it.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// IsDevelopment reports whether detailed errors may be exposed
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Load reads configuration from the environment, after loading a .env file if present
func Load(log logrus.FieldLogger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found or error loading, relying on environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv for lookups
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Env:       strings.ToLower(getenv("APP_ENV")),
		Port:      getenv("PORT"),
		JWTSecret: getenv("JWT_SECRET"),
		RedisURL:  getenv("REDIS_URL"),
		LogLevel:  getenv("LOG_LEVEL"),
		LogFormat: getenv("LOG_FORMAT"),
	}

	if cfg.Env == "" {
		cfg.Env = EnvDevelopment
	}
	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		return nil, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Env)
	}
	if cfg.Port == "" {
		cfg.Port = "5000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	var err error
	if cfg.DatabaseURL, err = databaseURL(cfg.Env, getenv); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set in environment")
	}

	if cfg.JWTExpire, err = durationOr(getenv("JWT_EXPIRE"), 30*24*time.Hour); err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRE: %w", err)
	}
	cookieDays, err := intOr(getenv("JWT_COOKIE_EXPIRE"), 30)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_COOKIE_EXPIRE: %w", err)
	}
	cfg.CookieExpire = time.Duration(cookieDays) * 24 * time.Hour

	if cfg.HashCost, err = intOr(getenv("SALT"), 10); err != nil {
		return nil, fmt.Errorf("invalid SALT: %w", err)
	}
	if cfg.RateLimitMax, err = intOr(getenv("RATE_LIMIT_MAX"), 100); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MAX: %w", err)
	}
	if cfg.RateLimitWindow, err = durationOr(getenv("RATE_LIMIT_WINDOW"), 10*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	cfg.SMTP = SMTPConfig{
		Host:     getenv("SMTP_HOST"),
		User:     getenv("SMTP_USER"),
		Password: getenv("SMTP_PASSWORD"),
		From:     getenv("SMTP_FROM"),
	}
	if cfg.SMTP.Port, err = intOr(getenv("SMTP_PORT"), 587); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	return cfg, nil
}

// DatabaseURLFromEnv returns the store URL for the configured deployment mode
func DatabaseURLFromEnv(getenv func(string) string) (string, error) {
	env := strings.ToLower(getenv("APP_ENV"))
	if env == "" {
		env = EnvDevelopment
	}
	return databaseURL(env, getenv)
}

// databaseURL selects the store by deployment mode
func databaseURL(env string, getenv func(string) string) (string, error) {
	var url string
	if env == EnvProduction {
		url = getenv("DATABASE_URL")
	} else {
		url = getenv("DATABASE_URL_DEV")
	}
	if url == "" {
		return "", fmt.Errorf("database URL not set (DATABASE_URL in production, DATABASE_URL_DEV otherwise)")
	}
	return url, nil
}

// durationOr parses a Go duration, also accepting a whole number of days ("30d")
func durationOr(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func intOr(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

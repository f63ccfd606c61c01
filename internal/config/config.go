package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the server configuration resolved from .env, the environment and an optional file.
type Config struct {
	Port              string
	DB                DatabaseConfig
	JWTSecret         string
	JWTExpiresIn      time.Duration
	FrontendURL       string
	UploadDir         string
	MaxUploadBytes    int64
	Migrations        bool
	RedisURL          string
	SentryDSN         string
	SentryEnvironment string
	RateLimitRPS      float64
	RateLimitBurst    int
	StrictTransitions bool
	LogFile           string
	LogLevel          string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	TimeZone     string
	MaxOpenConns int
}

var defaults = map[string]interface{}{
	"port":                       "5000",
	"db_host":                    "localhost",
	"db_port":                    "5432",
	"db_user":                    "postgres",
	"db_password":                "password",
	"db_name":                    "grameen_service_connect",
	"db_sslmode":                 "disable",
	"db_timezone":                "UTC",
	"db_max_open_conns":          10,
	"jwt_secret":                 "secret",
	"jwt_expires_in":             "7d",
	"frontend_url":               "http://localhost:3000",
	"upload_dir":                 "uploads",
	"max_upload_mb":              5,
	"migrations":                 false,
	"redis_url":                  "",
	"sentry_dsn":                 "",
	"sentry_environment":         "development",
	"rate_limit_rps":             5.0,
	"rate_limit_burst":           10,
	"request_strict_transitions": false,
	"log_file":                   "./logs/app.log",
	"log_level":                  "info",
}

// Load reads .env (if present), then the optional config file, then the environment.
// Environment variables always win over the file.
func Load(file string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	expiry, err := ParseExpiry(v.GetString("jwt_expires_in"))
	if err != nil {
		return Config{}, err
	}

	maxOpen := v.GetInt("db_max_open_conns")
	if maxOpen <= 0 {
		maxOpen = 10
	}

	cfg := Config{
		Port: v.GetString("port"),
		DB: DatabaseConfig{
			Host:         v.GetString("db_host"),
			Port:         v.GetString("db_port"),
			User:         v.GetString("db_user"),
			Password:     v.GetString("db_password"),
			Name:         v.GetString("db_name"),
			SSLMode:      v.GetString("db_sslmode"),
			TimeZone:     v.GetString("db_timezone"),
			MaxOpenConns: maxOpen,
		},
		JWTSecret:         v.GetString("jwt_secret"),
		JWTExpiresIn:      expiry,
		FrontendURL:       v.GetString("frontend_url"),
		UploadDir:         v.GetString("upload_dir"),
		MaxUploadBytes:    v.GetInt64("max_upload_mb") << 20,
		Migrations:        v.GetBool("migrations"),
		RedisURL:          v.GetString("redis_url"),
		SentryDSN:         v.GetString("sentry_dsn"),
		SentryEnvironment: v.GetString("sentry_environment"),
		RateLimitRPS:      v.GetFloat64("rate_limit_rps"),
		RateLimitBurst:    v.GetInt("rate_limit_burst"),
		StrictTransitions: v.GetBool("request_strict_transitions"),
		LogFile:           v.GetString("log_file"),
		LogLevel:          v.GetString("log_level"),
	}
	return cfg, nil
}

// ParseExpiry accepts "7d" style day counts, bare seconds ("3600") or Go durations ("72h").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty token expiry")
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid token expiry %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("invalid token expiry %q", s)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid token expiry %q", s)
	}
	return d, nil
}

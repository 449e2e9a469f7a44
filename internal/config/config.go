package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Name            string
	Env             string
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	BodyLimitBytes  int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	LoginMaxAttempts  int
	LoginWindow       time.Duration
	RegisterMaxPerIP  int
	RegisterWindow    time.Duration
	MessageMaxPerUser int
	MessageRateWindow time.Duration
	GlobalMaxPerIP    int
	GlobalRateWindow  time.Duration
}

type BotConfig struct {
	TimeCheckDelay   time.Duration
	UrgentCheckDelay time.Duration
}

type LoggerConfig struct {
	Level string
}

type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Bot      BotConfig
	Logger   LoggerConfig
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present so local development does not need exported
// variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "helpdesk"),
			Env:             getEnv("APP_ENV", "development"),
			Host:            getEnv("APP_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("APP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("APP_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("APP_SHUTDOWN_TIMEOUT", 10*time.Second),
			BodyLimitBytes:  getEnvAsInt("APP_BODY_LIMIT_BYTES", 1<<20),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "helpdesk"),
			Password: getEnv("POSTGRES_PASSWORD", "helpdesk"),
			Database: getEnv("POSTGRES_DB", "helpdesk"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns: int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			TokenTTL:          getEnvAsDuration("JWT_TTL", 12*time.Hour),
			LoginMaxAttempts:  getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:       getEnvAsDuration("LOGIN_WINDOW", 5*time.Minute),
			RegisterMaxPerIP:  getEnvAsInt("REGISTER_MAX_PER_IP", 3),
			RegisterWindow:    getEnvAsDuration("REGISTER_WINDOW", 15*time.Minute),
			MessageMaxPerUser: getEnvAsInt("MESSAGE_MAX_PER_USER", 30),
			MessageRateWindow: getEnvAsDuration("MESSAGE_RATE_WINDOW", time.Minute),
			GlobalMaxPerIP:    getEnvAsInt("RATE_LIMIT_MAX", 100),
			GlobalRateWindow:  getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour),
		},
		Bot: BotConfig{
			TimeCheckDelay:   getEnvAsDuration("BOT_TIME_CHECK_DELAY", 600*time.Second),
			UrgentCheckDelay: getEnvAsDuration("BOT_URGENT_CHECK_DELAY", 300*time.Second),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AWS       AWSConfig
	Ingestion IngestionConfig
	Zoom      ZoomConfig
	Bunny     BunnyConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/lms?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig holds AWS credentials and the bucket run reports are archived to.
// Empty ReportsBucket disables the archive.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ReportsBucket   string
}

// IngestionConfig tunes the recording ingestion batch.
type IngestionConfig struct {
	SettingsID     string        // key of the settings row holding platform credentials
	Lookback       time.Duration // how far back a lesson start may be
	SafetyMargin   time.Duration // grace after scheduled end before a class counts as over
	Workers        int
	RunTimeout     time.Duration
	RequestTimeout time.Duration
}

// ZoomConfig holds conferencing platform endpoints.
type ZoomConfig struct {
	TokenURL   string
	APIBaseURL string
}

// BunnyConfig holds video platform endpoints.
type BunnyConfig struct {
	APIBaseURL string
}

// SchedulerConfig holds the shared secret the external scheduler signs trigger tokens with.
// Empty secret leaves the trigger open (e.g. behind a private network).
type SchedulerConfig struct {
	JWTSecret string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 360),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "lms"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ReportsBucket:   getEnv("AWS_S3_REPORTS_BUCKET", ""),
		},
		Ingestion: IngestionConfig{
			SettingsID:     getEnv("INGESTION_SETTINGS_ID", "recording_ingestion"),
			Lookback:       getEnvDuration("INGESTION_LOOKBACK", 24*time.Hour),
			SafetyMargin:   getEnvDuration("INGESTION_SAFETY_MARGIN", 10*time.Minute),
			Workers:        getEnvInt("INGESTION_WORKERS", 4),
			RunTimeout:     getEnvDuration("INGESTION_RUN_TIMEOUT", 5*time.Minute),
			RequestTimeout: getEnvDuration("INGESTION_REQUEST_TIMEOUT", 30*time.Second),
		},
		Zoom: ZoomConfig{
			TokenURL:   getEnv("ZOOM_TOKEN_URL", "https://zoom.us/oauth/token"),
			APIBaseURL: getEnv("ZOOM_API_BASE_URL", "https://api.zoom.us/v2"),
		},
		Bunny: BunnyConfig{
			APIBaseURL: getEnv("BUNNY_API_BASE_URL", "https://video.bunnycdn.com"),
		},
		Scheduler: SchedulerConfig{
			JWTSecret: getEnv("SCHEDULER_JWT_SECRET", ""),
		},
	}
	if cfg.Ingestion.Workers < 1 {
		return nil, fmt.Errorf("INGESTION_WORKERS must be at least 1, got %d", cfg.Ingestion.Workers)
	}
	if cfg.Ingestion.Lookback <= 0 {
		return nil, fmt.Errorf("INGESTION_LOOKBACK must be positive, got %s", cfg.Ingestion.Lookback)
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90m") or bare seconds ("5400").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

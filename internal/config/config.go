package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	PhotoBackendPostgres = "postgres"
	PhotoBackendS3       = "s3"
)

type Config struct {
	ServiceName    string
	LogLevel       slog.Level
	Port           string
	DatabaseURL    string
	JWTSecret      string
	TokenTTL       time.Duration
	PublicBaseURL  string
	RequestTimeout time.Duration
	MaxPhotoBytes  int64

	RateLimitMax        int
	RateLimitExpiration time.Duration

	PhotoBackend string
	S3           S3Config
	Redis        RedisConfig
	NatsURL      string
	OtelEndpoint string
}

type S3Config struct {
	Endpoint     string
	Region       string
	BucketName   string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type RedisConfig struct {
	Addr     string
	Password string
	Database int
	TTL      time.Duration
}

// Load reads .env.dev when present and builds the service configuration from the
// process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.dev")

	cfg := &Config{
		ServiceName:    getEnv("SERVICE_NAME", "guitar-service"),
		LogLevel:       getLevel("LOG_LEVEL", slog.LevelInfo),
		Port:           getEnv("APP_PORT", "5001"),
		DatabaseURL:    databaseURL(),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       getDuration("TOKEN_TTL", 24*time.Hour),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),
		MaxPhotoBytes:  int64(getInt("MAX_PHOTO_BYTES", 5*1024*1024)),

		RateLimitMax:        getInt("RATE_LIMIT_MAX", 100),
		RateLimitExpiration: time.Duration(getInt("RATE_LIMIT_EXPIRATION", 60)) * time.Second,

		PhotoBackend: getEnv("PHOTO_BACKEND", PhotoBackendPostgres),
		S3: S3Config{
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			Region:       getEnv("AWS_REGION", "us-east-1"),
			BucketName:   os.Getenv("S3_BUCKET_NAME"),
			AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			UsePathStyle: os.Getenv("S3_USE_PATH_STYLE") == "true",
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			Database: getInt("REDIS_DB", 0),
			TTL:      getDuration("REDIS_TTL", time.Hour),
		},
		NatsURL:      os.Getenv("NATS_URL"),
		OtelEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:"+cfg.Port)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}

	switch c.PhotoBackend {
	case PhotoBackendPostgres:
	case PhotoBackendS3:
		if c.S3.BucketName == "" {
			return errors.New("S3_BUCKET_NAME is required when PHOTO_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown PHOTO_BACKEND %q", c.PhotoBackend)
	}

	if c.MaxPhotoBytes <= 0 {
		return errors.New("MAX_PHOTO_BYTES must be positive")
	}

	return nil
}

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "guitars"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getLevel(key string, defaultValue slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv(key))); err == nil {
		return level
	}
	return defaultValue
}

package configs

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting read from the environment.
type Config struct {
	AppPort int

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     int
	RedisPassword string

	JWTSecret string
	JWTTTL    time.Duration

	RepoBackend     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	UploadDir       string
	LogOutput       string
	LogDir          string
	CORSOrigins     string
	RateLimitMax    int
	BoardCacheTTL   time.Duration
}

// LoadConfig reads .env when present, then the environment. Unset or unparsable values take their defaults.
func LoadConfig() Config {
	// .env is optional; real deployments pass variables directly.
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using environment and defaults")
		}
	}

	return Config{
		AppPort:         envInt("APP_PORT", 3004),
		DBHost:          envString("DB_HOST", "localhost"),
		DBPort:          envInt("DB_PORT", 5432),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_NAME"),
		DBSSLMode:       envString("DB_SSLMODE", "disable"),
		RedisHost:       os.Getenv("REDIS_HOST"),
		RedisPort:       envInt("REDIS_PORT", 6379),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTTTL:          envDuration("JWT_TTL", 7*24*time.Hour),
		RepoBackend:     envString("REPO_BACKEND", "postgres"),
		RequestTimeout:  envDuration("REQUEST_TIMEOUT", 5*time.Second),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		UploadDir:       envString("UPLOAD_DIR", "uploads"),
		LogOutput:       envString("LOG_OUTPUT", "stdout"),
		LogDir:          envString("LOG_DIR", "logs"),
		CORSOrigins:     envString("CORS_ORIGINS", "*"),
		RateLimitMax:    envInt("RATE_LIMIT_MAX", 100),
		BoardCacheTTL:   envDuration("BOARD_CACHE_TTL", time.Hour),
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.RepoBackend {
	case "postgres":
		if c.DBUser == "" || c.DBName == "" {
			errs = append(errs, errors.New("DB_USER and DB_NAME are required for the postgres backend"))
		}
	case "memory":
	default:
		errs = append(errs, errors.New("REPO_BACKEND must be postgres or memory"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// RedisEnabled is false when no REDIS_HOST is configured; the server then runs single-node.
func (c Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisHost) != ""
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration assembled from the environment.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Registry RegistryConfig
	Postal   PostalConfig
	Storage  StorageConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	JWTSigningKey   string
	JWTIssuer       string
	JWTAudience     string
	AdminToken      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL settings. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis settings. An empty URL selects the in-memory postal cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds event publishing settings. Empty brokers disable publishing.
type KafkaConfig struct {
	Brokers         string
	Topic           string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// RegistryConfig configures the external tax-ID registry client.
type RegistryConfig struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	AttemptLimit     int
	AttemptWindow    time.Duration
	FailureThreshold int
	Cooldown         time.Duration
}

// PostalConfig configures postal-code lookup.
type PostalConfig struct {
	BaseURL     string
	Timeout     time.Duration
	CacheTTL    time.Duration
	QuietPeriod time.Duration
}

// StorageConfig configures where uploaded document bytes are written.
// An empty Dir keeps files in memory.
type StorageConfig struct {
	Dir     string
	BaseURL string
}

// FromEnv builds the config from environment variables so main stays lean.
// Values in a local .env file are loaded first when present; real environment
// variables take precedence.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Server: Server{
			Addr:            getEnv("VITRINE_ADDR", ":8080"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:       getEnv("JWT_ISSUER", "vitrine"),
			JWTAudience:     getEnv("JWT_AUDIENCE", "vitrine-api"),
			AdminToken:      getEnv("ADMIN_API_TOKEN", ""),
			RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", ""),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:         getEnv("KAFKA_BROKERS", ""),
			Topic:           getEnv("KAFKA_PROFILE_EVENTS_TOPIC", "profile-events"),
			Acks:            getEnv("KAFKA_ACKS", "all"),
			Retries:         getIntEnv("KAFKA_RETRIES", 3),
			DeliveryTimeout: getDurationEnv("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
		Registry: RegistryConfig{
			BaseURL:          getEnv("TAX_REGISTRY_URL", "http://localhost:8081"),
			APIKey:           getEnv("TAX_REGISTRY_API_KEY", "tax-registry-secret-key"),
			Timeout:          getDurationEnv("TAX_REGISTRY_TIMEOUT", 10*time.Second),
			AttemptLimit:     getIntEnv("TAX_VERIFY_ATTEMPT_LIMIT", 5),
			AttemptWindow:    getDurationEnv("TAX_VERIFY_ATTEMPT_WINDOW", 10*time.Minute),
			FailureThreshold: getIntEnv("TAX_REGISTRY_FAILURE_THRESHOLD", 5),
			Cooldown:         getDurationEnv("TAX_REGISTRY_COOLDOWN", 30*time.Second),
		},
		Postal: PostalConfig{
			BaseURL:     getEnv("POSTAL_LOOKUP_URL", "http://localhost:8081"),
			Timeout:     getDurationEnv("POSTAL_LOOKUP_TIMEOUT", 5*time.Second),
			CacheTTL:    getDurationEnv("POSTAL_CACHE_TTL", 24*time.Hour),
			QuietPeriod: getDurationEnv("POSTAL_QUIET_PERIOD", 500*time.Millisecond),
		},
		Storage: StorageConfig{
			Dir:     getEnv("STORAGE_DIR", ""),
			BaseURL: strings.TrimRight(getEnv("STORAGE_BASE_URL", "/files"), "/"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

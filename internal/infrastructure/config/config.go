package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the triage service.
type Config struct {
	GRPCPort         string
	HTTPPort         string
	Environment      string
	LogLevel         string
	LogFormat        string
	ArtifactDir      string
	NVDBaseURL       string
	NVDAPIKey        string
	DatabaseURL      string
	MigrationsDir    string
	KafkaBroker      string
	KafkaTopic       string
	JWTSecret        string
	JWTPublicKeyFile string
	OTLPEndpoint     string
	TLSCertFile      string
	TLSKeyFile       string
	CORSOrigins      []string
	NVDTimeout       time.Duration
	Workers          int
	RateLimit        int
	ScoreCacheSize   int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory, when present, is loaded first; real
// environment variables take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GRPCPort:         getEnv("GRPC_PORT", "8092"),
		HTTPPort:         getEnv("HTTP_PORT", "9092"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		ArtifactDir:      getEnv("ARTIFACT_DIR", "./artifacts"),
		NVDBaseURL:       getEnv("NVD_BASE_URL", "https://services.nvd.nist.gov/rest/json/cves/2.0"),
		NVDAPIKey:        getEnv("NVD_API_KEY", ""),
		NVDTimeout:       getEnvDuration("NVD_TIMEOUT", 30*time.Second),
		Workers:          getEnvInt("SCORING_WORKERS", 4),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		MigrationsDir:    getEnv("MIGRATIONS_DIR", "file://migrations"),
		KafkaBroker:      getEnv("KAFKA_BROKER", ""),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "vuln.events"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTPublicKeyFile: getEnv("JWT_PUBLIC_KEY_FILE", ""),
		RateLimit:        getEnvInt("RATE_LIMIT", 20),
		ScoreCacheSize:   getEnvInt("SCORE_CACHE_SIZE", 1024),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TLSCertFile:      getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:       getEnv("TLS_KEY_FILE", ""),
		CORSOrigins:      getEnvList("CORS_ORIGINS"),
	}
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.ArtifactDir == "" {
		return fmt.Errorf("ARTIFACT_DIR is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("SCORING_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.NVDTimeout <= 0 {
		return fmt.Errorf("NVD_TIMEOUT must be positive, got %s", c.NVDTimeout)
	}
	if c.ScoreCacheSize < 0 {
		return fmt.Errorf("SCORE_CACHE_SIZE must not be negative, got %d", c.ScoreCacheSize)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// GRPCAddress returns the full gRPC listen address.
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf(":%s", c.GRPCPort)
}

// HTTPAddress returns the full HTTP listen address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.HTTPPort)
}

// PersistenceEnabled reports whether scored records are stored.
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// PublishingEnabled reports whether domain events are published.
func (c *Config) PublishingEnabled() bool {
	return c.KafkaBroker != ""
}

// AuthEnabled reports whether gRPC calls require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" || c.JWTPublicKeyFile != ""
}

// TLSEnabled reports whether both listeners serve TLS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

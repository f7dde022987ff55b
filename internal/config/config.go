package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides the process configuration and the agriculture settings holder.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(provideSettings),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// DefaultCompanyID scopes requests that do not carry an explicit company header.
	DefaultCompanyID int64
	Currency         string
	SettingsPath     string

	Telemetry TelemetryConfig

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RateLimit applies only when RedisAddr is set.
	RateLimit RateLimitConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:           getenv("APP_SERVICE", "agrimarket"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		DefaultCompanyID:  getenvInt64("DEFAULT_COMPANY", 1),
		Currency:          strings.ToUpper(getenv("COMPANY_CURRENCY", "EGP")),
		SettingsPath:      getenv("AGRICULTURE_SETTINGS_PATH", "."),
		Telemetry: TelemetryConfig{
			LogLevel:          strings.ToLower(getenv("LOG_LEVEL", "info")),
			LogFormat:         strings.ToLower(getenv("LOG_FORMAT", "json")),
			OTLPEndpoint:      getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),
			OTLPProtocol:      strings.ToLower(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
			OTelEnabled:       getenvBool("OTEL_ENABLED", isProduction(getenv("ENVIRONMENT", "development"))),
			SamplingRatio:     getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
			PrometheusEnabled: getenvBool("PROMETHEUS_ENABLED", true),
			SlowQueryMillis:   getenvInt("DATABASE_SLOW_QUERY_MS", 200),
		},
		RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           getenvInt("REDIS_DB", 0),
		RateLimit: RateLimitConfig{
			Enabled:                  getenvBool("RATE_LIMIT_ENABLED", true),
			ReportRenderRate:         getenvFloat("RATE_LIMIT_REPORT_RENDER_RATE", 0.5),
			ReportRenderBurst:        getenvInt("RATE_LIMIT_REPORT_RENDER_BURST", 5),
			CommissionLockTTLSeconds: getenvInt("RATE_LIMIT_COMMISSION_LOCK_TTL_SECONDS", 120),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "agrimarket"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
	}
}

// RateLimitConfig bounds report rendering per company and serializes commission runs.
type RateLimitConfig struct {
	Enabled                  bool
	ReportRenderRate         float64
	ReportRenderBurst        int
	CommissionLockTTLSeconds int
}

// TelemetryConfig configures logs, traces and metrics.
type TelemetryConfig struct {
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
	// OTLPProtocol is grpc or http/protobuf.
	OTLPProtocol      string
	OTelEnabled       bool
	SamplingRatio     float64
	PrometheusEnabled bool
	// SlowQueryMillis marks queries logged at warn; 0 disables.
	SlowQueryMillis int
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return isProduction(c.Environment)
}

func isProduction(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PerformanceListAuthRequired = "required"
	PerformanceListAuthOptional = "optional"
)

type Config struct {
	Addr                    string
	DatabaseURL             string
	JWTSecret               string
	JWTTTL                  time.Duration
	DataEncryptionKey       string
	Environment             string
	LogLevel                string
	SeedAdminUsername       string
	SeedAdminPassword       string
	SeedSampleData          bool
	RunMigrations           bool
	RunSeed                 bool
	MaxBodyBytes            int64
	RateLimitPerMinute      int
	MetricsEnabled          bool
	PerformanceListAuth     string
	FeishuBaseURL           string
	FeishuRequestsPerSecond float64
	FeishuTimeout           time.Duration
}

// Load reads the process environment. A .env file in the working directory,
// when present, fills in variables that are not already set.
func Load() Config {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")
	seedPassword := getEnv("SEED_ADMIN_PASSWORD", "")
	if seedPassword == "" && env != "production" {
		seedPassword = "admin123"
	}

	return Config{
		Addr:                    getEnv("APP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		JWTTTL:                  getEnvDuration("JWT_TTL", 7*24*time.Hour),
		DataEncryptionKey:       getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:             env,
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		SeedAdminUsername:       getEnv("SEED_ADMIN_USERNAME", "admin"),
		SeedAdminPassword:       seedPassword,
		SeedSampleData:          getEnvBool("SEED_SAMPLE_DATA", env != "production"),
		RunMigrations:           getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                 getEnvBool("RUN_SEED", true),
		MaxBodyBytes:            int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:      getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		MetricsEnabled:          getEnvBool("METRICS_ENABLED", true),
		PerformanceListAuth:     strings.ToLower(getEnv("PERFORMANCE_LIST_AUTH", PerformanceListAuthRequired)),
		FeishuBaseURL:           getEnv("FEISHU_BASE_URL", "https://open.feishu.cn/open-apis"),
		FeishuRequestsPerSecond: getEnvFloat("FEISHU_REQUESTS_PER_SECOND", 5),
		FeishuTimeout:           getEnvDuration("FEISHU_TIMEOUT", 10*time.Second),
	}
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parsedEnv returns fallback when key is unset or does not parse.
func parsedEnv[T any](key string, fallback T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := parse(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	return parsedEnv(key, fallback, strconv.ParseBool)
}

func getEnvInt(key string, fallback int) int {
	return parsedEnv(key, fallback, strconv.Atoi)
}

func getEnvFloat(key string, fallback float64) float64 {
	return parsedEnv(key, fallback, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	return parsedEnv(key, fallback, time.ParseDuration)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if len(strings.TrimSpace(c.JWTSecret)) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production to seal the report provider secret")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	} else if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	switch c.PerformanceListAuth {
	case PerformanceListAuthRequired, PerformanceListAuthOptional:
	default:
		return fmt.Errorf("PERFORMANCE_LIST_AUTH must be %q or %q", PerformanceListAuthRequired, PerformanceListAuthOptional)
	}
	if c.FeishuRequestsPerSecond <= 0 {
		return fmt.Errorf("FEISHU_REQUESTS_PER_SECOND must be positive")
	}
	return nil
}

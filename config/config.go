package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2/google"
)

const (
	StoreFirestore = "firestore"
	StoreRedis     = "redis"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Firebase  FirebaseConfig
	GCP       GCPConfig
	Gemini    GeminiConfig
	Redis     RedisConfig
	Store     StoreConfig
	Pipeline  PipelineConfig
	Ledger    LedgerConfig
	Deploy    DeployConfig
	RateLimit RateLimitConfig
	OTel      OTelConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxUploadBytes  int64
}

type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
	Version     string
}

type FirebaseConfig struct {
	CredentialsPath string
	ProjectID       string
}

type GCPConfig struct {
	ProjectID  string
	Region     string
	Bucket     string
	Repository string

	// BuildRPS bounds calls to the Cloud Build and Cloud Run APIs.
	BuildRPS float64
}

type GeminiConfig struct {
	APIKey         string
	BaseURL        string
	DefaultModel   string
	ReasoningModel string
	MaxTokens      int
	Temperature    float64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StoreConfig struct {
	Backend string
}

type PipelineConfig struct {
	RetryBackoff string
	RetryInitial time.Duration
	RetryMax     time.Duration
	MaxAttempts  int
}

type LedgerConfig struct {
	ReasoningRate float64
	StandardRate  float64
}

type DeployConfig struct {
	ReconcileSchedule string
	ReconcileBatch    int
	UploadConcurrency int
	BuildTimeout      time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type OTelConfig struct {
	Endpoint string
	Headers  string
}

type AdminConfig struct {
	Emails []string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			CORSOrigins:     getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173"}),
			MaxUploadBytes:  int64(getEnvAsInt("MAX_UPLOAD_BYTES", 50<<20)),
		},
		App: AppConfig{
			Name:        getEnv("APP_NAME", "dgbp-backend"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		},
		GCP: GCPConfig{
			ProjectID:  getEnv("GOOGLE_CLOUD_PROJECT", ""),
			Region:     getEnv("GCP_REGION", "us-central1"),
			Bucket:     getEnv("GCS_BUCKET_NAME", ""),
			Repository: getEnv("ARTIFACT_REPOSITORY", "dgbp-apps"),
			BuildRPS:   getEnvAsFloat("CLOUD_BUILD_RPS", 5),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
			BaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
			DefaultModel:   getEnv("GEMINI_DEFAULT_MODEL", "gemini-3-flash-preview"),
			ReasoningModel: getEnv("GEMINI_REASONING_MODEL", "gemini-3-pro-preview"),
			MaxTokens:      getEnvAsInt("GEMINI_MAX_TOKENS", 0),
			Temperature:    getEnvAsFloat("GEMINI_TEMPERATURE", 0.7),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreFirestore)),
		},
		Pipeline: PipelineConfig{
			RetryBackoff: getEnv("PIPELINE_RETRY_BACKOFF", "none"),
			RetryInitial: getEnvAsDuration("PIPELINE_RETRY_INITIAL", time.Second),
			RetryMax:     getEnvAsDuration("PIPELINE_RETRY_MAX", 30*time.Second),
			MaxAttempts:  getEnvAsInt("PIPELINE_MAX_ATTEMPTS", 3),
		},
		Ledger: LedgerConfig{
			ReasoningRate: getEnvAsFloat("LEDGER_REASONING_RATE_USD", 3.5),
			StandardRate:  getEnvAsFloat("LEDGER_STANDARD_RATE_USD", 0.075),
		},
		Deploy: DeployConfig{
			ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "0 */1 * * * *"),
			ReconcileBatch:    getEnvAsInt("RECONCILE_BATCH", 100),
			UploadConcurrency: getEnvAsInt("UPLOAD_CONCURRENCY", 8),
			BuildTimeout:      getEnvAsDuration("BUILD_TIMEOUT", 20*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		OTel: OTelConfig{
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:  getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		},
		Admin: AdminConfig{
			Emails: lower(getEnvAsList("ADMIN_EMAILS", nil)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin")
	}
	switch c.Store.Backend {
	case StoreFirestore, StoreRedis:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreFirestore, StoreRedis, c.Store.Backend)
	}
	if c.Store.Backend == StoreRedis && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis store")
	}
	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("PIPELINE_MAX_ATTEMPTS must be at least 1")
	}
	if c.Ledger.ReasoningRate < 0 || c.Ledger.StandardRate < 0 {
		return fmt.Errorf("ledger rates must not be negative")
	}
	return nil
}

// ResolveProjectID fills GCP.ProjectID from Application Default
// Credentials when it was not configured.
func (c *Config) ResolveProjectID(ctx context.Context) error {
	if c.GCP.ProjectID == "" {
		c.GCP.ProjectID = c.Firebase.ProjectID
	}
	if c.GCP.ProjectID != "" {
		return nil
	}
	creds, err := google.FindDefaultCredentials(ctx)
	if err != nil {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT not set and no default credentials: %w", err)
	}
	if creds.ProjectID == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT not set and default credentials carry no project")
	}
	c.GCP.ProjectID = creds.ProjectID
	return nil
}

func (c *Config) IsProduction() bool { return c.App.Environment == "production" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		slog.Warn("invalid number, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "default", defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func lower(in []string) []string {
	for i := range in {
		in[i] = strings.ToLower(in[i])
	}
	return in
}

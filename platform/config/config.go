// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDBMaxConns() int32
	GetDBMinConns() int32
	GetDBMaxConnLifetime() time.Duration
	GetDBMaxConnIdleTime() time.Duration
	GetDBApplicationName() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetDecayCronSpec() string
}

// InferenceConfig provides settings for the generative-text gateway.
type InferenceConfig interface {
	GetInferenceProvider() string
	GetInferenceAPIKey() string
	GetInferenceBaseURL() string
	GetInferenceModel() string
	GetRateLimitBackoff() time.Duration
	GetInputCostPerMillion() float64
	GetOutputCostPerMillion() float64
}

// AnalysisConfig provides settings for the message analysis pipeline.
type AnalysisConfig interface {
	GetAnalysisTimeout() time.Duration
	GetHighValueBudgetThreshold() float64
}

// MatchingConfig provides settings for the property matching engine.
type MatchingConfig interface {
	GetRerankTimeout() time.Duration
	GetMatchingCandidateLimit() int
}

// AutomationConfig provides settings for the batch automation runner.
type AutomationConfig interface {
	GetAutomationConcurrency() int
	GetHotToWarmDays() int
	GetWarmToColdDays() int
}

// WhatsAppConfig provides settings for the WhatsApp gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
}

// SMTPConfig provides settings for the outbound email channel.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetAlertEmailAddress() string
	IsSMTPEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketInventoryMedia() string
	IsMinIOEnabled() bool
}

// PhoneConfig provides settings for phone number normalization.
type PhoneConfig interface {
	GetDefaultPhoneRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	DBMaxConns               int
	DBMinConns               int
	DBMaxConnLifetime        time.Duration
	DBMaxConnIdleTime        time.Duration
	DBApplicationName        string
	MessageRatePerMinute     int
	MessageRateBurst         int
	MigrationsEnabled        bool
	JWTAccessSecret          string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	RedisURL                 string
	RedisTLSInsecure         bool
	AsynqQueueName           string
	AsynqConcurrency         int
	DecayCronSpec            string
	InferenceProvider        string
	InferenceAPIKey          string
	InferenceBaseURL         string
	InferenceModel           string
	RateLimitBackoff         time.Duration
	InputCostPerMillion      float64
	OutputCostPerMillion     float64
	AnalysisTimeout          time.Duration
	HighValueBudgetThreshold float64
	RerankTimeout            time.Duration
	MatchingCandidateLimit   int
	AutomationConcurrency    int
	HotToWarmDays            int
	WarmToColdDays           int
	WhatsAppURL              string
	WhatsAppKey              string
	WhatsAppDeviceID         string
	SMTPHost                 string
	SMTPPort                 int
	SMTPUsername             string
	SMTPPassword             string
	EmailFromName            string
	EmailFromAddress         string
	AlertEmailAddress        string
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinioBucketInventory     string
	DefaultPhoneRegion       string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string              { return c.DatabaseURL }
func (c *Config) GetDBMaxConns() int32                { return int32(c.DBMaxConns) }
func (c *Config) GetDBMinConns() int32                { return int32(c.DBMinConns) }
func (c *Config) GetDBMaxConnLifetime() time.Duration { return c.DBMaxConnLifetime }
func (c *Config) GetDBMaxConnIdleTime() time.Duration { return c.DBMaxConnIdleTime }
func (c *Config) GetDBApplicationName() string        { return c.DBApplicationName }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// MessageRateConfig implementation
func (c *Config) GetMessageRateLimitPerMinute() int { return c.MessageRatePerMinute }
func (c *Config) GetMessageRateLimitBurst() int     { return c.MessageRateBurst }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }
func (c *Config) GetDecayCronSpec() string   { return c.DecayCronSpec }

// InferenceConfig implementation
func (c *Config) GetInferenceProvider() string       { return c.InferenceProvider }
func (c *Config) GetInferenceAPIKey() string         { return c.InferenceAPIKey }
func (c *Config) GetInferenceBaseURL() string        { return c.InferenceBaseURL }
func (c *Config) GetInferenceModel() string          { return c.InferenceModel }
func (c *Config) GetRateLimitBackoff() time.Duration { return c.RateLimitBackoff }
func (c *Config) GetInputCostPerMillion() float64    { return c.InputCostPerMillion }
func (c *Config) GetOutputCostPerMillion() float64   { return c.OutputCostPerMillion }

// AnalysisConfig implementation
func (c *Config) GetAnalysisTimeout() time.Duration     { return c.AnalysisTimeout }
func (c *Config) GetHighValueBudgetThreshold() float64 { return c.HighValueBudgetThreshold }

// MatchingConfig implementation
func (c *Config) GetRerankTimeout() time.Duration { return c.RerankTimeout }
func (c *Config) GetMatchingCandidateLimit() int  { return c.MatchingCandidateLimit }

// AutomationConfig implementation
func (c *Config) GetAutomationConcurrency() int { return c.AutomationConcurrency }
func (c *Config) GetHotToWarmDays() int         { return c.HotToWarmDays }
func (c *Config) GetWarmToColdDays() int        { return c.WarmToColdDays }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string      { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string      { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string { return c.WhatsAppDeviceID }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string          { return c.SMTPHost }
func (c *Config) GetSMTPPort() int             { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string      { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string      { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string     { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string  { return c.EmailFromAddress }
func (c *Config) GetAlertEmailAddress() string { return c.AlertEmailAddress }
func (c *Config) IsSMTPEnabled() bool          { return c.SMTPHost != "" && c.EmailFromAddress != "" }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string            { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string           { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string           { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool                { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketInventoryMedia() string { return c.MinioBucketInventory }
func (c *Config) IsMinIOEnabled() bool                { return c.MinIOEndpoint != "" }

// PhoneConfig implementation
func (c *Config) GetDefaultPhoneRegion() string { return c.DefaultPhoneRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		DBMaxConns:               mustInt(getEnv("DB_MAX_CONNS", "25")),
		DBMinConns:               mustInt(getEnv("DB_MIN_CONNS", "5")),
		DBMaxConnLifetime:        mustDuration(getEnv("DB_MAX_CONN_LIFETIME", "1h")),
		DBMaxConnIdleTime:        mustDuration(getEnv("DB_MAX_CONN_IDLE_TIME", "30m")),
		DBApplicationName:        getEnv("DB_APPLICATION_NAME", "leadflow"),
		MessageRatePerMinute:     mustInt(getEnv("MESSAGE_RATE_LIMIT_PER_MINUTE", "120")),
		MessageRateBurst:         mustInt(getEnv("MESSAGE_RATE_LIMIT_BURST", "30")),
		MigrationsEnabled:        strings.EqualFold(getEnv("RUN_MIGRATIONS", "true"), "true"),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                 getEnv("REDIS_URL", ""),
		RedisTLSInsecure:         strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:           getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:         mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		DecayCronSpec:            getEnv("DECAY_CRON_SPEC", "@daily"),
		InferenceProvider:        strings.ToLower(getEnv("INFERENCE_PROVIDER", "moonshot")),
		InferenceAPIKey:          getEnv("INFERENCE_API_KEY", getEnv("MOONSHOT_API_KEY", "")),
		InferenceBaseURL:         getEnv("INFERENCE_BASE_URL", ""),
		InferenceModel:           getEnv("INFERENCE_MODEL", ""),
		RateLimitBackoff:         mustDuration(getEnv("INFERENCE_RATE_LIMIT_BACKOFF", "60s")),
		InputCostPerMillion:      mustFloat(getEnv("INFERENCE_INPUT_COST_PER_MILLION", "0.60")),
		OutputCostPerMillion:     mustFloat(getEnv("INFERENCE_OUTPUT_COST_PER_MILLION", "2.50")),
		AnalysisTimeout:          mustDuration(getEnv("ANALYSIS_TIMEOUT", "30s")),
		HighValueBudgetThreshold: mustFloat(getEnv("HIGH_VALUE_BUDGET_THRESHOLD", "1000000")),
		RerankTimeout:            mustDuration(getEnv("MATCHING_RERANK_TIMEOUT", "20s")),
		MatchingCandidateLimit:   mustInt(getEnv("MATCHING_CANDIDATE_LIMIT", "200")),
		AutomationConcurrency:    mustInt(getEnv("AUTOMATION_CONCURRENCY", "4")),
		HotToWarmDays:            mustInt(getEnv("DECAY_HOT_TO_WARM_DAYS", "5")),
		WarmToColdDays:           mustInt(getEnv("DECAY_WARM_TO_COLD_DAYS", "10")),
		WhatsAppURL:              getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:              getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID:         getEnv("WHATSAPP_DEVICE_ID", ""),
		SMTPHost:                 getEnv("SMTP_HOST", ""),
		SMTPPort:                 mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:             getEnv("SMTP_USERNAME", ""),
		SMTPPassword:             getEnv("SMTP_PASSWORD", ""),
		EmailFromName:            getEnv("EMAIL_FROM_NAME", "Leadflow"),
		EmailFromAddress:         getEnv("EMAIL_FROM_ADDRESS", ""),
		AlertEmailAddress:        getEnv("ALERT_EMAIL_ADDRESS", ""),
		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketInventory:     getEnv("MINIO_BUCKET_INVENTORY_MEDIA", "inventory-media"),
		DefaultPhoneRegion:       getEnv("DEFAULT_PHONE_REGION", "NL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DBMaxConns < 1 || cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return nil, fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}
	if cfg.MessageRatePerMinute < 1 || cfg.MessageRateBurst < 1 {
		return nil, fmt.Errorf("MESSAGE_RATE_LIMIT_PER_MINUTE and MESSAGE_RATE_LIMIT_BURST must be positive")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	switch cfg.InferenceProvider {
	case "moonshot", "openai":
	default:
		return nil, fmt.Errorf("INFERENCE_PROVIDER must be one of moonshot, openai")
	}
	if cfg.HotToWarmDays < 1 || cfg.WarmToColdDays < 1 {
		return nil, fmt.Errorf("DECAY_HOT_TO_WARM_DAYS and DECAY_WARM_TO_COLD_DAYS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

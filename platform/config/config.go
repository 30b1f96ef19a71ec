// Package config provides application configuration loaded from the
// environment. Narrow interfaces give each consumer scoped access.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// HTTPConfig exposes HTTP server settings.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// JWTConfig exposes token verification settings.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// StoreConfig exposes durable key-value store settings.
type StoreConfig interface {
	GetRedisURL() string
	GetRedisKeyPrefix() string
}

// SchedulerConfig exposes asynq task queue settings.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SourceConfig exposes external lead source settings.
type SourceConfig interface {
	GetSourceBaseURL() string
	GetSourceFetchTimeout() time.Duration
	GetSourceRefreshInterval() time.Duration
}

// DistributionConfig exposes distribution scheduler settings.
type DistributionConfig interface {
	GetDistributionSettleDelay() time.Duration
}

// EmailConfig exposes SMTP notification settings.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// Config is the concrete configuration loaded from the environment.
type Config struct {
	Env                     string
	HTTPAddr                string
	RedisURL                string
	RedisKeyPrefix          string
	JWTAccessSecret         string
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	SourceBaseURL           string
	SourceFetchTimeout      time.Duration
	SourceRefreshInterval   time.Duration
	DistributionSettleDelay time.Duration
	AsynqQueueName          string
	AsynqConcurrency        int
	EmailEnabled            bool
	SMTPHost                string
	SMTPPort                int
	SMTPUsername            string
	SMTPPassword            string
	EmailFromName           string
	EmailFromAddress        string
}

// Load reads configuration from the environment, with .env support.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		RedisURL:                getEnv("REDIS_URL", ""),
		RedisKeyPrefix:          getEnv("REDIS_KEY_PREFIX", "crm"),
		JWTAccessSecret:         getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		SourceBaseURL:           getEnv("LEAD_SOURCE_BASE_URL", ""),
		SourceFetchTimeout:      mustDuration(getEnv("LEAD_SOURCE_FETCH_TIMEOUT", "10s")),
		SourceRefreshInterval:   mustDuration(getEnv("LEAD_SOURCE_REFRESH_INTERVAL", "30s")),
		DistributionSettleDelay: mustDuration(getEnv("DISTRIBUTION_SETTLE_DELAY", "1500ms")),
		AsynqQueueName:          getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:        mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		EmailEnabled:            emailEnabled && smtpHost != "",
		SMTPHost:                smtpHost,
		SMTPPort:                mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		EmailFromName:           getEnv("EMAIL_FROM_NAME", "CRM Dashboard"),
		EmailFromAddress:        getEnv("EMAIL_FROM_ADDRESS", ""),
	}

	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.SourceBaseURL == "" {
		return nil, fmt.Errorf("LEAD_SOURCE_BASE_URL is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func (c *Config) GetHTTPAddr() string                        { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool                      { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string                   { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool                    { return c.CORSAllowCreds }
func (c *Config) GetJWTAccessSecret() string                 { return c.JWTAccessSecret }
func (c *Config) GetRedisURL() string                        { return c.RedisURL }
func (c *Config) GetRedisKeyPrefix() string                  { return c.RedisKeyPrefix }
func (c *Config) GetAsynqQueueName() string                  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                   { return c.AsynqConcurrency }
func (c *Config) GetSourceBaseURL() string                   { return c.SourceBaseURL }
func (c *Config) GetSourceFetchTimeout() time.Duration       { return c.SourceFetchTimeout }
func (c *Config) GetSourceRefreshInterval() time.Duration    { return c.SourceRefreshInterval }
func (c *Config) GetDistributionSettleDelay() time.Duration  { return c.DistributionSettleDelay }
func (c *Config) GetEmailEnabled() bool                      { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string                        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string                    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string                    { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string                   { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string                { return c.EmailFromAddress }

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
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
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

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

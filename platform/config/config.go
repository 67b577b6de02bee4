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

// Default decision thresholds. Both are overridable via environment keys;
// invalid overrides fall back here rather than failing startup, because the
// pipeline must stay runnable with a misconfigured threshold.
const (
	DefaultRoutingConfidenceMin = 0.75
	DefaultRewriteConfidenceMin = 0.7
	DefaultRewriteMaxBodyLen    = 4000
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// AutomationConfig provides the safety gates every pipeline stage checks.
type AutomationConfig interface {
	GetSafeMode() bool
	GetAutomationEnabled() bool
	GetAllowNetwork() bool
	GetOutboundEnabled() bool
}

// RoutingLLMConfig provides settings for the advisory LLM routing call.
type RoutingLLMConfig interface {
	GetLLMRoutingEnabled() bool
	GetLLMRoutingPrimary() bool
	GetLLMRoutingShadow() bool
	GetRoutingConfidenceMin() float64
}

// RewriteConfig provides settings for the reply rewrite validator.
type RewriteConfig interface {
	GetRewriteEnabled() bool
	GetRewriteConfidenceMin() float64
	GetRewriteMaxBodyLen() int
}

// RichpanelConfig provides settings for the Richpanel ticket API client.
type RichpanelConfig interface {
	GetRichpanelBaseURL() string
	GetRichpanelAPIKey() string
}

// ShopifyConfig provides settings for the Shopify order API client.
type ShopifyConfig interface {
	GetShopifyBaseURL() string
	GetShopifyAccessToken() string
}

// ShipStationConfig provides settings for the ShipStation shipment API client.
type ShipStationConfig interface {
	GetShipStationBaseURL() string
	GetShipStationAPIKey() string
	GetShipStationAPISecret() string
}

// OpenAIConfig provides settings for the chat-completions client.
type OpenAIConfig interface {
	GetOpenAIBaseURL() string
	GetOpenAIAPIKey() string
	GetOpenAIModel() string
}

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// DedupeConfig provides settings for the idempotency guard.
type DedupeConfig interface {
	GetRedisURL() string
	GetDedupeTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetWebhookAPIKey() string
}

// ReplyConfig provides classifier and reply drafting settings.
type ReplyConfig interface {
	GetClassifierPath() string
	GetReplySignature() string
}

// AlertConfig provides settings for operator alert email.
type AlertConfig interface {
	GetAlertSMTPHost() string
	GetAlertSMTPPort() int
	GetAlertSMTPUsername() string
	GetAlertSMTPPassword() string
	GetAlertFromAddress() string
	GetAlertToAddress() string
	IsAlertEnabled() bool
}

// RunConfig provides per-deployment identifiers stamped on outbound work.
type RunConfig interface {
	GetRunTag() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values. It is constructed once
// at the process boundary and threaded explicitly; core logic never reads
// ambient environment state.
type Config struct {
	Env      string
	HTTPAddr string

	SafeMode          bool
	AutomationEnabled bool
	AllowNetwork      bool
	OutboundEnabled   bool

	LLMRoutingEnabled    bool
	LLMRoutingPrimary    bool
	LLMRoutingShadow     bool
	RoutingConfidenceMin float64

	RewriteEnabled       bool
	RewriteConfidenceMin float64
	RewriteMaxBodyLen    int

	RunTag string

	RichpanelBaseURL string
	RichpanelAPIKey  string

	ShopifyBaseURL     string
	ShopifyAccessToken string

	ShipStationBaseURL   string
	ShipStationAPIKey    string
	ShipStationAPISecret string

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	DatabaseURL string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	DedupeTTL        time.Duration

	CORSAllowAll   bool
	CORSOrigins    []string
	WebhookAPIKey  string
	ClassifierPath string
	ReplySignature string

	AlertSMTPHost     string
	AlertSMTPPort     int
	AlertSMTPUsername string
	AlertSMTPPassword string
	AlertFromAddress  string
	AlertToAddress    string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// AutomationConfig implementation
func (c *Config) GetSafeMode() bool          { return c.SafeMode }
func (c *Config) GetAutomationEnabled() bool { return c.AutomationEnabled }
func (c *Config) GetAllowNetwork() bool      { return c.AllowNetwork }
func (c *Config) GetOutboundEnabled() bool   { return c.OutboundEnabled }

// RoutingLLMConfig implementation
func (c *Config) GetLLMRoutingEnabled() bool       { return c.LLMRoutingEnabled }
func (c *Config) GetLLMRoutingPrimary() bool       { return c.LLMRoutingPrimary }
func (c *Config) GetLLMRoutingShadow() bool        { return c.LLMRoutingShadow }
func (c *Config) GetRoutingConfidenceMin() float64 { return c.RoutingConfidenceMin }

// RewriteConfig implementation
func (c *Config) GetRewriteEnabled() bool          { return c.RewriteEnabled }
func (c *Config) GetRewriteConfidenceMin() float64 { return c.RewriteConfidenceMin }
func (c *Config) GetRewriteMaxBodyLen() int        { return c.RewriteMaxBodyLen }

// RichpanelConfig implementation
func (c *Config) GetRichpanelBaseURL() string { return c.RichpanelBaseURL }
func (c *Config) GetRichpanelAPIKey() string  { return c.RichpanelAPIKey }

// ShopifyConfig implementation
func (c *Config) GetShopifyBaseURL() string     { return c.ShopifyBaseURL }
func (c *Config) GetShopifyAccessToken() string { return c.ShopifyAccessToken }

// ShipStationConfig implementation
func (c *Config) GetShipStationBaseURL() string   { return c.ShipStationBaseURL }
func (c *Config) GetShipStationAPIKey() string    { return c.ShipStationAPIKey }
func (c *Config) GetShipStationAPISecret() string { return c.ShipStationAPISecret }

// OpenAIConfig implementation
func (c *Config) GetOpenAIBaseURL() string { return c.OpenAIBaseURL }
func (c *Config) GetOpenAIAPIKey() string  { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIModel() string   { return c.OpenAIModel }

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// DedupeConfig implementation
func (c *Config) GetDedupeTTL() time.Duration { return c.DedupeTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetWebhookAPIKey() string { return c.WebhookAPIKey }

// ReplyConfig implementation
func (c *Config) GetClassifierPath() string { return c.ClassifierPath }
func (c *Config) GetReplySignature() string { return c.ReplySignature }

// AlertConfig implementation
func (c *Config) GetAlertSMTPHost() string     { return c.AlertSMTPHost }
func (c *Config) GetAlertSMTPPort() int        { return c.AlertSMTPPort }
func (c *Config) GetAlertSMTPUsername() string { return c.AlertSMTPUsername }
func (c *Config) GetAlertSMTPPassword() string { return c.AlertSMTPPassword }
func (c *Config) GetAlertFromAddress() string  { return c.AlertFromAddress }
func (c *Config) GetAlertToAddress() string    { return c.AlertToAddress }
func (c *Config) IsAlertEnabled() bool {
	return c.AlertSMTPHost != "" && c.AlertToAddress != ""
}

// RunConfig implementation
func (c *Config) GetRunTag() string { return c.RunTag }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		SafeMode:          boolEnv("MW_SAFE_MODE", true),
		AutomationEnabled: boolEnv("MW_AUTOMATION_ENABLED", false),
		AllowNetwork:      boolEnv("MW_ALLOW_NETWORK", false),
		OutboundEnabled:   boolEnv("MW_OUTBOUND_ENABLED", false),

		LLMRoutingEnabled:    boolEnv("MW_LLM_ROUTING_ENABLED", false),
		LLMRoutingPrimary:    boolEnv("MW_LLM_ROUTING_PRIMARY", false),
		LLMRoutingShadow:     boolEnv("MW_LLM_ROUTING_SHADOW", false),
		RoutingConfidenceMin: routingConfidenceMin(),

		RewriteEnabled:       boolEnv("MW_REWRITE_ENABLED", false),
		RewriteConfidenceMin: unitFloatEnv("MW_REWRITE_CONFIDENCE_MIN", DefaultRewriteConfidenceMin),
		RewriteMaxBodyLen:    intEnv("MW_REWRITE_MAX_BODY_LEN", DefaultRewriteMaxBodyLen),

		RunTag: getEnv("MW_RUN_TAG", ""),

		RichpanelBaseURL: getEnv("RICHPANEL_BASE_URL", "https://api.richpanel.com/v1"),
		RichpanelAPIKey:  getEnv("RICHPANEL_API_KEY", ""),

		ShopifyBaseURL:     getEnv("SHOPIFY_BASE_URL", ""),
		ShopifyAccessToken: getEnv("SHOPIFY_ACCESS_TOKEN", ""),

		ShipStationBaseURL:   getEnv("SHIPSTATION_BASE_URL", "https://ssapi.shipstation.com"),
		ShipStationAPIKey:    getEnv("SHIPSTATION_API_KEY", ""),
		ShipStationAPISecret: getEnv("SHIPSTATION_API_SECRET", ""),

		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: boolEnv("REDIS_TLS_INSECURE", false),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "tickets"),
		AsynqConcurrency: intEnv("ASYNQ_CONCURRENCY", 1),
		DedupeTTL:        mustDuration(getEnv("MW_DEDUPE_TTL", "72h")),

		CORSAllowAll:   boolEnv("CORS_ALLOW_ALL", false),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "")),
		WebhookAPIKey:  getEnv("WEBHOOK_API_KEY", ""),
		ClassifierPath: getEnv("MW_CLASSIFIER_RULES_PATH", ""),
		ReplySignature: getEnv("MW_REPLY_SIGNATURE", "Customer Support"),

		AlertSMTPHost:     getEnv("ALERT_SMTP_HOST", ""),
		AlertSMTPPort:     intEnv("ALERT_SMTP_PORT", 587),
		AlertSMTPUsername: getEnv("ALERT_SMTP_USERNAME", ""),
		AlertSMTPPassword: getEnv("ALERT_SMTP_PASSWORD", ""),
		AlertFromAddress:  getEnv("ALERT_FROM_ADDRESS", ""),
		AlertToAddress:    getEnv("ALERT_TO_ADDRESS", ""),
	}

	if cfg.OutboundEnabled && cfg.RichpanelAPIKey == "" {
		return nil, fmt.Errorf("RICHPANEL_API_KEY is required when MW_OUTBOUND_ENABLED is true")
	}
	if (cfg.LLMRoutingEnabled || cfg.RewriteEnabled) && cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required when an LLM feature is enabled")
	}

	return cfg, nil
}

// routingConfidenceMin resolves the LLM routing confidence threshold.
// The newer key MW_LLM_ROUTING_CONFIDENCE_MIN wins over the legacy
// MW_ROUTING_CONFIDENCE_MIN; a non-numeric or out-of-[0,1] value in
// either key falls through to the next source.
func routingConfidenceMin() float64 {
	if v, ok := parseUnitFloat(os.Getenv("MW_LLM_ROUTING_CONFIDENCE_MIN")); ok {
		return v
	}
	if v, ok := parseUnitFloat(os.Getenv("MW_ROUTING_CONFIDENCE_MIN")); ok {
		return v
	}
	return DefaultRoutingConfidenceMin
}

func parseUnitFloat(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, false
	}
	return v, true
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return strings.EqualFold(strings.TrimSpace(val), "true")
}

func intEnv(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	result, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || result <= 0 {
		return fallback
	}
	return result
}

func unitFloatEnv(key string, fallback float64) float64 {
	if v, ok := parseUnitFloat(os.Getenv(key)); ok {
		return v
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

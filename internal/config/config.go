package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Turngate webhook gateway.
type Config struct {
	Server    ServerConfig    `json:"server"`
	WhatsApp  WhatsAppConfig  `json:"whatsapp"`
	Debounce  DebounceConfig  `json:"debounce"`
	Redis     RedisConfig     `json:"redis"`
	Database  DatabaseConfig  `json:"database,omitempty"`
	Reply     ReplyConfig     `json:"reply"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// ServerConfig configures the HTTP listener hosting the webhook routes.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	VerifyToken  string `json:"-"`                        // from env TURNGATE_VERIFY_TOKEN only
	RateLimitRPM int    `json:"rate_limit_rpm,omitempty"` // per-sender inbound cap (0 = disabled)
}

// WhatsAppConfig configures the Cloud API credentials and endpoint.
// AccessToken and AppSecret are secrets — env only, never persisted.
type WhatsAppConfig struct {
	AccessToken   string `json:"-"` // from env TURNGATE_WA_ACCESS_TOKEN only
	AppSecret     string `json:"-"` // from env TURNGATE_WA_APP_SECRET only
	PhoneNumberID string `json:"phone_number_id"`
	APIVersion    string `json:"api_version,omitempty"` // e.g. "v21.0"
	APIBase       string `json:"api_base,omitempty"`    // override for tests/proxies
}

// DebounceConfig tunes the turn-coalescing engine.
type DebounceConfig struct {
	WindowMS        int `json:"window_ms,omitempty"`         // sliding debounce width (default 4000)
	DedupRetentionS int `json:"dedup_retention_s,omitempty"` // provider redelivery guard (default 3600)
	LockTTLMS       int `json:"lock_ttl_ms,omitempty"`       // flush lock lease (default 5000)
	TimerGraceMS    int `json:"timer_grace_ms,omitempty"`    // timer self-expiry margin (default 5000)
	CheckEpsilonMS  int `json:"check_epsilon_ms,omitempty"`  // deferred check slack past the window (default 50)
}

// Window returns the debounce window as a duration.
func (d DebounceConfig) Window() time.Duration { return time.Duration(d.WindowMS) * time.Millisecond }

// DedupRetention returns the dedup key retention as a duration.
func (d DebounceConfig) DedupRetention() time.Duration {
	return time.Duration(d.DedupRetentionS) * time.Second
}

// LockTTL returns the flush lock lease as a duration.
func (d DebounceConfig) LockTTL() time.Duration { return time.Duration(d.LockTTLMS) * time.Millisecond }

// TimerGrace returns the timer expiry margin as a duration.
func (d DebounceConfig) TimerGrace() time.Duration {
	return time.Duration(d.TimerGraceMS) * time.Millisecond
}

// CheckEpsilon returns the deferred-check slack as a duration.
func (d DebounceConfig) CheckEpsilon() time.Duration {
	return time.Duration(d.CheckEpsilonMS) * time.Millisecond
}

// RedisConfig configures the coordination store shared across workers.
// Empty URL selects the in-process store (single-worker standalone mode).
type RedisConfig struct {
	URL string `json:"url,omitempty"` // redis://host:port/db; overridable via TURNGATE_REDIS_URL
}

// DatabaseConfig configures Postgres conversation persistence.
// DSN is NEVER read from the config file (secret) — only from env
// TURNGATE_POSTGRES_DSN. Empty DSN disables persistence.
type DatabaseConfig struct {
	DSN string `json:"-"`
}

// ReplyConfig selects and configures the reply generator.
type ReplyConfig struct {
	Mode         string  `json:"mode,omitempty"`     // "rules" (default) or "openai"
	APIKey       string  `json:"-"`                  // from env TURNGATE_OPENAI_API_KEY only
	APIBase      string  `json:"api_base,omitempty"` // OpenAI-compatible endpoint
	Model        string  `json:"model,omitempty"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// TelemetryConfig configures the optional OTLP trace exporter.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`      // enable OTLP export (default false)
	Endpoint    string            `json:"endpoint,omitempty"`     // OTLP endpoint (e.g. "localhost:4317")
	Protocol    string            `json:"protocol,omitempty"`     // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`     // plaintext transport for local dev
	ServiceName string            `json:"service_name,omitempty"` // OTEL service name (default "turngate")
	Headers     map[string]string `json:"headers,omitempty"`      // extra headers (e.g. auth tokens)
}

// Validate checks cross-field constraints that Default() cannot guarantee
// once file and env values are overlaid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Debounce.WindowMS <= 0 {
		return fmt.Errorf("debounce.window_ms must be positive, got %d", c.Debounce.WindowMS)
	}
	if c.Debounce.LockTTLMS < c.Debounce.WindowMS {
		// A lock shorter than the window expires while a burst is still
		// coalescing, re-opening the flush race the lock exists to close.
		return fmt.Errorf("debounce.lock_ttl_ms (%d) must be >= debounce.window_ms (%d)",
			c.Debounce.LockTTLMS, c.Debounce.WindowMS)
	}
	if c.Debounce.DedupRetentionS <= 0 {
		return fmt.Errorf("debounce.dedup_retention_s must be positive, got %d", c.Debounce.DedupRetentionS)
	}
	switch c.Reply.Mode {
	case "", "rules":
	case "openai":
		if c.Reply.APIKey == "" {
			return fmt.Errorf("reply.mode is openai but TURNGATE_OPENAI_API_KEY is not set")
		}
	default:
		return fmt.Errorf("unknown reply.mode %q", c.Reply.Mode)
	}
	return nil
}

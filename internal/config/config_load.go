package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         18791,
			RateLimitRPM: 60,
		},
		WhatsApp: WhatsAppConfig{
			APIVersion: "v21.0",
			APIBase:    "https://graph.facebook.com",
		},
		Debounce: DebounceConfig{
			WindowMS:        4000,
			DedupRetentionS: 3600,
			LockTTLMS:       5000,
			TimerGraceMS:    5000,
			CheckEpsilonMS:  50,
		},
		Reply: ReplyConfig{
			Mode:        "rules",
			APIBase:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "turngate",
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: env-only deployments are supported.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values. Secrets are env-only.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	// Secrets (never in the config file)
	envStr("TURNGATE_WA_ACCESS_TOKEN", &c.WhatsApp.AccessToken)
	envStr("TURNGATE_WA_APP_SECRET", &c.WhatsApp.AppSecret)
	envStr("TURNGATE_VERIFY_TOKEN", &c.Server.VerifyToken)
	envStr("TURNGATE_POSTGRES_DSN", &c.Database.DSN)
	envStr("TURNGATE_OPENAI_API_KEY", &c.Reply.APIKey)

	// Non-secret overrides
	envStr("TURNGATE_HOST", &c.Server.Host)
	if v := os.Getenv("TURNGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
	envStr("TURNGATE_WA_PHONE_NUMBER_ID", &c.WhatsApp.PhoneNumberID)
	envStr("TURNGATE_REDIS_URL", &c.Redis.URL)
	envStr("TURNGATE_REPLY_MODE", &c.Reply.Mode)
	envStr("TURNGATE_REPLY_MODEL", &c.Reply.Model)

	// Telemetry
	envStr("TURNGATE_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("TURNGATE_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("TURNGATE_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("TURNGATE_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TURNGATE_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "true" || v == "1"
	}
}

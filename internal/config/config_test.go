package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Debounce.WindowMS != 4000 {
		t.Errorf("window_ms = %d, want default 4000", cfg.Debounce.WindowMS)
	}
	if cfg.Debounce.DedupRetentionS != 3600 {
		t.Errorf("dedup_retention_s = %d, want default 3600", cfg.Debounce.DedupRetentionS)
	}
	if cfg.Server.Port != 18791 {
		t.Errorf("port = %d, want default 18791", cfg.Server.Port)
	}
	if cfg.Reply.Mode != "rules" {
		t.Errorf("reply mode = %q, want rules", cfg.Reply.Mode)
	}
}

func TestLoadFileAndEnvOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		// JSON5: comments and trailing commas are fine
		server: { port: 9000 },
		debounce: { window_ms: 1500, },
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TURNGATE_PORT", "9999")
	t.Setenv("TURNGATE_WA_ACCESS_TOKEN", "tok")
	t.Setenv("TURNGATE_VERIFY_TOKEN", "vt")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Debounce.WindowMS != 1500 {
		t.Errorf("window_ms = %d, want file value 1500", cfg.Debounce.WindowMS)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, env must override file", cfg.Server.Port)
	}
	if cfg.WhatsApp.AccessToken != "tok" {
		t.Errorf("access token not read from env")
	}
	if cfg.Server.VerifyToken != "vt" {
		t.Errorf("verify token not read from env")
	}
	// Untouched sections keep defaults.
	if cfg.Debounce.LockTTLMS != 5000 {
		t.Errorf("lock_ttl_ms = %d, want default 5000", cfg.Debounce.LockTTLMS)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"zero window", func(c *Config) { c.Debounce.WindowMS = 0 }, true},
		{"lock shorter than window", func(c *Config) { c.Debounce.LockTTLMS = 1000 }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero retention", func(c *Config) { c.Debounce.DedupRetentionS = 0 }, true},
		{"openai without key", func(c *Config) { c.Reply.Mode = "openai" }, true},
		{"openai with key", func(c *Config) { c.Reply.Mode = "openai"; c.Reply.APIKey = "sk" }, false},
		{"unknown reply mode", func(c *Config) { c.Reply.Mode = "oracle" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

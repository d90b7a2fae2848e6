package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: "ignored"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() || cfg.EffectiveToken() != "" {
		t.Error("disabled mode should not enforce a token")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if cfg.EffectiveToken() != "mysecret" {
		t.Errorf("token = %q", cfg.EffectiveToken())
	}

	cfg.Token = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if cfg.Validate() == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.Storage.Key != "itac-energy-audit-form-v1" {
		t.Errorf("key = %q", cfg.Storage.Key)
	}
	if cfg.Autosave.QuietPeriod != 600*time.Millisecond || cfg.Autosave.StatusSettle != 2*time.Second {
		t.Errorf("autosave = %+v", cfg.Autosave)
	}
	if cfg.App.HTTP.Address() != ":8080" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
}

func TestStorageConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"empty key", func(c *Config) { c.Storage.Key = "" }, true},
		{"redis without url", func(c *Config) { c.Storage.Fallback.Driver = FallbackRedis }, true},
		{"redis with url", func(c *Config) {
			c.Storage.Fallback.Driver = FallbackRedis
			c.Storage.Fallback.RedisURL = "redis://localhost:6379/0"
		}, false},
		{"file without path", func(c *Config) { c.Storage.Fallback.Path = "" }, true},
		{"unknown driver", func(c *Config) { c.Storage.Fallback.Driver = "floppy" }, true},
		{"sqlite only", func(c *Config) { c.Storage.Fallback.Driver = FallbackNone }, false},
		{"nothing at all", func(c *Config) {
			c.Storage.SQLite.Path = ""
			c.Storage.Fallback.Driver = FallbackNone
		}, true},
		{"fallback only", func(c *Config) { c.Storage.SQLite.Path = "" }, false},
		{"empty driver defaults to file", func(c *Config) { c.Storage.Fallback.Driver = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAutosaveAndReportValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Autosave.QuietPeriod = 0
	if cfg.Validate() == nil {
		t.Error("zero quiet period accepted")
	}

	cfg = NewDefaultConfig()
	cfg.Report.HeaderImages = []string{"a.png", "b.png", "c.png"}
	if cfg.Validate() == nil {
		t.Error("three header images accepted")
	}

	cfg = NewDefaultConfig()
	cfg.Report.FilePrefix = ""
	if cfg.Validate() == nil {
		t.Error("empty file prefix accepted")
	}
}

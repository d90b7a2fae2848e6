package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Fallback drivers.
const (
	FallbackFile  = "file"
	FallbackRedis = "redis"
	FallbackNone  = "none"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Auth     AuthConfig        `yaml:"auth"`
	Storage  StorageConfig     `yaml:"storage"`
	Autosave AutosaveConfig    `yaml:"autosave"`
	Report   ReportConfig      `yaml:"report"`
	Assets   AssetsConfig      `yaml:"assets"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Autosave.Validate(); err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): the API is open, suitable for a single tablet.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// EffectiveToken is the token the API enforces, empty when auth is disabled.
func (c *AuthConfig) EffectiveToken() string {
	if !c.AuthEnabled() {
		return ""
	}
	return c.Token
}

// StorageConfig configures the durable store: SQLite first, then a string
// fallback.
type StorageConfig struct {
	Key      string         `yaml:"key"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Fallback FallbackConfig `yaml:"fallback"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Key, validation.Required),
	); err != nil {
		return err
	}
	if !c.SQLite.Enabled() && c.Fallback.Driver == FallbackNone {
		return errors.New("sqlite and fallback are both disabled")
	}
	return c.Fallback.Validate()
}

// SQLiteConfig holds SQLite database configuration. An empty path disables
// the primary backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether the primary backend is configured.
func (c *SQLiteConfig) Enabled() bool { return c.Path != "" }

// FallbackConfig selects the string backend used when SQLite is unusable.
type FallbackConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	MaxBytes int    `yaml:"max_bytes"`
}

// Validate validates the fallback configuration.
func (c *FallbackConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = FallbackFile
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(FallbackFile, FallbackRedis, FallbackNone)),
		validation.Field(&c.Path, validation.When(c.Driver == FallbackFile, validation.Required)),
		validation.Field(&c.RedisURL, validation.When(c.Driver == FallbackRedis, validation.Required)),
		validation.Field(&c.MaxBytes, validation.Min(0)),
	)
}

// AutosaveConfig holds the debounce timings.
type AutosaveConfig struct {
	QuietPeriod  time.Duration `yaml:"quiet_period"`
	StatusSettle time.Duration `yaml:"status_settle"`
}

// Validate validates the autosave configuration.
func (c *AutosaveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.QuietPeriod, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.StatusSettle, validation.Required, validation.Min(time.Millisecond)),
	)
}

// ReportConfig configures the PDF report.
type ReportConfig struct {
	Title        string   `yaml:"title"`
	FilePrefix   string   `yaml:"file_prefix"`
	HeaderImages []string `yaml:"header_images"`
	ExportDir    string   `yaml:"export_dir"`
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.FilePrefix, validation.Required),
		validation.Field(&c.HeaderImages, validation.Length(0, 2)),
	)
}

// AssetsConfig configures the offline asset cache. An empty Dir disables
// local assets; header images may still be fetched from allowed hosts.
type AssetsConfig struct {
	Dir          string   `yaml:"dir"`
	CacheName    string   `yaml:"cache_name"`
	Files        []string `yaml:"files"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Storage: StorageConfig{
			Key: "itac-energy-audit-form-v1",
			SQLite: SQLiteConfig{
				Path: "./data/fieldaudit.db",
			},
			Fallback: FallbackConfig{
				Driver:   FallbackFile,
				Path:     "./data/fallback",
				MaxBytes: 5 << 20,
			},
		},
		Autosave: AutosaveConfig{
			QuietPeriod:  600 * time.Millisecond,
			StatusSettle: 2 * time.Second,
		},
		Report: ReportConfig{
			Title:      "ITAC Energy Audit Form",
			FilePrefix: "ITAC-Energy-Audit",
			ExportDir:  ".",
		},
		Assets: AssetsConfig{
			Dir:       "./assets",
			CacheName: "fieldaudit",
		},
	}
}

package erpauth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the Client. Start from [DefaultConfig] and
// override fields, or load a YAML file with [LoadConfig].
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	API           APIConfig           `yaml:"api"`
	Session       SessionConfig       `yaml:"session"`
	Login         LoginConfig         `yaml:"login"`
	Registration  RegistrationConfig  `yaml:"registration"`
	PasswordReset PasswordResetConfig `yaml:"password_reset"`
	Throttle      ThrottleConfig      `yaml:"throttle"`
	Audit         AuditConfig         `yaml:"audit"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the ERP API.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionBackend selects where the token is persisted.
type SessionBackend string

const (
	SessionMemory SessionBackend = "memory"
	SessionFile   SessionBackend = "file"
	SessionRedis  SessionBackend = "redis"
)

// SessionConfig controls token persistence.
type SessionConfig struct {
	Backend     SessionBackend `yaml:"backend"`
	FilePath    string         `yaml:"file_path"`
	RedisAddr   string         `yaml:"redis_addr"`
	RedisPrefix string         `yaml:"redis_prefix"`
}

/*
====================================
FORM CONFIG
====================================
*/

// LoginConfig controls the login form and its lockout.
type LoginConfig struct {
	LockoutThreshold int `yaml:"lockout_threshold"`
	// CountTransportFailures counts unreachable-server attempts toward the lockout.
	CountTransportFailures bool   `yaml:"count_transport_failures"`
	SuccessRedirect        string `yaml:"success_redirect"`
	SupportContact         string `yaml:"support_contact"`
}

// RegistrationConfig controls the OTP registration form.
type RegistrationConfig struct {
	OrgDomain         string        `yaml:"org_domain"`
	DefaultTrioID     string        `yaml:"default_trio_id"`
	MinPasswordLength int           `yaml:"min_password_length"`
	UseResendEndpoint bool          `yaml:"use_resend_endpoint"`
	RedirectDelay     time.Duration `yaml:"redirect_delay"`
	LoginRedirect     string        `yaml:"login_redirect"`
}

// PasswordResetConfig controls the forgot-password modal.
type PasswordResetConfig struct {
	MinPasswordLength int           `yaml:"min_password_length"`
	CloseDelay        time.Duration `yaml:"close_delay"`
}

// ThrottleConfig is the client-side OTP policy. Disabled leaves all limiting to the server.
type ThrottleConfig struct {
	Enabled           bool          `yaml:"enabled"`
	ResendCooldown    time.Duration `yaml:"resend_cooldown"`
	MaxSends          int           `yaml:"max_sends"`
	Window            time.Duration `yaml:"window"`
	MaxVerifyAttempts int           `yaml:"max_verify_attempts"`
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// DefaultConfig returns the configuration matching the hosted ERP front end.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "https://errdashboard.onrender.com/api",
			Timeout: 20 * time.Second,
		},
		Session: SessionConfig{
			Backend:     SessionMemory,
			RedisPrefix: "erpauth",
		},
		Login: LoginConfig{
			LockoutThreshold:       3,
			CountTransportFailures: true,
			SuccessRedirect:        "/dashboard",
			SupportContact:         "support@triovisioninternational.com",
		},
		Registration: RegistrationConfig{
			OrgDomain:         "triovisioninternational.com",
			DefaultTrioID:     "Trio",
			MinPasswordLength: 8,
			RedirectDelay:     900 * time.Millisecond,
			LoginRedirect:     "/login",
		},
		PasswordReset: PasswordResetConfig{
			MinPasswordLength: 8,
			CloseDelay:        800 * time.Millisecond,
		},
		Throttle: ThrottleConfig{
			Enabled:           false,
			ResendCooldown:    30 * time.Second,
			MaxSends:          5,
			Window:            15 * time.Minute,
			MaxVerifyAttempts: 5,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	// API
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("API BaseURL must be set")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return errors.New("API BaseURL must be an http(s) URL")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}

	// Session
	switch c.Session.Backend {
	case SessionMemory:
	case SessionFile:
		if strings.TrimSpace(c.Session.FilePath) == "" {
			return errors.New("Session FilePath required for file backend")
		}
	case SessionRedis:
		if strings.TrimSpace(c.Session.RedisPrefix) == "" {
			return errors.New("Session RedisPrefix required for redis backend")
		}
	default:
		return fmt.Errorf("Session Backend %q is not one of memory, file, redis", c.Session.Backend)
	}

	// Forms
	if c.Login.LockoutThreshold <= 0 {
		return errors.New("Login LockoutThreshold must be > 0")
	}
	if c.Registration.OrgDomain == "" || !strings.Contains(c.Registration.OrgDomain, ".") {
		return errors.New("Registration OrgDomain must be a dotted domain")
	}
	if strings.ContainsAny(c.Registration.OrgDomain, "@ \t") {
		return errors.New("Registration OrgDomain must not contain '@' or whitespace")
	}
	if c.Registration.MinPasswordLength < 1 {
		return errors.New("Registration MinPasswordLength must be >= 1")
	}
	if c.Registration.RedirectDelay < 0 {
		return errors.New("Registration RedirectDelay must be >= 0")
	}
	if c.PasswordReset.MinPasswordLength < 1 {
		return errors.New("PasswordReset MinPasswordLength must be >= 1")
	}
	if c.PasswordReset.CloseDelay < 0 {
		return errors.New("PasswordReset CloseDelay must be >= 0")
	}

	// Throttle
	if c.Throttle.Enabled {
		if c.Throttle.ResendCooldown < 0 {
			return errors.New("Throttle ResendCooldown must be >= 0")
		}
		if c.Throttle.MaxSends < 0 || c.Throttle.MaxVerifyAttempts < 0 {
			return errors.New("Throttle limits must be >= 0")
		}
		if (c.Throttle.MaxSends > 0 || c.Throttle.MaxVerifyAttempts > 0) && c.Throttle.Window <= 0 {
			return errors.New("Throttle Window must be > 0 when a limit is set")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

// LoadConfig reads a YAML file over [DefaultConfig] and then applies ERPAUTH_*
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if cfg.Session.Backend == SessionFile && cfg.Session.FilePath == "" {
		cfg.Session.FilePath = DefaultSessionFile()
	}
	return cfg, nil
}

// DefaultSessionFile returns the per-user token file location.
func DefaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "erpauth", "session.json")
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("ERPAUTH_BASE_URL", &cfg.API.BaseURL)
	if err := dur("ERPAUTH_TIMEOUT", &cfg.API.Timeout); err != nil {
		return err
	}
	var backend string
	str("ERPAUTH_SESSION_BACKEND", &backend)
	if backend != "" {
		cfg.Session.Backend = SessionBackend(strings.ToLower(backend))
	}
	str("ERPAUTH_SESSION_FILE", &cfg.Session.FilePath)
	str("ERPAUTH_REDIS_ADDR", &cfg.Session.RedisAddr)
	str("ERPAUTH_SUPPORT_CONTACT", &cfg.Login.SupportContact)
	str("ERPAUTH_ORG_DOMAIN", &cfg.Registration.OrgDomain)
	if err := boolean("ERPAUTH_THROTTLE", &cfg.Throttle.Enabled); err != nil {
		return err
	}
	return boolean("ERPAUTH_AUDIT", &cfg.Audit.Enabled)
}

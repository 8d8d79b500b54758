package erpauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/triovision/erpauth/api"
	"github.com/triovision/erpauth/internal/audit"
	"github.com/triovision/erpauth/internal/limiters"
	"github.com/triovision/erpauth/internal/rate"
	"github.com/triovision/erpauth/session"
	"go.uber.org/zap"
)

// Builder assembles a [Client]. A Builder can be used once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	logger     *zap.Logger
	store      session.Store
	httpClient *http.Client
	auditSink  AuditSink
	otpWindow  rate.Window

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the zap logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRedis enables the Redis session backend and moves OTP throttle counters to Redis.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the store selected by Session.Backend.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithHTTPClient replaces the HTTP client; API.Timeout is then ignored.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithAuditSink sets the audit destination and enables the dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) withOTPWindow(w rate.Window) *Builder {
	b.otpWindow = w
	return b
}

// Build validates the configuration, loads any persisted token, and returns the Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- SESSION --------
	store := b.store
	if store == nil {
		switch cfg.Session.Backend {
		case SessionFile:
			store = session.NewFileStore(cfg.Session.FilePath)
		case SessionRedis:
			if b.redis == nil {
				return nil, errors.New("Session backend redis requires redis client")
			}
			store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
		default:
			store = session.NewMemoryStore()
		}
	}
	manager, err := session.NewManager(context.Background(), store)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	c := &Client{
		config:  cfg,
		logger:  logger,
		session: manager,
		metrics: NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	c.api = api.NewClient(api.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		HTTPClient: b.httpClient,
		Tokens:     manager,
		Logger:     logger,
		UserAgent:  cfg.API.UserAgent,
	})

	// -------- OTP THROTTLE --------
	if cfg.Throttle.Enabled {
		window := b.otpWindow
		if window == nil {
			if b.redis != nil {
				window = rate.NewRedisWindow(b.redis, cfg.Session.RedisPrefix)
			} else {
				window = rate.NewMemoryWindow(nil)
			}
		}
		c.throttle = limiters.NewOTPLimiter(window, limiters.OTPConfig{
			ResendCooldown:    cfg.Throttle.ResendCooldown,
			MaxSends:          cfg.Throttle.MaxSends,
			SendWindow:        cfg.Throttle.Window,
			MaxVerifyAttempts: cfg.Throttle.MaxVerifyAttempts,
			VerifyWindow:      cfg.Throttle.Window,
		})
	}

	c.deps = c.buildFlowDeps()
	c.login = newLoginForm(c)
	c.ready = true

	b.built = true

	return c, nil
}

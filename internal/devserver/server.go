package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/triovision/erpauth/internal"
	"github.com/triovision/erpauth/internal/stores"
	"github.com/triovision/erpauth/jwt"
	"github.com/triovision/erpauth/middleware"
	"github.com/triovision/erpauth/password"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Options supplies optional collaborators. Zero values select in-memory
// defaults.
type Options struct {
	Logger   *zap.Logger
	OTPStore stores.OTPStore
	Mailer   Mailer
}

// Server serves the auth API from memory.
type Server struct {
	config  Config
	logger  *zap.Logger
	otps    stores.OTPStore
	mailer  Mailer
	hasher  *password.Hasher
	tokens  *jwt.Manager
	users   *userTable
	router  *gin.Engine
	newCode func(digits int) (string, error)
}

// New validates cfg and assembles a [Server].
func New(cfg Config, opts Options) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("devserver")

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		generated, err := internal.NewSecret(32)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		secret = generated
	}
	tokens, err := jwt.NewManager(jwt.Config{Secret: secret, TTL: cfg.TokenTTL, Issuer: cfg.Issuer})
	if err != nil {
		return nil, err
	}
	hasher, err := password.NewHasher(cfg.Password)
	if err != nil {
		return nil, err
	}

	otps := opts.OTPStore
	if otps == nil {
		otps = stores.NewMemoryOTPStore(nil)
	}
	mailer := opts.Mailer
	if mailer == nil {
		if cfg.SMTP.Host != "" {
			mailer = NewSMTPMailer(cfg.SMTP)
		} else {
			mailer = NewLogMailer(logger)
		}
	}

	s := &Server{
		config:  cfg,
		logger:  logger,
		otps:    otps,
		mailer:  mailer,
		hasher:  hasher,
		tokens:  tokens,
		users:   newUserTable(),
		newCode: internal.NewOTP,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Tokens returns the manager that signs login tokens.
func (s *Server) Tokens() *jwt.Manager {
	return s.tokens
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("stopped")
	return nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, envelope{Success: true, Message: "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/otp/send-otp", s.sendOTP)
		api.POST("/otp/resend-otp", s.sendOTP)
		api.POST("/otp/verify-otp", s.verifyOTP)
		api.POST("/auth/register", s.register)
		api.POST("/auth/login", s.login)
		api.POST("/otp/request-reset", s.requestReset)
		api.POST("/otp/reset-password", s.resetPassword)
		api.GET("/auth/me", gin.WrapH(middleware.Guard(s.tokens)(http.HandlerFunc(s.me))))
	}
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope{Message: "Not found"})
	})
	return router
}

// requestLogger logs one line per request and echoes X-Request-ID.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("request_id", requestID),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

package devserver

import (
	"errors"
	"time"

	"github.com/triovision/erpauth/password"
)

// SMTPConfig selects the gomail mailer. An empty Host logs codes instead.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Config defines the dev server's behavior.
type Config struct {
	Addr              string          `yaml:"addr"`
	JWTSecret         string          `yaml:"jwt_secret"`
	Issuer            string          `yaml:"issuer"`
	TokenTTL          time.Duration   `yaml:"token_ttl"`
	OTPTTL            time.Duration   `yaml:"otp_ttl"`
	OTPDigits         int             `yaml:"otp_digits"`
	MaxOTPAttempts    int             `yaml:"max_otp_attempts"`
	MinPasswordLength int             `yaml:"min_password_length"`
	ShutdownTimeout   time.Duration   `yaml:"shutdown_timeout"`
	Password          password.Config `yaml:"-"`
	SMTP              SMTPConfig      `yaml:"smtp"`
}

// DefaultConfig returns a config listening on localhost:8088. JWTSecret is
// left empty; New generates a random one.
func DefaultConfig() Config {
	return Config{
		Addr:              "127.0.0.1:8088",
		Issuer:            "erp-devserver",
		TokenTTL:          12 * time.Hour,
		OTPTTL:            10 * time.Minute,
		OTPDigits:         6,
		MaxOTPAttempts:    5,
		MinPasswordLength: password.MinLength,
		ShutdownTimeout:   5 * time.Second,
		Password:          password.DefaultConfig(),
	}
}

// Validate checks cfg for values the server cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("devserver Addr required")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		return errors.New("devserver JWTSecret must be at least 16 bytes")
	}
	if c.TokenTTL <= 0 {
		return errors.New("devserver TokenTTL must be > 0")
	}
	if c.OTPTTL <= 0 {
		return errors.New("devserver OTPTTL must be > 0")
	}
	if c.OTPDigits < 4 || c.OTPDigits > 10 {
		return errors.New("devserver OTPDigits must be in [4,10]")
	}
	if c.MaxOTPAttempts < 1 {
		return errors.New("devserver MaxOTPAttempts must be >= 1")
	}
	if c.MinPasswordLength < password.MinLength {
		return errors.New("devserver MinPasswordLength below password.MinLength")
	}
	if c.SMTP.Host != "" && (c.SMTP.Port <= 0 || c.SMTP.From == "") {
		return errors.New("devserver SMTP requires Port and From")
	}
	return nil
}

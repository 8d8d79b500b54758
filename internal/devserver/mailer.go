package devserver

import (
	"context"
	"fmt"

	"github.com/triovision/erpauth/internal/stores"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers OTP codes.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string, purpose stores.Purpose) error
}

// SMTPMailer sends codes through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPMailer) SendOTP(_ context.Context, email, code string, purpose stores.Purpose) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subjectFor(purpose))
	m.SetBody("text/html", fmt.Sprintf(`
		<h3>%s</h3>
		<p>Your verification code is <strong>%s</strong>.</p>
		<p>If you did not request this, you can ignore this email.</p>
	`, subjectFor(purpose), code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}
	return nil
}

// LogMailer writes codes to the log instead of sending mail.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a dry-run mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger.Named("mailer")}
}

func (l *LogMailer) SendOTP(_ context.Context, email, code string, purpose stores.Purpose) error {
	l.logger.Info("otp issued (dry run)",
		zap.String("email", email),
		zap.String("code", code),
		zap.String("subject", subjectFor(purpose)),
	)
	return nil
}

func subjectFor(purpose stores.Purpose) string {
	if purpose == stores.PurposeReset {
		return "Trio ERP password reset"
	}
	return "Trio ERP email verification"
}

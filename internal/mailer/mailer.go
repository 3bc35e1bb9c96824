package mailer

import (
	"context"
	"fmt"

	"github.com/qforge/qpgen-backend/internal/config"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// Mailer delivers one-time passwords to users.
type Mailer interface {
	SendVerifyOTP(ctx context.Context, to, name, otp string) error
	SendResetOTP(ctx context.Context, to, name, otp string) error
}

// New returns an SMTP mailer, or a log-only mailer when no SMTP host is
// configured (dev mode).
func New(cfg *config.Config, log zerolog.Logger) (Mailer, error) {
	if cfg.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST not set, OTPs will be logged instead of mailed")
		return &logMailer{log: log.With().Str("component", "mailer").Logger()}, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPass),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &smtpMailer{client: client, sender: cfg.SenderAddr}, nil
}

type smtpMailer struct {
	client *mail.Client
	sender string
}

func (m *smtpMailer) SendVerifyOTP(ctx context.Context, to, name, otp string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour account verification code is %s. It expires in 24 hours.\n", name, otp)
	return m.send(ctx, to, "Verify your account", body)
}

func (m *smtpMailer) SendResetOTP(ctx context.Context, to, name, otp string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour password reset code is %s. It expires in 15 minutes.\n", name, otp)
	return m.send(ctx, to, "Reset your password", body)
}

func (m *smtpMailer) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// logMailer writes OTPs to the log instead of sending mail.
type logMailer struct {
	log zerolog.Logger
}

func (m *logMailer) SendVerifyOTP(_ context.Context, to, _, otp string) error {
	m.log.Info().Str("to", to).Str("otp", otp).Msg("Verification OTP (dev mode)")
	return nil
}

func (m *logMailer) SendResetOTP(_ context.Context, to, _, otp string) error {
	m.log.Info().Str("to", to).Str("otp", otp).Msg("Reset OTP (dev mode)")
	return nil
}

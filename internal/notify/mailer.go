package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"studentmedia/internal/config"
)

type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg config.SMTP) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
	}
}

func buildMessage(from string, msg VerificationMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Email)
	b.WriteString("Subject: Your verification code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", msg.Name)
	fmt.Fprintf(&b, "Your verification code is %s.\r\n", msg.Code)
	fmt.Fprintf(&b, "It expires at %s.\r\n", msg.ExpiresAt.UTC().Format("15:04 MST, 02 Jan 2006"))
	return []byte(b.String())
}

func (m *SMTPMailer) Send(ctx context.Context, msg VerificationMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{msg.Email}, buildMessage(m.from, msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.Email, err)
	}

	return nil
}

// LogMailer writes the code to the log. Used when no SMTP server is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg VerificationMessage) error {
	m.logger.Info("verification code issued",
		zap.String("email", msg.Email),
		zap.String("code", msg.Code),
		zap.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}

// NewMailer picks SMTP when a host is configured and falls back to logging.
func NewMailer(cfg config.SMTP, logger *zap.Logger) Mailer {
	if cfg.Host != "" {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(logger)
}

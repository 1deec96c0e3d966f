package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/3gr1v750v/api-yamdb-docker/internal/config"
	"github.com/3gr1v750v/api-yamdb-docker/internal/metrics"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPSender delivers messages synchronously over SMTP.
type SMTPSender struct {
	cfg  config.MailConfig
	dial func(m *gomail.Message) error
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	s := &SMTPSender{cfg: cfg}
	s.dial = func(m *gomail.Message) error {
		d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
		return d.DialAndSend(m)
	}
	return s
}

// Configured reports whether an SMTP host is set. Without one, messages are
// written to the log instead of being sent.
func (s *SMTPSender) Configured() bool {
	return s.cfg.SMTPHost != ""
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.Configured() {
		logger.Log.Info("SMTP not configured, logging email instead",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.String("body", msg.Body),
		)
		metrics.MailMessagesTotal.WithLabelValues("logged").Inc()
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dial(m); err != nil {
		metrics.MailMessagesTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("send email: %w", err)
	}

	metrics.MailMessagesTotal.WithLabelValues("sent").Inc()
	logger.Log.Info("Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

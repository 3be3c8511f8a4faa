package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/integration"
)

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) integration.Result
}

// NewSender returns an SMTP sender, or a simulating one when credentials are absent.
func NewSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if !cfg.Configured() {
		logger.Warn("EMAIL_USER/EMAIL_PASS not set; mail will be simulated")
		return &SimulatedSender{logger: logger}
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

// SMTPSender sends through an authenticated SMTP relay.
type SMTPSender struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) integration.Result {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.User); err != nil {
		return integration.Failed(fmt.Errorf("from address: %w", err))
	}
	if err := msg.To(to); err != nil {
		return integration.Failed(fmt.Errorf("recipient: %w", err))
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, html)

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.User),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return integration.Failed(fmt.Errorf("smtp client: %w", err))
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("mail send failed", zap.String("to", to), zap.Error(err))
		return integration.Failed(err)
	}
	s.logger.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return integration.OK()
}

// SimulatedSender logs the message instead of sending it.
type SimulatedSender struct {
	logger *zap.Logger
}

func NewSimulatedSender(logger *zap.Logger) *SimulatedSender {
	return &SimulatedSender{logger: logger}
}

func (s *SimulatedSender) Send(ctx context.Context, to, subject, html string) integration.Result {
	s.logger.Info("mail simulated (missing credentials)",
		zap.String("to", to),
		zap.String("subject", subject))
	return integration.Result{Success: true, Simulated: true}
}

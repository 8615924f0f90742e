package notify

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type SMTPMailer struct {
	d    *gomail.Dialer
	from string
}

func NewSMTPMailer(host string, port int, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{d: gomail.NewDialer(host, port, user, pass), from: from}
}

func (s *SMTPMailer) Send(ctx context.Context, m Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.HTML)
	return s.d.DialAndSend(msg)
}

// LogMailer 开发环境：只打日志不发信
type LogMailer struct{ log *zap.Logger }

func NewLogMailer(l *zap.Logger) *LogMailer { return &LogMailer{log: l} }

func (s *LogMailer) Send(_ context.Context, m Mail) error {
	s.log.Info("mail (not sent)",
		zap.String("kind", m.Kind),
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("html", m.HTML),
	)
	return nil
}

// Package email delivers the finished digest over SMTP.
package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomail "gopkg.in/gomail.v2"

	"SafetyDigest/internal/config"
	"SafetyDigest/internal/ports"
)

// Sender mails the digest as a plain-text message with an HTML alternative.
type Sender struct {
	cfg config.EmailConfig
	now func() time.Time
}

var _ ports.DeliverySink = (*Sender)(nil)

// NewSender wires SMTP settings; the clock is injectable for tests.
func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{cfg: cfg, now: time.Now}
}

// Deliver sends the digest to the configured recipient. The context only
// gates the attempt; gomail manages its own connection lifetime.
func (s *Sender) Deliver(ctx context.Context, digest string) error {
	if s.cfg.SMTPHost == "" || s.cfg.From == "" || s.cfg.To == "" {
		return fmt.Errorf("email sender misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.cfg.From)
	msg.SetHeader("To", s.cfg.To)
	msg.SetHeader("Subject", subjectFor(s.now()))
	msg.SetBody("text/plain", digest)
	msg.AddAlternative("text/html", htmlBody(digest))

	dialer := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.From, s.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}

	return nil
}

func subjectFor(t time.Time) string {
	return fmt.Sprintf("AI Safety Weekly Digest - %s", t.Format("2006-01-02"))
}

func htmlBody(digest string) string {
	escaped := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(digest)
	return fmt.Sprintf(`<html><body><pre style="font-family: sans-serif;">%s</pre></body></html>`,
		strings.ReplaceAll(escaped, "\n", "<br>"))
}

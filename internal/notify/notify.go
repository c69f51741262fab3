// Package notify delivers workflow emails over SMTP. Bodies are authored as
// markdown and rendered to HTML before sending. With no SMTP host configured
// it degrades to skipped results.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/casescribe/casescribe/internal/workflow"
)

type Config struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

type Mailer struct {
	cfg  Config
	md   goldmark.Markdown
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg Config) *Mailer {
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	return &Mailer{
		cfg:  cfg,
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
		send: smtp.SendMail,
	}
}

func (m *Mailer) configured() bool {
	return strings.TrimSpace(m.cfg.Host) != "" && strings.TrimSpace(m.cfg.From) != ""
}

// Send renders the markdown body to HTML and delivers it. An empty recipient
// or unconfigured mailer yields a skipped result, never an error.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) (workflow.SendResult, error) {
	if strings.TrimSpace(to) == "" || !m.configured() {
		return workflow.SendResult{Skipped: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return workflow.SendResult{}, err
	}

	var html strings.Builder
	if err := m.md.Convert([]byte(body), &html); err != nil {
		return workflow.SendResult{}, fmt.Errorf("render email body: %w", err)
	}

	msg := buildMessage(m.cfg.From, to, subject, html.String())
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return workflow.SendResult{}, fmt.Errorf("smtp send: %w", err)
	}
	return workflow.SendResult{Sent: true}, nil
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

var _ workflow.Notifier = (*Mailer)(nil)

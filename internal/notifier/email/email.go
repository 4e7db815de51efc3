// Package email implements an SMTP-based email notifier
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/fractalizend/screener/internal/notifier"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email implements the Notifier interface for SMTP email
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	send     sendFunc
}

// New creates a new Email notifier
func New(host string, port int, username, password, from string, to []string) *Email {
	return &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		send:     smtp.SendMail,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Init(cfg notifier.Config) error {
	if host, ok := notifier.StringParam(cfg.Params, "host"); ok {
		e.host = host
	}
	if port, ok := notifier.IntParam(cfg.Params, "port"); ok {
		e.port = port
	}
	if username, ok := notifier.StringParam(cfg.Params, "username"); ok {
		e.username = username
	}
	if password, ok := notifier.StringParam(cfg.Params, "password"); ok {
		e.password = password
	}
	if from, ok := notifier.StringParam(cfg.Params, "from"); ok {
		e.from = from
	}
	if to, ok := notifier.StringsParam(cfg.Params, "to"); ok {
		e.to = to
	}

	if e.host == "" || e.from == "" || len(e.to) == 0 {
		return fmt.Errorf("email: host, from, and to are required")
	}
	if e.port == 0 {
		e.port = 587
	}
	if e.send == nil {
		e.send = smtp.SendMail
	}
	return nil
}

// Send mails msg as HTML. Destination, when set, is a comma-separated
// recipient list replacing the configured one. net/smtp has no context
// support, so ctx is only checked before dialing.
func (e *Email) Send(ctx context.Context, msg notifier.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := e.to
	if msg.Destination != "" {
		to = strings.Split(msg.Destination, ",")
	}

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	if err := e.send(addr, auth, e.from, to, e.buildMessage(to, msg)); err != nil {
		return fmt.Errorf("email: %w", err)
	}
	return nil
}

func (e *Email) subject(msg notifier.Message) string {
	if msg.Pair == "" {
		return "Screener alert"
	}
	return fmt.Sprintf("Screener alert: %s %s %s", msg.Pair, msg.Timeframe, msg.Value)
}

func valueColor(value string) string {
	switch value {
	case "up":
		return "#28a745"
	case "down":
		return "#dc3545"
	default:
		return "#6c757d"
	}
}

func (e *Email) buildMessage(to []string, msg notifier.Message) []byte {
	body := fmt.Sprintf(`<html><body>
<div style="margin: 10px 0;">
  <h3 style="color: %s;">%s</h3>
  <p><small>%s %s %s</small></p>
</div>
</body></html>`,
		valueColor(msg.Value),
		msg.Text,
		msg.Kind,
		msg.Timeframe,
		msg.Timestamp,
	)

	return []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s",
		e.from,
		strings.Join(to, ","),
		e.subject(msg),
		body,
	))
}

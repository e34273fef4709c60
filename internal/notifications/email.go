package notifications

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"menucast/internal/config"
)

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Email delivers subject/body payloads over SMTP.
type Email struct {
	host     string
	port     int
	user     string
	password string
	from     string
	to       []string
	send     SendMailFunc
	now      func() time.Time
}

// NewEmail builds an SMTP sink from the notifications section.
func NewEmail(cfg config.Notifications) *Email {
	from := strings.TrimSpace(cfg.EmailFrom)
	if from == "" {
		from = strings.TrimSpace(cfg.SMTPUser)
	}
	port := cfg.SMTPPort
	if port <= 0 {
		port = 587
	}
	return &Email{
		host:     strings.TrimSpace(cfg.SMTPHost),
		port:     port,
		user:     strings.TrimSpace(cfg.SMTPUser),
		password: cfg.SMTPPassword,
		from:     from,
		to:       cfg.EmailTo,
		send:     smtp.SendMail,
		now:      time.Now,
	}
}

// WithSender replaces the SMTP transport.
func (e *Email) WithSender(send SendMailFunc) *Email {
	if send != nil {
		e.send = send
	}
	return e
}

// Publish sends payload "subject" and "body". Events without a subject are ignored.
func (e *Email) Publish(ctx context.Context, event Event, payload Payload) error {
	subject := payload.String("subject")
	if subject == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if e.user != "" {
		auth = smtp.PlainAuth("", e.user, e.password, e.host)
	}
	addr := net.JoinHostPort(e.host, strconv.Itoa(e.port))
	if err := e.send(addr, auth, e.from, e.to, e.message(event, subject, payload.String("body"))); err != nil {
		return fmt.Errorf("send email %q: %w", subject, err)
	}
	return nil
}

func (e *Email) message(event Event, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", e.now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "X-Menucast-Event: %s\r\n", event)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

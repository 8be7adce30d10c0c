package dispatch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/rotisserie/eris"
	"google.golang.org/api/gmail/v1"

	"coopdash/internal/config"
	gmailconnector "coopdash/internal/connectors/gmail"
)

// Mailer delivers one plaintext email.
type Mailer interface {
	Send(ctx context.Context, to, toName, subject, body string) error
}

// BuildMessage renders a plaintext RFC 5322 message.
func BuildMessage(fromName, from, toName, to, subject, body string, date time.Time) ([]byte, error) {
	part, err := enmime.Builder().
		From(fromName, from).
		To(toName, to).
		Subject(subject).
		Date(date).
		Text([]byte(body)).
		Build()
	if err != nil {
		return nil, eris.Wrap(err, "build message")
	}
	buf := bytes.NewBuffer(nil)
	if err := part.Encode(buf); err != nil {
		return nil, eris.Wrap(err, "encode message")
	}
	return buf.Bytes(), nil
}

func NewMailer(ctx context.Context, cfg config.Config) (Mailer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "", "smtp":
		return NewSMTPMailer(cfg)
	case "gmail":
		return NewGmailMailer(ctx, cfg)
	default:
		return nil, eris.Errorf("unsupported email provider: %s", cfg.EmailProvider)
	}
}

// SMTPMailer sends over implicit TLS (port 465 style).
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	fromName string
	timeout  time.Duration
}

func NewSMTPMailer(cfg config.Config) (*SMTPMailer, error) {
	if err := cfg.Require("SMTP_USER", cfg.SMTPUser); err != nil {
		return nil, err
	}
	if err := cfg.Require("SMTP_PASSWORD", cfg.SMTPPassword); err != nil {
		return nil, err
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		fromName: cfg.SMTPFromName,
		timeout:  15 * time.Second,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, toName, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return failure("invalid_address", "recipient email is empty")
	}
	msg, err := BuildMessage(m.fromName, m.user, toName, to, subject, body, time.Now())
	if err != nil {
		return failure("build", err.Error())
	}

	dialer := &net.Dialer{Timeout: m.timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: m.host})
	if err != nil {
		return failure("smtp_connect", err.Error())
	}
	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return failure("smtp_connect", err.Error())
	}
	defer c.Close()

	if err := c.Auth(smtp.PlainAuth("", m.user, m.password, m.host)); err != nil {
		return failure("smtp_auth", err.Error())
	}
	if err := c.Mail(m.user); err != nil {
		return failure("smtp_from", err.Error())
	}
	if err := c.Rcpt(to); err != nil {
		return failure("smtp_rcpt", err.Error())
	}
	w, err := c.Data()
	if err != nil {
		return failure("smtp_data", err.Error())
	}
	if _, err := w.Write(msg); err != nil {
		return failure("smtp_data", err.Error())
	}
	if err := w.Close(); err != nil {
		return failure("smtp_data", err.Error())
	}
	return c.Quit()
}

// GmailMailer sends through the Gmail API with the account's refresh token.
type GmailMailer struct {
	service  *gmail.Service
	from     string
	fromName string
}

func NewGmailMailer(ctx context.Context, cfg config.Config) (*GmailMailer, error) {
	if err := cfg.Require("SMTP_USER", cfg.SMTPUser); err != nil {
		return nil, err
	}
	svc, err := gmailconnector.NewService(ctx, cfg, gmail.GmailSendScope)
	if err != nil {
		return nil, err
	}
	return &GmailMailer{service: svc, from: cfg.SMTPUser, fromName: cfg.SMTPFromName}, nil
}

func (m *GmailMailer) Send(ctx context.Context, to, toName, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return failure("invalid_address", "recipient email is empty")
	}
	msg, err := BuildMessage(m.fromName, m.from, toName, to, subject, body, time.Now())
	if err != nil {
		return failure("build", err.Error())
	}
	_, err = m.service.Users.Messages.Send("me", &gmail.Message{Raw: base64.URLEncoding.EncodeToString(msg)}).Context(ctx).Do()
	if err != nil {
		return failure("gmail", err.Error())
	}
	return nil
}

package utils

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var emailTemplates embed.FS

var emails = template.Must(template.ParseFS(emailTemplates, "templates/*.html"))

const (
	TemplateVerifyEmail       = "verify_email.html"
	TemplateResetPassword     = "reset_password.html"
	TemplateOrderConfirmation = "order_confirmation.html"
)

type EmailData struct {
	Name            string
	Message         string
	VerificationURL string
	OrderID         uint
	Lines           []EmailLine
	Total           string
	TrackURL        string
}

type EmailLine struct {
	Product  string
	Quantity int
	Price    string
}

// MailConfig selects and configures the outgoing mail driver: "smtp", "http"
// (JSON mail relay) or "log".
type MailConfig struct {
	Driver    string `yaml:"driver"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	SMTPHost  string `yaml:"smtp_host"`
	SMTPPort  int    `yaml:"smtp_port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"api_key"`
}

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewMailer returns the mailer named by cfg.Driver.
func NewMailer(cfg MailConfig, logger zerolog.Logger) (Mailer, error) {
	switch cfg.Driver {
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp mail driver requires SMTP_HOST")
		}
		return NewSMTPMailer(cfg), nil
	case "http":
		if cfg.APIURL == "" {
			return nil, fmt.Errorf("http mail driver requires MAIL_API_URL")
		}
		return NewHTTPMailer(cfg), nil
	case "", "log":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

// RenderEmail executes one of the embedded email templates.
func RenderEmail(name string, data EmailData) (string, error) {
	var body bytes.Buffer
	if err := emails.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return body.String(), nil
}

type SMTPMailer struct {
	cfg      MailConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	message := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		m.cfg.FromName,
		m.cfg.FromEmail,
		to,
		subject,
		htmlBody,
	)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}

	addr := net.JoinHostPort(m.cfg.SMTPHost, strconv.Itoa(m.cfg.SMTPPort))
	if err := m.sendMail(addr, auth, m.cfg.FromEmail, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type HTTPMailer struct {
	client *resty.Client
	cfg    MailConfig
}

func NewHTTPMailer(cfg MailConfig) *HTTPMailer {
	client := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &HTTPMailer{client: client, cfg: cfg}
}

type relayAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type relayMessage struct {
	From    relayAddress   `json:"from"`
	To      []relayAddress `json:"to"`
	Subject string         `json:"subject"`
	HTML    string         `json:"html"`
}

func (m *HTTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(relayMessage{
			From:    relayAddress{Email: m.cfg.FromEmail, Name: m.cfg.FromName},
			To:      []relayAddress{{Email: to}},
			Subject: subject,
			HTML:    htmlBody,
		}).
		Post(m.cfg.APIURL)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay request failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{log: logger.With().Str("component", "mailer").Logger()}
}

func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Str("body", htmlBody).Msg("email not delivered (log driver)")
	return nil
}

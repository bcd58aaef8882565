// Package mail delivers transactional email. Delivery failures are reported
// to the caller but never block account flows.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"faceblog/internal/config"
	"faceblog/internal/middleware"

	gomail "github.com/wneessen/go-mail"
)

// defaultSendTimeout bounds a send whose context has no deadline.
const defaultSendTimeout = 30 * time.Second

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends a message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when mail is enabled and a logging mailer otherwise.
func New(cfg *config.Config) Mailer {
	if !cfg.MailEnabled {
		return LogMailer{}
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.MailFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		useSSL:   cfg.SMTPUseSSL,
	}
}

// WelcomeMessage is sent after registration.
func WelcomeMessage(to, username string) Message {
	return Message{
		To:      to,
		Subject: "Welcome to FaceBlog!",
		Body:    fmt.Sprintf("Hi %s,\n\nThank you for registering at FaceBlog. We hope you enjoy your stay!\n", username),
	}
}

// SMTPMailer sends through an SMTP relay. useSSL selects implicit TLS (port
// 465); otherwise STARTTLS is used when the relay offers it. PLAIN auth is
// used when credentials are set.
type SMTPMailer struct {
	host     string
	port     int
	from     string
	username string
	password string
	useSSL   bool
}

// Send delivers msg. The connection, including the server greeting, is bound
// to ctx's deadline.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultSendTimeout)
		defer cancel()
	}

	email, err := m.build(msg)
	if err != nil {
		return err
	}
	client, err := m.client(ctx)
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) (*gomail.Msg, error) {
	email := gomail.NewMsg()
	if err := email.From(m.from); err != nil {
		return nil, fmt.Errorf("mail from %q: %w", m.from, err)
	}
	if err := email.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail to %q: %w", msg.To, err)
	}
	email.Subject(msg.Subject)
	email.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return email, nil
}

func (m *SMTPMailer) client(ctx context.Context) (*gomail.Client, error) {
	deadline, _ := ctx.Deadline()

	policy := gomail.TLSOpportunistic
	if m.useSSL {
		policy = gomail.NoTLS
	}
	opts := []gomail.Option{
		gomail.WithTLSPortPolicy(policy),
		gomail.WithPort(m.port),
		gomail.WithTimeout(time.Until(deadline)),
		gomail.WithDialContextFunc(m.dial),
	}
	if m.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.username),
			gomail.WithPassword(m.password),
		)
	}
	client, err := gomail.NewClient(m.host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail client: %w", err)
	}
	return client, nil
}

// dial opens the relay connection and pins ctx's deadline on it so a relay
// that never greets cannot hold the sender past it.
func (m *SMTPMailer) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	var (
		conn net.Conn
		err  error
	)
	if m.useSSL {
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    &tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12},
		}
		conn, err = tlsDialer.DialContext(ctx, network, addr)
	} else {
		conn, err = dialer.DialContext(ctx, network, addr)
	}
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

// LogMailer writes messages to the structured log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	middleware.Logger.InfoContext(ctx, "mail delivery disabled, message logged",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"agromart.store/app/internal/config"
)

var errNoStartTLS = errors.New("mailer: server does not offer STARTTLS")

// SMTPMailer opens one connection per message. TLSMode is none, starttls
// or tls (implicit, usually port 465).
type SMTPMailer struct {
	cfg          config.SMTPConfig
	dialTimeout  time.Duration
	writeTimeout time.Duration
	domain       string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	domain := cfg.Host
	if domain == "" {
		domain = "agromart.local"
	}
	return &SMTPMailer{
		cfg:          cfg,
		dialTimeout:  5 * time.Second,
		writeTimeout: 10 * time.Second,
		domain:       domain,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, e Email) error {
	raw, err := buildMIMEMessage(e, m.domain)
	if err != nil {
		return err
	}

	conn, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("mailer: smtp hello: %w", err)
	}
	defer c.Quit()

	if err := m.secure(c); err != nil {
		return err
	}
	if err := m.auth(c); err != nil {
		return err
	}
	return deliver(c, e.From, e.AllRecipients(), raw)
}

// dial connects and bounds the whole exchange by the earlier of the
// context deadline and dial+write timeouts.
func (m *SMTPMailer) dial(ctx context.Context) (net.Conn, error) {
	d := &net.Dialer{Timeout: m.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(m.cfg.Host, m.cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("mailer: smtp dial: %w", err)
	}

	deadline := time.Now().Add(m.dialTimeout + m.writeTimeout)
	if cd, ok := ctx.Deadline(); ok && cd.Before(deadline) {
		deadline = cd
	}
	_ = conn.SetDeadline(deadline)

	if !strings.EqualFold(m.cfg.TLSMode, "tls") {
		return conn, nil
	}
	tc := tls.Client(conn, m.tlsConfig())
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mailer: smtp tls handshake: %w", err)
	}
	return tc, nil
}

func (m *SMTPMailer) secure(c *smtp.Client) error {
	if !strings.EqualFold(m.cfg.TLSMode, "starttls") {
		return nil
	}
	if ok, _ := c.Extension("STARTTLS"); !ok {
		return errNoStartTLS
	}
	if err := c.StartTLS(m.tlsConfig()); err != nil {
		return fmt.Errorf("mailer: starttls: %w", err)
	}
	return nil
}

// auth is skipped without credentials; MailHog and friends run open.
func (m *SMTPMailer) auth(c *smtp.Client) error {
	if m.cfg.User == "" || m.cfg.Pass == "" {
		return nil
	}
	if ok, _ := c.Extension("AUTH"); !ok {
		return nil
	}
	if err := c.Auth(smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)); err != nil {
		return fmt.Errorf("mailer: smtp auth: %w", err)
	}
	return nil
}

func (m *SMTPMailer) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         m.cfg.Host,
		InsecureSkipVerify: m.cfg.SkipVerifyTLS,
	}
}

func deliver(c *smtp.Client, from string, rcpts []string, raw string) error {
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mailer: MAIL FROM: %w", err)
	}
	for _, r := range rcpts {
		if err := c.Rcpt(r); err != nil {
			return fmt.Errorf("mailer: RCPT TO %s: %w", r, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("mailer: DATA: %w", err)
	}
	if _, err := w.Write([]byte(raw)); err != nil {
		_ = w.Close()
		return fmt.Errorf("mailer: write body: %w", err)
	}
	return w.Close()
}

// Package mailer sends transactional email over SMTP. It exposes a small
// MailSender interface so services can be tested with a mock sender, with
// one implementation driven by config (host, port, credentials, encryption
// mode). An empty host disables sending.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	gosmtp "net/smtp"
	"strings"
	"time"

	"github.com/moodtracker/backend/internal/apperror"
	"github.com/moodtracker/backend/internal/config"
)

// MailSender is the interface services use to deliver email.
type MailSender interface {
	// SendPasswordResetEmail delivers the reset link to the address.
	SendPasswordResetEmail(ctx context.Context, to, resetLink string) error

	// SendInactivityEmail nudges a user who hasn't logged mood entries
	// recently.
	SendInactivityEmail(ctx context.Context, to, name string) error
}

// smtpSender implements MailSender over plain SMTP, STARTTLS, or SSL.
type smtpSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender creates a MailSender from SMTP config.
func NewSMTPSender(cfg config.SMTPConfig) MailSender {
	return &smtpSender{cfg: cfg}
}

// SendPasswordResetEmail sends the HTML reset email with the reset link.
func (s *smtpSender) SendPasswordResetEmail(ctx context.Context, to, resetLink string) error {
	body := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif;">
  <h2>Password Reset</h2>
  <p>We received a request to reset the password for your account.</p>
  <p><a href="%s" style="display:inline-block;padding:10px 20px;background:#4f46e5;color:#fff;text-decoration:none;border-radius:6px;">Reset your password</a></p>
  <p>If the button does not work, copy this link into your browser:</p>
  <p>%s</p>
  <p>This link expires in 4 hours. If you did not request a reset, you can
  safely ignore this email.</p>
</body>
</html>`, resetLink, resetLink)

	return s.send(ctx, to, "Reset your password", body)
}

// SendInactivityEmail sends the "we miss you" nudge.
func (s *smtpSender) SendInactivityEmail(ctx context.Context, to, name string) error {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	body := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif;">
  <h2>%s,</h2>
  <p>It's been a few days since your last mood entry. Taking a moment to
  check in with yourself helps you spot patterns over time.</p>
  <p>Log how you're feeling today — it only takes a few seconds.</p>
</body>
</html>`, greeting)

	return s.send(ctx, to, "How are you feeling?", body)
}

// send builds the RFC 2822 message and delivers it using the configured
// encryption mode.
func (s *smtpSender) send(ctx context.Context, to, subject, body string) error {
	if s.cfg.Host == "" {
		return apperror.NewInternal(fmt.Errorf("smtp is not configured"))
	}

	from := mail.Address{Name: s.cfg.FromName, Address: s.cfg.FromAddress}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	switch s.cfg.Encryption {
	case "ssl":
		return s.sendSSL(addr, from.Address, to, msg.String())
	case "none":
		return s.sendPlain(addr, from.Address, to, msg.String())
	default: // "starttls"
		return s.sendStartTLS(addr, from.Address, to, msg.String())
	}
}

// sendStartTLS sends email using STARTTLS (port 587 typical).
func (s *smtpSender) sendStartTLS(addr, from, to, msg string) error {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("starting TLS: %w", err)
	}

	if s.cfg.Username != "" {
		auth := gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return s.sendMessage(client, from, to, msg)
}

// sendSSL sends email using implicit SSL/TLS (port 465 typical).
func (s *smtpSender) sendSSL(addr, from, to, msg string) error {
	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 10 * time.Second}, "tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("connecting to %s (SSL): %w", addr, err)
	}
	defer conn.Close()

	client, err := gosmtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if s.cfg.Username != "" {
		auth := gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	return s.sendMessage(client, from, to, msg)
}

// sendPlain sends email without encryption.
func (s *smtpSender) sendPlain(addr, from, to, msg string) error {
	var auth gosmtp.Auth
	if s.cfg.Username != "" {
		auth = gosmtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := gosmtp.SendMail(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	return nil
}

// sendMessage handles MAIL FROM, RCPT TO, DATA for an existing SMTP client.
func (s *smtpSender) sendMessage(client *gosmtp.Client, from, to, msg string) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO %s: %w", to, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data: %w", err)
	}
	return client.Quit()
}

package mailer

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/mack/direct-chat/internal/config"
)

// Mailer delivers the two transactional mails the service sends. Failures are
// reported to the caller; nothing is retried.
type Mailer interface {
	SendVerification(to, token string) error
	SendPasswordReset(to, token string) error
}

// New returns an SMTP mailer when a host is configured, otherwise a mailer
// that only logs, which is what development and tests run with.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

type SMTPMailer struct {
	cfg *config.Config
}

func (m *SMTPMailer) SendVerification(to, token string) error {
	link := fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", m.cfg.BaseURL, token)
	body := fmt.Sprintf("Verify your email by opening this link:\r\n\r\n%s\r\n", link)
	return m.send(to, "Verify your email", body)
}

func (m *SMTPMailer) SendPasswordReset(to, token string) error {
	body := fmt.Sprintf("Use this code to reset your password:\r\n\r\n%s\r\n\r\nIf you did not request a reset, ignore this mail.\r\n", token)
	return m.send(to, "Password reset", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.cfg.MailFrom, to, subject, body))

	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}

	return smtp.SendMail(addr, auth, m.cfg.MailFrom, []string{to}, msg)
}

// LogMailer writes mails to the log instead of sending them.
type LogMailer struct{}

func (m *LogMailer) SendVerification(to, token string) error {
	log.Printf("[mailer] verification mail for %s: token=%s", to, token)
	return nil
}

func (m *LogMailer) SendPasswordReset(to, token string) error {
	log.Printf("[mailer] password reset mail for %s: token=%s", to, token)
	return nil
}

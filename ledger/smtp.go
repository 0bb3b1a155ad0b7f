package ledger

import (
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"
)

const reminderSubject = "Library Overdue Reminder"

// SMTPEmailService delivers notifications through an SMTP submission
// endpoint. Credentials come from the environment (see Config); with no
// sender configured, sends are skipped.
type SMTPEmailService struct {
	host     string
	port     string
	sender   string
	password string
}

func NewSMTPEmailService(cfg Config) *SMTPEmailService {
	return &SMTPEmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		sender:   cfg.SenderEmail,
		password: cfg.SenderPassword,
	}
}

func (s *SMTPEmailService) SendEmail(to, message string) error {
	if strings.TrimSpace(to) == "" {
		log.Printf("skipping email: recipient is empty")
		return nil
	}
	if s.sender == "" {
		log.Printf("skipping email to %s: no sender configured", to)
		return nil
	}
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.sender, to, reminderSubject, message)
	auth := smtp.PlainAuth("", s.sender, s.password, s.host)
	return smtp.SendMail(net.JoinHostPort(s.host, s.port), auth, s.sender, []string{to}, []byte(body))
}

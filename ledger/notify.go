package ledger

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Observer receives "user should hear about this" events from the media
// ledgers: overdue reminders and issued fines. Implementations own their
// failure handling; by the time an observer runs, the triggering state is
// already persisted and must not be rolled back.
type Observer interface {
	Notify(user *User, message string)
}

// EmailService sends a single message to an address. The SMTP
// implementation lives in smtp.go; tests use RecordingEmailService.
type EmailService interface {
	SendEmail(to, message string) error
}

// EmailNotifier bridges ledger events to email delivery.
type EmailNotifier struct {
	svc EmailService
}

func NewEmailNotifier(svc EmailService) *EmailNotifier {
	return &EmailNotifier{svc: svc}
}

// Notify emails the user. Users without an address and delivery failures
// are logged and swallowed.
func (n *EmailNotifier) Notify(user *User, message string) {
	if user == nil {
		return
	}
	if strings.TrimSpace(user.Email) == "" {
		log.Printf("cannot send email: user %s has no email address", user.Name)
		return
	}
	if err := n.svc.SendEmail(user.Email, message); err != nil {
		log.Printf("email delivery to %s failed: %v", user.Email, err)
	}
}

// SentEmail is one message captured by RecordingEmailService.
type SentEmail struct {
	To      string
	Message string
}

// RecordingEmailService captures outbound mail instead of sending it.
type RecordingEmailService struct {
	mu   sync.Mutex
	sent []SentEmail

	// Err, when set, is returned by every SendEmail call.
	Err error
}

func (s *RecordingEmailService) SendEmail(to, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sent = append(s.sent, SentEmail{To: to, Message: message})
	return nil
}

// Sent returns a copy of the captured messages.
func (s *RecordingEmailService) Sent() []SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentEmail(nil), s.sent...)
}

// ConsoleNotifier prints events to standard output, for interactive runs
// without SMTP configuration.
type ConsoleNotifier struct{}

func (ConsoleNotifier) Notify(user *User, message string) {
	if user == nil {
		return
	}
	fmt.Printf("[notice] %s (%s): %s\n", user.Name, user.ID, message)
}

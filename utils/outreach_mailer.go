package utils

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// OutreachMailer delivers sequence emails over SMTP.
type OutreachMailer struct {
	dial    func() (gomail.SendCloser, error)
	retries int
	backoff time.Duration
}

func NewOutreachMailer(host string, port int, username, password string, retries int) *OutreachMailer {
	dialer := gomail.NewDialer(host, port, username, password)
	dialer.LocalName = "localhost"
	dialer.TLSConfig = &tls.Config{ServerName: host}

	return &OutreachMailer{
		dial:    dialer.Dial,
		retries: retries,
		backoff: time.Second,
	}
}

// SendEmail sends one message and returns the Message-ID it was sent with.
// Temporary SMTP failures are retried up to the configured count while ctx
// allows.
func (om *OutreachMailer) SendEmail(ctx context.Context, from, to, subject, body string) (string, error) {
	if err := checkmail.ValidateFormat(to); err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", to, err)
	}

	messageID := newMessageID(from)

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", messageID)
	m.SetHeader("X-Mailer", "OutreachSequencer/1.0")
	m.SetBody("text/plain", body)

	var lastErr error
	for attempt := 0; attempt <= om.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * om.backoff
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		done := make(chan error, 1)
		go func() { done <- om.send(m) }()

		select {
		case err := <-done:
			if err == nil {
				return messageID, nil
			}
			lastErr = err
		case <-ctx.Done():
			return "", fmt.Errorf("smtp send: %w", ctx.Err())
		}

		if !isTemporaryError(lastErr) {
			break
		}
	}

	return "", lastErr
}

func (om *OutreachMailer) send(m *gomail.Message) error {
	s, err := om.dial()
	if err != nil {
		return fmt.Errorf("SMTP connection failed: %w", err)
	}
	defer s.Close()

	if err := gomail.Send(s, m); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

func newMessageID(from string) string {
	domain := "localhost"
	if addr, err := mail.ParseAddress(from); err == nil {
		if at := strings.LastIndex(addr.Address, "@"); at >= 0 && at < len(addr.Address)-1 {
			domain = addr.Address[at+1:]
		}
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}

func isTemporaryError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// SMTP 4xx replies are transient
	errStr := strings.ToLower(err.Error())
	for _, tempErr := range []string{"try again", "temporary", "421", "450", "451", "452"} {
		if strings.Contains(errStr, tempErr) {
			return true
		}
	}
	return false
}

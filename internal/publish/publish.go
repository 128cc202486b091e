package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yuin/goldmark"
	"gopkg.in/gomail.v2"
)

var md = goldmark.New()

// sender is the slice of gomail's dialer the mailer needs.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer delivers newsletters over SMTP. It implements
// flow.PublicationStage: one message per recipient, sent over a single
// connection, and any failure fails the whole publication.
type Mailer struct {
	sender  sender
	from    string
	subject string
}

// NewMailer creates a mailer. Port 465 implies implicit TLS (gomail picks
// that up from the port). An empty from address falls back to the SMTP
// username.
func NewMailer(host string, port int, username, password, from, subject string) *Mailer {
	if from == "" {
		from = username
	}
	return &Mailer{
		sender:  gomail.NewDialer(host, port, username, password),
		from:    from,
		subject: subject,
	}
}

// Publish renders the markdown newsletter to HTML and emails it to every
// recipient.
func (m *Mailer) Publish(ctx context.Context, content string, recipients []string) error {
	if len(recipients) == 0 {
		return errors.New("no active subscribers to publish to")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := renderHTML(content)
	if err != nil {
		return fmt.Errorf("rendering newsletter: %w", err)
	}

	msgs := make([]*gomail.Message, 0, len(recipients))
	for _, rcpt := range recipients {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", rcpt)
		msg.SetHeader("Subject", m.subject)
		msg.SetBody("text/html", html)
		msgs = append(msgs, msg)
	}

	if err := m.sender.DialAndSend(msgs...); err != nil {
		return fmt.Errorf("sending newsletter: %w", err)
	}

	log.Printf("Newsletter sent to %d recipients", len(recipients))
	return nil
}

func renderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package publish

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	messages []*gomail.Message
	err      error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, m...)
	return nil
}

func newTestMailer(s sender) *Mailer {
	return &Mailer{sender: s, from: "geonews@example.com", subject: "GeoNews Briefing — 2025-12-13"}
}

func TestPublishFanOut(t *testing.T) {
	fake := &fakeSender{}
	m := newTestMailer(fake)

	recipients := []string{"a@example.com", "b@example.com"}
	if err := m.Publish(context.Background(), "# Brief\n\nHello **world**", recipients); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(fake.messages))
	}
	for i, msg := range fake.messages {
		to := msg.GetHeader("To")
		if len(to) != 1 || to[0] != recipients[i] {
			t.Errorf("message %d addressed to %v, want %s", i, to, recipients[i])
		}
		subject := msg.GetHeader("Subject")
		if len(subject) != 1 || subject[0] != "GeoNews Briefing — 2025-12-13" {
			t.Errorf("message %d subject %v", i, subject)
		}
	}
}

func TestPublishEmptyRecipients(t *testing.T) {
	fake := &fakeSender{}
	m := newTestMailer(fake)

	if err := m.Publish(context.Background(), "# Brief", nil); err == nil {
		t.Error("expected error for empty recipient list")
	}
	if len(fake.messages) != 0 {
		t.Errorf("no messages should be sent, got %d", len(fake.messages))
	}
}

func TestPublishSendFailure(t *testing.T) {
	m := newTestMailer(&fakeSender{err: errors.New("smtp timeout")})

	err := m.Publish(context.Background(), "# Brief", []string{"a@example.com"})
	if err == nil {
		t.Fatal("expected send error")
	}
	if !strings.Contains(err.Error(), "smtp timeout") {
		t.Errorf("expected wrapped smtp error, got %v", err)
	}
}

func TestPublishCancelledContext(t *testing.T) {
	fake := &fakeSender{}
	m := newTestMailer(fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Publish(ctx, "# Brief", []string{"a@example.com"}); err == nil {
		t.Error("expected context error")
	}
	if len(fake.messages) != 0 {
		t.Errorf("no messages should be sent after cancellation, got %d", len(fake.messages))
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := renderHTML("# Title\n\nSome *emphasis* here.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<h1>Title</h1>") {
		t.Errorf("expected rendered heading, got %q", html)
	}
	if !strings.Contains(html, "<em>emphasis</em>") {
		t.Errorf("expected rendered emphasis, got %q", html)
	}
}

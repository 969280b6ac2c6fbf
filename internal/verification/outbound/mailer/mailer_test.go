package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/passgate/passgate/internal/pkg/config"
	"github.com/passgate/passgate/internal/pkg/instrument"
	"github.com/passgate/passgate/internal/pkg/mail"
)

type fakeMail struct {
	calls     int
	failFirst int
	lastMsg   mail.Message
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.calls++
	f.lastMsg = msg
	if f.calls <= f.failFirst {
		return errors.New("smtp: connection reset")
	}
	return nil
}

func (f *fakeMail) Close() error { return nil }

func newMailer(t *testing.T, client mail.Mail) *Mailer {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("mail:\n  from: PassGate <no-reply@passgate.dev>\n  headers: \"X-Mailer:passgate\"\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	return New(client, cfg, instrument.NewNoop())
}

func TestSendRetriesTransientFailure(t *testing.T) {
	client := &fakeMail{failFirst: 2}
	m := newMailer(t, client)

	err := m.Send(context.Background(), "user@example.com", "482913", 10*time.Minute,
		map[string]any{"name": "User"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}

	msg := client.lastMsg
	if len(msg.To) != 1 || msg.To[0] != "user@example.com" {
		t.Errorf("to = %v", msg.To)
	}
	if !strings.Contains(msg.TextBody, "482913") || !strings.Contains(msg.TextBody, "Hi User") {
		t.Errorf("text body = %q", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "10 minutes") {
		t.Errorf("text body = %q", msg.TextBody)
	}
	if msg.Headers["X-Mailer"] != "passgate" {
		t.Errorf("headers = %v", msg.Headers)
	}
}

func TestSendGivesUpAfterRetries(t *testing.T) {
	client := &fakeMail{failFirst: 10}
	m := newMailer(t, client)

	err := m.Send(context.Background(), "user@example.com", "482913", 10*time.Minute, nil)
	if err == nil {
		t.Fatal("send: err = nil, want delivery failure")
	}
	if client.calls != retryMax+1 {
		t.Errorf("calls = %d, want %d", client.calls, retryMax+1)
	}
}

func TestSendGreetsIdentityWithoutName(t *testing.T) {
	client := &fakeMail{}
	m := newMailer(t, client)

	if err := m.Send(context.Background(), "user@example.com", "482913", 10*time.Minute, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(client.lastMsg.TextBody, "Hi user@example.com") {
		t.Errorf("text body = %q", client.lastMsg.TextBody)
	}
}

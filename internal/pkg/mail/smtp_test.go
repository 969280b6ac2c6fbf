package mail

import (
	"strings"
	"testing"
)

func TestNewSMTPRequiresHostPort(t *testing.T) {
	if _, err := NewSMTP(SMTPConfig{Host: "", Port: 25}); err != ErrSMTPHostPortRequired {
		t.Errorf("missing host: err = %v", err)
	}

	if _, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Port: 0}); err != ErrSMTPHostPortRequired {
		t.Errorf("missing port: err = %v", err)
	}
}

func TestBuildBodyTextOnly(t *testing.T) {
	body, contentType := buildBody(Message{TextBody: "Your code is 123456"})

	if body != "Your code is 123456" {
		t.Errorf("body = %q", body)
	}

	if contentType != "text/plain; charset=UTF-8" {
		t.Errorf("contentType = %q", contentType)
	}
}

func TestBuildBodyHTMLOnly(t *testing.T) {
	body, contentType := buildBody(Message{HTMLBody: "<b>123456</b>"})

	if body != "<b>123456</b>" {
		t.Errorf("body = %q", body)
	}

	if contentType != "text/html; charset=UTF-8" {
		t.Errorf("contentType = %q", contentType)
	}
}

func TestBuildBodyMultipart(t *testing.T) {
	body, contentType := buildBody(Message{TextBody: "code", HTMLBody: "<b>code</b>"})

	if !strings.HasPrefix(contentType, "multipart/alternative; boundary=") {
		t.Fatalf("contentType = %q", contentType)
	}

	boundary := strings.TrimPrefix(contentType, "multipart/alternative; boundary=")
	if strings.Count(body, "--"+boundary) != 3 {
		t.Errorf("expected opening, middle and closing boundaries in body:\n%s", body)
	}

	if !strings.Contains(body, "text/plain") || !strings.Contains(body, "text/html") {
		t.Error("expected both text and html parts")
	}
}

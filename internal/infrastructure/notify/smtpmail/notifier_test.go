package smtpmail

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/defexvision/inspection-service/internal/core/domain"
)

func TestServiceURLEncodesCredentialsAndRecipient(t *testing.T) {
	n := New("smtp.gmail.com", 587, "ops@defexvision.io", "p@ss:word", "ops@defexvision.io", nil)

	raw := n.serviceURL("line-lead@example.com")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse service url: %v", err)
	}

	if u.Scheme != "smtp" {
		t.Fatalf("scheme = %q", u.Scheme)
	}
	if u.Host != "smtp.gmail.com:587" {
		t.Fatalf("host = %q", u.Host)
	}
	if pass, _ := u.User.Password(); pass != "p@ss:word" {
		t.Fatalf("password not preserved, got %q", pass)
	}
	q := u.Query()
	if q.Get("to") != "line-lead@example.com" {
		t.Fatalf("to = %q", q.Get("to"))
	}
	if q.Get("usestarttls") != "Yes" {
		t.Fatalf("usestarttls = %q", q.Get("usestarttls"))
	}
	if q.Get("auth") != "Plain" {
		t.Fatalf("auth = %q", q.Get("auth"))
	}
}

func TestServiceURLPreservesSpacesInPassword(t *testing.T) {
	n := New("smtp.gmail.com", 587, "ops@defexvision.io", "correct horse battery staple", "ops@defexvision.io", nil)

	raw := n.serviceURL("line-lead@example.com")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse service url: %v", err)
	}
	if pass, _ := u.User.Password(); pass != "correct horse battery staple" {
		t.Fatalf("password not preserved, got %q", pass)
	}
	// A query-escaped space would round-trip as a literal plus sign.
	if strings.Contains(raw, "+horse") {
		t.Fatalf("password escaped with query rules: %q", raw)
	}
}

func TestNotifyRejectsEmptyRecipient(t *testing.T) {
	n := New("smtp.gmail.com", 587, "u", "p", "from@example.com", nil)

	err := n.Notify(context.Background(), "  ", "subject", "body")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrNotify) {
		t.Fatalf("expected ErrNotify kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "empty recipient") {
		t.Fatalf("unexpected error %v", err)
	}
}

package mailer

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
)

func TestSendVerificationBuildsMessage(t *testing.T) {
	m := NewSMTPMailer(Config{
		Host:     "mail.local",
		Port:     1025,
		From:     "noreply@dochub.local",
		FromName: "DocHub",
	}, nil)

	var gotAddr string
	var gotTo []string
	var gotMsg string
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotTo = to
		gotMsg = string(msg)
		if a != nil {
			t.Fatalf("auth must be nil without credentials")
		}
		return nil
	}

	url := "http://localhost:5173/confirm-password?user_id=7&token=abc"
	if err := m.SendVerification(context.Background(), "new@corp.example.com", url); err != nil {
		t.Fatalf("send verification: %v", err)
	}

	if gotAddr != "mail.local:1025" {
		t.Fatalf("unexpected addr: %s", gotAddr)
	}
	if len(gotTo) != 1 || gotTo[0] != "new@corp.example.com" {
		t.Fatalf("unexpected recipients: %v", gotTo)
	}
	if !strings.Contains(gotMsg, "From: DocHub <noreply@dochub.local>\r\n") {
		t.Fatalf("missing from header: %q", gotMsg)
	}
	if !strings.Contains(gotMsg, url) {
		t.Fatalf("verification url missing from body")
	}
}

func TestSendRejectsMissingHost(t *testing.T) {
	m := NewSMTPMailer(Config{}, nil)
	if err := m.Send(context.Background(), "a@b.io", "s", "b"); err == nil {
		t.Fatalf("expected error without smtp host")
	}
}

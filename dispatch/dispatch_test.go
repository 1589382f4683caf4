package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want error
	}{
		{"ok", Message{From: "a@x", To: []string{"b@x"}}, nil},
		{"no sender", Message{To: []string{"b@x"}}, ErrNoSender},
		{"no recipients", Message{From: "a@x"}, ErrNoRecipients},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.msg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDispatcherFunc(t *testing.T) {
	var got Message
	d := DispatcherFunc(func(_ context.Context, m Message) (string, error) {
		got = m
		return "id-1", nil
	})

	id, err := d.Send(context.Background(), Message{Subject: "hi"})
	if err != nil || id != "id-1" || got.Subject != "hi" {
		t.Errorf("Send() = %q, %v; captured %+v", id, err, got)
	}
}

func TestNewResend_RequiresKey(t *testing.T) {
	if _, err := NewResend(""); err == nil {
		t.Error("NewResend(\"\") expected error")
	}
}

func TestResend_Send(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/emails") {
			t.Errorf("path = %q, want /emails", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer re_test" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-123"}`))
	}))
	defer server.Close()

	r, err := NewResend("re_test")
	if err != nil {
		t.Fatalf("NewResend() error = %v", err)
	}
	if _, err := r.WithBaseURL(server.URL + "/"); err != nil {
		t.Fatalf("WithBaseURL() error = %v", err)
	}

	id, err := r.Send(context.Background(), Message{
		From:    "alerts@example.com",
		To:      []string{"me@example.com"},
		Subject: "Daily Real Estate Alert - 1 New Listings",
		HTML:    "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if id != "email-123" {
		t.Errorf("Send() id = %q, want email-123", id)
	}
	if body["subject"] != "Daily Real Estate Alert - 1 New Listings" {
		t.Errorf("subject sent = %v", body["subject"])
	}
}

func TestResend_SendRejectsInvalidMessage(t *testing.T) {
	r, _ := NewResend("re_test")
	if _, err := r.Send(context.Background(), Message{From: "a@x"}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("Send() error = %v, want ErrNoRecipients", err)
	}
}

func TestResend_SendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"bad from"}`))
	}))
	defer server.Close()

	r, _ := NewResend("re_test")
	_, _ = r.WithBaseURL(server.URL + "/")

	if _, err := r.Send(context.Background(), Message{From: "a@x", To: []string{"b@x"}}); err == nil {
		t.Error("Send() expected error for 422")
	}
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"
)

// Resend sends messages through the Resend e-mail API.
type Resend struct {
	client *resend.Client
}

// NewResend creates a Resend dispatcher for apiKey.
func NewResend(apiKey string) (*Resend, error) {
	if apiKey == "" {
		return nil, errors.New("dispatch: resend api key is required")
	}
	return &Resend{client: resend.NewClient(apiKey)}, nil
}

// WithBaseURL points the dispatcher at a different API endpoint.
func (r *Resend) WithBaseURL(raw string) (*Resend, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("dispatch: invalid base url: %w", err)
	}
	r.client.BaseURL = u
	return r, nil
}

// Send delivers msg and returns the Resend e-mail ID.
func (r *Resend) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	sent, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("dispatch: resend: %w", err)
	}
	return sent.Id, nil
}

// Package dispatch delivers rendered notifications to recipients.
//
// [Dispatcher] is the transport seam used by listingwatch's notifier. The
// package ships a [Resend] implementation backed by the Resend e-mail API;
// tests and embedders can supply their own.
package dispatch

import (
	"context"
	"errors"
)

var (
	// ErrNoRecipients is returned when a message has no recipients.
	ErrNoRecipients = errors.New("dispatch: no recipients")

	// ErrNoSender is returned when no sender address is configured.
	ErrNoSender = errors.New("dispatch: no sender address")
)

// Message is a single notification.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if m.From == "" {
		return ErrNoSender
	}
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	return nil
}

// Dispatcher sends messages. Send returns a transport-assigned message ID.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// DispatcherFunc adapts a function to [Dispatcher].
type DispatcherFunc func(ctx context.Context, msg Message) (string, error)

// Send calls f.
func (f DispatcherFunc) Send(ctx context.Context, msg Message) (string, error) {
	return f(ctx, msg)
}

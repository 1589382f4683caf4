// Package notify renders listing summaries and hands them to a dispatcher.
//
// In [ModePreview] nothing is sent and the rendered body is returned to the
// caller. In [ModeSend] the body is dispatched to the monitor's recipients
// and not returned. Dispatch problems are logged, never returned: a failed
// e-mail must not fail the monitor run.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jpalmerr/listingwatch/dispatch"
	"github.com/jpalmerr/listingwatch/internal/listing"
)

// Mode selects between previewing and sending.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeSend    Mode = "send"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModePreview || m == ModeSend
}

// Config holds notifier settings.
type Config struct {
	Mode   Mode
	Sender string
	// Timeout bounds a single dispatch. Zero disables it.
	Timeout time.Duration
}

// Request describes one notification.
type Request struct {
	MonitorID   string
	MonitorName string
	Recipients  []string
	Listings    []listing.Listing
}

// Outcome reports what Notify did.
type Outcome struct {
	// Body is the rendered HTML; set only in preview mode.
	Body       string
	Dispatched bool
	MessageID  string
}

// Notifier renders and dispatches notifications.
type Notifier struct {
	dispatcher dispatch.Dispatcher
	cfg        Config
	logger     *slog.Logger
}

// New creates a Notifier. dispatcher may be nil, in which case send mode
// logs an error and dispatches nothing.
func New(dispatcher dispatch.Dispatcher, cfg Config, logger *slog.Logger) *Notifier {
	if !cfg.Mode.Valid() {
		cfg.Mode = ModePreview
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{dispatcher: dispatcher, cfg: cfg, logger: logger}
}

// Mode returns the effective mode.
func (n *Notifier) Mode() Mode {
	return n.cfg.Mode
}

// Notify renders req and, in send mode, dispatches it.
// The only error returned is a rendering failure.
func (n *Notifier) Notify(ctx context.Context, req Request) (Outcome, error) {
	body, err := Render(req.Listings, req.MonitorName)
	if err != nil {
		return Outcome{}, err
	}

	if n.cfg.Mode != ModeSend {
		n.logger.Info("preview mode, returning rendered body",
			"monitor_id", req.MonitorID,
			"listings", len(req.Listings),
		)
		return Outcome{Body: body}, nil
	}

	id, err := n.send(ctx, req, body)
	if err != nil {
		n.logger.Error("notification not sent",
			"monitor_id", req.MonitorID,
			"recipients", len(req.Recipients),
			"error", err,
		)
		return Outcome{}, nil
	}

	n.logger.Info("notification sent",
		"monitor_id", req.MonitorID,
		"recipients", len(req.Recipients),
		"message_id", id,
	)
	return Outcome{Dispatched: true, MessageID: id}, nil
}

func (n *Notifier) send(ctx context.Context, req Request, body string) (string, error) {
	if n.dispatcher == nil {
		return "", errors.New("no dispatcher configured")
	}

	msg := dispatch.Message{
		From:    n.cfg.Sender,
		To:      req.Recipients,
		Subject: Subject(len(req.Listings)),
		HTML:    body,
	}
	if err := msg.Validate(); err != nil {
		return "", err
	}

	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}

	id, err := n.dispatcher.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("dispatch failed: %w", err)
	}
	return id, nil
}

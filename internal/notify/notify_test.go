package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/jpalmerr/listingwatch/dispatch"
	"github.com/jpalmerr/listingwatch/internal/listing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleListing() listing.Listing {
	l := listing.New()
	l.Link = "https://www.ss.com/msg/lv/real-estate/flats/riga/centre/abc.html"
	l.ImageURL = "https://i.ss.com/gallery/abc.th2.jpg"
	l.Address = "Brīvības 1"
	l.District = "Centrs"
	l.Rooms = 5
	l.Area = 120
	l.Floor = "3/5"
	l.M2Price = 2500
	l.TotalPrice = 300000
	l.Series = "P. kara"
	return l
}

// recorder captures dispatched messages.
type recorder struct {
	msgs []dispatch.Message
	err  error
}

func (r *recorder) Send(_ context.Context, m dispatch.Message) (string, error) {
	r.msgs = append(r.msgs, m)
	if r.err != nil {
		return "", r.err
	}
	return "msg-1", nil
}

func TestRender_Empty(t *testing.T) {
	body, err := Render(nil, "m")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if body != EmptyBody {
		t.Errorf("Render(nil) = %q, want EmptyBody", body)
	}
}

func TestRender_Listing(t *testing.T) {
	body, err := Render([]listing.Listing{sampleListing()}, "Centrs flats")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, want := range []string{
		"Found 1 new listing(s)",
		"Centrs flats",
		"Centrs - Brīvības 1",
		"300",
		"€",
		"Price per m²",
		"<strong>Rooms:</strong> 5",
		"120 m²",
		"3/5",
		"P. kara",
		`href="https://www.ss.com/msg/lv/real-estate/flats/riga/centre/abc.html"`,
		`src="https://i.ss.com/gallery/abc.th2.jpg"`,
		"View Listing on ss.com",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRender_MissingFields(t *testing.T) {
	l := listing.New()
	l.Link = "https://example.com/x.html"
	l.TotalPrice = 1000

	body, err := Render([]listing.Listing{l}, "")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(body, "Price per m²") {
		t.Error("m² price row rendered for NaN price")
	}
	if strings.Contains(body, "NaN") {
		t.Error("NaN leaked into body")
	}
	for _, want := range []string{"No Image", "Address N/A", "Series: N/A"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRender_EscapesText(t *testing.T) {
	l := sampleListing()
	l.Address = "<script>alert(1)</script>"

	body, _ := Render([]listing.Listing{l}, "")
	if strings.Contains(body, "<script>") {
		t.Error("address was not HTML-escaped")
	}
}

func TestFormatEUR(t *testing.T) {
	got := formatEUR(1234.5)
	if !strings.Contains(got, "234,50") || !strings.HasSuffix(got, "€") {
		t.Errorf("formatEUR(1234.5) = %q, want Latvian format like 1 234,50 €", got)
	}
	if formatEUR(math.NaN()) != "N/A" {
		t.Error("formatEUR(NaN) should be N/A")
	}
}

func TestSubject(t *testing.T) {
	if got := Subject(3); got != "Daily Real Estate Alert - 3 New Listings" {
		t.Errorf("Subject(3) = %q", got)
	}
}

func TestNotify_PreviewReturnsBodyAndNeverDispatches(t *testing.T) {
	rec := &recorder{}
	n := New(rec, Config{Mode: ModePreview, Sender: "a@x"}, discardLogger())

	out, err := n.Notify(context.Background(), Request{
		MonitorID:  "m1",
		Recipients: []string{"me@x"},
		Listings:   []listing.Listing{sampleListing()},
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if out.Body == "" || out.Dispatched {
		t.Errorf("Outcome = %+v, want body and no dispatch", out)
	}
	if len(rec.msgs) != 0 {
		t.Errorf("dispatched %d messages in preview mode", len(rec.msgs))
	}
}

func TestNotify_SendDispatchesWithoutBody(t *testing.T) {
	rec := &recorder{}
	n := New(rec, Config{Mode: ModeSend, Sender: "alerts@x"}, discardLogger())

	out, err := n.Notify(context.Background(), Request{
		MonitorID:  "m1",
		Recipients: []string{"me@x", "you@x"},
		Listings:   []listing.Listing{sampleListing(), sampleListing()},
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if out.Body != "" {
		t.Error("send mode should not return a body")
	}
	if !out.Dispatched || out.MessageID != "msg-1" {
		t.Errorf("Outcome = %+v, want dispatched msg-1", out)
	}
	if len(rec.msgs) != 1 {
		t.Fatalf("dispatched %d messages, want 1", len(rec.msgs))
	}
	msg := rec.msgs[0]
	if msg.From != "alerts@x" || len(msg.To) != 2 || msg.Subject != Subject(2) {
		t.Errorf("message = %+v", msg)
	}
}

func TestNotify_SendFailuresAreNotErrors(t *testing.T) {
	tests := []struct {
		name       string
		dispatcher dispatch.Dispatcher
		sender     string
		recipients []string
	}{
		{"no dispatcher", nil, "a@x", []string{"b@x"}},
		{"no sender", &recorder{}, "", []string{"b@x"}},
		{"no recipients", &recorder{}, "a@x", nil},
		{"transport error", &recorder{err: errors.New("503")}, "a@x", []string{"b@x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.dispatcher, Config{Mode: ModeSend, Sender: tt.sender}, discardLogger())
			out, err := n.Notify(context.Background(), Request{
				MonitorID:  "m1",
				Recipients: tt.recipients,
				Listings:   []listing.Listing{sampleListing()},
			})
			if err != nil {
				t.Errorf("Notify() error = %v, want nil", err)
			}
			if out.Dispatched || out.Body != "" {
				t.Errorf("Outcome = %+v, want empty", out)
			}
		})
	}
}

func TestNew_UnknownModeFallsBackToPreview(t *testing.T) {
	n := New(nil, Config{Mode: "shout"}, nil)
	if n.Mode() != ModePreview {
		t.Errorf("Mode() = %q, want preview", n.Mode())
	}
}

package listingwatch

import (
	"strings"
	"testing"
)

func TestNewMonitor_Defaults(t *testing.T) {
	m, err := NewMonitor("riga-centre", "", Flat, "https://www.ss.com/lv/real-estate/flats/riga/centre/sell/")
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}

	if m.ID() != "riga-centre" {
		t.Errorf("ID() = %q", m.ID())
	}
	if m.Name() != "riga-centre" {
		t.Errorf("Name() = %q, want id fallback", m.Name())
	}
	if m.Type() != Flat {
		t.Errorf("Type() = %q, want flat", m.Type())
	}
	if m.MaxPages() != 1 {
		t.Errorf("MaxPages() = %d, want 1", m.MaxPages())
	}
	if m.Layout() != FlatLayout() {
		t.Errorf("Layout() = %+v, want FlatLayout", m.Layout())
	}
	if !m.Criteria().IsEmpty() {
		t.Error("Criteria() should be empty by default")
	}
	if m.Recipients() != nil {
		t.Errorf("Recipients() = %v, want nil", m.Recipients())
	}
}

func TestNewMonitor_HouseLayout(t *testing.T) {
	m, err := NewMonitor("h", "Houses", House, "https://www.ss.com/lv/real-estate/homes-summer-residences/riga/sell/")
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}
	l := m.Layout()
	if l.M2Price != NoColumn || l.Series != NoColumn {
		t.Errorf("house layout should have no m2 price or series column: %+v", l)
	}
	if l.LandArea != 7 || l.TotalPrice != 8 {
		t.Errorf("house layout land/total = %d/%d, want 7/8", l.LandArea, l.TotalPrice)
	}
}

func TestNewMonitor_Validation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		typ     ListingType
		url     string
		opts    []MonitorOption
		wantErr string
	}{
		{"empty id", "  ", Flat, "https://x.com/", nil, "id cannot be empty"},
		{"id with slash", "a/b", Flat, "https://x.com/", nil, "path separators"},
		{"unknown type", "m", "castle", "https://x.com/", nil, "unknown listing type"},
		{"no scheme", "m", Flat, "www.ss.com/list", nil, "http"},
		{"ftp scheme", "m", Flat, "ftp://x.com/", nil, "http"},
		{"no host", "m", Flat, "https:///path", nil, "host"},
		{"bad max pages", "m", Flat, "https://x.com/", []MonitorOption{WithMaxPages(0)}, "max pages"},
		{"inverted range", "m", Flat, "https://x.com/", []MonitorOption{WithCriteria(Criteria{Rooms: Between(5, 2)})}, "rooms"},
		{"layout without link", "m", Flat, "https://x.com/", []MonitorOption{WithLayout(Layout{Link: NoColumn, TotalPrice: 3})}, "link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMonitor(tt.id, "", tt.typ, tt.url, tt.opts...)
			if err == nil {
				t.Fatal("NewMonitor() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewMonitor_Options(t *testing.T) {
	custom := FlatLayout()
	custom.RowSelector = "tr.listing"

	m, err := NewMonitor("m", "Mine", Flat, "https://x.com/",
		WithMaxPages(4),
		WithRecipients("a@x.com", " ", "b@x.com "),
		WithDistrict(" Centrs "),
		WithLayout(custom),
		WithCriteria(Criteria{TotalPrice: AtMost(100000), Districts: []string{"Centrs"}}),
	)
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}

	if m.MaxPages() != 4 {
		t.Errorf("MaxPages() = %d, want 4", m.MaxPages())
	}
	if got := m.Recipients(); len(got) != 2 || got[1] != "b@x.com" {
		t.Errorf("Recipients() = %v", got)
	}
	if m.District() != "Centrs" {
		t.Errorf("District() = %q", m.District())
	}
	if m.Layout().RowSelector != "tr.listing" {
		t.Errorf("Layout().RowSelector = %q", m.Layout().RowSelector)
	}
	if *m.Criteria().TotalPrice.Max != 100000 {
		t.Errorf("Criteria().TotalPrice.Max = %v", *m.Criteria().TotalPrice.Max)
	}
}

func TestMonitor_GettersReturnCopies(t *testing.T) {
	c := Criteria{Rooms: AtLeast(3), Districts: []string{"Centrs"}}
	m, err := NewMonitor("m", "", Flat, "https://x.com/", WithCriteria(c), WithRecipients("a@x.com"))
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}

	// mutating the input after construction must not leak in
	*c.Rooms.Min = 10
	c.Districts[0] = "Teika"
	if *m.Criteria().Rooms.Min != 3 || m.Criteria().Districts[0] != "Centrs" {
		t.Error("monitor shares criteria with caller")
	}

	got := m.Criteria()
	*got.Rooms.Min = 99
	if *m.Criteria().Rooms.Min != 3 {
		t.Error("Criteria() returned shared pointers")
	}

	r := m.Recipients()
	r[0] = "evil@x.com"
	if m.Recipients()[0] != "a@x.com" {
		t.Error("Recipients() returned internal slice")
	}
}

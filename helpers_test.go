package listingwatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jpalmerr/listingwatch/kvstore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// flatRow is one listing row of a flat-layout page.
type flatRow struct {
	href, rooms, area, floor, series, m2, total string
}

func row(id int, rooms, total string) flatRow {
	return flatRow{
		href:   fmt.Sprintf("/msg/lv/real-estate/flats/riga/centre/%d.html", id),
		rooms:  rooms,
		area:   "80",
		floor:  "3/5",
		series: "Renov.",
		m2:     "2 000 €",
		total:  total,
	}
}

func flatPage(rows ...flatRow) string {
	var b strings.Builder
	b.WriteString(`<html><head><meta charset="utf-8"></head><body><table>`)
	b.WriteString(`<tr id="head_line"><td>header</td></tr>`)
	for i, r := range rows {
		fmt.Fprintf(&b, `<tr id="tr_%d"><td><input type="checkbox"></td>`+
			`<td><a href="%s"><img src="https://i.ss.com/%d.jpg"></a></td>`+
			`<td><a href="%s">Nice flat</a></td><td>Brīvības %d</td>`+
			`<td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			i, r.href, i, r.href, i, r.rooms, r.area, r.floor, r.series, r.m2, r.total)
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

// source serves pages by path; missing paths return 500.
func source(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// countingStore wraps a memory store and counts calls.
type countingStore struct {
	*kvstore.Memory
	gets atomic.Int32
	puts atomic.Int32
}

func newCountingStore() *countingStore {
	return &countingStore{Memory: kvstore.NewMemory()}
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.gets.Add(1)
	return s.Memory.Get(ctx, key)
}

func (s *countingStore) Put(ctx context.Context, key string, value []byte) error {
	s.puts.Add(1)
	return s.Memory.Put(ctx, key, value)
}

// panickingStore panics when reading panicKey.
type panickingStore struct {
	kvstore.Store
	panicKey string
}

func (s panickingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == s.panicKey {
		panic("store exploded")
	}
	return s.Store.Get(ctx, key)
}

// failingPutStore fails every Put.
type failingPutStore struct {
	kvstore.Store
}

func (failingPutStore) Put(context.Context, string, []byte) error {
	return fmt.Errorf("disk full")
}

// mustMonitor creates a flat monitor or fails the test.
func mustMonitor(t *testing.T, id, url string, opts ...MonitorOption) Monitor {
	t.Helper()
	m, err := NewMonitor(id, "", Flat, url, opts...)
	if err != nil {
		t.Fatalf("NewMonitor(%q) error = %v", id, err)
	}
	return m
}

// resultCollector gathers callback results safely.
type resultCollector struct {
	mu      sync.Mutex
	results []MonitorRunResult
}

func (c *resultCollector) add(r MonitorRunResult) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

func (c *resultCollector) all() []MonitorRunResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MonitorRunResult(nil), c.results...)
}

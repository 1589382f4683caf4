package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/listingwatch"
	"github.com/jpalmerr/listingwatch/internal/store"
)

const (
	// sseWriteTimeout bounds a single SSE write so a stalled client cannot
	// pin its handler goroutine. Must be <= shutdownTimeout.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	defaultTitle = "listingwatch"

	// titlePlaceholder is replaced with the escaped title in index.html.
	titlePlaceholder = "{{.Title}}"

	// redactedDetails replaces errorDetails in single-monitor trigger responses.
	redactedDetails = "Error details logged on server."
)

// Runner executes monitors. *listingwatch.Watcher implements it.
type Runner interface {
	RunAll(ctx context.Context) listingwatch.BatchResult
	RunMonitor(ctx context.Context, id string) (listingwatch.MonitorRunResult, error)
	Monitors() []listingwatch.Monitor
}

// Config holds server settings.
type Config struct {
	Port int

	// Title is shown on the results page. Defaults to "listingwatch".
	Title string

	// CronSecret, when non-empty, must be sent as "Authorization: Bearer
	// <secret>" to GET /api/run-monitor.
	CronSecret string
}

// Server serves the trigger API and results page.
type Server struct {
	runner     Runner
	store      store.Store
	cfg        Config
	assets     fs.FS
	logger     *slog.Logger
	httpServer *http.Server

	// runSlot holds a token while a run is executing.
	runSlot chan struct{}
}

// NewServer creates a [Server]. Results reach st through the watcher's
// result callback; the server itself only records batch summaries. assets
// may be nil, in which case "/" is not served.
func NewServer(runner Runner, st store.Store, cfg Config, assets fs.FS, logger *slog.Logger) *Server {
	return &Server{
		runner:  runner,
		store:   st,
		cfg:     cfg,
		assets:  assets,
		logger:  logger,
		runSlot: make(chan struct{}, 1),
	}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/run-monitor", s.handleRunAll)
	mux.HandleFunc("POST /api/trigger/{id}", s.handleTrigger)
	mux.HandleFunc("GET /api/monitors", s.handleMonitors)
	mux.HandleFunc("GET /api/results", s.handleResults)
	mux.HandleFunc("GET /api/sse", s.handleSSE)

	if s.assets != nil {
		mux.HandleFunc("GET /{$}", s.handleDashboard)
	}

	return mux
}

// Start begins serving in a background goroutine and returns once the port
// is bound. Cancelling ctx shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.cfg.Port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx, so shutdown also cancels
		// in-flight runs and SSE streams
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return nil
}

// RunAll runs every monitor once no other run is executing and records the
// batch summary. The scheduler calls it too, so cron and HTTP triggers never
// overlap.
func (s *Server) RunAll(ctx context.Context) (listingwatch.BatchResult, error) {
	if err := s.acquire(ctx); err != nil {
		return listingwatch.BatchResult{}, err
	}
	defer s.release()

	batch := s.runner.RunAll(ctx)
	s.store.RecordBatch(batch)
	return batch, nil
}

func (s *Server) acquire(ctx context.Context) error {
	select {
	case s.runSlot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) release() {
	<-s.runSlot
}

func (s *Server) handleRunAll(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.logger.Warn("unauthorized run request", "remote_addr", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"}, s.logger)
		return
	}
	if s.cfg.CronSecret == "" {
		s.logger.Warn("run endpoint is unsecured, no cron secret configured")
	}

	batch, err := s.RunAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run aborted: " + err.Error()}, s.logger)
		return
	}

	writeJSON(w, http.StatusOK, batch, s.logger)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.CronSecret == "" {
		return true
	}
	want := "Bearer " + s.cfg.CronSecret
	got := r.Header.Get("Authorization")
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.acquire(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run aborted: " + err.Error()}, s.logger)
		return
	}
	result, err := s.runner.RunMonitor(r.Context(), id)
	s.release()

	if errors.Is(err, listingwatch.ErrMonitorNotFound) {
		s.logger.Warn("trigger for unknown monitor", "monitor_id", id)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Monitor not found"}, s.logger)
		return
	}
	if err != nil {
		s.logger.Error("trigger failed", "monitor_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()}, s.logger)
		return
	}

	if result.ErrorDetails != "" {
		result.ErrorDetails = redactedDetails
	}
	writeJSON(w, http.StatusOK, result, s.logger)
}

// monitorView is the JSON shape of GET /api/monitors.
type monitorView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	URL        string `json:"url"`
	District   string `json:"district,omitempty"`
	MaxPages   int    `json:"maxPages"`
	Recipients int    `json:"recipientCount"`
}

func (s *Server) handleMonitors(w http.ResponseWriter, _ *http.Request) {
	monitors := s.runner.Monitors()
	views := make([]monitorView, len(monitors))
	for i, m := range monitors {
		views[i] = monitorView{
			ID:         m.ID(),
			Name:       m.Name(),
			Type:       m.Type().String(),
			URL:        m.URL(),
			District:   m.District(),
			MaxPages:   m.MaxPages(),
			Recipients: len(m.Recipients()),
		}
	}
	writeJSON(w, http.StatusOK, views, s.logger)
}

// resultsResponse is the JSON shape of GET /api/results.
type resultsResponse struct {
	LastBatch *store.Batch                    `json:"lastBatch"`
	Results   []listingwatch.MonitorRunResult `json:"results"`
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	resp := resultsResponse{Results: s.store.GetAll()}
	if b, ok := s.store.LastBatch(); ok {
		resp.LastBatch = &b
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, resp, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.cfg.Title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleSSE streams results via Server-Sent Events, starting with the
// current snapshot.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	for _, result := range s.store.GetAll() {
		data, err := json.Marshal(result)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case result, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(result)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpalmerr/listingwatch"
)

// executeCmd runs the CLI with args and returns captured stdout.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--log-level", "error", "--env-file", ""))
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const listingPage = `<html><body><table>
<tr id="head_line"><td>header</td></tr>
<tr id="tr_1"><td></td><td><a href="/msg/1.html"><img src="https://i.ss.com/1.jpg"></a></td>
<td><a href="/msg/1.html">Bright flat</a></td><td>Brīvības 1</td>
<td>3</td><td>80</td><td>2/5</td><td>Renov.</td><td>2 000 €</td><td>160 000 €</td></tr>
<tr id="tr_2"><td></td><td><a href="/msg/2.html"><img src="https://i.ss.com/2.jpg"></a></td>
<td><a href="/msg/2.html">Quiet flat</a></td><td>Tērbatas 2</td>
<td>4</td><td>95</td><td>4/6</td><td>Staļina</td><td>1 900 €</td><td>180 500 €</td></tr>
</table></body></html>`

func listingSource(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/flats/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(listingPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sourceConfig(t *testing.T, baseURL, dataDir string) string {
	t.Helper()
	return writeConfig(t, fmt.Sprintf(`
globals:
  request_delay: 0s
  base_url: %[1]s
  storage:
    backend: file
    dir: %[2]s
monitors:
  - id: centre
    type: flat
    url: %[1]s/flats/
    district: Centrs
    recipients: [me@example.com]
    filters:
      min_rooms: 3
`, baseURL, dataDir))
}

// =============================================================================
// run / preview
// =============================================================================

func TestRun_PersistsSeenListings(t *testing.T) {
	src := listingSource(t)
	dataDir := t.TempDir()
	configPath := sourceConfig(t, src.URL, dataDir)

	out, err := executeCmd(t, "run", "-c", configPath)
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}

	var batch listingwatch.BatchResult
	if err := json.Unmarshal([]byte(out), &batch); err != nil {
		t.Fatalf("output is not a batch result: %v\n%s", err, out)
	}
	if batch.OverallStatus != listingwatch.StatusSuccess || len(batch.Results) != 1 {
		t.Fatalf("batch = %+v", batch)
	}
	r := batch.Results[0]
	if r.NewListingCount != 2 {
		t.Errorf("NewListingCount = %d, want 2", r.NewListingCount)
	}
	if !strings.Contains(r.EmailPreviewHTML, "Bright flat") {
		t.Errorf("preview missing listing: %s", r.EmailPreviewHTML)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "centre-seen.json")); err != nil {
		t.Errorf("seen set not persisted: %v", err)
	}

	// second run sees nothing new
	out, err = executeCmd(t, "run", "-c", configPath, "--monitor", "centre")
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if err := json.Unmarshal([]byte(out), &batch); err != nil {
		t.Fatal(err)
	}
	if batch.Results[0].NewListingCount != 0 {
		t.Errorf("second run NewListingCount = %d, want 0", batch.Results[0].NewListingCount)
	}
}

func TestRun_UnreachableSourceSucceedsWithNoPages(t *testing.T) {
	configPath := writeConfig(t, `
globals:
  request_delay: 0s
  storage: {backend: memory}
monitors:
  - id: broken
    type: flat
    url: http://127.0.0.1:1/flats/
`)
	out, err := executeCmd(t, "run", "-c", configPath)
	// a source that cannot be reached yields zero pages, which is still a
	// successful run
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "no pages fetched") {
		t.Errorf("output = %s", out)
	}
}

func TestRun_UnknownMonitor(t *testing.T) {
	src := listingSource(t)
	configPath := sourceConfig(t, src.URL, t.TempDir())

	_, err := executeCmd(t, "run", "-c", configPath, "--monitor", "nope")
	if err == nil || !strings.Contains(err.Error(), "monitor not found") {
		t.Errorf("error = %v, want monitor not found", err)
	}
}

func TestPreview_DoesNotPersist(t *testing.T) {
	src := listingSource(t)
	dataDir := t.TempDir()
	configPath := sourceConfig(t, src.URL, dataDir)
	outDir := filepath.Join(t.TempDir(), "previews")

	out, err := executeCmd(t, "preview", "-c", configPath, "--out", outDir)
	if err != nil {
		t.Fatalf("preview error = %v\n%s", err, out)
	}

	html, err := os.ReadFile(filepath.Join(outDir, "centre.html"))
	if err != nil {
		t.Fatalf("preview file not written: %v", err)
	}
	if !strings.Contains(string(html), "Quiet flat") {
		t.Errorf("preview missing listing")
	}
	if !strings.Contains(out, "2 new") {
		t.Errorf("summary = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "centre-seen.json")); !os.IsNotExist(err) {
		t.Errorf("preview must not write the seen set, stat error = %v", err)
	}
}

// =============================================================================
// validate / version / env
// =============================================================================

func TestValidate_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
globals:
  request_delay: 2s
  storage: {backend: memory}
monitors:
  - id: centre
    type: flat
    url: https://www.ss.com/lv/real-estate/flats/riga/centre/sell/
grids:
  - id: houses
    type: house
    url_template: "https://www.ss.com/lv/real-estate/homes-summer-residences/riga/{{.district}}/sell/"
    dimensions:
      district: [agenskalns, mezaparks]
    recipients: [me@example.com]
`)

	out, err := executeCmd(t, "validate", "-c", configPath)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}

	for _, phrase := range []string{
		"Config is valid!",
		"Notify mode:   preview",
		"Storage:       memory",
		"Request delay: 2s",
		"1 direct + 2 from grids = 3 total",
		"- houses-agenskalns",
		"Warning: monitors[0] (centre): no recipients configured",
	} {
		if !strings.Contains(out, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, out)
		}
	}
}

func TestValidate_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, `
monitors:
  - id: centre
    type: land
    url: https://www.ss.com/
`)

	_, err := executeCmd(t, "validate", "-c", configPath)
	if err == nil {
		t.Fatal("validate expected error for invalid config")
	}
	if !strings.Contains(err.Error(), "type must be flat or house") {
		t.Errorf("error = %v", err)
	}
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := executeCmd(t, "validate", "-c", "/nonexistent/path/config.yaml")
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error = %v, want failed to read", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCmd(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "listingwatch dev") {
		t.Errorf("output = %q", out)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, "monitors:\n  - id: a\n    type: flat\n    url: https://www.ss.com/\n")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "-c", configPath, "--log-level", "loud", "--env-file", ""})

	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("error = %v, want invalid log level", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("LISTINGWATCH_TEST_SENDER=env@example.com\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LISTINGWATCH_TEST_SENDER", "")
	_ = os.Unsetenv("LISTINGWATCH_TEST_SENDER")

	if err := loadEnvFile(path, true); err != nil {
		t.Fatalf("loadEnvFile() error = %v", err)
	}
	if got := os.Getenv("LISTINGWATCH_TEST_SENDER"); got != "env@example.com" {
		t.Errorf("env = %q, want env@example.com", got)
	}

	missing := filepath.Join(t.TempDir(), "missing.env")
	if err := loadEnvFile(missing, false); err != nil {
		t.Errorf("implicit missing file should be ignored, got %v", err)
	}
	if err := loadEnvFile(missing, true); err == nil {
		t.Error("explicit missing file should be an error")
	}
}

package execute

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jacoelho/chibi/internal/config"
	"github.com/jacoelho/chibi/internal/exit"
	"github.com/jacoelho/chibi/internal/output"
	"github.com/jacoelho/chibi/internal/transport"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestRunner(t *testing.T, cfg *config.Config, opts ...transport.Option) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	if cfg.Format == "" {
		cfg.Format = output.FormatText
	}
	r := newRunner(cfg, zap.NewNop(), opts...)

	var stdout, stderr bytes.Buffer
	r.SetOutput(&stdout)
	r.SetErrorOutput(&stderr)
	return r, &stdout, &stderr
}

func TestRunWritesReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := &config.Config{
		DocumentFile: writeFile(t, dir, "page.html", `<p id="a" class="x"></p>`),
		ScriptFile: writeFile(t, dir, "steps.yaml", `
- query: "#a"
  op: class
  value: y
- op: class
`),
	}

	r, stdout, stderr := newTestRunner(t, cfg)
	if code := r.Run(context.Background()); code != exit.CodeSuccess {
		t.Fatalf("Run() = %d, want %d (stderr: %s)", code, exit.CodeSuccess, stderr)
	}

	report := stdout.String()
	for _, want := range []string{"step 1 class #a: ok", `step 2 class: "y"`, "Failed steps:      0"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestRunWritesDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	page := writeFile(t, dir, "page.html", `<p id="a">old</p>`)
	steps := writeFile(t, dir, "steps.yaml", `
- query: "#a"
  op: html
  value: new
`)

	t.Run("stdout", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{DocumentFile: page, ScriptFile: steps, OutputFile: config.StdoutPath}
		r, stdout, stderr := newTestRunner(t, cfg)
		if code := r.Run(context.Background()); code != exit.CodeSuccess {
			t.Fatalf("Run() = %d, want %d", code, exit.CodeSuccess)
		}
		if !strings.Contains(stdout.String(), `<p id="a">new</p>`) {
			t.Errorf("stdout = %q, want rendered document", stdout)
		}
		if !strings.Contains(stderr.String(), "step 1 html #a: ok") {
			t.Errorf("stderr = %q, want report", stderr)
		}
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), "out.html")
		cfg := &config.Config{DocumentFile: page, ScriptFile: steps, OutputFile: out}
		r, _, _ := newTestRunner(t, cfg)
		if code := r.Run(context.Background()); code != exit.CodeSuccess {
			t.Fatalf("Run() = %d, want %d", code, exit.CodeSuccess)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `<p id="a">new</p>`) {
			t.Errorf("document = %q, want mutated paragraph", data)
		}
	})
}

func TestRunFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	page := writeFile(t, dir, "page.html", `<p id="a"></p>`)

	tests := []struct {
		name       string
		script     string
		wantStderr string
	}{
		{
			name: "expectation",
			script: `
- query: "#a"
  op: attr
  name: id
  expect:
    op: equals
    value: b
`,
		},
		{name: "invalid script", script: "- op: hide\n", wantStderr: "script error"},
		{name: "malformed yaml", script: "- query: [\n", wantStderr: "failed to decode YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{
				DocumentFile: page,
				ScriptFile:   writeFile(t, t.TempDir(), "steps.yaml", tt.script),
			}
			r, _, stderr := newTestRunner(t, cfg)
			if code := r.Run(context.Background()); code != exit.CodeFailure {
				t.Fatalf("Run() = %d, want %d", code, exit.CodeFailure)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want %q", stderr, tt.wantStderr)
			}
		})
	}
}

func TestRunAjaxWithBaseURL(t *testing.T) {
	t.Parallel()

	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Path + "?" + r.URL.RawQuery
		_, _ = io.WriteString(w, `{"id":7}`)
	}))
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL + "/api/")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	cfg := &config.Config{
		DocumentFile: writeFile(t, dir, "page.html", `<form id="f"><input name="q" value="go"></form>`),
		ScriptFile: writeFile(t, dir, "steps.yaml", `
- query: "#f"
  op: ajax
  request:
    url: items
    extract:
      - name: id
        path: $.id
`),
		Format: output.FormatJSON,
	}

	r, stdout, stderr := newTestRunner(t, cfg,
		transport.WithHTTPClient(transport.NewHTTPClient(nil, 5*time.Second)),
		transport.WithBaseURL(base))
	if code := r.Run(context.Background()); code != exit.CodeSuccess {
		t.Fatalf("Run() = %d, want %d (stderr: %s, stdout: %s)", code, exit.CodeSuccess, stderr, stdout)
	}
	if got := <-queries; got != "/api/items?q=go" {
		t.Errorf("request = %q, want /api/items?q=go", got)
	}

	var report map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, stdout)
	}
}

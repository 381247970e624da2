package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/estat-master/estat-master/internal/mockestat"
	"github.com/estat-master/estat-master/internal/version"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func sampleServer(t *testing.T) string {
	t.Helper()
	srv := mockestat.New()
	srv.LoadSample()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := run(t, "version")
	if code != exitOK || strings.TrimSpace(out) != version.Current {
		t.Fatalf("code=%d out=%q", code, out)
	}
}

func TestRevisionsCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	code, out, errOut := run(t, "revisions")
	if code != exitOK {
		t.Fatalf("code=%d stderr=%q", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 revisions, got %q", out)
	}
	last := strings.Fields(lines[4])
	if len(last) != 3 || last[0] != "04" || last[1] != "2023-07-01" || last[2] != "latest" {
		t.Fatalf("unexpected latest row: %q", lines[4])
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	out := filepath.Join(dir, "jsic.csv")

	code, stdout, stderr := run(t, "run",
		"--data-type", "jsic",
		"--output-path", out,
		"--output-format", "csv",
		"--base-url", sampleServer(t),
		"--request-delay", "0s",
		"--log-format", "json",
	)
	if code != exitOK {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
	if !strings.Contains(stdout, "wrote 4 rows") {
		t.Fatalf("unexpected stdout: %q", stdout)
	}
	if !strings.Contains(stderr, `"msg":"run complete"`) {
		t.Fatalf("expected json logs on stderr, got %q", stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 5 {
		t.Fatalf("expected header + 4 rows, got %d lines", len(lines))
	}
}

func TestExitCodes(t *testing.T) {
	base := sampleServer(t)
	cases := []struct {
		name string
		env  map[string]string
		args []string
		want int
	}{
		{"missing flags", nil, []string{"run", "--data-type", "jsic"}, exitUsage},
		{"unknown flag", nil, []string{"run", "--nope"}, exitUsage},
		{"unknown data type", nil, []string{"run", "--data-type", "jsoc", "--output-path", "x.json", "--base-url", base}, exitUsage},
		{"unknown format", nil, []string{"run", "--data-type", "jsic", "--output-path", "x.txt", "--output-format", "txt", "--base-url", base}, exitUsage},
		{"bad config", map[string]string{"ESTAT_WORKERS": "0"}, []string{"run", "--data-type", "jsic", "--output-path", "x.json", "--base-url", base}, exitUsage},
		{"unknown revision", nil, []string{"run", "--data-type", "jsic", "--output-path", "x.json", "--revision", "01", "--base-url", base, "--request-delay", "0s"}, exitRun},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			code, _, stderr := run(t, tc.args...)
			if code != tc.want {
				t.Fatalf("exit code %d, want %d (stderr=%s)", code, tc.want, stderr)
			}
			if !strings.Contains(stderr, "error:") {
				t.Fatalf("expected error message on stderr, got %q", stderr)
			}
		})
	}
}

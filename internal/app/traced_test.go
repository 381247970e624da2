package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/estat-master/estat-master/internal/jsic"
	"github.com/estat-master/estat-master/pkg/pipeline/core"
)

type flakyFetcher struct {
	failures int
}

func (f *flakyFetcher) FetchExample(_ context.Context, code, _ string) (jsic.ExampleRecord, error) {
	if f.failures > 0 {
		f.failures--
		return jsic.ExampleRecord{}, &core.TransientError{Err: errors.New("GET /x?appId=secret123: 503")}
	}
	example := "example " + code
	return jsic.ExampleRecord{Code: code, Example: &example}, nil
}

func TestTracedFetcher_LogsAttemptsAndRedacts(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	traced := newTracedFetcher(&flakyFetcher{failures: 1}, logger)

	if _, err := traced.FetchExample(context.Background(), "0101", "04"); err == nil {
		t.Fatalf("expected first attempt to fail")
	}
	if _, err := traced.FetchExample(context.Background(), "0101", "04"); err != nil {
		t.Fatalf("second attempt: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "secret123") {
		t.Fatalf("expected app ID to be redacted, got:\n%s", out)
	}
	for _, want := range []string{
		`"msg":"example request failed"`,
		`"retryable":true`,
		`appId=`,
		`redacted`,
		`"msg":"example response"`,
		`"attempt":2`,
		`"has_example":true`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %s, got:\n%s", want, out)
		}
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "transient", err: &core.TransientError{Err: errors.New("503")}, want: true},
		{name: "limited", err: &core.LimitedTransientError{Err: errors.New("429"), ExtraRetries: 1}, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "permanent", err: errors.New("404"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := retryable(tc.err); got != tc.want {
				t.Fatalf("retryable(%v)=%v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

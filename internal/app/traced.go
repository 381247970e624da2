package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/estat-master/estat-master/internal/estat"
	"github.com/estat-master/estat-master/internal/jsic"
	"github.com/estat-master/estat-master/pkg/pipeline/core"
	"github.com/estat-master/estat-master/pkg/pipeline/redact"
)

// tracedFetcher logs every example fetch attempt at debug level and every
// failed attempt at warn level.
type tracedFetcher struct {
	next   estat.ExampleFetcher
	logger *slog.Logger

	mu       sync.Mutex
	attempts map[string]int
}

func newTracedFetcher(next estat.ExampleFetcher, logger *slog.Logger) *tracedFetcher {
	return &tracedFetcher{
		next:     next,
		logger:   logger,
		attempts: make(map[string]int),
	}
}

func (t *tracedFetcher) FetchExample(ctx context.Context, code, revision string) (jsic.ExampleRecord, error) {
	attempt := t.nextAttempt(code)
	deadlineIn := "none"
	if d, ok := ctx.Deadline(); ok {
		deadlineIn = time.Until(d).Round(time.Millisecond).String()
	}
	t.logger.Debug("example request", "code", code, "revision", revision, "attempt", attempt, "deadline_in", deadlineIn)

	start := time.Now()
	rec, err := t.next.FetchExample(ctx, code, revision)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		t.logger.Warn("example request failed",
			"code", code,
			"attempt", attempt,
			"retryable", retryable(err),
			"elapsed", elapsed,
			"error", redact.Secrets(err.Error()),
		)
		return rec, err
	}
	t.logger.Debug("example response",
		"code", code,
		"attempt", attempt,
		"elapsed", elapsed,
		"has_example", rec.Example != nil,
		"has_unsuitable_example", rec.UnsuitableExample != nil,
	)
	return rec, nil
}

func (t *tracedFetcher) nextAttempt(code string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts[code]++
	return t.attempts[code]
}

func retryable(err error) bool {
	var te *core.TransientError
	if errors.As(err, &te) {
		return true
	}
	var lte *core.LimitedTransientError
	if errors.As(err, &lte) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/estat-master/estat-master/pkg/pipeline/core"
)

type recordingETL struct {
	extractErr   error
	transformErr error
	calls        []string
	loaded       []int
}

func (r *recordingETL) Extract(context.Context) ([]int, error) {
	r.calls = append(r.calls, "extract")
	return []int{1, 2, 3}, r.extractErr
}

func (r *recordingETL) Transform(_ context.Context, in []int) ([]int, error) {
	r.calls = append(r.calls, "transform")
	if r.transformErr != nil {
		return nil, r.transformErr
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = v * 10
	}
	return out, nil
}

func (r *recordingETL) Load(_ context.Context, out []int) error {
	r.calls = append(r.calls, "load")
	r.loaded = out
	return nil
}

func TestRun(t *testing.T) {
	job := &recordingETL{}
	if err := core.Run[[]int, []int](context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(job.calls) != "[extract transform load]" {
		t.Fatalf("unexpected calls: %v", job.calls)
	}
	if fmt.Sprint(job.loaded) != "[10 20 30]" {
		t.Fatalf("unexpected loaded rows: %v", job.loaded)
	}
}

func TestRun_StopsOnTransformError(t *testing.T) {
	boom := fmt.Errorf("flatten: %w", core.ErrInvalidCodeShape)
	job := &recordingETL{transformErr: boom}
	err := core.Run[[]int, []int](context.Background(), job)
	if !errors.Is(err, core.ErrInvalidCodeShape) {
		t.Fatalf("expected ErrInvalidCodeShape, got %v", err)
	}
	if fmt.Sprint(job.calls) != "[extract transform]" {
		t.Fatalf("load must not run after a failed transform: %v", job.calls)
	}
}

func TestRun_StopsOnExtractError(t *testing.T) {
	job := &recordingETL{extractErr: core.ErrSourceUnavailable}
	if err := core.Run[[]int, []int](context.Background(), job); !errors.Is(err, core.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if len(job.calls) != 1 {
		t.Fatalf("unexpected calls: %v", job.calls)
	}
}

func TestLimitedTransientError(t *testing.T) {
	inner := errors.New("throttled")
	err := error(&core.LimitedTransientError{Err: inner, ExtraRetries: 2})
	if !errors.Is(err, inner) {
		t.Fatalf("expected to unwrap to inner error")
	}
	var capped interface{ MaxExtraRetries() int }
	if !errors.As(err, &capped) || capped.MaxExtraRetries() != 2 {
		t.Fatalf("expected retry cap 2")
	}
}

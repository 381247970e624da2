package core

import (
	"context"
	"errors"
)

// Extractor loads the raw inputs of one ETL run.
type Extractor[In any] interface {
	Extract(ctx context.Context) (In, error)
}

// Transformer turns extracted inputs into the output table.
type Transformer[In any, Out any] interface {
	Transform(ctx context.Context, in In) (Out, error)
}

// Loader persists the output table produced by Transform.
type Loader[Out any] interface {
	Load(ctx context.Context, out Out) error
}

// ETL is a complete extract/transform/load job.
type ETL[In any, Out any] interface {
	Extractor[In]
	Transformer[In, Out]
	Loader[Out]
}

// Run executes the three ETL stages in order. Any stage error stops the run
// before the next stage starts, so Load never sees a partial table.
func Run[In any, Out any](ctx context.Context, job ETL[In, Out]) error {
	in, err := job.Extract(ctx)
	if err != nil {
		return err
	}
	out, err := job.Transform(ctx, in)
	if err != nil {
		return err
	}
	return job.Load(ctx, out)
}

// Error classes shared by every stage. Concrete errors wrap one of these so
// callers can branch with errors.Is.
var (
	ErrInvalidCodeShape  = errors.New("invalid code shape")
	ErrSchemaValidation  = errors.New("schema validation failed")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// TransientError marks an error as retryable by worker implementations.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LimitedTransientError is retryable, but only ExtraRetries more times
// regardless of the worker's configured retry budget.
type LimitedTransientError struct {
	Err          error
	ExtraRetries int
}

func (e *LimitedTransientError) Error() string {
	if e == nil || e.Err == nil {
		return "transient error"
	}
	return e.Err.Error()
}

func (e *LimitedTransientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MaxExtraRetries caps retries for this error.
func (e *LimitedTransientError) MaxExtraRetries() int {
	if e == nil {
		return 0
	}
	return e.ExtraRetries
}

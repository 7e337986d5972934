package forms

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/formcraft/internal/compiler"
	"github.com/abhisek/formcraft/internal/formerr"
)

// RetryConfig controls retry behavior for transient service failures.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// BaseDelay is the wait before the first retry. It doubles per retry.
	BaseDelay time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry, when set, is called before each wait.
	OnRetry func(op string, retry int, wait time.Duration, err error)
}

// DefaultRetryConfig returns 3 retries starting at 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 500 * time.Millisecond}
}

// RetryService is a decorator that retries document creation and batch
// mutation on transient upstream statuses. Reads are not retried.
type RetryService struct {
	inner  Service
	config RetryConfig
}

// WithRetry wraps a Service with retry logic.
func WithRetry(s Service, cfg RetryConfig) Service {
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	return &RetryService{inner: s, config: cfg}
}

func (r *RetryService) CreateDocument(ctx context.Context, title string) (*Document, error) {
	var doc *Document
	err := r.do(ctx, "create_document", func() error {
		var err error
		doc, err = r.inner.CreateDocument(ctx, title)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *RetryService) BatchMutate(ctx context.Context, documentID string, ops []compiler.Operation) error {
	return r.do(ctx, "batch_mutate", func() error {
		return r.inner.BatchMutate(ctx, documentID, ops)
	})
}

func (r *RetryService) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	return r.inner.GetDocument(ctx, documentID)
}

func (r *RetryService) do(ctx context.Context, op string, call func() error) error {
	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		if attempt >= r.config.MaxRetries || !retryable(err) {
			return err
		}

		wait := r.backoff(attempt + 1)
		if r.config.OnRetry != nil {
			r.config.OnRetry(op, attempt+1, wait, err)
		}
		if serr := r.config.Sleep(ctx, wait); serr != nil {
			return serr
		}
	}
}

// backoff returns base * 2^(retry-1).
func (r *RetryService) backoff(retry int) time.Duration {
	return r.config.BaseDelay << (retry - 1)
}

func retryable(err error) bool {
	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return formerr.TransientStatus(formerr.UpstreamStatusOf(err))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

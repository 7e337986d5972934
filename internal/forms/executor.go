package forms

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/formcraft/internal/compiler"
	"github.com/abhisek/formcraft/internal/formerr"
)

// Executor runs compiled batches against a Service and reports failures
// in the formerr taxonomy. Every returned error is a *formerr.Error with
// the service failure as its cause.
type Executor struct {
	svc    Service
	logger *zap.Logger
}

// NewExecutor wraps svc with the retry policy in cfg. A nil logger
// disables logging.
func NewExecutor(svc Service, cfg RetryConfig, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OnRetry == nil {
		cfg.OnRetry = func(op string, retry int, wait time.Duration, err error) {
			logger.Warn("retrying forms call",
				zap.String("op", op),
				zap.Int("retry", retry),
				zap.Duration("wait", wait),
				zap.Error(err))
		}
	}
	return &Executor{svc: WithRetry(svc, cfg), logger: logger}
}

// Create creates an empty document.
func (e *Executor) Create(ctx context.Context, title string) (*Document, error) {
	doc, err := e.svc.CreateDocument(ctx, title)
	if err != nil {
		ferr := formerr.TranslateCreate(err)
		e.logger.Error("create document failed", zap.String("code", string(ferr.Code)), zap.Int("status", ferr.Status), zap.Error(err))
		return nil, ferr
	}
	e.logger.Info("created document", zap.String("document_id", doc.ID))
	return doc, nil
}

// Execute applies ops to the document. An empty batch is a no-op.
func (e *Executor) Execute(ctx context.Context, documentID string, ops []compiler.Operation) error {
	if len(ops) == 0 {
		return nil
	}
	start := time.Now()
	if err := e.svc.BatchMutate(ctx, documentID, ops); err != nil {
		ferr := formerr.TranslateMutate(err)
		e.logger.Error("batch mutate failed",
			zap.String("document_id", documentID),
			zap.Int("operations", len(ops)),
			zap.String("code", string(ferr.Code)),
			zap.Error(err))
		return ferr
	}
	e.logger.Info("applied batch",
		zap.String("document_id", documentID),
		zap.Int("operations", len(ops)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Read fetches the document.
func (e *Executor) Read(ctx context.Context, documentID string) (*Document, error) {
	doc, err := e.svc.GetDocument(ctx, documentID)
	if err != nil {
		ferr := formerr.TranslateRead(err)
		e.logger.Error("get document failed", zap.String("document_id", documentID), zap.String("code", string(ferr.Code)), zap.Error(err))
		return nil, ferr
	}
	return doc, nil
}

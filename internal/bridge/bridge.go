package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/plasmidtools/addgene-scraper/internal/engine"
	"github.com/plasmidtools/addgene-scraper/internal/models"
)

// ErrTimeout is returned when a crawl exceeds the configured budget. The
// crawl's context is cancelled so the engine tears down instead of running
// on detached.
var ErrTimeout = errors.New("crawl engine timed out")

// EngineError reports abnormal termination of an isolated crawl.
type EngineError struct {
	JobID string
	Err   error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("crawl engine terminated abnormally (job %s): %v", e.JobID, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// Bridge runs crawl engines in their own goroutines and hands results back
// to the caller as a single value. A weighted-1 semaphore guarantees at
// most one engine is active per process; concurrent callers queue behind
// it instead of starting a second engine. The slot is released only when
// the engine goroutine has actually unwound, so a timed-out crawl cannot
// overlap the next one.
type Bridge struct {
	newEngine func() (*engine.Engine, error)
	slot      *semaphore.Weighted
	timeout   time.Duration
	logger    *slog.Logger
}

func New(newEngine func() (*engine.Engine, error), timeout time.Duration, logger *slog.Logger) *Bridge {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Bridge{
		newEngine: newEngine,
		slot:      semaphore.NewWeighted(1),
		timeout:   timeout,
		logger:    logger,
	}
}

// Search runs a one-page search crawl under the bridge's timeout budget.
func (b *Bridge) Search(ctx context.Context, req engine.SearchRequest) (*models.SearchResult, error) {
	v, err := b.run(ctx, "search", func(ctx context.Context, e *engine.Engine) (any, error) {
		return e.Search(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SearchResult), nil
}

// SequenceInfo runs a sequence-info lookup under the bridge's timeout budget.
func (b *Bridge) SequenceInfo(ctx context.Context, plasmidID int, format models.SequenceFormat) (*models.SequenceDownloadInfo, error) {
	v, err := b.run(ctx, "sequence_info", func(ctx context.Context, e *engine.Engine) (any, error) {
		return e.SequenceInfo(ctx, plasmidID, format)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SequenceDownloadInfo), nil
}

type outcome struct {
	value any
	err   error
}

func (b *Bridge) run(ctx context.Context, op string, crawl func(context.Context, *engine.Engine) (any, error)) (any, error) {
	jobID := uuid.NewString()

	if err := b.slot.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	crawlCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	eng, err := b.newEngine()
	if err != nil {
		b.slot.Release(1)
		return nil, &EngineError{JobID: jobID, Err: err}
	}

	b.logger.Debug("crawl started", "job", jobID, "op", op)

	results := make(chan outcome, 1)
	go func() {
		// Slot stays held until the engine has fully unwound.
		defer b.slot.Release(1)
		defer func() {
			if r := recover(); r != nil {
				results <- outcome{err: &EngineError{JobID: jobID, Err: fmt.Errorf("panic: %v", r)}}
			}
		}()
		v, err := crawl(crawlCtx, eng)
		results <- outcome{value: v, err: err}
	}()

	select {
	case <-crawlCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.Warn("crawl timed out", "job", jobID, "op", op, "budget", b.timeout)
		return nil, ErrTimeout
	case out := <-results:
		if out.err != nil {
			b.logger.Warn("crawl failed", "job", jobID, "op", op, "error", out.err)
			return nil, b.classify(jobID, out.err)
		}
		b.logger.Debug("crawl complete", "job", jobID, "op", op)
		return out.value, nil
	}
}

// classify keeps caller-facing errors (empty result, fetch failures,
// validation) intact and wraps internal engine failures as abnormal
// termination.
func (b *Bridge) classify(jobID string, err error) error {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return err
	}
	if errors.Is(err, engine.ErrEngineReused) {
		return &EngineError{JobID: jobID, Err: err}
	}
	return err
}

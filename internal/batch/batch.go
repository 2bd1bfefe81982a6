// Package batch splits work items into fixed-size batches and runs them
// through bounded concurrency groups with progress reporting.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	errs "github.com/Aman-CERP/repovec/internal/errors"
)

// Progress is a snapshot emitted after each concurrency group settles.
type Progress struct {
	// Phase labels the work the controller is driving.
	Phase        string
	BatchesDone  int
	BatchesTotal int
	ItemsDone    int
	ItemsTotal   int
	Failed       int
	// Percent is items completed as a share of the total, in [0, 100].
	Percent float64
	Elapsed time.Duration
	// Rate is items per second; zero when nothing completed yet.
	Rate float64
	// ETA estimates the remaining duration; zero when Rate is zero.
	ETA time.Duration
}

// ProcessFunc handles one batch. The index identifies the batch within
// the run for logging and error attribution.
type ProcessFunc[T any] func(ctx context.Context, index int, items []T) error

// Controller runs batched work. Batches are grouped into waves of at
// most the configured concurrency; every batch in a wave settles before
// the next wave starts, and one failed batch never aborts its siblings.
type Controller[T any] struct {
	batchSize   int
	concurrency int
	onProgress  func(Progress)

	// Phase is stamped on every emitted Progress snapshot.
	Phase string
}

// New creates a Controller. batchSize and concurrency are clamped to a
// minimum of 1; onProgress may be nil.
func New[T any](batchSize, concurrency int, onProgress func(Progress)) *Controller[T] {
	if batchSize < 1 {
		batchSize = 1
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Controller[T]{
		batchSize:   batchSize,
		concurrency: concurrency,
		onProgress:  onProgress,
	}
}

// Split partitions items into batches of the configured size. The final
// batch may be short. Order is preserved.
func (c *Controller[T]) Split(items []T) [][]T {
	if len(items) == 0 {
		return nil
	}
	batches := make([][]T, 0, (len(items)+c.batchSize-1)/c.batchSize)
	for start := 0; start < len(items); start += c.batchSize {
		end := min(start+c.batchSize, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

// Run processes all items and returns one error per failed batch.
// Processing always settles every started batch; failures are isolated
// and collected, never propagated mid-wave. A canceled context stops
// new waves from starting and is reported as a single error.
func (c *Controller[T]) Run(ctx context.Context, items []T, fn ProcessFunc[T]) []error {
	batches := c.Split(items)
	if len(batches) == 0 {
		return nil
	}

	var (
		failures  []error
		itemsDone int
		start     = time.Now()
	)

	for wave := 0; wave < len(batches); wave += c.concurrency {
		if err := ctx.Err(); err != nil {
			failures = append(failures, fmt.Errorf("batch run aborted: %w", err))
			break
		}

		end := min(wave+c.concurrency, len(batches))
		group := batches[wave:end]
		errsByBatch := make([]error, len(group))

		var wg sync.WaitGroup
		for i, b := range group {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errsByBatch[i] = fn(ctx, wave+i, b)
			}()
		}
		wg.Wait()

		for i, err := range errsByBatch {
			itemsDone += len(group[i])
			if err == nil {
				continue
			}
			slog.Warn("batch_failed",
				slog.Int("batch", wave+i),
				slog.Int("size", len(group[i])),
				slog.String("error", err.Error()))
			if errs.GetKind(err) != "" {
				failures = append(failures, err)
			} else {
				failures = append(failures, errs.EmbedderError(
					fmt.Sprintf("batch %d failed", wave+i), err))
			}
		}

		c.report(Progress{
			BatchesDone:  end,
			BatchesTotal: len(batches),
			ItemsDone:    itemsDone,
			ItemsTotal:   len(items),
			Failed:       len(failures),
			Elapsed:      time.Since(start),
		})
	}

	return failures
}

// report fills in the phase, percent, rate and ETA, guarding the
// divisions, and invokes the callback.
func (c *Controller[T]) report(p Progress) {
	if c.onProgress == nil {
		return
	}
	p.Phase = c.Phase
	if p.ItemsTotal > 0 {
		p.Percent = float64(p.ItemsDone) / float64(p.ItemsTotal) * 100
	}
	if p.ItemsDone > 0 && p.Elapsed > 0 {
		p.Rate = float64(p.ItemsDone) / p.Elapsed.Seconds()
		if remaining := p.ItemsTotal - p.ItemsDone; remaining > 0 && p.Rate > 0 {
			p.ETA = time.Duration(float64(remaining)/p.Rate) * time.Second
		}
	}
	c.onProgress(p)
}

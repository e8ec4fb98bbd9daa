package benchmark

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pairwise-judging batching constants (§4.13).
const (
	defaultBatchSize        = 10
	defaultBatchTimeout     = 120 * time.Second
	defaultSubprocessTimeout = 300 * time.Second
	maxConcurrentBatches    = 50
)

// BatchResult is what a batch call yields for one comparison: its judged
// outcome and the evenly-divided share of the call's reported cost.
type BatchResult[R any] struct {
	Result  R
	CostUSD float64
}

// BatchFunc judges one batch of comparisons in a single LLM call.
type BatchFunc[T, R any] func(ctx context.Context, batch []T) (results []R, totalCostUSD float64, err error)

// BatchRunner packs comparisons into fixed-size batches and runs up to
// maxConcurrentBatches of them concurrently, each under its own timeout.
// A batch that times out or fails to parse is skipped silently — its
// items are dropped from the result set and its concurrency slot is
// reclaimed — rather than failing the run.
type BatchRunner[T, R any] struct {
	BatchSize            int
	Timeout               time.Duration
	MaxConcurrentBatches int
}

// NewBatchRunner applies §4.13's defaults: batch size 10, 120s timeout
// (300s when interactiveSubprocess is true, for slow local subprocess
// model paths), up to 50 concurrent batches.
func NewBatchRunner[T, R any](interactiveSubprocess bool) *BatchRunner[T, R] {
	timeout := defaultBatchTimeout
	if interactiveSubprocess {
		timeout = defaultSubprocessTimeout
	}
	return &BatchRunner[T, R]{
		BatchSize:            defaultBatchSize,
		Timeout:               timeout,
		MaxConcurrentBatches: maxConcurrentBatches,
	}
}

// Run partitions items into batches of BatchSize and judges each via fn,
// respecting the concurrency cap. Results preserve item order; a skipped
// batch's items are simply absent (not zero-valued placeholders), so
// callers must not assume len(results) == len(items).
func (r *BatchRunner[T, R]) Run(ctx context.Context, items []T, fn BatchFunc[T, R]) []BatchResult[R] {
	batches := chunk(items, r.BatchSize)
	resultsPerBatch := make([][]BatchResult[R], len(batches))

	sem := make(chan struct{}, r.MaxConcurrentBatches)
	g, gctx := errgroup.WithContext(ctx)

	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return nil
			}
			defer func() { <-sem }()

			resultsPerBatch[i] = r.runOne(gctx, b, fn)
			return nil
		})
	}
	_ = g.Wait()

	var out []BatchResult[R]
	for _, br := range resultsPerBatch {
		out = append(out, br...)
	}
	return out
}

func (r *BatchRunner[T, R]) runOne(ctx context.Context, batch []T, fn BatchFunc[T, R]) []BatchResult[R] {
	batchCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	results, totalCost, err := fn(batchCtx, batch)
	if err != nil || len(results) != len(batch) {
		// Timeout, parse failure, or a malformed response: the whole
		// batch is dropped silently per §4.13 and its slot reclaimed by
		// the caller's deferred semaphore release.
		return nil
	}

	perItemCost := 0.0
	if len(results) > 0 {
		perItemCost = totalCost / float64(len(results))
	}
	out := make([]BatchResult[R], len(results))
	for i, res := range results {
		out[i] = BatchResult[R]{Result: res, CostUSD: perItemCost}
	}
	return out
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = defaultBatchSize
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}

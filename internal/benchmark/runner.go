package benchmark

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/standardbeagle/semindex/internal/debug"
	benchmarkerrors "github.com/standardbeagle/semindex/internal/errors"
	"github.com/standardbeagle/semindex/internal/metrics"
)

// ItemFunc processes one item of a phase. A returned error counts as a
// per-item failure (§4.13); a panic is recovered and counted the same
// way, as one failed item.
type ItemFunc[T any] func(ctx context.Context, item T) error

// Runner drives one phase's item-level execution with bounded
// concurrency, ticking and persisting PhaseState after each completed
// item — the semaphore-bounded worker-pool shape
// internal/enrichment.Orchestrator.runPerItem uses, joined here with a
// sync.WaitGroup rather than an errgroup and extended to track a
// success/failure count for §4.13's "zero successes" rule.
type Runner struct {
	store          *Store
	maxConcurrency int
	metrics        *metrics.Metrics
}

// NewRunner bounds per-phase item concurrency at maxConcurrency (≤0
// defaults to 4, matching internal/enrichment's default).
func NewRunner(store *Store, maxConcurrency int) *Runner {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Runner{store: store, maxConcurrency: maxConcurrency}
}

// SetMetrics attaches a metrics sink for per-phase duration/success-failure
// recording. A nil sink (the default) makes RunPhase's recording a no-op,
// the same nil-receiver convention internal/metrics.Metrics itself uses.
func (r *Runner) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// RunPhase executes fn over items for phase, persisting the completed
// count after every tick. It marks the phase complete on return unless
// the run as a whole fails or ctx is cancelled; on cancellation it saves
// the progress so far, leaves the phase incomplete (NextPhase still
// returns it) and returns ctx.Err(). A later RunPhase call for that phase
// starts again from the first item: items finished before the
// interruption are not skipped.
func RunPhase[T any](ctx context.Context, r *Runner, rs *RunState, phase Phase, items []T, fn ItemFunc[T]) error {
	start := time.Now()
	rs.SetPhase(phase, PhaseState{Total: len(items)})
	if err := r.store.Save(ctx, rs); err != nil {
		return err
	}
	if len(items) == 0 {
		rs.SetPhase(phase, PhaseState{IsComplete: true})
		r.metrics.RecordBenchmarkPhase(string(phase), time.Since(start), 0, 0)
		return r.store.Save(ctx, rs)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu           sync.Mutex
		completed    int
		successCount int
		failureCount int
		wg           sync.WaitGroup
	)
	sem := make(chan struct{}, r.maxConcurrency)

	runOne := func(item T) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return fn(runCtx, item)
	}

	for _, item := range items {
		item := item
		select {
		case sem <- struct{}{}:
		case <-runCtx.Done():
			wg.Wait()
			r.metrics.RecordBenchmarkPhase(string(phase), time.Since(start), successCount, failureCount)
			rs.SetPhase(phase, PhaseState{Total: len(items), Completed: completed})
			if err := r.store.Save(context.WithoutCancel(ctx), rs); err != nil {
				return err
			}
			return ctx.Err()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := runOne(item)

			mu.Lock()
			defer mu.Unlock()
			completed++
			if err != nil {
				failureCount++
				debug.LogBenchmark("phase %s item failed: %v", phase, err)
			} else {
				successCount++
			}
			rs.SetPhase(phase, PhaseState{Total: len(items), Completed: completed})
			if saveErr := r.store.Save(ctx, rs); saveErr != nil {
				debug.LogBenchmark("persist tick for phase %s failed: %v", phase, saveErr)
			}
		}()
	}
	wg.Wait()

	return r.finish(ctx, rs, phase, start, completed, successCount, failureCount)
}

func (r *Runner) finish(ctx context.Context, rs *RunState, phase Phase, start time.Time, completed, successCount, failureCount int) error {
	r.metrics.RecordBenchmarkPhase(string(phase), time.Since(start), successCount, failureCount)
	if completed > 0 && successCount == 0 {
		phaseErr := benchmarkerrors.NewPhaseError(string(phase), fmt.Errorf("all %d items failed", failureCount))
		rs.Fail(phase, phaseErr)
		if err := r.store.Save(ctx, rs); err != nil {
			return err
		}
		return phaseErr
	}
	rs.SetPhase(phase, PhaseState{Total: completed, Completed: completed, IsComplete: true})
	return r.store.Save(ctx, rs)
}

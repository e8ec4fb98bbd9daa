package benchmark

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/semindex/internal/debug"
	"github.com/standardbeagle/semindex/internal/metrics"
)

// PhaseExecutor runs one phase to completion (or failure) against rs. It
// is responsible for calling RunPhase (or its own logic) and leaving rs
// with that phase's final PhaseState.
type PhaseExecutor func(ctx context.Context, rs *RunState) error

// Pipeline drives the phase DAG: it resumes prior state, repeatedly asks
// RunState for the next ready phase(s), and invokes the registered
// executor. When ParallelEvaluation is set, all five evaluation branches
// that become ready together are run concurrently instead of one at a
// time, per §4.13.
type Pipeline struct {
	store              *Store
	executors          map[Phase]PhaseExecutor
	ParallelEvaluation bool
	metrics            *metrics.Metrics
}

// NewPipeline wires one executor per phase. A phase with no registered
// executor (a toggled-off evaluation kind) is marked Skip()ped the first
// time it becomes ready, per §4.13's "skipped phases" rule.
func NewPipeline(store *Store, executors map[Phase]PhaseExecutor) *Pipeline {
	return &Pipeline{store: store, executors: executors}
}

// SetMetrics attaches a metrics sink for the active-runs gauge. A nil sink
// (the default) makes every gauge update a no-op.
func (p *Pipeline) SetMetrics(m *metrics.Metrics) {
	p.metrics = m
}

// Resume loads runID's prior state, or seeds a fresh one if it has never
// run.
func (p *Pipeline) Resume(ctx context.Context, runID string) (*RunState, error) {
	rs, err := p.store.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		rs = NewRunState(runID)
	}
	return rs, nil
}

// Run drives rs to completion, failure, or a pause boundary. It returns
// nil when the run finishes, pauses, or has no ready phase left (as for a
// run that had already failed before Run was called). It returns an
// error when an executor returns one, and when a phase leaves the run
// failed even though its executor returned nil.
func (p *Pipeline) Run(ctx context.Context, rs *RunState) error {
	p.metrics.SetBenchmarkRunsActive(string(StatusRunning), 1)
	defer p.metrics.SetBenchmarkRunsActive(string(StatusRunning), 0)

	for {
		if rs.GetStatus() == StatusPaused {
			p.metrics.SetBenchmarkRunsActive(string(StatusPaused), 1)
			return nil
		}
		ready := rs.ReadyPhases()
		if len(ready) == 0 {
			break
		}

		if p.ParallelEvaluation && allEvaluationBranches(ready) && len(ready) > 1 {
			if err := p.runConcurrently(ctx, rs, ready); err != nil {
				return err
			}
		} else if err := p.runOnePhase(ctx, rs, ready[0]); err != nil {
			return err
		}

		if rs.GetStatus() == StatusFailed {
			p.metrics.SetBenchmarkRunsActive(string(StatusFailed), 1)
			return fmt.Errorf("benchmark run %s failed", rs.RunID)
		}
	}

	if rs.IsDone() {
		rs.MarkDone()
		p.metrics.SetBenchmarkRunsActive(string(StatusDone), 1)
		return p.store.Save(ctx, rs)
	}
	return nil
}

func (p *Pipeline) runOnePhase(ctx context.Context, rs *RunState, phase Phase) error {
	executor, ok := p.executors[phase]
	if !ok {
		rs.Skip(phase)
		debug.LogBenchmark("phase %s has no registered executor, skipping", phase)
		return p.store.Save(ctx, rs)
	}
	return executor(ctx, rs)
}

func (p *Pipeline) runConcurrently(ctx context.Context, rs *RunState, phases []Phase) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, ph := range phases {
		ph := ph
		g.Go(func() error {
			return p.runOnePhase(gctx, rs, ph)
		})
	}
	return g.Wait()
}

func allEvaluationBranches(phases []Phase) bool {
	for _, p := range phases {
		found := false
		for _, b := range evaluationBranches {
			if p == b {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

package benchmark

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func completingExecutor(bs *Store, r *Runner, phase Phase) PhaseExecutor {
	return func(ctx context.Context, rs *RunState) error {
		return RunPhase(ctx, r, rs, phase, []int{1, 2, 3}, func(ctx context.Context, item int) error {
			return nil
		})
	}
}

func TestPipelineRunsEveryPhaseToCompletion(t *testing.T) {
	bs := newTestStore(t)
	r := NewRunner(bs, 4)

	executors := map[Phase]PhaseExecutor{}
	for _, p := range AllPhases {
		executors[p] = completingExecutor(bs, r, p)
	}

	pipeline := NewPipeline(bs, executors)
	rs, err := pipeline.Resume(context.Background(), "run-full")
	require.NoError(t, err)

	require.NoError(t, pipeline.Run(context.Background(), rs))
	require.Equal(t, StatusDone, rs.GetStatus())
	require.True(t, rs.IsDone())
}

func TestPipelineSkipsPhasesWithNoRegisteredExecutor(t *testing.T) {
	bs := newTestStore(t)
	r := NewRunner(bs, 4)

	executors := map[Phase]PhaseExecutor{}
	for _, p := range AllPhases {
		if p == PhaseEvaluationSelf {
			continue // disabled evaluation kind
		}
		executors[p] = completingExecutor(bs, r, p)
	}

	pipeline := NewPipeline(bs, executors)
	rs := NewRunState("run-skip")
	require.NoError(t, pipeline.Run(context.Background(), rs))

	require.True(t, rs.Phase(PhaseEvaluationSelf).IsComplete)
	require.Equal(t, 0, rs.Phase(PhaseEvaluationSelf).Total)
	require.Equal(t, StatusDone, rs.GetStatus())
}

func TestPipelineRunsEvaluationBranchesConcurrentlyWhenEnabled(t *testing.T) {
	bs := newTestStore(t)
	r := NewRunner(bs, 4)

	var mu sync.Mutex
	var concurrentNow, maxConcurrent int

	trackingExecutor := func(phase Phase) PhaseExecutor {
		return func(ctx context.Context, rs *RunState) error {
			mu.Lock()
			concurrentNow++
			if concurrentNow > maxConcurrent {
				maxConcurrent = concurrentNow
			}
			mu.Unlock()

			err := RunPhase(ctx, r, rs, phase, []int{1}, func(ctx context.Context, item int) error { return nil })

			mu.Lock()
			concurrentNow--
			mu.Unlock()
			return err
		}
	}

	executors := map[Phase]PhaseExecutor{
		PhaseExtraction:            completingExecutor(bs, r, PhaseExtraction),
		PhaseGeneration:            completingExecutor(bs, r, PhaseGeneration),
		PhaseEvaluationIterative:   completingExecutor(bs, r, PhaseEvaluationIterative),
		PhaseEvaluationJudge:       trackingExecutor(PhaseEvaluationJudge),
		PhaseEvaluationContrastive: trackingExecutor(PhaseEvaluationContrastive),
		PhaseEvaluationRetrieval:   trackingExecutor(PhaseEvaluationRetrieval),
		PhaseEvaluationDownstream:  trackingExecutor(PhaseEvaluationDownstream),
		PhaseEvaluationSelf:        trackingExecutor(PhaseEvaluationSelf),
		PhaseAggregation:           completingExecutor(bs, r, PhaseAggregation),
		PhaseReporting:             completingExecutor(bs, r, PhaseReporting),
	}

	pipeline := NewPipeline(bs, executors)
	pipeline.ParallelEvaluation = true
	rs := NewRunState("run-parallel-eval")

	require.NoError(t, pipeline.Run(context.Background(), rs))
	require.Greater(t, maxConcurrent, 1)
	require.Equal(t, StatusDone, rs.GetStatus())
}

func TestPipelineResumeReloadsPriorState(t *testing.T) {
	bs := newTestStore(t)
	ctx := context.Background()

	rs := NewRunState("run-resume")
	rs.SetPhase(PhaseExtraction, PhaseState{Total: 3, Completed: 3, IsComplete: true})
	require.NoError(t, bs.Save(ctx, rs))

	pipeline := NewPipeline(bs, nil)
	reloaded, err := pipeline.Resume(ctx, "run-resume")
	require.NoError(t, err)
	require.True(t, reloaded.Phase(PhaseExtraction).IsComplete)

	next, ok := reloaded.NextPhase()
	require.True(t, ok)
	require.Equal(t, PhaseGeneration, next)
}

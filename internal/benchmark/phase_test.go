package benchmark

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextPhaseFollowsDeclaredOrder(t *testing.T) {
	rs := NewRunState("r1")
	phase, ok := rs.NextPhase()
	require.True(t, ok)
	require.Equal(t, PhaseExtraction, phase)
}

func TestNextPhaseWaitsOnDependencies(t *testing.T) {
	rs := NewRunState("r1")
	rs.SetPhase(PhaseExtraction, PhaseState{IsComplete: true})
	phase, ok := rs.NextPhase()
	require.True(t, ok)
	require.Equal(t, PhaseGeneration, phase)
}

func TestReadyPhasesReturnsAllEvaluationBranchesAtOnce(t *testing.T) {
	rs := NewRunState("r1")
	rs.SetPhase(PhaseExtraction, PhaseState{IsComplete: true})
	rs.SetPhase(PhaseGeneration, PhaseState{IsComplete: true})
	rs.SetPhase(PhaseEvaluationIterative, PhaseState{IsComplete: true})

	ready := rs.ReadyPhases()
	require.ElementsMatch(t, evaluationBranches, ready)
}

func TestAggregationWaitsForEveryEvaluationBranch(t *testing.T) {
	rs := NewRunState("r1")
	for _, p := range []Phase{PhaseExtraction, PhaseGeneration, PhaseEvaluationIterative,
		PhaseEvaluationJudge, PhaseEvaluationContrastive, PhaseEvaluationRetrieval, PhaseEvaluationDownstream} {
		rs.SetPhase(p, PhaseState{IsComplete: true})
	}
	// evaluation:self still incomplete
	ready := rs.ReadyPhases()
	require.Equal(t, []Phase{PhaseEvaluationSelf}, ready)

	rs.SetPhase(PhaseEvaluationSelf, PhaseState{IsComplete: true})
	ready = rs.ReadyPhases()
	require.Equal(t, []Phase{PhaseAggregation}, ready)
}

func TestSkipMarksCompleteWithZeroTotal(t *testing.T) {
	rs := NewRunState("r1")
	rs.Skip(PhaseEvaluationSelf)
	st := rs.Phase(PhaseEvaluationSelf)
	require.True(t, st.IsComplete)
	require.Equal(t, 0, st.Total)
}

func TestFailStopsFurtherScheduling(t *testing.T) {
	rs := NewRunState("r1")
	rs.Fail(PhaseExtraction, errors.New("boom"))
	_, ok := rs.NextPhase()
	require.False(t, ok)
	require.Equal(t, StatusFailed, rs.GetStatus())
}

func TestIsDoneRequiresEveryPhase(t *testing.T) {
	rs := NewRunState("r1")
	require.False(t, rs.IsDone())
	for _, p := range AllPhases {
		rs.SetPhase(p, PhaseState{IsComplete: true})
	}
	require.True(t, rs.IsDone())
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_IdentityFieldsOverwrite(t *testing.T) {
	prev := State{WorkflowID: "wf_1", Status: StatusPending}
	delta := State{Status: StatusRunning, CurrentStage: StageIntake}

	next := Reduce(prev, delta)

	assert.Equal(t, "wf_1", next.WorkflowID)
	assert.Equal(t, StatusRunning, next.Status)
	assert.Equal(t, StageIntake, next.CurrentStage)
}

func TestReduce_AssignsEachStageGroupOnce(t *testing.T) {
	state := State{}
	state = Reduce(state, State{Intake: &IntakeOutput{RawID: "raw_1"}})
	state = Reduce(state, State{Understand: &UnderstandOutput{InvoiceText: "hi"}})

	require.NotNil(t, state.Intake)
	require.NotNil(t, state.Understand)
	assert.Equal(t, "raw_1", state.Intake.RawID)
	assert.Equal(t, "hi", state.Understand.InvoiceText)
}

func TestReduce_PanicsWhenGroupRewritten(t *testing.T) {
	state := State{Intake: &IntakeOutput{RawID: "raw_1"}}

	assert.Panics(t, func() {
		Reduce(state, State{Intake: &IntakeOutput{RawID: "raw_2"}})
	})
}

func TestReduce_PendingIsOverwritableInput(t *testing.T) {
	state := State{}
	state = Reduce(state, State{Pending: &PendingDecision{Decision: DecisionAccept}})
	require.NotNil(t, state.Pending)
	assert.Equal(t, DecisionAccept, state.Pending.Decision)

	// Pending is an input, not a stage-output group: rewriting it must not panic.
	assert.NotPanics(t, func() {
		state = Reduce(state, State{Pending: &PendingDecision{Decision: DecisionReject}})
	})
	assert.Equal(t, DecisionReject, state.Pending.Decision)
}

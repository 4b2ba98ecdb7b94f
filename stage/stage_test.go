package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpay/invoiceflow/ability"
	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/toolkit"
)

func testDeps() *Deps {
	return &Deps{
		Router:   ability.NewRouter(),
		Selector: toolkit.NewSelector(toolkit.NewDefaultRegistry(nil), nil, nil),
		Settings: domain.DefaultSettings(),
	}
}

// failingExternalBackend delegates to the real ExternalBackend for every
// ability except one, which it fails with the given error message -
// simulating an outage the production backend never reports on its own.
type failingExternalBackend struct {
	ability.ExternalBackend
	failAbility string
	failMessage string
}

func (b *failingExternalBackend) Call(abilityName string, params map[string]interface{}) map[string]interface{} {
	if abilityName == b.failAbility {
		return map[string]interface{}{"error": b.failMessage}
	}
	return b.ExternalBackend.Call(abilityName, params)
}

func TestIntake_ValidatesAndAssignsRawID(t *testing.T) {
	d := testDeps()
	st := &Intake{d}

	result := st.Run(context.Background(), domain.State{
		InvoiceID: "INV-1",
		RawPayload: map[string]interface{}{
			"invoice_id": "INV-1", "vendor_name": "Acme", "amount": 100.0,
		},
	})

	require.NoError(t, result.Err)
	require.NotNil(t, result.Delta.Intake)
	assert.True(t, result.Delta.Intake.Validated)
	assert.NotEmpty(t, result.Delta.Intake.RawID)
}

func TestIntake_FlagsMissingRequiredFields(t *testing.T) {
	d := testDeps()
	st := &Intake{d}

	result := st.Run(context.Background(), domain.State{
		InvoiceID:  "INV-1",
		RawPayload: map[string]interface{}{"invoice_id": "INV-1"},
	})

	assert.False(t, result.Delta.Intake.Validated)
}

func TestMatch_ScoresAgainstRetrievedPOs(t *testing.T) {
	d := testDeps()
	st := &Match{d}

	state := domain.State{
		RawPayload: map[string]interface{}{"amount": 100.0},
		Retrieve: &domain.RetrieveOutput{
			MatchedPOs: []domain.PurchaseOrder{{POID: "PO-1", Amount: amountToDecimal(100.0)}},
		},
	}

	result := st.Run(context.Background(), state)
	require.NotNil(t, result.Delta.Match)
	assert.Equal(t, domain.MatchMatched, result.Delta.Match.Result)
	assert.InDelta(t, 1.0, result.Delta.Match.Score, 0.001)
}

func TestMatch_FailsWhenNoPOsRetrieved(t *testing.T) {
	d := testDeps()
	st := &Match{d}

	result := st.Run(context.Background(), domain.State{RawPayload: map[string]interface{}{"amount": 100.0}})

	assert.Equal(t, domain.MatchFailed, result.Delta.Match.Result)
	assert.Equal(t, 0.0, result.Delta.Match.Score)
}

func TestCheckpointHITL_PausesAndStops(t *testing.T) {
	d := testDeps()
	st := &CheckpointHITL{d}

	state := domain.State{
		WorkflowID: "wf_1",
		Match:      &domain.MatchOutput{Score: 0.4},
	}
	result := st.Run(context.Background(), state)

	require.NotNil(t, result.Delta.CheckpointHITL)
	assert.Equal(t, domain.StatusPaused, result.Delta.Status)
	assert.NotEmpty(t, result.Delta.CheckpointHITL.CheckpointID)
	assert.True(t, result.Route.Terminal, "CHECKPOINT_HITL must stop the run so the runtime can persist it")
}

func TestHITLDecision_ErrorsWhenPendingMissing(t *testing.T) {
	d := testDeps()
	st := &HITLDecision{d}

	result := st.Run(context.Background(), domain.State{})
	assert.Error(t, result.Err)
}

func TestHITLDecision_AcceptRoutesToReconcile(t *testing.T) {
	d := testDeps()
	st := &HITLDecision{d}

	state := domain.State{
		Pending:        &domain.PendingDecision{Decision: domain.DecisionAccept, ReviewerID: "r1"},
		CheckpointHITL: &domain.CheckpointOutput{CheckpointID: "cp_1"},
	}
	result := st.Run(context.Background(), state)

	require.NoError(t, result.Err)
	assert.Equal(t, domain.StatusRunning, result.Delta.Status)
	assert.Equal(t, domain.StageReconcile, result.Delta.HITLDecision.NextStage)
	assert.Equal(t, "RECONCILE", result.Route.To)
}

func TestHITLDecision_RejectRoutesToCompleteAsManualHandoff(t *testing.T) {
	d := testDeps()
	st := &HITLDecision{d}

	state := domain.State{
		Pending:        &domain.PendingDecision{Decision: domain.DecisionReject, ReviewerID: "r1"},
		CheckpointHITL: &domain.CheckpointOutput{CheckpointID: "cp_1"},
	}
	result := st.Run(context.Background(), state)

	assert.Equal(t, domain.StatusManualHandoff, result.Delta.Status)
	assert.Equal(t, domain.StageComplete, result.Delta.HITLDecision.NextStage)
	assert.Equal(t, "COMPLETE", result.Route.To)
}

func TestReconcile_ProducesBalancedJournalEntries(t *testing.T) {
	d := testDeps()
	st := &Reconcile{d}

	result := st.Run(context.Background(), domain.State{
		InvoiceID:  "INV-1",
		RawPayload: map[string]interface{}{"amount": 250.0},
	})

	require.Len(t, result.Delta.Reconcile.AccountingEntries, 2)
	debit := result.Delta.Reconcile.AccountingEntries[0]
	credit := result.Delta.Reconcile.AccountingEntries[1]
	assert.Equal(t, "accounts_payable", debit.Account)
	assert.Equal(t, "expense", credit.Account)
	assert.True(t, debit.Debit.Equal(credit.Credit))
	assert.True(t, credit.Debit.IsZero())
	assert.True(t, debit.Credit.IsZero())
}

func TestPosting_UsesBackendReturnedIDs(t *testing.T) {
	d := testDeps()
	st := &Posting{d}

	result := st.Run(context.Background(), domain.State{InvoiceID: "INV-1"})

	require.NotNil(t, result.Delta.Posting)
	assert.True(t, result.Delta.Posting.Posted)
	assert.Contains(t, result.Delta.Posting.ERPTxnID, "ERP-TXN_")
	assert.Contains(t, result.Delta.Posting.ScheduledPaymentID, "PAY_")
}

func TestPosting_FailsStageWhenERPBackendReturnsError(t *testing.T) {
	d := testDeps()
	d.Router = ability.NewRouterWithBackends(&ability.InternalBackend{}, &failingExternalBackend{
		failAbility: "post_to_erp",
		failMessage: "down",
	})
	st := &Posting{d}

	result := st.Run(context.Background(), domain.State{InvoiceID: "INV-1"})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "down")
	var stageErr *domain.StageError
	require.ErrorAs(t, result.Err, &stageErr)
	assert.Equal(t, domain.StagePosting, stageErr.Stage)
	assert.Nil(t, result.Delta.Posting)
}

func TestPosting_FailsStageWhenPaymentSchedulingReturnsError(t *testing.T) {
	d := testDeps()
	d.Router = ability.NewRouterWithBackends(&ability.InternalBackend{}, &failingExternalBackend{
		failAbility: "schedule_payment",
		failMessage: "payment provider unreachable",
	})
	st := &Posting{d}

	result := st.Run(context.Background(), domain.State{InvoiceID: "INV-1"})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "payment provider unreachable")
}

func TestComplete_PreservesManualHandoffStatus(t *testing.T) {
	d := testDeps()
	st := &Complete{d}

	result := st.Run(context.Background(), domain.State{
		WorkflowID: "wf_1",
		InvoiceID:  "INV-1",
		Status:     domain.StatusManualHandoff,
	})

	assert.Equal(t, domain.StatusManualHandoff, result.Delta.Status)
	assert.Equal(t, domain.StatusManualHandoff, result.Delta.Complete.FinalPayload["status"])
	assert.True(t, result.Route.Terminal)
}

func TestComplete_DefaultsToCompletedStatus(t *testing.T) {
	d := testDeps()
	st := &Complete{d}

	result := st.Run(context.Background(), domain.State{WorkflowID: "wf_1", InvoiceID: "INV-1"})

	assert.Equal(t, domain.StatusCompleted, result.Delta.Status)
}

func TestComplete_IncludesPostingAndApprovalFieldsWhenPresent(t *testing.T) {
	d := testDeps()
	st := &Complete{d}

	result := st.Run(context.Background(), domain.State{
		WorkflowID: "wf_1",
		InvoiceID:  "INV-1",
		Approve:    &domain.ApproveOutput{ApprovalStatus: domain.ApprovalAutoApproved},
		Posting:    &domain.PostingOutput{ERPTxnID: "ERP-TXN_abc", ScheduledPaymentID: "PAY_abc"},
	})

	assert.Equal(t, domain.ApprovalAutoApproved, result.Delta.Complete.FinalPayload["approval_status"])
	assert.Equal(t, "ERP-TXN_abc", result.Delta.Complete.FinalPayload["erp_txn_id"])
}

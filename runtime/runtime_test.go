package runtime

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph/emit"
	gstore "github.com/lumenpay/invoiceflow/graph/store"
)

func newTestRuntime() *Runtime {
	st := gstore.NewMemStore[domain.State]()
	emitter := emit.NewLogEmitter(noopWriter{}, false)
	return New(domain.DefaultSettings(), st, emitter, nil, nil)
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestStart_HappyPathCompletesWithoutPause(t *testing.T) {
	rt := newTestRuntime()

	wf, err := rt.Start(context.Background(), domain.Invoice{
		InvoiceID:  "INV-1",
		VendorName: "Acme Corp",
		Amount:     decimal.NewFromFloat(1000),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, wf.Status)
}

func TestStart_MismatchedPOsPausesAtCheckpoint(t *testing.T) {
	rt := newTestRuntime()

	wf, err := rt.Start(context.Background(), domain.Invoice{
		InvoiceID:   "INV-2",
		VendorName:  "Acme Corp",
		Amount:      decimal.NewFromFloat(1000),
		Attachments: []string{"PO12345", "PO67890"},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaused, wf.Status)

	reviews := rt.ListPendingReviews(context.Background())
	require.Len(t, reviews, 1)
	assert.Equal(t, "INV-2", reviews[0].InvoiceID)
}

func TestResume_AcceptContinuesToCompleted(t *testing.T) {
	rt := newTestRuntime()

	wf, err := rt.Start(context.Background(), domain.Invoice{
		InvoiceID:   "INV-3",
		VendorName:  "Acme Corp",
		Amount:      decimal.NewFromFloat(1000),
		Attachments: []string{"PO12345", "PO67890"},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaused, wf.Status)

	reviews := rt.ListPendingReviews(context.Background())
	require.Len(t, reviews, 1)
	checkpointID := reviews[0].CheckpointID

	resumed, err := rt.Resume(context.Background(), checkpointID, domain.DecisionAccept, "reviewer_1", "looks fine")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, resumed.Status)
}

func TestResume_RejectEndsInManualHandoff(t *testing.T) {
	rt := newTestRuntime()

	wf, err := rt.Start(context.Background(), domain.Invoice{
		InvoiceID:   "INV-4",
		VendorName:  "Acme Corp",
		Amount:      decimal.NewFromFloat(1000),
		Attachments: []string{"PO12345", "PO67890"},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaused, wf.Status)

	reviews := rt.ListPendingReviews(context.Background())
	require.Len(t, reviews, 1)
	checkpointID := reviews[0].CheckpointID

	resumed, err := rt.Resume(context.Background(), checkpointID, domain.DecisionReject, "reviewer_1", "vendor unverifiable")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusManualHandoff, resumed.Status)
}

func TestCancel_StopsAPausedWorkflow(t *testing.T) {
	rt := newTestRuntime()

	wf, err := rt.Start(context.Background(), domain.Invoice{
		InvoiceID:   "INV-5",
		VendorName:  "Acme Corp",
		Amount:      decimal.NewFromFloat(1000),
		Attachments: []string{"PO12345", "PO67890"},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPaused, wf.Status)

	require.NoError(t, rt.Cancel(context.Background(), wf.WorkflowID))

	got, err := rt.GetWorkflow(context.Background(), wf.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
}

package stage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lumenpay/invoiceflow/domain"
	"github.com/lumenpay/invoiceflow/graph"
)

// Reconcile implements the RECONCILE stage. It builds a balanced pair of
// journal entries (debit accounts payable, credit the expense account) for
// the invoice amount.
type Reconcile struct{ *Deps }

func (s *Reconcile) Run(ctx context.Context, state domain.State) graph.NodeResult[domain.State] {
	amount := amountToDecimal(floatField(state.RawPayload, "amount"))
	debitID, creditID := domain.JournalEntryIDs(state.InvoiceID)

	entries := []domain.JournalEntry{
		{EntryID: debitID, Account: "accounts_payable", Debit: amount, Credit: decimal.Zero},
		{EntryID: creditID, Account: "expense", Debit: decimal.Zero, Credit: amount},
	}

	s.Router.Call("build_accounting_entries", map[string]interface{}{"invoice_id": state.InvoiceID})

	return graph.NodeResult[domain.State]{
		Delta: domain.State{
			CurrentStage: domain.StageReconcile,
			Reconcile: &domain.ReconcileOutput{
				AccountingEntries: entries,
				ReconciliationReport: map[string]interface{}{
					"invoice_id": state.InvoiceID,
					"balanced":   true,
					"amount":     amount.String(),
				},
			},
		},
	}
}

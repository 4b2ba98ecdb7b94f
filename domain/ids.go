package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// shortHex returns n lowercase hex characters derived from a fresh UUID.
func shortHex(n int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:n]
}

// NewWorkflowID generates a workflow identifier in the form wf_<invoice_id>_<8-hex>.
func NewWorkflowID(invoiceID string) string {
	return fmt.Sprintf("wf_%s_%s", invoiceID, shortHex(8))
}

// NewCheckpointID generates a checkpoint identifier in the form cp_<workflow_id>_<8-hex>.
func NewCheckpointID(workflowID string) string {
	return fmt.Sprintf("cp_%s_%s", workflowID, shortHex(8))
}

// NewRawID generates a raw-ingest identifier in the form raw_<16-hex>.
func NewRawID() string {
	return "raw_" + shortHex(16)
}

// NewERPTxnID generates an ERP transaction identifier in the form ERP-TXN_<8-hex>.
func NewERPTxnID() string {
	return "ERP-TXN_" + shortHex(8)
}

// NewScheduledPaymentID generates a payment schedule identifier in the form PAY_<8-hex>.
func NewScheduledPaymentID() string {
	return "PAY_" + shortHex(8)
}

// JournalEntryIDs returns the pair of accounting journal entry ids for an
// invoice: JE-<invoice_id>-001 and JE-<invoice_id>-002.
func JournalEntryIDs(invoiceID string) (debit, credit string) {
	return fmt.Sprintf("JE-%s-001", invoiceID), fmt.Sprintf("JE-%s-002", invoiceID)
}

package domain

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// LineItem is a single line on an invoice.
type LineItem struct {
	Desc      string          `json:"desc" validate:"required"`
	Qty       decimal.Decimal `json:"qty" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// Invoice is the immutable input to a workflow.
type Invoice struct {
	InvoiceID   string          `json:"invoice_id" validate:"required"`
	VendorName  string          `json:"vendor_name" validate:"required"`
	VendorTaxID string          `json:"vendor_tax_id,omitempty"`
	InvoiceDate *time.Time      `json:"invoice_date,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Currency    string          `json:"currency"`
	LineItems   []LineItem      `json:"line_items,omitempty"`
	Attachments []string        `json:"attachments,omitempty"`
}

// Validate checks the struct-level required fields and returns a non-nil
// error if any are missing. It does not enforce the line-item total
// tolerance; call LineItemsBalanced for that soft check.
func (inv *Invoice) Validate() error {
	if inv.Currency == "" {
		inv.Currency = "USD"
	}
	return validate.Struct(inv)
}

// LineItemsBalanced reports whether the sum of LineItems.Total lies within
// $0.01 of Amount. An empty LineItems slice is considered balanced (the
// invariant only applies when line items are present).
func (inv *Invoice) LineItemsBalanced() bool {
	if len(inv.LineItems) == 0 {
		return true
	}
	sum := decimal.Zero
	for _, li := range inv.LineItems {
		sum = sum.Add(li.Total)
	}
	diff := sum.Sub(inv.Amount).Abs()
	return diff.LessThanOrEqual(decimal.NewFromFloat(0.01))
}

// ToParams flattens the invoice into the parameter map shape abilities
// expect (ability.Router.Call and the stage functions pass these through).
func (inv *Invoice) ToParams() map[string]interface{} {
	amount, _ := inv.Amount.Float64()
	params := map[string]interface{}{
		"invoice_id":  inv.InvoiceID,
		"vendor_name": inv.VendorName,
		"amount":      amount,
		"currency":    inv.Currency,
		"attachments": inv.Attachments,
	}
	if inv.VendorTaxID != "" {
		params["vendor_tax_id"] = inv.VendorTaxID
	}
	if inv.InvoiceDate != nil {
		params["invoice_date"] = inv.InvoiceDate.Format(time.RFC3339)
	}
	if inv.DueDate != nil {
		params["due_date"] = inv.DueDate.Format(time.RFC3339)
	}
	return params
}

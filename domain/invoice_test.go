package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceValidate_DefaultsCurrencyAndChecksRequired(t *testing.T) {
	inv := &Invoice{
		InvoiceID:  "INV-1",
		VendorName: "Acme Co",
		Amount:     decimal.NewFromInt(100),
	}

	require.NoError(t, inv.Validate())
	assert.Equal(t, "USD", inv.Currency)
}

func TestInvoiceValidate_MissingRequiredFieldFails(t *testing.T) {
	inv := &Invoice{Amount: decimal.NewFromInt(100)}
	assert.Error(t, inv.Validate())
}

func TestLineItemsBalanced(t *testing.T) {
	inv := &Invoice{
		Amount: decimal.NewFromFloat(100.00),
		LineItems: []LineItem{
			{Desc: "widget", Total: decimal.NewFromFloat(60.00)},
			{Desc: "gadget", Total: decimal.NewFromFloat(40.00)},
		},
	}
	assert.True(t, inv.LineItemsBalanced())

	inv.LineItems[1].Total = decimal.NewFromFloat(30.00)
	assert.False(t, inv.LineItemsBalanced())
}

func TestLineItemsBalanced_EmptyIsBalanced(t *testing.T) {
	inv := &Invoice{Amount: decimal.NewFromFloat(100.00)}
	assert.True(t, inv.LineItemsBalanced())
}

func TestToParams_FlattensOptionalFields(t *testing.T) {
	inv := &Invoice{
		InvoiceID:  "INV-1",
		VendorName: "Acme Co",
		Amount:     decimal.NewFromFloat(250.50),
		Currency:   "USD",
	}

	params := inv.ToParams()
	assert.Equal(t, "INV-1", params["invoice_id"])
	assert.Equal(t, "Acme Co", params["vendor_name"])
	assert.Equal(t, 250.50, params["amount"])
	_, hasTaxID := params["vendor_tax_id"]
	assert.False(t, hasTaxID)
}

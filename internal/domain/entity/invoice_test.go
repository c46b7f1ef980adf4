package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		qty      int64
		price    string
		discount string
		want     string
	}{
		{"no discount", 3, "100.00", "0", "300"},
		{"ten percent", 2, "49.99", "10", "89.98"},
		{"rounds half up", 1, "0.125", "0", "0.13"},
		{"full discount", 5, "20", "100", "0"},
		{"fractional discount", 7, "13.37", "12.5", "81.89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(tt.qty, decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.discount))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestLineItem_ComputedTotal_MissingValues(t *testing.T) {
	item := LineItem{Description: "Consulting"}
	assert.True(t, item.ComputedTotal().IsZero())

	qty := int64(4)
	item = LineItem{Quantity: &qty, UnitPrice: dec("25")}
	assert.Equal(t, "100.00", item.ComputedTotal().StringFixed(2))
}

func TestInvoice_TotalsConsistent(t *testing.T) {
	inv := Invoice{
		Subtotal:       dec("1000.00"),
		TaxAmount:      dec("180.00"),
		DiscountAmount: dec("50.00"),
		TotalAmount:    dec("1130.00"),
	}
	assert.True(t, inv.TotalsConsistent())
	assert.Equal(t, "1130.00", inv.ComputedTotal().StringFixed(2))

	inv.TotalAmount = dec("999.00")
	assert.False(t, inv.TotalsConsistent())
}

func TestInvoice_Filenames(t *testing.T) {
	inv := Invoice{InvoiceNumber: "INV-2024-0007"}
	assert.Equal(t, "INV-2024-0007.pdf", inv.PDFFilename())
	assert.Equal(t, "INV-2024-0007.xlsx", inv.WorkbookFilename())
	assert.True(t, inv.HasStandardNumber())

	inv.InvoiceNumber = "2024/07"
	assert.Equal(t, "2024-07.pdf", inv.PDFFilename())
	assert.False(t, inv.HasStandardNumber())

	inv.InvoiceNumber = "  "
	assert.Equal(t, "invoice.pdf", inv.PDFFilename())
}

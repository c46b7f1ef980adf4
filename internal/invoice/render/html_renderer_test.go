package render

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/billcraft/internal/domain/entity"
)

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func qty(n int64) *int64 { return &n }

func strPtr(s string) *string { return &s }

func sampleBundle() entity.InvoiceBundle {
	return entity.InvoiceBundle{
		Invoice: entity.Invoice{
			ID:             "inv-1",
			InvoiceNumber:  "INV-2024-0007",
			Status:         entity.InvoiceStatusPaid,
			InvoiceDate:    "2024-03-07T00:00:00Z",
			DueDate:        strPtr("2024-04-06"),
			Subtotal:       money("1000"),
			TaxAmount:      money("180"),
			DiscountAmount: money("50"),
			TotalAmount:    money("1130"),
			Notes:          "Thanks for the quick turnaround",
			Items: []entity.LineItem{
				{
					Description:        "Consulting",
					ProductName:        "Advisory",
					ProductSKU:         "ADV-1",
					Quantity:           qty(2),
					UnitPrice:          money("300"),
					DiscountPercentage: money("0"),
					LineTotal:          money("600"),
				},
				{
					Description:        "Support plan",
					Quantity:           qty(1),
					UnitPrice:          money("500"),
					DiscountPercentage: money("20"),
					LineTotal:          money("400"),
				},
			},
		},
		Customer: &entity.Customer{
			Name:    "Acme Traders",
			Email:   "billing@acme.test",
			Address: "12 MG Road",
			City:    "Pune",
			State:   "MH",
			ZipCode: "411001",
		},
		Profile: &entity.BusinessProfile{
			BusinessName:    "Billcraft Studio",
			BusinessAddress: "1 Main Street\nBengaluru",
			Phone:           "+91 80 0000 0000",
			GSTNumber:       "29ABCDE1234F1Z5",
		},
	}
}

func TestHTMLRenderer_Summary(t *testing.T) {
	doc, err := NewRenderer(Options{}).Render(sampleBundle())
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, "₹1000.00")
	assert.Contains(t, doc.HTML, "₹180.00")
	assert.Contains(t, doc.HTML, "-₹50.00")
	assert.Contains(t, doc.HTML, "₹1130.00")
	assert.Contains(t, doc.HTML, "INV-2024-0007")
	assert.Contains(t, doc.HTML, "07/03/2024")
	assert.Contains(t, doc.HTML, "06/04/2024")
	assert.Contains(t, doc.HTML, "badge-green")
	assert.Contains(t, doc.HTML, ">Paid<")
	assert.Contains(t, doc.HTML, "-20%")
	assert.Contains(t, doc.HTML, "Thank you for your business!")
	assert.Equal(t, CanonicalWidth, doc.Width)
	assert.Equal(t, "INV-2024-0007", doc.InvoiceNumber)
	assert.False(t, doc.TotalsMismatch)
	assert.Empty(t, doc.Defaults)
}

func TestHTMLRenderer_OmitsZeroTaxAndDiscount(t *testing.T) {
	b := sampleBundle()
	b.Invoice.TaxAmount = money("0")
	b.Invoice.DiscountAmount = decimal.NullDecimal{}
	b.Invoice.TotalAmount = money("1000")

	doc, err := NewRenderer(Options{}).Render(b)
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, "Subtotal:")
	assert.NotContains(t, doc.HTML, "Tax:")
	assert.NotContains(t, doc.HTML, "Discount:</span>")
	assert.Contains(t, doc.Defaults, Default{Field: "discount_amount", Value: "0"})
}

func TestHTMLRenderer_ZeroItems(t *testing.T) {
	b := sampleBundle()
	b.Invoice.Items = nil

	doc, err := NewRenderer(Options{}).Render(b)
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, "<tbody>")
	assert.NotContains(t, doc.HTML, "<tr class=\"striped\">")
	assert.Contains(t, doc.HTML, "₹1130.00")
}

func TestHTMLRenderer_MissingRelations(t *testing.T) {
	b := sampleBundle()
	b.Customer = nil
	b.Profile = nil

	doc, err := NewRenderer(Options{}).Render(b)
	require.NoError(t, err)

	assert.Contains(t, doc.HTML, "No customer selected")
	assert.Contains(t, doc.HTML, "Your Business")
	assert.Contains(t, doc.Defaults, Default{Field: "customer", Value: "No customer selected"})
	assert.Contains(t, doc.Defaults, Default{Field: "business_profile", Value: "Your Business"})
}

func TestHTMLRenderer_UnnamedCustomer(t *testing.T) {
	b := sampleBundle()
	b.Customer.Name = "  "

	doc, err := NewRenderer(Options{}).Render(b)
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "Unnamed customer")
}

func TestHTMLRenderer_UnknownStatusIsDraft(t *testing.T) {
	b := sampleBundle()
	b.Invoice.Status = "archived"

	doc, err := NewRenderer(Options{}).Render(b)
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "badge-gray")
	assert.Contains(t, doc.HTML, ">Draft<")
}

func TestHTMLRenderer_MissingLineValuesRenderAsZero(t *testing.T) {
	b := sampleBundle()
	b.Invoice.Items = []entity.LineItem{{Description: "Mystery"}}

	doc, err := NewRenderer(Options{}).Render(b)
	require.NoError(t, err)

	assert.NotContains(t, doc.HTML, "NaN")
	assert.Contains(t, doc.HTML, "₹0.00")
	assert.Contains(t, doc.Defaults, Default{Field: "invoice_items[0].quantity", Value: "0"})
	assert.Contains(t, doc.Defaults, Default{Field: "invoice_items[0].line_total", Value: "0"})
}

func TestHTMLRenderer_TotalsMismatchKeepsStoredTotal(t *testing.T) {
	b := sampleBundle()
	b.Invoice.TotalAmount = money("999")

	doc, err := NewRenderer(Options{}).Render(b)
	require.NoError(t, err)
	assert.True(t, doc.TotalsMismatch)
	assert.Contains(t, doc.HTML, "₹999.00")
	assert.NotContains(t, doc.HTML, "₹1130.00")
}

func TestHTMLRenderer_Deterministic(t *testing.T) {
	r := NewRenderer(Options{Variant: VariantDetailed})
	first, err := r.Render(sampleBundle())
	require.NoError(t, err)
	second, err := r.Render(sampleBundle())
	require.NoError(t, err)

	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, first.Height, second.Height)
}

func TestHTMLRenderer_EscapesUserText(t *testing.T) {
	b := sampleBundle()
	b.Invoice.Notes = `<script>alert("x")</script>`
	b.Customer.Name = "Tom & Jerry"

	doc, err := NewRenderer(Options{}).Render(b)
	require.NoError(t, err)
	assert.NotContains(t, doc.HTML, "<script>")
	assert.Contains(t, doc.HTML, "Tom &amp; Jerry")
}

func TestHTMLRenderer_Variants(t *testing.T) {
	basic, err := NewRenderer(Options{Variant: VariantBasic}).Render(sampleBundle())
	require.NoError(t, err)
	assert.NotContains(t, basic.HTML, "Advisory (ADV-1)")
	assert.NotContains(t, basic.HTML, "per unit")
	assert.NotContains(t, basic.HTML, "Payment is due")

	standard, err := NewRenderer(Options{Variant: VariantStandard}).Render(sampleBundle())
	require.NoError(t, err)
	assert.Contains(t, standard.HTML, "Advisory (ADV-1)")
	assert.NotContains(t, standard.HTML, "per unit")

	detailed, err := NewRenderer(Options{Variant: VariantDetailed}).Render(sampleBundle())
	require.NoError(t, err)
	assert.Contains(t, detailed.HTML, "per unit")
	assert.Contains(t, detailed.HTML, "Payment is due by 06/04/2024.")

	b := sampleBundle()
	b.Invoice.DueDate = nil
	noDue, err := NewRenderer(Options{Variant: VariantDetailed}).Render(b)
	require.NoError(t, err)
	assert.Contains(t, noDue.HTML, "Payment is due upon receipt.")
	assert.Greater(t, detailed.Height, basic.Height)
}

func TestHTMLRenderer_CurrencySymbol(t *testing.T) {
	doc, err := NewRenderer(Options{CurrencySymbol: "$"}).Render(sampleBundle())
	require.NoError(t, err)
	assert.Contains(t, doc.HTML, "$1130.00")
	assert.False(t, strings.Contains(doc.HTML, "₹"))
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, VariantStandard, v)

	v, err = ParseVariant(" Detailed ")
	require.NoError(t, err)
	assert.Equal(t, VariantDetailed, v)

	_, err = ParseVariant("fancy")
	assert.Error(t, err)
	assert.Equal(t, Sections{ProductName: true}, Variant("fancy").Sections())
}

func TestStatusBadge(t *testing.T) {
	assert.Equal(t, Badge{Label: "Overdue", Tone: "red"}, StatusBadge(entity.InvoiceStatusOverdue))
	assert.Equal(t, Badge{Label: "Sent", Tone: "blue"}, StatusBadge(entity.InvoiceStatusSent))
	assert.Equal(t, Badge{Label: "Draft", Tone: "gray"}, StatusBadge(""))
	assert.Equal(t, Badge{Label: "Draft", Tone: "gray"}, StatusBadge("PAID"))
}

package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice. Values outside the
// known set are kept as-is and displayed as drafts.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// invoiceNumberPattern matches numbers issued by the invoice creation flow (INV-2024-0007)
var invoiceNumberPattern = regexp.MustCompile(`^INV-\d{4}-\d{4}$`)

// Invoice represents a billing document issued by a business to a customer
type Invoice struct {
	ID             string              `json:"id"`
	InvoiceNumber  string              `json:"invoice_number"`
	Status         InvoiceStatus       `json:"status"`
	InvoiceDate    string              `json:"invoice_date"`
	DueDate        *string             `json:"due_date,omitempty"`
	Subtotal       decimal.NullDecimal `json:"subtotal"`
	TaxAmount      decimal.NullDecimal `json:"tax_amount"`
	DiscountAmount decimal.NullDecimal `json:"discount_amount"`
	TotalAmount    decimal.NullDecimal `json:"total_amount"`
	Notes          string              `json:"notes"`
	UserID         string              `json:"user_id"`
	CustomerID     *string             `json:"customer_id,omitempty"`
	Items          []LineItem          `json:"invoice_items"`
	CreatedAt      time.Time           `json:"created_at"`
}

// LineItem represents one billable row of an invoice.
// Every numeric field is nullable because upstream records are not validated.
type LineItem struct {
	ID                 string              `json:"id"`
	InvoiceID          string              `json:"invoice_id"`
	Description        string              `json:"description"`
	ProductID          *string             `json:"product_id,omitempty"`
	ProductName        string              `json:"product_name,omitempty"`
	ProductSKU         string              `json:"product_sku,omitempty"`
	Quantity           *int64              `json:"quantity"`
	UnitPrice          decimal.NullDecimal `json:"unit_price"`
	DiscountPercentage decimal.NullDecimal `json:"discount_percentage"`
	LineTotal          decimal.NullDecimal `json:"line_total"`
}

// Customer is referenced (not owned) by invoices
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
}

// BusinessProfile holds the issuing business identity printed on invoices
type BusinessProfile struct {
	ID              string `json:"id"`
	BusinessName    string `json:"business_name"`
	BusinessAddress string `json:"business_address,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	GSTNumber       string `json:"gst_number,omitempty"`
	LogoURL         string `json:"logo_url,omitempty"`
}

// InvoiceBundle is everything needed to render one invoice.
// Customer and Profile are nil when the relation is missing.
type InvoiceBundle struct {
	Invoice  Invoice          `json:"invoice"`
	Customer *Customer        `json:"customer,omitempty"`
	Profile  *BusinessProfile `json:"business_profile,omitempty"`
}

// LineTotal returns quantity * unitPrice * (1 - discountPct/100) rounded to 2 places
func LineTotal(quantity int64, unitPrice, discountPct decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	factor := hundred.Sub(discountPct).Div(hundred)
	return decimal.NewFromInt(quantity).Mul(unitPrice).Mul(factor).Round(2)
}

// ComputedTotal applies the line-total formula to the item, treating missing values as zero
func (li LineItem) ComputedTotal() decimal.Decimal {
	var qty int64
	if li.Quantity != nil {
		qty = *li.Quantity
	}
	return LineTotal(qty, valueOrZero(li.UnitPrice), valueOrZero(li.DiscountPercentage))
}

// ComputedTotal returns subtotal + tax - discount
func (i Invoice) ComputedTotal() decimal.Decimal {
	return valueOrZero(i.Subtotal).Add(valueOrZero(i.TaxAmount)).Sub(valueOrZero(i.DiscountAmount))
}

// TotalsConsistent reports whether the stored total equals ComputedTotal.
// The stored total stays authoritative for display either way.
func (i Invoice) TotalsConsistent() bool {
	return valueOrZero(i.TotalAmount).Equal(i.ComputedTotal())
}

// HasStandardNumber reports whether the invoice number follows INV-{year}-{seq}
func (i Invoice) HasStandardNumber() bool {
	return invoiceNumberPattern.MatchString(i.InvoiceNumber)
}

// PDFFilename returns the download name for the invoice
func (i Invoice) PDFFilename() string {
	return i.exportName() + ".pdf"
}

// WorkbookFilename returns the spreadsheet export name for the invoice
func (i Invoice) WorkbookFilename() string {
	return i.exportName() + ".xlsx"
}

func (i Invoice) exportName() string {
	name := strings.TrimSpace(i.InvoiceNumber)
	if name == "" {
		return "invoice"
	}
	return strings.NewReplacer("/", "-", "\\", "-", "\x00", "").Replace(name)
}

func valueOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

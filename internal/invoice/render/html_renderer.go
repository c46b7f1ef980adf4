package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/billcraft/internal/domain/entity"
	"github.com/garyjia/billcraft/internal/format"
)

const (
	placeholderBusiness   = "Your Business"
	placeholderCustomer   = "No customer selected"
	placeholderNoName     = "Unnamed customer"
	placeholderAmountText = "0"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.InvoiceNumber}}</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    html, body { background: #ffffff; }
    body { font-family: "Helvetica Neue", Arial, sans-serif; color: #111827; }
    .page { width: {{.Width}}px; padding: 60px; background: #ffffff; }
    .header { display: flex; justify-content: space-between; align-items: flex-start; border-bottom: 3px solid #e5e7eb; padding-bottom: 20px; margin-bottom: 30px; }
    .business { flex: 1; }
    .business h2 { font-size: 28px; font-weight: bold; margin-bottom: 15px; }
    .business img { max-height: 56px; margin-bottom: 12px; display: block; }
    .business .details { color: #6b7280; font-size: 14px; line-height: 1.6; }
    .business .gst { margin-top: 10px; }
    .title { background: #f3f4f6; padding: 20px; border-radius: 8px; min-width: 200px; text-align: right; }
    .title h3 { font-size: 24px; font-weight: bold; margin-bottom: 10px; }
    .title .number { font-size: 18px; font-weight: 500; margin-bottom: 15px; color: #6b7280; }
    .badge { padding: 4px 12px; border-radius: 9999px; font-size: 12px; font-weight: 500; display: inline-block; }
    .badge-green { background: #dcfce7; color: #166534; }
    .badge-blue { background: #dbeafe; color: #1e40af; }
    .badge-red { background: #fee2e2; color: #991b1b; }
    .badge-gray { background: #f3f4f6; color: #4b5563; }
    .columns { display: grid; grid-template-columns: 1fr 1fr; gap: 40px; margin-bottom: 30px; }
    .card { background: #f9fafb; padding: 20px; border-radius: 8px; border: 1px solid #e5e7eb; }
    .card h4 { color: #6b7280; font-size: 12px; font-weight: bold; text-transform: uppercase; letter-spacing: 0.05em; margin-bottom: 15px; }
    .customer-name { font-weight: bold; font-size: 18px; margin-bottom: 5px; }
    .muted { color: #6b7280; font-size: 14px; }
    .placeholder { color: #9ca3af; }
    .meta-row { display: flex; justify-content: space-between; font-size: 14px; margin-bottom: 10px; }
    .meta-row .label { color: #6b7280; font-weight: 600; }
    .meta-row .value { font-weight: 500; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 40px; }
    thead tr { background: #1f2937; }
    th { color: #ffffff; font-size: 13px; text-transform: uppercase; letter-spacing: 0.05em; padding: 16px; text-align: left; }
    td { padding: 16px; font-size: 15px; border-bottom: 1px solid #e5e7eb; vertical-align: top; }
    tr.striped td { background: #f9fafb; }
    .center { text-align: center; }
    .right { text-align: right; }
    .qty { font-weight: 600; }
    .line-total { font-size: 16px; font-weight: bold; }
    .discounted { color: #dc2626; font-weight: 600; }
    .product { display: block; color: #6b7280; font-size: 12px; margin-top: 4px; }
    .per-unit { display: block; color: #9ca3af; font-size: 11px; }
    .summary-wrap { display: flex; justify-content: flex-end; margin-bottom: 40px; }
    .summary { width: 380px; background: #f9fafb; padding: 24px; border-radius: 12px; border: 2px solid #e5e7eb; }
    .summary-row { display: flex; justify-content: space-between; font-size: 16px; font-weight: 600; margin-bottom: 15px; padding-bottom: 10px; }
    .summary-row .label { color: #6b7280; }
    .summary-total { border-top: 2px solid #d1d5db; margin-top: 16px; padding-top: 16px; display: flex; justify-content: space-between; align-items: center; font-size: 22px; font-weight: bold; }
    .summary-total .amount { color: #059669; background: #d1fae5; padding: 8px 16px; border-radius: 8px; }
    .notes { background: #fef3c7; border: 2px solid #fbbf24; padding: 24px; border-radius: 12px; margin-bottom: 24px; }
    .notes h4 { color: #92400e; font-weight: bold; font-size: 14px; text-transform: uppercase; letter-spacing: 0.05em; margin-bottom: 15px; }
    .notes p { color: #78350f; font-size: 15px; line-height: 1.7; white-space: pre-line; }
    .terms { border: 1px solid #e5e7eb; padding: 20px; border-radius: 8px; margin-bottom: 24px; font-size: 14px; color: #374151; }
    .terms h4 { font-size: 12px; text-transform: uppercase; letter-spacing: 0.05em; color: #6b7280; margin-bottom: 8px; }
    .footer { text-align: center; padding-top: 30px; border-top: 3px solid #1f2937; margin-top: 30px; }
    .footer .thanks { font-size: 16px; font-weight: 600; margin-bottom: 8px; }
    .footer .contact { color: #6b7280; font-size: 13px; }
  </style>
</head>
<body>
  <div id="invoice-content" class="page">
    <div class="header">
      <div class="business">
        {{if .Business.LogoURL}}<img src="{{.Business.LogoURL}}" alt="" crossorigin="anonymous" />{{end}}
        <h2>{{.Business.Name}}</h2>
        <div class="details">
          {{range .Business.AddressLines}}<p>{{.}}</p>{{end}}
          {{if .Business.Phone}}<p>Phone: {{.Business.Phone}}</p>{{end}}
          {{if .Business.Email}}<p>Email: {{.Business.Email}}</p>{{end}}
          {{if .Business.GST}}<p class="gst"><strong>GST:</strong> {{.Business.GST}}</p>{{end}}
        </div>
      </div>
      <div class="title">
        <h3>INVOICE</h3>
        <p class="number">{{.InvoiceNumber}}</p>
        <span class="badge badge-{{.Badge.Tone}}">{{.Badge.Label}}</span>
      </div>
    </div>

    <div class="columns">
      <div class="card">
        <h4>Bill To:</h4>
        {{if .Customer.Present}}
        <p class="customer-name">{{.Customer.Name}}</p>
        {{if .Customer.Email}}<p class="muted">{{.Customer.Email}}</p>{{end}}
        {{if .Customer.Phone}}<p class="muted">{{.Customer.Phone}}</p>{{end}}
        {{range .Customer.AddressLines}}<p class="muted">{{.}}</p>{{end}}
        {{else}}
        <p class="placeholder">{{.Customer.Name}}</p>
        {{end}}
      </div>
      <div class="card">
        <div class="meta-row"><span class="label">Invoice Date:</span><span class="value">{{.InvoiceDate}}</span></div>
        {{if .DueDate}}<div class="meta-row"><span class="label">Due Date:</span><span class="value">{{.DueDate}}</span></div>{{end}}
      </div>
    </div>

    <table>
      <thead>
        <tr>
          <th>Description</th>
          <th class="center" style="width: 80px;">Qty</th>
          <th class="right" style="width: 120px;">Unit Price</th>
          <th class="center" style="width: 100px;">Discount</th>
          <th class="right" style="width: 130px;">Total</th>
        </tr>
      </thead>
      <tbody>
        {{range .Rows}}
        <tr{{if .Striped}} class="striped"{{end}}>
          <td>{{.Description}}{{if .Product}}<span class="product">{{.Product}}</span>{{end}}</td>
          <td class="center qty">{{.Quantity}}</td>
          <td class="right">{{.UnitPrice}}{{if $.Sections.PerUnit}}<span class="per-unit">per unit</span>{{end}}</td>
          <td class="center{{if .HasDiscount}} discounted{{end}}">{{.Discount}}</td>
          <td class="right line-total">{{.Total}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="summary-wrap">
      <div class="summary">
        <div class="summary-row"><span class="label">Subtotal:</span><span>{{.Subtotal}}</span></div>
        {{if .Tax}}<div class="summary-row"><span class="label">Tax:</span><span>{{.Tax}}</span></div>{{end}}
        {{if .Discount}}<div class="summary-row"><span class="label">Discount:</span><span class="discounted">{{.Discount}}</span></div>{{end}}
        <div class="summary-total"><span>Total:</span><span class="amount">{{.Total}}</span></div>
      </div>
    </div>

    {{if .Notes}}
    <div class="notes">
      <h4>Notes:</h4>
      <p>{{.Notes}}</p>
    </div>
    {{end}}

    {{if .PaymentTerms}}
    <div class="terms">
      <h4>Payment Terms</h4>
      <p>{{.PaymentTerms}}</p>
    </div>
    {{end}}

    <div class="footer">
      <p class="thanks">Thank you for your business!</p>
      <p class="contact">For any queries regarding this invoice, please contact us.</p>
    </div>
  </div>
</body>
</html>
`

// HTMLRenderer renders invoices with html/template. It is safe for concurrent use.
type HTMLRenderer struct {
	tpl      *template.Template
	money    format.Formatter
	sections Sections
}

// NewRenderer creates an HTMLRenderer for the given options
func NewRenderer(opts Options) Renderer {
	return &HTMLRenderer{
		tpl:      template.Must(template.New("invoice").Parse(invoiceHTMLTemplate)),
		money:    format.New(opts.CurrencySymbol),
		sections: opts.Variant.Sections(),
	}
}

type businessView struct {
	Name         string
	LogoURL      string
	AddressLines []string
	Phone        string
	Email        string
	GST          string
}

type customerView struct {
	Present      bool
	Name         string
	Email        string
	Phone        string
	AddressLines []string
}

type rowView struct {
	Description string
	Product     string
	Quantity    string
	UnitPrice   string
	Discount    string
	HasDiscount bool
	Total       string
	Striped     bool
}

type documentView struct {
	Width         int
	Sections      Sections
	InvoiceNumber string
	Badge         Badge
	Business      businessView
	Customer      customerView
	InvoiceDate   string
	DueDate       string
	Rows          []rowView
	Subtotal      string
	Tax           string
	Discount      string
	Total         string
	Notes         string
	PaymentTerms  string
}

// Render implements Renderer
func (r *HTMLRenderer) Render(bundle entity.InvoiceBundle) (*Document, error) {
	var defaults []Default
	note := func(field, value string) {
		defaults = append(defaults, Default{Field: field, Value: value})
	}

	view := r.buildView(bundle, note)

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute invoice template: %w", err)
	}

	return &Document{
		HTML:           buf.String(),
		Width:          CanonicalWidth,
		Height:         estimateHeight(view),
		InvoiceNumber:  bundle.Invoice.InvoiceNumber,
		Defaults:       defaults,
		TotalsMismatch: !bundle.Invoice.TotalsConsistent(),
	}, nil
}

func (r *HTMLRenderer) buildView(bundle entity.InvoiceBundle, note func(field, value string)) documentView {
	inv := bundle.Invoice

	view := documentView{
		Width:         CanonicalWidth,
		Sections:      r.sections,
		InvoiceNumber: inv.InvoiceNumber,
		Badge:         StatusBadge(inv.Status),
		Business:      businessFrom(bundle.Profile, note),
		Customer:      customerFrom(bundle.Customer, note),
		InvoiceDate:   format.Date(inv.InvoiceDate),
		DueDate:       format.DatePtr(inv.DueDate),
		Notes:         strings.TrimSpace(inv.Notes),
	}

	for i, item := range inv.Items {
		view.Rows = append(view.Rows, r.rowFrom(i, item, note))
	}

	view.Subtotal = r.money.Currency(r.amount(inv.Subtotal, "subtotal", note))
	if tax := r.amount(inv.TaxAmount, "tax_amount", note); tax.IsPositive() {
		view.Tax = r.money.Currency(tax)
	}
	if discount := r.amount(inv.DiscountAmount, "discount_amount", note); discount.IsPositive() {
		view.Discount = r.money.Discount(discount)
	}
	view.Total = r.money.Currency(r.amount(inv.TotalAmount, "total_amount", note))

	if r.sections.PaymentTerms {
		view.PaymentTerms = paymentTerms(view.DueDate)
	}
	return view
}

func (r *HTMLRenderer) rowFrom(i int, item entity.LineItem, note func(field, value string)) rowView {
	field := func(name string) string { return fmt.Sprintf("invoice_items[%d].%s", i, name) }

	if item.Quantity == nil {
		note(field("quantity"), placeholderAmountText)
	}
	unitPrice := r.amount(item.UnitPrice, field("unit_price"), note)
	discountPct := r.amount(item.DiscountPercentage, field("discount_percentage"), note)
	lineTotal := r.amount(item.LineTotal, field("line_total"), note)

	row := rowView{
		Description: item.Description,
		Quantity:    format.Quantity(item.Quantity),
		UnitPrice:   r.money.Currency(unitPrice),
		Discount:    "0%",
		Total:       r.money.Currency(lineTotal),
		Striped:     i%2 == 1,
	}
	if discountPct.IsPositive() {
		row.HasDiscount = true
		row.Discount = "-" + format.Percent(discountPct)
	}
	if r.sections.ProductName {
		row.Product = productLabel(item)
	}
	return row
}

func (r *HTMLRenderer) amount(d decimal.NullDecimal, field string, note func(field, value string)) decimal.Decimal {
	if !d.Valid {
		note(field, placeholderAmountText)
	}
	return format.Amount(d)
}

func businessFrom(p *entity.BusinessProfile, note func(field, value string)) businessView {
	if p == nil {
		note("business_profile", placeholderBusiness)
		return businessView{Name: placeholderBusiness}
	}
	name := strings.TrimSpace(p.BusinessName)
	if name == "" {
		note("business_profile.business_name", placeholderBusiness)
		name = placeholderBusiness
	}
	return businessView{
		Name:         name,
		LogoURL:      strings.TrimSpace(p.LogoURL),
		AddressLines: splitLines(p.BusinessAddress),
		Phone:        strings.TrimSpace(p.Phone),
		Email:        strings.TrimSpace(p.Email),
		GST:          strings.TrimSpace(p.GSTNumber),
	}
}

func customerFrom(c *entity.Customer, note func(field, value string)) customerView {
	if c == nil {
		note("customer", placeholderCustomer)
		return customerView{Name: placeholderCustomer}
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		note("customer.name", placeholderNoName)
		name = placeholderNoName
	}

	var lines []string
	lines = append(lines, splitLines(c.Address)...)
	if locality := joinNonEmpty(", ", c.City, c.State); locality != "" || c.ZipCode != "" {
		lines = append(lines, joinNonEmpty(" ", locality, strings.TrimSpace(c.ZipCode)))
	}

	return customerView{
		Present:      true,
		Name:         name,
		Email:        strings.TrimSpace(c.Email),
		Phone:        strings.TrimSpace(c.Phone),
		AddressLines: lines,
	}
}

func productLabel(item entity.LineItem) string {
	name := strings.TrimSpace(item.ProductName)
	sku := strings.TrimSpace(item.ProductSKU)
	switch {
	case name != "" && sku != "":
		return name + " (" + sku + ")"
	case name != "":
		return name
	case sku != "":
		return "SKU " + sku
	}
	return ""
}

func paymentTerms(dueDate string) string {
	if dueDate == "" {
		return "Payment is due upon receipt."
	}
	return "Payment is due by " + dueDate + "."
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// estimateHeight approximates the laid-out height of the document in CSS
// pixels. It is a sizing hint for the rasterizer viewport only.
func estimateHeight(v documentView) int {
	const (
		pagePadding = 120
		header      = 210
		columns     = 190
		tableHead   = 52
		rowBase     = 56
		productLine = 18
		summaryBase = 150
		summaryRow  = 40
		notesBase   = 90
		notesLine   = 26
		terms       = 100
		footer      = 120
	)

	h := pagePadding + header + columns + tableHead + footer
	h += 22 * (len(v.Business.AddressLines) + len(v.Customer.AddressLines))
	for _, row := range v.Rows {
		h += rowBase
		if row.Product != "" {
			h += productLine
		}
	}
	h += summaryBase
	if v.Tax != "" {
		h += summaryRow
	}
	if v.Discount != "" {
		h += summaryRow
	}
	if v.Notes != "" {
		h += notesBase + notesLine*(strings.Count(v.Notes, "\n")+1+len(v.Notes)/90)
	}
	if v.PaymentTerms != "" {
		h += terms
	}
	return h
}

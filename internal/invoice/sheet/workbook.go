// Package sheet exports invoices as XLSX workbooks.
package sheet

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/billcraft/internal/domain/entity"
	"github.com/garyjia/billcraft/internal/format"
	"github.com/garyjia/billcraft/internal/invoice/render"
)

// SheetName is the name of the single worksheet in an export
const SheetName = "Invoice"

// ContentType is the MIME type of an XLSX workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// itemsHeaderRow is where the line-item table starts
const itemsHeaderRow = 9

var itemsHeader = []interface{}{"Description", "Product", "Qty", "Unit Price", "Discount %", "Total"}

// Builder writes invoice bundles into workbooks
type Builder struct {
	symbol string
	logger *zap.Logger
}

// NewBuilder creates a Builder printing amounts with symbol
func NewBuilder(symbol string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{symbol: format.New(symbol).Symbol, logger: logger}
}

// Build returns the XLSX bytes for an invoice
func (b *Builder) Build(bundle entity.InvoiceBundle) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := b.newStyles(f)
	if err != nil {
		return nil, err
	}

	inv := bundle.Invoice
	badge := render.StatusBadge(inv.Status)

	b.setCell(f, "A1", businessName(bundle.Profile))
	b.setCell(f, "A2", "Invoice")
	b.setCell(f, "B2", inv.InvoiceNumber)
	b.setCell(f, "A3", "Status")
	b.setCell(f, "B3", badge.Label)
	b.setCell(f, "A4", "Invoice Date")
	b.setCell(f, "B4", format.Date(inv.InvoiceDate))
	b.setCell(f, "A5", "Due Date")
	b.setCell(f, "B5", format.DatePtr(inv.DueDate))
	b.setCell(f, "A6", "Bill To")
	b.setCell(f, "B6", customerName(bundle.Customer))
	if bundle.Profile != nil && bundle.Profile.GSTNumber != "" {
		b.setCell(f, "A7", "GST")
		b.setCell(f, "B7", bundle.Profile.GSTNumber)
	}
	b.setStyle(f, "A1", "A1", styles.title)
	b.setStyle(f, "A2", "A7", styles.label)

	headerCell, _ := excelize.CoordinatesToCellName(1, itemsHeaderRow)
	if err := f.SetSheetRow(SheetName, headerCell, &itemsHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	b.setStyle(f, "A9", "F9", styles.header)

	row := itemsHeaderRow + 1
	for _, item := range inv.Items {
		var qty int64
		if item.Quantity != nil {
			qty = *item.Quantity
		}
		values := []interface{}{
			item.Description,
			strings.TrimSpace(item.ProductName),
			qty,
			amount(item.UnitPrice),
			amount(item.DiscountPercentage),
			amount(item.LineTotal),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write line item: %w", err)
		}
		b.setStyle(f, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), styles.money)
		b.setStyle(f, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), styles.money)
		row++
	}

	row++
	summary := []struct {
		label string
		value decimal.NullDecimal
		show  bool
	}{
		{"Subtotal", inv.Subtotal, true},
		{"Tax", inv.TaxAmount, format.Amount(inv.TaxAmount).IsPositive()},
		{"Discount", negate(inv.DiscountAmount), format.Amount(inv.DiscountAmount).IsPositive()},
		{"Total", inv.TotalAmount, true},
	}
	for _, s := range summary {
		if !s.show {
			continue
		}
		b.setCell(f, fmt.Sprintf("E%d", row), s.label)
		b.setCell(f, fmt.Sprintf("F%d", row), amount(s.value))
		b.setStyle(f, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), styles.label)
		b.setStyle(f, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), styles.money)
		row++
	}

	if notes := strings.TrimSpace(inv.Notes); notes != "" {
		row++
		b.setCell(f, fmt.Sprintf("A%d", row), "Notes")
		b.setCell(f, fmt.Sprintf("B%d", row), notes)
		b.setStyle(f, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), styles.label)
	}

	if err := f.SetColWidth(SheetName, "A", "B", 28); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(SheetName, "C", "F", 14); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: inv.InvoiceNumber, Creator: "billcraft"}); err != nil {
		return nil, fmt.Errorf("failed to set properties: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	b.logger.Debug("Workbook built",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int("items", len(inv.Items)),
		zap.Int("size_bytes", buf.Len()))
	return buf.Bytes(), nil
}

type styleSet struct {
	title  int
	label  int
	header int
	money  int
}

func (b *Builder) newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	if s.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "#6B7280"}}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	if err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	moneyFmt := fmt.Sprintf(`"%s"0.00;-"%s"0.00`, b.symbol, b.symbol)
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return s, fmt.Errorf("failed to create style: %w", err)
	}
	return s, nil
}

func (b *Builder) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		b.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func (b *Builder) setStyle(f *excelize.File, from, to string, style int) {
	if err := f.SetCellStyle(SheetName, from, to, style); err != nil {
		b.logger.Warn("Failed to set cell style",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err))
	}
}

func amount(d decimal.NullDecimal) float64 {
	return format.Amount(d).Round(2).InexactFloat64()
}

func negate(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(d.Decimal.Abs().Neg())
}

func businessName(p *entity.BusinessProfile) string {
	if p == nil || strings.TrimSpace(p.BusinessName) == "" {
		return "Your Business"
	}
	return strings.TrimSpace(p.BusinessName)
}

func customerName(c *entity.Customer) string {
	if c == nil {
		return "No customer selected"
	}
	if strings.TrimSpace(c.Name) == "" {
		return "Unnamed customer"
	}
	return strings.TrimSpace(c.Name)
}

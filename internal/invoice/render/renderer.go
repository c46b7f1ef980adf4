// Package render builds the printable HTML document for an invoice.
//
// Rendering is pure: the same bundle and options always produce
// byte-identical markup. Missing data never fails a render; each field
// that had to be defaulted is reported in Document.Defaults.
package render

import (
	"fmt"
	"strings"

	"github.com/garyjia/billcraft/internal/domain/entity"
)

// CanonicalWidth is the fixed layout width of a document in CSS pixels
const CanonicalWidth = 800

// Variant selects which optional sub-blocks the document contains
type Variant string

const (
	// VariantBasic prints only the required blocks
	VariantBasic Variant = "basic"
	// VariantStandard adds the product name under each line description
	VariantStandard Variant = "standard"
	// VariantDetailed adds product names, "per unit" annotations and payment terms
	VariantDetailed Variant = "detailed"
)

// Sections toggles the optional sub-blocks of a document
type Sections struct {
	ProductName  bool
	PerUnit      bool
	PaymentTerms bool
}

// Sections returns the sub-blocks enabled by the variant.
// Unknown variants behave like VariantStandard.
func (v Variant) Sections() Sections {
	switch v {
	case VariantBasic:
		return Sections{}
	case VariantDetailed:
		return Sections{ProductName: true, PerUnit: true, PaymentTerms: true}
	default:
		return Sections{ProductName: true}
	}
}

// ParseVariant validates a configured variant name
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantBasic, VariantStandard, VariantDetailed:
		return v, nil
	case "":
		return VariantStandard, nil
	default:
		return "", fmt.Errorf("unknown document variant: %q", s)
	}
}

// Options configures a Renderer
type Options struct {
	Variant        Variant
	CurrencySymbol string
}

// Default records a field that was missing and replaced by a default value
type Default struct {
	Field string
	Value string
}

// Document is the rendered, not yet rasterized, invoice
type Document struct {
	HTML string
	// Width is the canonical layout width in CSS pixels
	Width int
	// Height is the estimated content height in CSS pixels.
	// The rasterizer measures the real height after layout.
	Height int
	// InvoiceNumber identifies the document in logs and filenames
	InvoiceNumber string
	Defaults      []Default
	// TotalsMismatch is set when the stored total differs from subtotal + tax - discount
	TotalsMismatch bool
}

// Renderer turns an invoice bundle into a Document
type Renderer interface {
	Render(bundle entity.InvoiceBundle) (*Document, error)
}

// Package fileinput reads invoice bundles from YAML or JSON files.
//
// Files carry loosely typed values: amounts may be numbers or strings,
// any field may be missing. Values are coerced into the typed bundle here
// so nothing downstream sees an untyped record.
package fileinput

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/billcraft/internal/domain/entity"
	"github.com/garyjia/billcraft/internal/format"
	"github.com/garyjia/billcraft/pkg/utils"
)

// ErrNoInvoice is returned when a file has no invoice section
var ErrNoInvoice = errors.New("bundle file has no invoice")

type record map[string]interface{}

// Load reads a bundle file from disk
func Load(path string) (*entity.InvoiceBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	bundle, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return bundle, nil
}

// Parse decodes a YAML or JSON bundle document.
//
// The invoice may sit under "invoice" or at the top level. The customer is
// read from "customer" or from the invoice's "customers" relation, the
// business profile from "business_profile".
func Parse(data []byte) (*entity.InvoiceBundle, error) {
	var doc record
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNoInvoice
	}

	invRec := asRecord(doc["invoice"])
	if invRec == nil {
		if _, ok := doc["invoice_number"]; !ok {
			return nil, ErrNoInvoice
		}
		invRec = doc
	}

	bundle := &entity.InvoiceBundle{Invoice: invoiceFrom(invRec)}

	customerRec := asRecord(doc["customer"])
	if customerRec == nil {
		customerRec = asRecord(invRec["customers"])
	}
	if customerRec != nil {
		bundle.Customer = customerFrom(customerRec)
	}
	if profileRec := asRecord(doc["business_profile"]); profileRec != nil {
		bundle.Profile = profileFrom(profileRec)
	}
	return bundle, nil
}

func invoiceFrom(r record) entity.Invoice {
	inv := entity.Invoice{
		ID:             r.str("id"),
		InvoiceNumber:  r.str("invoice_number"),
		Status:         entity.InvoiceStatus(r.str("status")),
		InvoiceDate:    r.str("invoice_date"),
		DueDate:        r.optStr("due_date"),
		Subtotal:       format.ParseNullAmount(r["subtotal"]),
		TaxAmount:      format.ParseNullAmount(r["tax_amount"]),
		DiscountAmount: format.ParseNullAmount(r["discount_amount"]),
		TotalAmount:    format.ParseNullAmount(r["total_amount"]),
		Notes:          r.str("notes"),
		UserID:         r.str("user_id"),
		CustomerID:     r.optStr("customer_id"),
	}
	if created := r.str("created_at"); created != "" {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			inv.CreatedAt = t
		}
	}
	if t, ok := r["created_at"].(time.Time); ok {
		inv.CreatedAt = t
	}

	items, _ := r["invoice_items"].([]interface{})
	if items == nil {
		items, _ = r["items"].([]interface{})
	}
	for _, raw := range items {
		if itemRec := asRecord(raw); itemRec != nil {
			inv.Items = append(inv.Items, lineItemFrom(itemRec))
		}
	}
	return inv
}

func lineItemFrom(r record) entity.LineItem {
	item := entity.LineItem{
		ID:                 r.str("id"),
		InvoiceID:          r.str("invoice_id"),
		Description:        r.str("description"),
		ProductID:          r.optStr("product_id"),
		ProductName:        r.str("product_name"),
		ProductSKU:         r.str("product_sku"),
		Quantity:           quantity(r["quantity"]),
		UnitPrice:          format.ParseNullAmount(r["unit_price"]),
		DiscountPercentage: format.ParseNullAmount(r["discount_percentage"]),
		LineTotal:          format.ParseNullAmount(r["line_total"]),
	}
	if product := asRecord(r["products"]); product != nil {
		if item.ProductName == "" {
			item.ProductName = product.str("name")
		}
		if item.ProductSKU == "" {
			item.ProductSKU = product.str("sku")
		}
	}
	if !item.LineTotal.Valid {
		item.LineTotal.Decimal = item.ComputedTotal()
		item.LineTotal.Valid = true
	}
	return item
}

func customerFrom(r record) *entity.Customer {
	return &entity.Customer{
		ID:      r.str("id"),
		Name:    r.str("name"),
		Email:   r.str("email"),
		Phone:   r.str("phone"),
		Address: r.str("address"),
		City:    r.str("city"),
		State:   r.str("state"),
		ZipCode: r.str("zip_code"),
	}
}

func profileFrom(r record) *entity.BusinessProfile {
	return &entity.BusinessProfile{
		ID:              r.str("id"),
		BusinessName:    r.str("business_name"),
		BusinessAddress: r.str("business_address"),
		Phone:           r.str("phone"),
		Email:           r.str("email"),
		GSTNumber:       r.str("gst_number"),
		LogoURL:         r.str("logo_url"),
	}
}

func asRecord(v interface{}) record {
	switch m := v.(type) {
	case map[string]interface{}:
		return record(m)
	case record:
		return m
	}
	return nil
}

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return utils.SanitizeString(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func (r record) optStr(key string) *string {
	s := strings.TrimSpace(r.str(key))
	if s == "" {
		return nil
	}
	return &s
}

// quantity accepts integers, integral floats and numeric strings
func quantity(v interface{}) *int64 {
	var n int64
	switch q := v.(type) {
	case int:
		n = int64(q)
	case int64:
		n = q
	case float64:
		if math.IsNaN(q) || math.IsInf(q, 0) || q != math.Trunc(q) {
			return nil
		}
		n = int64(q)
	case string:
		d := format.ParseNullAmount(q)
		if !d.Valid || !d.Decimal.IsInteger() {
			return nil
		}
		n = d.Decimal.IntPart()
	default:
		return nil
	}
	return &n
}

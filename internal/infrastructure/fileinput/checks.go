package fileinput

import (
	"fmt"
	"strings"

	"github.com/garyjia/billcraft/internal/domain/entity"
	"github.com/garyjia/billcraft/pkg/utils"
)

// Check reports problems in a bundle that do not stop rendering but are
// worth telling whoever wrote the file about.
func Check(bundle *entity.InvoiceBundle) []string {
	var warnings []string
	inv := bundle.Invoice

	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		warnings = append(warnings, "invoice has no invoice_number")
	} else if !inv.HasStandardNumber() {
		warnings = append(warnings, fmt.Sprintf("invoice number %q does not follow INV-YYYY-NNNN", inv.InvoiceNumber))
	}
	if !inv.TotalsConsistent() {
		warnings = append(warnings, fmt.Sprintf("total_amount %s differs from subtotal + tax - discount = %s",
			inv.TotalAmount.Decimal.StringFixed(2), inv.ComputedTotal().StringFixed(2)))
	}
	if len(inv.Items) == 0 {
		warnings = append(warnings, "invoice has no line items")
	}
	for i, item := range inv.Items {
		if item.Quantity == nil {
			warnings = append(warnings, fmt.Sprintf("invoice_items[%d] has no integral quantity", i))
		}
	}

	if bundle.Customer == nil {
		warnings = append(warnings, "no customer")
	} else if email := bundle.Customer.Email; email != "" {
		if err := utils.ValidateEmail(email); err != nil {
			warnings = append(warnings, "customer: "+err.Error())
		}
	}

	if bundle.Profile == nil {
		warnings = append(warnings, "no business_profile")
	} else {
		if email := bundle.Profile.Email; email != "" {
			if err := utils.ValidateEmail(email); err != nil {
				warnings = append(warnings, "business_profile: "+err.Error())
			}
		}
		if gst := bundle.Profile.GSTNumber; gst != "" {
			if err := utils.ValidateGSTIN(gst); err != nil {
				warnings = append(warnings, "business_profile: "+err.Error())
			}
		}
	}

	return warnings
}

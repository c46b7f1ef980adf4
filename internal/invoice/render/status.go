package render

import "github.com/garyjia/billcraft/internal/domain/entity"

// Badge is the visual treatment of an invoice status
type Badge struct {
	Label string
	Tone  string
}

var statusBadges = map[entity.InvoiceStatus]Badge{
	entity.InvoiceStatusPaid:      {Label: "Paid", Tone: "green"},
	entity.InvoiceStatusSent:      {Label: "Sent", Tone: "blue"},
	entity.InvoiceStatusOverdue:   {Label: "Overdue", Tone: "red"},
	entity.InvoiceStatusCancelled: {Label: "Cancelled", Tone: "gray"},
}

var draftBadge = Badge{Label: "Draft", Tone: "gray"}

// StatusBadge maps a status to its badge. Draft, empty and unrecognised
// statuses all get the gray Draft badge.
func StatusBadge(status entity.InvoiceStatus) Badge {
	if b, ok := statusBadges[status]; ok {
		return b
	}
	return draftBadge
}

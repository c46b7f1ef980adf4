package port

import (
	"context"
	"errors"

	"github.com/garyjia/billcraft/internal/domain/entity"
)

// ErrInvoiceNotFound is returned when an invoice does not exist or is not
// owned by the requesting business. The two cases are not distinguished.
var ErrInvoiceNotFound = errors.New("invoice not found")

// InvoiceSource loads the fully joined invoice record for one owner
type InvoiceSource interface {
	GetInvoiceBundle(ctx context.Context, ownerID, invoiceID string) (*entity.InvoiceBundle, error)
}

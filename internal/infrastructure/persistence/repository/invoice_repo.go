package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/billcraft/internal/application/port"
	"github.com/garyjia/billcraft/internal/domain/entity"
	"github.com/garyjia/billcraft/pkg/database"
)

// InvoiceRepository implements port.InvoiceSource over SQLite or PostgreSQL
type InvoiceRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *database.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

var _ port.InvoiceSource = (*InvoiceRepository)(nil)

// GetInvoiceBundle loads an invoice with its customer, line items and the
// owner's business profile. Invoices owned by someone else are reported as
// port.ErrInvoiceNotFound.
func (r *InvoiceRepository) GetInvoiceBundle(ctx context.Context, ownerID, invoiceID string) (*entity.InvoiceBundle, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(invoiceID) == "" {
		return nil, port.ErrInvoiceNotFound
	}
	if r.db.Driver() == database.DriverPostgres && !validUUIDs(ownerID, invoiceID) {
		return nil, port.ErrInvoiceNotFound
	}

	bundle, err := r.getInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}

	items, err := r.getItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	bundle.Invoice.Items = items

	profile, err := r.getProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	bundle.Profile = profile

	return bundle, nil
}

func (r *InvoiceRepository) getInvoice(ctx context.Context, ownerID, invoiceID string) (*entity.InvoiceBundle, error) {
	query := `
		SELECT i.id, i.invoice_number, i.status, i.invoice_date, i.due_date,
			i.subtotal, i.tax_amount, i.discount_amount, i.total_amount,
			i.notes, i.user_id, i.customer_id, i.created_at,
			c.id, c.name, c.email, c.phone, c.address, c.city, c.state, c.zip_code
		FROM invoices i
		LEFT JOIN customers c ON c.id = i.customer_id
		WHERE i.id = ? AND i.user_id = ?
	`

	var (
		inv                              entity.Invoice
		status, dueDate, notes, customer sql.NullString
		createdAt                        sql.NullTime
		cID, cName, cEmail, cPhone       sql.NullString
		cAddress, cCity, cState, cZip    sql.NullString
	)

	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), invoiceID, ownerID).Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&status,
		&inv.InvoiceDate,
		&dueDate,
		&inv.Subtotal,
		&inv.TaxAmount,
		&inv.DiscountAmount,
		&inv.TotalAmount,
		&notes,
		&inv.UserID,
		&customer,
		&createdAt,
		&cID, &cName, &cEmail, &cPhone, &cAddress, &cCity, &cState, &cZip,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrInvoiceNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get invoice", zap.String("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	inv.Status = entity.InvoiceStatus(status.String)
	inv.Notes = notes.String
	inv.DueDate = nullableString(dueDate)
	inv.CustomerID = nullableString(customer)
	if createdAt.Valid {
		inv.CreatedAt = createdAt.Time
	}

	bundle := &entity.InvoiceBundle{Invoice: inv}
	if cID.Valid {
		bundle.Customer = &entity.Customer{
			ID:      cID.String,
			Name:    cName.String,
			Email:   cEmail.String,
			Phone:   cPhone.String,
			Address: cAddress.String,
			City:    cCity.String,
			State:   cState.String,
			ZipCode: cZip.String,
		}
	}
	return bundle, nil
}

func (r *InvoiceRepository) getItems(ctx context.Context, invoiceID string) ([]entity.LineItem, error) {
	query := `
		SELECT it.id, it.invoice_id, it.description, it.product_id, p.name, p.sku,
			it.quantity, it.unit_price, it.discount_percentage, it.line_total
		FROM invoice_items it
		LEFT JOIN products p ON p.id = it.product_id
		WHERE it.invoice_id = ?
		ORDER BY it.position, it.id
	`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), invoiceID)
	if err != nil {
		r.logger.Error("Failed to get invoice items", zap.String("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice items: %w", err)
	}
	defer rows.Close()

	var items []entity.LineItem
	for rows.Next() {
		var (
			item                        entity.LineItem
			description, productID      sql.NullString
			productName, productSKU     sql.NullString
			quantity                    sql.NullInt64
			unitPrice, discount, totals decimal.NullDecimal
		)
		if err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&description,
			&productID,
			&productName,
			&productSKU,
			&quantity,
			&unitPrice,
			&discount,
			&totals,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}

		item.Description = description.String
		item.ProductID = nullableString(productID)
		item.ProductName = productName.String
		item.ProductSKU = productSKU.String
		if quantity.Valid {
			q := quantity.Int64
			item.Quantity = &q
		}
		item.UnitPrice = unitPrice
		item.DiscountPercentage = discount
		item.LineTotal = totals
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoice items: %w", err)
	}
	return items, nil
}

func (r *InvoiceRepository) getProfile(ctx context.Context, ownerID string) (*entity.BusinessProfile, error) {
	query := `
		SELECT id, business_name, business_address, phone, email, gst_number, logo_url
		FROM business_profiles
		WHERE id = ?
	`

	var (
		p                                      entity.BusinessProfile
		name, address, phone, email, gst, logo sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), ownerID).Scan(
		&p.ID, &name, &address, &phone, &email, &gst, &logo,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get business profile", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to get business profile: %w", err)
	}

	p.BusinessName = name.String
	p.BusinessAddress = address.String
	p.Phone = phone.String
	p.Email = email.String
	p.GSTNumber = gst.String
	p.LogoURL = logo.String
	return &p, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func validUUIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}

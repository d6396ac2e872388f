package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stagebill/stagebill-server/internal/models"
)

func (r *PostgresRepository) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	query := `SELECT * FROM organizations WHERE id = $1`

	var org models.Organization
	err := r.db.GetContext(ctx, &org, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &org, nil
}

func (r *PostgresRepository) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, invoice_prefix = $3, default_rate = $4, monthly_retainer = $5,
		    payment_terms = $6, contact_name = $7, contact_email = $8, contact_phone = $9,
		    timezone = $10, updated_at = $11
		WHERE id = $1
	`

	org.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		org.ID, org.Name, org.InvoicePrefix, org.DefaultRate, org.MonthlyRetainer,
		org.PaymentTerms, org.ContactName, org.ContactEmail, org.ContactPhone,
		org.Timezone, org.UpdatedAt)

	return err
}

// allocateInvoiceNumber reserves the organization's current counter
// value and increments it in one statement, so two concurrent invoice
// creations can never receive the same number.
func allocateInvoiceNumber(ctx context.Context, tx *sql.Tx, orgID string) (int64, error) {
	var allocated int64
	err := tx.QueryRowContext(ctx,
		`UPDATE organizations
		SET next_invoice_number = next_invoice_number + 1
		WHERE id = $1
		RETURNING next_invoice_number - 1`,
		orgID).Scan(&allocated)
	return allocated, err
}

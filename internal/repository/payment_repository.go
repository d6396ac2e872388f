package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/stagebill/stagebill-server/internal/models"
)

// RecordPayment appends a payment attempt keyed by the processor's
// unique payment id and, for successful payments, credits the invoice
// in the same transaction. A replayed webhook hits the conflict arm,
// inserts nothing, and leaves the invoice amounts untouched; the
// method reports whether this delivery was the first.
func (r *PostgresRepository) RecordPayment(ctx context.Context, p *models.Payment) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, invoice_id, organization_id, processor_payment_id, amount, method, status, receipt_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (processor_payment_id) DO NOTHING
	`,
		p.ID, p.InvoiceID, p.OrganizationID, p.ProcessorPaymentID,
		p.Amount, p.Method, p.Status, p.ReceiptURL, p.CreatedAt)
	if err != nil {
		return false, err
	}

	var rows int64
	rows, err = res.RowsAffected()
	if err != nil {
		return false, err
	}

	if rows == 0 {
		// duplicate delivery, nothing to reconcile
		tx.Rollback()
		return false, nil
	}

	if p.Status == models.PaymentSucceeded {
		// amountDue clamps at zero and the invoice flips to paid
		// exactly when it gets there
		_, err = tx.ExecContext(ctx, `
			UPDATE invoices
			SET amount_paid = amount_paid + $3,
			    amount_due = GREATEST(total - (amount_paid + $3), 0),
			    status = CASE WHEN total - (amount_paid + $3) <= 0 THEN 'paid' ELSE status END,
			    updated_at = $4
			WHERE id = $1 AND organization_id = $2
		`,
			p.InvoiceID, p.OrganizationID, p.Amount, time.Now().UTC())
		if err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

func (r *PostgresRepository) ListPayments(ctx context.Context, invoiceID, orgID string) ([]models.Payment, error) {
	query := `
		SELECT * FROM payments
		WHERE invoice_id = $1 AND organization_id = $2
		ORDER BY created_at ASC
	`

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, invoiceID, orgID); err != nil {
		return nil, err
	}

	return payments, nil
}

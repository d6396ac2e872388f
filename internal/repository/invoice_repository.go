package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
)

func insertLineItems(ctx context.Context, tx *sql.Tx, invoiceID string, items []models.InvoiceLineItem) error {
	for i := range items {
		it := &items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.InvoiceID = invoiceID

		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_line_items (id, invoice_id, work_order_id, description,
				quantity, unit_price, amount, is_retainer, is_custom, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			it.ID, it.InvoiceID, it.WorkOrderID, it.Description,
			it.Quantity, it.UnitPrice, it.Amount, it.IsRetainer, it.IsCustom, it.SortOrder)
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateInvoice allocates the next invoice number from the
// organization's counter, persists the invoice with its line items,
// and stamps the referenced work orders invoiced, all in one
// transaction. Number allocation rides the organization-row update,
// so concurrent creations serialize there and never share a number.
func (r *PostgresRepository) CreateInvoice(ctx context.Context, inv *models.Invoice, workOrderIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	var counter int64
	counter, err = allocateInvoiceNumber(ctx, tx, inv.OrganizationID)
	if err != nil {
		return err
	}

	var prefix string
	if err = tx.QueryRowContext(ctx,
		`SELECT invoice_prefix FROM organizations WHERE id = $1`, inv.OrganizationID).Scan(&prefix); err != nil {
		return err
	}
	inv.Number = domain.FormatInvoiceNumber(prefix, counter)

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	inv.Status = models.InvoiceDraft

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (id, organization_id, number, invoice_date, period_start, period_end,
			due_date, status, discount_type, discount_value, subtotal, discount_amount, total,
			amount_paid, amount_due, view_token, view_token_expires_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`,
		inv.ID, inv.OrganizationID, inv.Number, inv.InvoiceDate, inv.PeriodStart, inv.PeriodEnd,
		inv.DueDate, inv.Status, inv.DiscountType, inv.DiscountValue, inv.Subtotal, inv.DiscountAmount,
		inv.Total, inv.AmountPaid, inv.AmountDue, inv.ViewToken, inv.ViewTokenExpiresAt,
		inv.Notes, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return err
	}

	if err = insertLineItems(ctx, tx, inv.ID, inv.LineItems); err != nil {
		return err
	}

	if len(workOrderIDs) > 0 {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE work_orders SET status = $1, invoice_id = $2, updated_at = $3
			WHERE id = ANY($4) AND organization_id = $5 AND status = $6
		`,
			models.WorkOrderInvoiced, inv.ID, now,
			pq.Array(workOrderIDs), inv.OrganizationID, models.WorkOrderCompleted)
		if err != nil {
			return err
		}

		var rows int64
		rows, err = res.RowsAffected()
		if err != nil {
			return err
		}

		if rows != int64(len(workOrderIDs)) {
			err = fmt.Errorf("%w: a referenced work order is not completed", domain.ErrStateConflict)
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) loadLineItems(ctx context.Context, inv *models.Invoice) error {
	query := `SELECT * FROM invoice_line_items WHERE invoice_id = $1 ORDER BY sort_order ASC`
	return r.db.SelectContext(ctx, &inv.LineItems, query, inv.ID)
}

func (r *PostgresRepository) GetInvoice(ctx context.Context, id, orgID string) (*models.Invoice, error) {
	query := `SELECT * FROM invoices WHERE id = $1 AND organization_id = $2`

	var inv models.Invoice
	err := r.db.GetContext(ctx, &inv, query, id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.loadLineItems(ctx, &inv); err != nil {
		return nil, err
	}

	return &inv, nil
}

func (r *PostgresRepository) FindInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	query := `SELECT * FROM invoices WHERE id = $1`

	var inv models.Invoice
	err := r.db.GetContext(ctx, &inv, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.loadLineItems(ctx, &inv); err != nil {
		return nil, err
	}

	return &inv, nil
}

func (r *PostgresRepository) GetInvoiceByViewToken(ctx context.Context, token string) (*models.Invoice, error) {
	query := `SELECT * FROM invoices WHERE view_token = $1`

	var inv models.Invoice
	err := r.db.GetContext(ctx, &inv, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.loadLineItems(ctx, &inv); err != nil {
		return nil, err
	}

	return &inv, nil
}

func (r *PostgresRepository) ListInvoices(ctx context.Context, orgID string, status *models.InvoiceStatus) ([]models.Invoice, error) {
	query := `SELECT * FROM invoices WHERE organization_id = $1`
	args := []interface{}{orgID}

	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}

	query += ` ORDER BY invoice_date DESC, number DESC`

	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, err
	}

	return invoices, nil
}

// ReplaceInvoiceLines fully replaces a draft invoice's line items and
// recomputed money fields. The draft predicate enforces the edit
// guard at the storage level.
func (r *PostgresRepository) ReplaceInvoiceLines(ctx context.Context, inv *models.Invoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	inv.UpdatedAt = time.Now().UTC()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `
		UPDATE invoices
		SET invoice_date = $3, due_date = $4, discount_type = $5, discount_value = $6,
		    subtotal = $7, discount_amount = $8, total = $9, amount_due = $10, notes = $11, updated_at = $12
		WHERE id = $1 AND organization_id = $2 AND status = 'draft'
	`,
		inv.ID, inv.OrganizationID, inv.InvoiceDate, inv.DueDate, inv.DiscountType, inv.DiscountValue,
		inv.Subtotal, inv.DiscountAmount, inv.Total, inv.AmountDue, inv.Notes, inv.UpdatedAt)
	if err != nil {
		return err
	}

	var rows int64
	rows, err = res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		err = fmt.Errorf("%w: only draft invoices can be edited", domain.ErrStateConflict)
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = $1`, inv.ID); err != nil {
		return err
	}

	if err = insertLineItems(ctx, tx, inv.ID, inv.LineItems); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateInvoiceStatus moves an invoice from one exact status to
// another (draft → sent on send; the sweep and reconciliation have
// their own statements).
func (r *PostgresRepository) UpdateInvoiceStatus(ctx context.Context, id, orgID string, from, to models.InvoiceStatus) (bool, error) {
	query := `
		UPDATE invoices SET status = $4, updated_at = $5
		WHERE id = $1 AND organization_id = $2 AND status = $3
	`

	res, err := r.db.ExecContext(ctx, query, id, orgID, from, to, time.Now().UTC())
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

// DeleteInvoice removes a draft invoice and reverts any attached work
// orders from invoiced back to completed.
func (r *PostgresRepository) DeleteInvoice(ctx context.Context, id, orgID string) (bool, error) {
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

	_, err = tx.ExecContext(ctx, `
		UPDATE work_orders SET status = $1, invoice_id = NULL, updated_at = $2
		WHERE invoice_id = $3 AND organization_id = $4 AND status = $5
	`,
		models.WorkOrderCompleted, time.Now().UTC(), id, orgID, models.WorkOrderInvoiced)
	if err != nil {
		return false, err
	}

	for _, q := range []string{
		`DELETE FROM invoice_line_items WHERE invoice_id = $1`,
		`DELETE FROM invoice_comments WHERE invoice_id = $1`,
	} {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return false, err
		}
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`DELETE FROM invoices WHERE id = $1 AND organization_id = $2 AND status = 'draft'`,
		id, orgID)
	if err != nil {
		return false, err
	}

	var rows int64
	rows, err = res.RowsAffected()
	if err != nil {
		return false, err
	}

	if rows == 0 {
		tx.Rollback()
		return false, nil
	}

	return true, tx.Commit()
}

// MarkInvoicesPastDue flips sent invoices whose due date has passed.
// Run by the scheduled sweep; safe to run redundantly.
func (r *PostgresRepository) MarkInvoicesPastDue(ctx context.Context, asOf time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET status = $1, updated_at = $2
		WHERE status = $3 AND due_date IS NOT NULL AND due_date < $4
	`,
		models.InvoicePastDue, time.Now().UTC(), models.InvoiceSent, asOf)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

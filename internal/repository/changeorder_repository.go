package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stagebill/stagebill-server/internal/models"
)

// CreateChangeOrder persists the change order and its approval token
// together, so a change order can never exist without a way to sign
// it.
func (r *PostgresRepository) CreateChangeOrder(ctx context.Context, co *models.ChangeOrder, tok *models.ApprovalToken) error {
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

	if co.ID == "" {
		co.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	co.CreatedAt = now
	co.UpdatedAt = now
	co.IsApproved = false

	_, err = tx.ExecContext(ctx, `
		INSERT INTO change_orders (id, work_order_id, organization_id, additional_hours,
			reason_code, reason_text, notes, is_approved, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		co.ID, co.WorkOrderID, co.OrganizationID, co.AdditionalHours,
		co.ReasonCode, co.ReasonText, co.Notes, co.IsApproved, co.CreatedBy, co.CreatedAt, co.UpdatedAt)
	if err != nil {
		return err
	}

	tok.ChangeOrderID = &co.ID
	tok.WorkOrderID = co.WorkOrderID
	tok.OrganizationID = co.OrganizationID
	tok.CreatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO approval_tokens (token, organization_id, work_order_id, change_order_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		tok.Token, tok.OrganizationID, tok.WorkOrderID, tok.ChangeOrderID, tok.ExpiresAt, tok.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetChangeOrder(ctx context.Context, id, orgID string) (*models.ChangeOrder, error) {
	query := `SELECT * FROM change_orders WHERE id = $1 AND organization_id = $2`

	var co models.ChangeOrder
	err := r.db.GetContext(ctx, &co, query, id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &co, nil
}

func (r *PostgresRepository) ListChangeOrders(ctx context.Context, workOrderID, orgID string) ([]models.ChangeOrder, error) {
	query := `
		SELECT * FROM change_orders
		WHERE work_order_id = $1 AND organization_id = $2
		ORDER BY created_at ASC
	`

	var orders []models.ChangeOrder
	if err := r.db.SelectContext(ctx, &orders, query, workOrderID, orgID); err != nil {
		return nil, err
	}

	return orders, nil
}

// DeleteChangeOrder removes an unapproved change order along with its
// outstanding approval token, so old signing links stop working.
func (r *PostgresRepository) DeleteChangeOrder(ctx context.Context, id, orgID string) (bool, error) {
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

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM approval_tokens WHERE change_order_id = $1 AND organization_id = $2`,
		id, orgID); err != nil {
		return false, err
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`DELETE FROM change_orders WHERE id = $1 AND organization_id = $2 AND is_approved = FALSE`,
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

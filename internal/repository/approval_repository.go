package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
)

func (r *PostgresRepository) CreateApprovalToken(ctx context.Context, tok *models.ApprovalToken) error {
	query := `
		INSERT INTO approval_tokens (token, organization_id, work_order_id, change_order_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	tok.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		tok.Token, tok.OrganizationID, tok.WorkOrderID, tok.ChangeOrderID, tok.ExpiresAt, tok.CreatedAt)

	return err
}

func (r *PostgresRepository) GetApprovalToken(ctx context.Context, token string) (*models.ApprovalToken, error) {
	query := `SELECT * FROM approval_tokens WHERE token = $1`

	var tok models.ApprovalToken
	err := r.db.GetContext(ctx, &tok, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &tok, nil
}

// GetTokenForWorkOrder finds the outstanding work-order-level signing
// token, if any. Used by bulk signing to redeem each order's own
// token with the shared signature.
func (r *PostgresRepository) GetTokenForWorkOrder(ctx context.Context, workOrderID string) (*models.ApprovalToken, error) {
	query := `SELECT * FROM approval_tokens WHERE work_order_id = $1 AND change_order_id IS NULL AND used_at IS NULL`

	var tok models.ApprovalToken
	err := r.db.GetContext(ctx, &tok, query, workOrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &tok, nil
}

// DeleteWorkOrderToken invalidates the outstanding work-order signing
// link when staff cancel a sign-off request. Change-order tokens are
// left alone.
func (r *PostgresRepository) DeleteWorkOrderToken(ctx context.Context, workOrderID string) error {
	query := `DELETE FROM approval_tokens WHERE work_order_id = $1 AND change_order_id IS NULL`

	_, err := r.db.ExecContext(ctx, query, workOrderID)
	return err
}

// consumeToken marks the token used if and only if it has not been
// used yet. Two concurrent redemptions of the same token get exactly
// one success; the loser sees ErrTokenUsed.
func consumeToken(ctx context.Context, tx *sql.Tx, token string, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE approval_tokens SET used_at = $2 WHERE token = $1 AND used_at IS NULL`,
		token, at)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return domain.ErrTokenUsed
	}

	return nil
}

func insertApproval(ctx context.Context, tx *sql.Tx, a *models.Approval) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := tx.ExecContext(ctx, `
		INSERT INTO approvals (id, organization_id, work_order_id, change_order_id, is_change_order,
			signer_user_id, signer_name, signer_title, signature_url, signed_at, device_info, content_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		a.ID, a.OrganizationID, a.WorkOrderID, a.ChangeOrderID, a.IsChangeOrder,
		a.SignerUserID, a.SignerName, a.SignerTitle, a.SignatureURL, a.SignedAt,
		a.DeviceInfo, a.ContentHash, a.CreatedAt)

	return err
}

// RedeemWorkOrderToken performs the approval redemption as one
// transaction: consume the token, record the approval, and move the
// work order to approved. Either all three happen or none do.
func (r *PostgresRepository) RedeemWorkOrderToken(ctx context.Context, token string, approval *models.Approval) error {
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

	if err = consumeToken(ctx, tx, token, approval.SignedAt); err != nil {
		return err
	}

	if err = insertApproval(ctx, tx, approval); err != nil {
		return err
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `
		UPDATE work_orders SET status = $3, updated_at = $4
		WHERE id = $1 AND organization_id = $2 AND status = $5
	`,
		approval.WorkOrderID, approval.OrganizationID,
		models.WorkOrderApproved, time.Now().UTC(), models.WorkOrderPendingApproval)
	if err != nil {
		return err
	}

	var rows int64
	rows, err = res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		err = fmt.Errorf("%w: work order is no longer pending approval", domain.ErrStateConflict)
		return err
	}

	return tx.Commit()
}

// RedeemChangeOrderToken is the change-order variant: consume the
// token, record the approval, and flip the change order to approved
// with a link back to the approval record.
func (r *PostgresRepository) RedeemChangeOrderToken(ctx context.Context, token string, approval *models.Approval, changeOrderID string) error {
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

	if err = consumeToken(ctx, tx, token, approval.SignedAt); err != nil {
		return err
	}

	if err = insertApproval(ctx, tx, approval); err != nil {
		return err
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `
		UPDATE change_orders SET is_approved = TRUE, approval_id = $3, updated_at = $4
		WHERE id = $1 AND organization_id = $2 AND is_approved = FALSE
	`,
		changeOrderID, approval.OrganizationID, approval.ID, time.Now().UTC())
	if err != nil {
		return err
	}

	var rows int64
	rows, err = res.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		err = fmt.Errorf("%w: change order already approved", domain.ErrStateConflict)
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) ListApprovals(ctx context.Context, workOrderID, orgID string) ([]models.Approval, error) {
	query := `
		SELECT * FROM approvals
		WHERE work_order_id = $1 AND organization_id = $2
		ORDER BY signed_at ASC
	`

	var approvals []models.Approval
	if err := r.db.SelectContext(ctx, &approvals, query, workOrderID, orgID); err != nil {
		return nil, err
	}

	return approvals, nil
}

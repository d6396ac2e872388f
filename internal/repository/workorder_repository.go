package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stagebill/stagebill-server/internal/models"
)

func (r *PostgresRepository) CreateWorkOrder(ctx context.Context, wo *models.WorkOrder) error {
	query := `
		INSERT INTO work_orders (
			id, organization_id, series_id, event_name, event_date, venue, event_type,
			requester_id, approver_id, estimate_type, hours_min, hours_max, hours_fixed,
			rate_snapshot, actual_hours, service_refs, scope_notes, notes, internal_notes,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	if wo.ID == "" {
		wo.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	wo.CreatedAt = now
	wo.UpdatedAt = now
	wo.Status = models.WorkOrderDraft

	_, err := r.db.ExecContext(ctx, query,
		wo.ID, wo.OrganizationID, wo.SeriesID, wo.EventName, wo.EventDate, wo.Venue, wo.EventType,
		wo.RequesterID, wo.ApproverID, wo.EstimateType, wo.HoursMin, wo.HoursMax, wo.HoursFixed,
		wo.RateSnapshot, wo.ActualHours, wo.ServiceRefs, wo.ScopeNotes, wo.Notes, wo.InternalNotes,
		wo.Status, wo.CreatedAt, wo.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetWorkOrder(ctx context.Context, id, orgID string) (*models.WorkOrder, error) {
	query := `SELECT * FROM work_orders WHERE id = $1 AND organization_id = $2`

	var wo models.WorkOrder
	err := r.db.GetContext(ctx, &wo, query, id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &wo, nil
}

func (r *PostgresRepository) ListWorkOrders(ctx context.Context, orgID string, statuses []models.WorkOrderStatus) ([]models.WorkOrder, error) {
	query := `SELECT * FROM work_orders WHERE organization_id = $1`
	args := []interface{}{orgID}

	if len(statuses) > 0 {
		strs := make([]string, len(statuses))
		for i, s := range statuses {
			strs[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(strs))
	}

	query += ` ORDER BY event_date DESC, created_at DESC`

	var orders []models.WorkOrder
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *PostgresRepository) UpdateWorkOrderFields(ctx context.Context, wo *models.WorkOrder) error {
	query := `
		UPDATE work_orders
		SET event_name = $3, event_date = $4, venue = $5, event_type = $6, approver_id = $7,
		    estimate_type = $8, hours_min = $9, hours_max = $10, hours_fixed = $11,
		    service_refs = $12, scope_notes = $13, notes = $14, updated_at = $15
		WHERE id = $1 AND organization_id = $2
	`

	wo.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		wo.ID, wo.OrganizationID, wo.EventName, wo.EventDate, wo.Venue, wo.EventType, wo.ApproverID,
		wo.EstimateType, wo.HoursMin, wo.HoursMax, wo.HoursFixed,
		wo.ServiceRefs, wo.ScopeNotes, wo.Notes, wo.UpdatedAt)

	return err
}

// UpdateWorkOrderStatus moves a work order from one exact status to
// another. The status predicate makes the transition a conditional
// update, so concurrent actions cannot both succeed.
func (r *PostgresRepository) UpdateWorkOrderStatus(ctx context.Context, id, orgID string, from, to models.WorkOrderStatus) (bool, error) {
	query := `
		UPDATE work_orders
		SET status = $4, updated_at = $5
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

func (r *PostgresRepository) UpdateWorkOrderNotes(ctx context.Context, id, orgID, notes string) error {
	query := `UPDATE work_orders SET notes = $3, updated_at = $4 WHERE id = $1 AND organization_id = $2`

	_, err := r.db.ExecContext(ctx, query, id, orgID, notes, time.Now().UTC())
	return err
}

func (r *PostgresRepository) UpdateWorkOrderInternalNotes(ctx context.Context, id, orgID, internalNotes string) error {
	query := `UPDATE work_orders SET internal_notes = $3, updated_at = $4 WHERE id = $1 AND organization_id = $2`

	_, err := r.db.ExecContext(ctx, query, id, orgID, internalNotes, time.Now().UTC())
	return err
}

// DeleteWorkOrder removes a draft work order and its dependents. The
// draft predicate keeps the delete guard enforced at the storage
// level as well.
func (r *PostgresRepository) DeleteWorkOrder(ctx context.Context, id, orgID string) (bool, error) {
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

	for _, q := range []string{
		`DELETE FROM time_logs WHERE work_order_id = $1 AND organization_id = $2`,
		`DELETE FROM incident_reports WHERE work_order_id = $1 AND organization_id = $2`,
		`DELETE FROM approval_tokens WHERE work_order_id = $1 AND organization_id = $2`,
	} {
		if _, err = tx.ExecContext(ctx, q, id, orgID); err != nil {
			return false, err
		}
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`DELETE FROM work_orders WHERE id = $1 AND organization_id = $2 AND status = $3`,
		id, orgID, models.WorkOrderDraft)
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

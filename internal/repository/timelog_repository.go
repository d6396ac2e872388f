package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stagebill/stagebill-server/internal/models"
)

// recomputeActualHours refreshes the parent work order's denormalized
// actual_hours inside the same transaction as the triggering time-log
// write, so the derived value can never drift from its source rows.
func recomputeActualHours(ctx context.Context, tx *sql.Tx, workOrderID, orgID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE work_orders
		SET actual_hours = COALESCE((SELECT SUM(hours) FROM time_logs WHERE work_order_id = $1), 0),
		    updated_at = $3
		WHERE id = $1 AND organization_id = $2
	`, workOrderID, orgID, time.Now().UTC())
	return err
}

func (r *PostgresRepository) CreateTimeLog(ctx context.Context, tl *models.TimeLog) error {
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

	if tl.ID == "" {
		tl.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	tl.CreatedAt = now
	tl.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO time_logs (id, work_order_id, organization_id, log_date, category, hours,
			started_at, ended_at, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		tl.ID, tl.WorkOrderID, tl.OrganizationID, tl.LogDate, tl.Category, tl.Hours,
		tl.StartedAt, tl.EndedAt, tl.Notes, tl.CreatedBy, tl.CreatedAt, tl.UpdatedAt)
	if err != nil {
		return err
	}

	if err = recomputeActualHours(ctx, tx, tl.WorkOrderID, tl.OrganizationID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetTimeLog(ctx context.Context, id, orgID string) (*models.TimeLog, error) {
	query := `SELECT * FROM time_logs WHERE id = $1 AND organization_id = $2`

	var tl models.TimeLog
	err := r.db.GetContext(ctx, &tl, query, id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &tl, nil
}

func (r *PostgresRepository) ListTimeLogs(ctx context.Context, workOrderID, orgID string) ([]models.TimeLog, error) {
	query := `
		SELECT * FROM time_logs
		WHERE work_order_id = $1 AND organization_id = $2
		ORDER BY log_date ASC, created_at ASC
	`

	var logs []models.TimeLog
	if err := r.db.SelectContext(ctx, &logs, query, workOrderID, orgID); err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *PostgresRepository) UpdateTimeLog(ctx context.Context, tl *models.TimeLog) error {
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

	tl.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE time_logs
		SET log_date = $3, category = $4, hours = $5, started_at = $6, ended_at = $7, notes = $8, updated_at = $9
		WHERE id = $1 AND organization_id = $2
	`,
		tl.ID, tl.OrganizationID, tl.LogDate, tl.Category, tl.Hours,
		tl.StartedAt, tl.EndedAt, tl.Notes, tl.UpdatedAt)
	if err != nil {
		return err
	}

	if err = recomputeActualHours(ctx, tx, tl.WorkOrderID, tl.OrganizationID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) DeleteTimeLog(ctx context.Context, id, orgID string) error {
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

	var workOrderID string
	err = tx.QueryRowContext(ctx,
		`DELETE FROM time_logs WHERE id = $1 AND organization_id = $2 RETURNING work_order_id`,
		id, orgID).Scan(&workOrderID)
	if err != nil {
		return err
	}

	if err = recomputeActualHours(ctx, tx, workOrderID, orgID); err != nil {
		return err
	}

	return tx.Commit()
}

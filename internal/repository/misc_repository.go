package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stagebill/stagebill-server/internal/models"
)

// Series

func (r *PostgresRepository) CreateSeries(ctx context.Context, s *models.Series) error {
	query := `
		INSERT INTO series (id, organization_id, name, venue, event_type, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OrganizationID, s.Name, s.Venue, s.EventType, s.Notes, s.CreatedAt)

	return err
}

func (r *PostgresRepository) GetSeries(ctx context.Context, id, orgID string) (*models.Series, error) {
	query := `SELECT * FROM series WHERE id = $1 AND organization_id = $2`

	var s models.Series
	err := r.db.GetContext(ctx, &s, query, id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &s, nil
}

func (r *PostgresRepository) ListSeries(ctx context.Context, orgID string) ([]models.Series, error) {
	query := `SELECT * FROM series WHERE organization_id = $1 ORDER BY name ASC`

	var series []models.Series
	if err := r.db.SelectContext(ctx, &series, query, orgID); err != nil {
		return nil, err
	}

	return series, nil
}

// Incident reports

func (r *PostgresRepository) CreateIncidentReport(ctx context.Context, rep *models.IncidentReport) error {
	query := `
		INSERT INTO incident_reports (id, work_order_id, organization_id, title, description,
			severity, is_resolved, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if rep.ID == "" {
		rep.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	rep.CreatedAt = now
	rep.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.WorkOrderID, rep.OrganizationID, rep.Title, rep.Description,
		rep.Severity, rep.IsResolved, rep.CreatedBy, rep.CreatedAt, rep.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetIncidentReport(ctx context.Context, id, orgID string) (*models.IncidentReport, error) {
	query := `SELECT * FROM incident_reports WHERE id = $1 AND organization_id = $2`

	var rep models.IncidentReport
	err := r.db.GetContext(ctx, &rep, query, id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &rep, nil
}

func (r *PostgresRepository) ListIncidentReports(ctx context.Context, workOrderID, orgID string) ([]models.IncidentReport, error) {
	query := `
		SELECT * FROM incident_reports
		WHERE work_order_id = $1 AND organization_id = $2
		ORDER BY created_at DESC
	`

	var reports []models.IncidentReport
	if err := r.db.SelectContext(ctx, &reports, query, workOrderID, orgID); err != nil {
		return nil, err
	}

	return reports, nil
}

func (r *PostgresRepository) UpdateIncidentReport(ctx context.Context, rep *models.IncidentReport) error {
	query := `
		UPDATE incident_reports
		SET title = $3, description = $4, severity = $5, updated_at = $6
		WHERE id = $1 AND organization_id = $2
	`

	rep.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.OrganizationID, rep.Title, rep.Description, rep.Severity, rep.UpdatedAt)

	return err
}

func (r *PostgresRepository) ResolveIncidentReport(ctx context.Context, id, orgID string, at time.Time) error {
	query := `
		UPDATE incident_reports
		SET is_resolved = TRUE, resolved_at = $3, updated_at = $3
		WHERE id = $1 AND organization_id = $2
	`

	_, err := r.db.ExecContext(ctx, query, id, orgID, at)
	return err
}

func (r *PostgresRepository) DeleteIncidentReport(ctx context.Context, id, orgID string) error {
	query := `DELETE FROM incident_reports WHERE id = $1 AND organization_id = $2`

	_, err := r.db.ExecContext(ctx, query, id, orgID)
	return err
}

// Invoice comments

func (r *PostgresRepository) CreateInvoiceComment(ctx context.Context, c *models.InvoiceComment) error {
	query := `
		INSERT INTO invoice_comments (id, invoice_id, organization_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.InvoiceID, c.OrganizationID, c.AuthorID, c.Body, c.CreatedAt)

	return err
}

func (r *PostgresRepository) ListInvoiceComments(ctx context.Context, invoiceID, orgID string) ([]models.InvoiceComment, error) {
	query := `
		SELECT * FROM invoice_comments
		WHERE invoice_id = $1 AND organization_id = $2
		ORDER BY created_at ASC
	`

	var comments []models.InvoiceComment
	if err := r.db.SelectContext(ctx, &comments, query, invoiceID, orgID); err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *PostgresRepository) DeleteInvoiceComment(ctx context.Context, id, orgID string) error {
	query := `DELETE FROM invoice_comments WHERE id = $1 AND organization_id = $2`

	_, err := r.db.ExecContext(ctx, query, id, orgID)
	return err
}

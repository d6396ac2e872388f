package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stagebill/stagebill-server/internal/models"
)

func (r *PostgresRepository) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, organization_id, email, name, title, role, is_approver, can_pay, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.OrganizationID, u.Email, u.Name, u.Title, u.Role,
		u.IsApprover, u.CanPay, u.IsActive, u.CreatedAt, u.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetUser(ctx context.Context, id, orgID string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1 AND organization_id = $2`

	var u models.User
	err := r.db.GetContext(ctx, &u, query, id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &u, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context, orgID string) ([]models.User, error) {
	query := `SELECT * FROM users WHERE organization_id = $1 ORDER BY name ASC`

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, orgID); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users
		SET name = $3, title = $4, role = $5, is_approver = $6, can_pay = $7, is_active = $8, updated_at = $9
		WHERE id = $1 AND organization_id = $2
	`

	u.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.OrganizationID, u.Name, u.Title, u.Role,
		u.IsApprover, u.CanPay, u.IsActive, u.UpdatedAt)

	return err
}

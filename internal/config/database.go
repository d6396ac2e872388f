package config

import (
	"log"

	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS organizations (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			invoice_prefix VARCHAR(16) NOT NULL,
			next_invoice_number BIGINT NOT NULL DEFAULT 1,
			default_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			monthly_retainer DOUBLE PRECISION NOT NULL DEFAULT 0,
			payment_terms TEXT NOT NULL DEFAULT '',
			contact_name VARCHAR(255) NOT NULL DEFAULT '',
			contact_email VARCHAR(255) NOT NULL DEFAULT '',
			contact_phone VARCHAR(64) NOT NULL DEFAULT '',
			timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			email VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			title VARCHAR(255) NOT NULL DEFAULT '',
			role VARCHAR(32) NOT NULL,
			is_approver BOOLEAN NOT NULL DEFAULT FALSE,
			can_pay BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (organization_id, email)
		)`,

		`CREATE TABLE IF NOT EXISTS series (
			id VARCHAR(36) PRIMARY KEY,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			venue VARCHAR(255) NOT NULL DEFAULT '',
			event_type VARCHAR(64) NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS work_orders (
			id VARCHAR(36) PRIMARY KEY,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			series_id VARCHAR(36) REFERENCES series(id) ON DELETE SET NULL,
			event_name VARCHAR(255) NOT NULL,
			event_date TIMESTAMP NOT NULL,
			venue VARCHAR(255) NOT NULL DEFAULT '',
			event_type VARCHAR(64) NOT NULL DEFAULT '',
			requester_id VARCHAR(36) NOT NULL,
			approver_id VARCHAR(36),
			estimate_type VARCHAR(16) NOT NULL,
			hours_min DOUBLE PRECISION NOT NULL DEFAULT 0,
			hours_max DOUBLE PRECISION NOT NULL DEFAULT 0,
			hours_fixed DOUBLE PRECISION NOT NULL DEFAULT 0,
			rate_snapshot DOUBLE PRECISION NOT NULL,
			actual_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
			service_refs TEXT[] NOT NULL DEFAULT '{}',
			scope_notes TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			internal_notes TEXT NOT NULL DEFAULT '',
			status VARCHAR(32) NOT NULL DEFAULT 'draft',
			invoice_id VARCHAR(36),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS time_logs (
			id VARCHAR(36) PRIMARY KEY,
			work_order_id VARCHAR(36) NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			log_date TIMESTAMP NOT NULL,
			category VARCHAR(32) NOT NULL,
			hours DOUBLE PRECISION NOT NULL,
			started_at TIMESTAMP,
			ended_at TIMESTAMP,
			notes TEXT NOT NULL DEFAULT '',
			created_by VARCHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS change_orders (
			id VARCHAR(36) PRIMARY KEY,
			work_order_id VARCHAR(36) NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			additional_hours DOUBLE PRECISION NOT NULL,
			reason_code VARCHAR(64) NOT NULL,
			reason_text TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			is_approved BOOLEAN NOT NULL DEFAULT FALSE,
			approval_id VARCHAR(36),
			created_by VARCHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS approval_tokens (
			token VARCHAR(64) PRIMARY KEY,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			work_order_id VARCHAR(36) NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
			change_order_id VARCHAR(36) REFERENCES change_orders(id) ON DELETE CASCADE,
			expires_at TIMESTAMP NOT NULL,
			used_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS approvals (
			id VARCHAR(36) PRIMARY KEY,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			work_order_id VARCHAR(36) NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
			change_order_id VARCHAR(36),
			is_change_order BOOLEAN NOT NULL DEFAULT FALSE,
			signer_user_id VARCHAR(36),
			signer_name VARCHAR(255) NOT NULL DEFAULT '',
			signer_title VARCHAR(255) NOT NULL DEFAULT '',
			signature_url TEXT NOT NULL,
			signed_at TIMESTAMP NOT NULL,
			device_info TEXT NOT NULL DEFAULT '',
			content_hash VARCHAR(64) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS invoices (
			id VARCHAR(36) PRIMARY KEY,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			number VARCHAR(32) NOT NULL,
			invoice_date TIMESTAMP NOT NULL,
			period_start TIMESTAMP,
			period_end TIMESTAMP,
			due_date TIMESTAMP,
			status VARCHAR(16) NOT NULL DEFAULT 'draft',
			discount_type VARCHAR(16) NOT NULL DEFAULT '',
			discount_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			subtotal DOUBLE PRECISION NOT NULL DEFAULT 0,
			discount_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			total DOUBLE PRECISION NOT NULL DEFAULT 0,
			amount_paid DOUBLE PRECISION NOT NULL DEFAULT 0,
			amount_due DOUBLE PRECISION NOT NULL DEFAULT 0,
			view_token VARCHAR(64) NOT NULL,
			view_token_expires_at TIMESTAMP NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (organization_id, number)
		)`,

		`CREATE TABLE IF NOT EXISTS invoice_line_items (
			id VARCHAR(36) PRIMARY KEY,
			invoice_id VARCHAR(36) NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
			work_order_id VARCHAR(36),
			description TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			unit_price DOUBLE PRECISION NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			is_retainer BOOLEAN NOT NULL DEFAULT FALSE,
			is_custom BOOLEAN NOT NULL DEFAULT FALSE,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id VARCHAR(36) PRIMARY KEY,
			invoice_id VARCHAR(36) NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			processor_payment_id VARCHAR(128) NOT NULL UNIQUE,
			amount DOUBLE PRECISION NOT NULL,
			method VARCHAR(32) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL,
			receipt_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS incident_reports (
			id VARCHAR(36) PRIMARY KEY,
			work_order_id VARCHAR(36) NOT NULL REFERENCES work_orders(id) ON DELETE CASCADE,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			severity VARCHAR(32) NOT NULL DEFAULT '',
			is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
			resolved_at TIMESTAMP,
			created_by VARCHAR(36) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS invoice_comments (
			id VARCHAR(36) PRIMARY KEY,
			invoice_id VARCHAR(36) NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
			organization_id VARCHAR(36) NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			author_id VARCHAR(36) NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_work_orders_org_status ON work_orders(organization_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_time_logs_work_order ON time_logs(work_order_id)",
		"CREATE INDEX IF NOT EXISTS idx_change_orders_work_order ON change_orders(work_order_id)",
		"CREATE INDEX IF NOT EXISTS idx_approval_tokens_work_order ON approval_tokens(work_order_id)",
		"CREATE INDEX IF NOT EXISTS idx_invoices_org_status ON invoices(organization_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_invoices_view_token ON invoices(view_token)",
		"CREATE INDEX IF NOT EXISTS idx_payments_invoice ON payments(invoice_id)",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}

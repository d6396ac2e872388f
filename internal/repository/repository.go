package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stagebill/stagebill-server/internal/models"
)

// Repository defines the persistence operations the services depend
// on. Every read and write is scoped to one organization; a miss and a
// cross-tenant hit are both reported as (nil, nil).
type Repository interface {
	// Organizations
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, org *models.Organization) error

	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id, orgID string) (*models.User, error)
	ListUsers(ctx context.Context, orgID string) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	// Series
	CreateSeries(ctx context.Context, s *models.Series) error
	GetSeries(ctx context.Context, id, orgID string) (*models.Series, error)
	ListSeries(ctx context.Context, orgID string) ([]models.Series, error)

	// Work orders
	CreateWorkOrder(ctx context.Context, wo *models.WorkOrder) error
	GetWorkOrder(ctx context.Context, id, orgID string) (*models.WorkOrder, error)
	ListWorkOrders(ctx context.Context, orgID string, statuses []models.WorkOrderStatus) ([]models.WorkOrder, error)
	UpdateWorkOrderFields(ctx context.Context, wo *models.WorkOrder) error
	UpdateWorkOrderStatus(ctx context.Context, id, orgID string, from, to models.WorkOrderStatus) (bool, error)
	UpdateWorkOrderNotes(ctx context.Context, id, orgID, notes string) error
	UpdateWorkOrderInternalNotes(ctx context.Context, id, orgID, internalNotes string) error
	DeleteWorkOrder(ctx context.Context, id, orgID string) (bool, error)

	// Time logs
	CreateTimeLog(ctx context.Context, tl *models.TimeLog) error
	GetTimeLog(ctx context.Context, id, orgID string) (*models.TimeLog, error)
	ListTimeLogs(ctx context.Context, workOrderID, orgID string) ([]models.TimeLog, error)
	UpdateTimeLog(ctx context.Context, tl *models.TimeLog) error
	DeleteTimeLog(ctx context.Context, id, orgID string) error

	// Change orders
	CreateChangeOrder(ctx context.Context, co *models.ChangeOrder, tok *models.ApprovalToken) error
	GetChangeOrder(ctx context.Context, id, orgID string) (*models.ChangeOrder, error)
	ListChangeOrders(ctx context.Context, workOrderID, orgID string) ([]models.ChangeOrder, error)
	DeleteChangeOrder(ctx context.Context, id, orgID string) (bool, error)

	// Approval tokens and approvals
	CreateApprovalToken(ctx context.Context, tok *models.ApprovalToken) error
	GetApprovalToken(ctx context.Context, token string) (*models.ApprovalToken, error)
	GetTokenForWorkOrder(ctx context.Context, workOrderID string) (*models.ApprovalToken, error)
	DeleteWorkOrderToken(ctx context.Context, workOrderID string) error
	RedeemWorkOrderToken(ctx context.Context, token string, approval *models.Approval) error
	RedeemChangeOrderToken(ctx context.Context, token string, approval *models.Approval, changeOrderID string) error
	ListApprovals(ctx context.Context, workOrderID, orgID string) ([]models.Approval, error)

	// Invoices
	CreateInvoice(ctx context.Context, inv *models.Invoice, workOrderIDs []string) error
	GetInvoice(ctx context.Context, id, orgID string) (*models.Invoice, error)
	// FindInvoice looks an invoice up without a tenant scope. Only the
	// HMAC-verified payment webhook may use it.
	FindInvoice(ctx context.Context, id string) (*models.Invoice, error)
	GetInvoiceByViewToken(ctx context.Context, token string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, orgID string, status *models.InvoiceStatus) ([]models.Invoice, error)
	ReplaceInvoiceLines(ctx context.Context, inv *models.Invoice) error
	UpdateInvoiceStatus(ctx context.Context, id, orgID string, from, to models.InvoiceStatus) (bool, error)
	DeleteInvoice(ctx context.Context, id, orgID string) (bool, error)
	MarkInvoicesPastDue(ctx context.Context, asOf time.Time) (int64, error)

	// Payments
	RecordPayment(ctx context.Context, p *models.Payment) (bool, error)
	ListPayments(ctx context.Context, invoiceID, orgID string) ([]models.Payment, error)

	// Incident reports
	CreateIncidentReport(ctx context.Context, r *models.IncidentReport) error
	GetIncidentReport(ctx context.Context, id, orgID string) (*models.IncidentReport, error)
	ListIncidentReports(ctx context.Context, workOrderID, orgID string) ([]models.IncidentReport, error)
	UpdateIncidentReport(ctx context.Context, r *models.IncidentReport) error
	ResolveIncidentReport(ctx context.Context, id, orgID string, at time.Time) error
	DeleteIncidentReport(ctx context.Context, id, orgID string) error

	// Invoice comments
	CreateInvoiceComment(ctx context.Context, c *models.InvoiceComment) error
	ListInvoiceComments(ctx context.Context, invoiceID, orgID string) ([]models.InvoiceComment, error)
	DeleteInvoiceComment(ctx context.Context, id, orgID string) error
}

// PostgresRepository implements the Repository interface using
// PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

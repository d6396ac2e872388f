package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stagebill/stagebill-server/internal/repository"
)

// OrgService covers tenant settings, users, series and incident
// reports.
type OrgService struct {
	repo repository.Repository
	log  zerolog.Logger
}

// NewOrgService creates an OrgService.
func NewOrgService(repo repository.Repository, log zerolog.Logger) *OrgService {
	return &OrgService{repo: repo, log: log}
}

// GetOrganization returns the caller's own tenant.
func (s *OrgService) GetOrganization(ctx context.Context, id domain.Identity) (*models.Organization, error) {
	org, err := s.repo.GetOrganization(ctx, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

// UpdateOrganization edits tenant settings. The invoice counter is
// never writable through this path; rate changes affect only future
// work orders.
func (s *OrgService) UpdateOrganization(ctx context.Context, id domain.Identity, req *models.UpdateOrganizationRequest) (*models.Organization, error) {
	if !domain.Can(id, domain.ActionManageOrg) {
		return nil, domain.ErrForbidden
	}

	org, err := s.repo.GetOrganization(ctx, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}

	if _, err := domain.OrgLocation(req.Timezone); err != nil {
		return nil, err
	}
	if req.DefaultRate < 0 || req.MonthlyRetainer < 0 {
		return nil, fmt.Errorf("%w: rates cannot be negative", domain.ErrValidation)
	}

	org.Name = req.Name
	org.InvoicePrefix = req.InvoicePrefix
	org.DefaultRate = req.DefaultRate
	org.MonthlyRetainer = req.MonthlyRetainer
	org.PaymentTerms = req.PaymentTerms
	org.ContactName = req.ContactName
	org.ContactEmail = req.ContactEmail
	org.ContactPhone = req.ContactPhone
	org.Timezone = req.Timezone

	if err := s.repo.UpdateOrganization(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// CreateUser adds a portal user to the caller's organization.
func (s *OrgService) CreateUser(ctx context.Context, id domain.Identity, req *models.CreateUserRequest) (*models.User, error) {
	if !domain.Can(id, domain.ActionManageUsers) {
		return nil, domain.ErrForbidden
	}

	u := &models.User{
		OrganizationID: id.OrganizationID,
		Email:          req.Email,
		Name:           req.Name,
		Title:          req.Title,
		Role:           req.Role,
		IsApprover:     req.IsApprover,
		CanPay:         req.CanPay,
		IsActive:       true,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	return u, nil
}

// GetUser returns one user in the caller's organization.
func (s *OrgService) GetUser(ctx context.Context, id domain.Identity, userID string) (*models.User, error) {
	u, err := s.repo.GetUser(ctx, userID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// ListUsers returns the organization's users.
func (s *OrgService) ListUsers(ctx context.Context, id domain.Identity) ([]models.User, error) {
	if !domain.Can(id, domain.ActionManageUsers) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListUsers(ctx, id.OrganizationID)
}

// UpdateUser edits a user. Deactivation goes through IsActive; users
// are never hard-deleted so approvals keep their signer references.
func (s *OrgService) UpdateUser(ctx context.Context, id domain.Identity, userID string, req *models.UpdateUserRequest) (*models.User, error) {
	if !domain.Can(id, domain.ActionManageUsers) {
		return nil, domain.ErrForbidden
	}

	u, err := s.repo.GetUser(ctx, userID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}

	u.Name = req.Name
	u.Title = req.Title
	u.Role = req.Role
	u.IsApprover = req.IsApprover
	u.CanPay = req.CanPay
	u.IsActive = req.IsActive

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateSeries creates a recurring-event group.
func (s *OrgService) CreateSeries(ctx context.Context, id domain.Identity, req *models.CreateSeriesRequest) (*models.Series, error) {
	if !domain.Can(id, domain.ActionCreateWorkOrder) {
		return nil, domain.ErrForbidden
	}

	sr := &models.Series{
		OrganizationID: id.OrganizationID,
		Name:           req.Name,
		Venue:          req.Venue,
		EventType:      req.EventType,
		Notes:          req.Notes,
	}
	if err := s.repo.CreateSeries(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

// GetSeries returns one series in the caller's organization.
func (s *OrgService) GetSeries(ctx context.Context, id domain.Identity, seriesID string) (*models.Series, error) {
	if !domain.Can(id, domain.ActionViewWorkOrders) {
		return nil, domain.ErrForbidden
	}

	sr, err := s.repo.GetSeries(ctx, seriesID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if sr == nil {
		return nil, domain.ErrNotFound
	}
	return sr, nil
}

// ListSeries returns the organization's series.
func (s *OrgService) ListSeries(ctx context.Context, id domain.Identity) ([]models.Series, error) {
	if !domain.Can(id, domain.ActionViewWorkOrders) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListSeries(ctx, id.OrganizationID)
}

// CreateIncident attaches an incident report to a work order.
func (s *OrgService) CreateIncident(ctx context.Context, id domain.Identity, workOrderID string, req *models.IncidentReportRequest) (*models.IncidentReport, error) {
	if !domain.Can(id, domain.ActionManageIncidents) {
		return nil, domain.ErrForbidden
	}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, domain.ErrNotFound
	}

	rep := &models.IncidentReport{
		WorkOrderID:    workOrderID,
		OrganizationID: id.OrganizationID,
		Title:          req.Title,
		Description:    req.Description,
		Severity:       req.Severity,
		CreatedBy:      id.UserID,
	}
	if err := s.repo.CreateIncidentReport(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// ListIncidents returns a work order's incident reports.
func (s *OrgService) ListIncidents(ctx context.Context, id domain.Identity, workOrderID string) ([]models.IncidentReport, error) {
	if !domain.Can(id, domain.ActionViewWorkOrders) {
		return nil, domain.ErrForbidden
	}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, domain.ErrNotFound
	}

	return s.repo.ListIncidentReports(ctx, workOrderID, id.OrganizationID)
}

// UpdateIncident edits an incident report.
func (s *OrgService) UpdateIncident(ctx context.Context, id domain.Identity, incidentID string, req *models.IncidentReportRequest) (*models.IncidentReport, error) {
	if !domain.Can(id, domain.ActionManageIncidents) {
		return nil, domain.ErrForbidden
	}

	rep, err := s.repo.GetIncidentReport(ctx, incidentID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, domain.ErrNotFound
	}

	rep.Title = req.Title
	rep.Description = req.Description
	rep.Severity = req.Severity

	if err := s.repo.UpdateIncidentReport(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// ResolveIncident marks an incident report resolved.
func (s *OrgService) ResolveIncident(ctx context.Context, id domain.Identity, incidentID string) error {
	if !domain.Can(id, domain.ActionManageIncidents) {
		return domain.ErrForbidden
	}

	rep, err := s.repo.GetIncidentReport(ctx, incidentID, id.OrganizationID)
	if err != nil {
		return err
	}
	if rep == nil {
		return domain.ErrNotFound
	}

	return s.repo.ResolveIncidentReport(ctx, incidentID, id.OrganizationID, time.Now().UTC())
}

// DeleteIncident removes an incident report.
func (s *OrgService) DeleteIncident(ctx context.Context, id domain.Identity, incidentID string) error {
	if !domain.Can(id, domain.ActionManageIncidents) {
		return domain.ErrForbidden
	}

	rep, err := s.repo.GetIncidentReport(ctx, incidentID, id.OrganizationID)
	if err != nil {
		return err
	}
	if rep == nil {
		return domain.ErrNotFound
	}

	return s.repo.DeleteIncidentReport(ctx, incidentID, id.OrganizationID)
}

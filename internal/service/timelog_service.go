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

// TimeLogService manages dated hour entries. Dates and clock times
// cross the boundary as org-local wall time and are stored UTC; the
// parent order's actual hours are recomputed inside every write.
type TimeLogService struct {
	repo repository.Repository
	log  zerolog.Logger
}

// NewTimeLogService creates a TimeLogService.
func NewTimeLogService(repo repository.Repository, log zerolog.Logger) *TimeLogService {
	return &TimeLogService{repo: repo, log: log}
}

func (s *TimeLogService) orgLocation(ctx context.Context, orgID string) (*time.Location, error) {
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return domain.OrgLocation(org.Timezone)
}

// guardedWorkOrder loads the parent order and checks logging is still
// open on it.
func (s *TimeLogService) guardedWorkOrder(ctx context.Context, workOrderID, orgID string) (*models.WorkOrder, error) {
	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, orgID)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, domain.ErrNotFound
	}
	if !domain.TimeLogAllowed(wo.Status) {
		return nil, fmt.Errorf("%w: work order is %s, time logs are closed", domain.ErrStateConflict, wo.Status)
	}
	return wo, nil
}

func (s *TimeLogService) applyRequest(tl *models.TimeLog, req *models.TimeLogRequest, loc *time.Location) error {
	if req.Hours <= 0 {
		return fmt.Errorf("%w: hours must be positive", domain.ErrValidation)
	}

	logDate, err := domain.ParseLocalDate(req.Date, loc)
	if err != nil {
		return err
	}

	tl.LogDate = logDate
	tl.Category = req.Category
	tl.Hours = req.Hours
	tl.Notes = req.Notes
	tl.StartedAt = nil
	tl.EndedAt = nil

	if req.StartTime != "" {
		started, err := domain.ParseLocalClock(req.Date, req.StartTime, loc)
		if err != nil {
			return err
		}
		tl.StartedAt = &started
	}
	if req.EndTime != "" {
		ended, err := domain.ParseLocalClock(req.Date, req.EndTime, loc)
		if err != nil {
			return err
		}
		tl.EndedAt = &ended
	}
	return nil
}

// Create adds a time log to a work order.
func (s *TimeLogService) Create(ctx context.Context, id domain.Identity, workOrderID string, req *models.TimeLogRequest) (*models.TimeLog, error) {
	if !domain.Can(id, domain.ActionLogTime) {
		return nil, domain.ErrForbidden
	}

	if _, err := s.guardedWorkOrder(ctx, workOrderID, id.OrganizationID); err != nil {
		return nil, err
	}

	loc, err := s.orgLocation(ctx, id.OrganizationID)
	if err != nil {
		return nil, err
	}

	tl := &models.TimeLog{
		WorkOrderID:    workOrderID,
		OrganizationID: id.OrganizationID,
		CreatedBy:      id.UserID,
	}
	if err := s.applyRequest(tl, req, loc); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTimeLog(ctx, tl); err != nil {
		return nil, err
	}
	return tl, nil
}

// Update edits an existing time log, subject to the same status guard
// as creation.
func (s *TimeLogService) Update(ctx context.Context, id domain.Identity, timeLogID string, req *models.TimeLogRequest) (*models.TimeLog, error) {
	if !domain.Can(id, domain.ActionLogTime) {
		return nil, domain.ErrForbidden
	}

	tl, err := s.repo.GetTimeLog(ctx, timeLogID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if tl == nil {
		return nil, domain.ErrNotFound
	}

	if _, err := s.guardedWorkOrder(ctx, tl.WorkOrderID, id.OrganizationID); err != nil {
		return nil, err
	}

	loc, err := s.orgLocation(ctx, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if err := s.applyRequest(tl, req, loc); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTimeLog(ctx, tl); err != nil {
		return nil, err
	}
	return tl, nil
}

// Delete removes a time log, subject to the same status guard.
func (s *TimeLogService) Delete(ctx context.Context, id domain.Identity, timeLogID string) error {
	if !domain.Can(id, domain.ActionLogTime) {
		return domain.ErrForbidden
	}

	tl, err := s.repo.GetTimeLog(ctx, timeLogID, id.OrganizationID)
	if err != nil {
		return err
	}
	if tl == nil {
		return domain.ErrNotFound
	}

	if _, err := s.guardedWorkOrder(ctx, tl.WorkOrderID, id.OrganizationID); err != nil {
		return err
	}

	return s.repo.DeleteTimeLog(ctx, timeLogID, id.OrganizationID)
}

// List returns a work order's time logs rendered back in the
// organization's timezone for editing.
func (s *TimeLogService) List(ctx context.Context, id domain.Identity, workOrderID string) ([]models.TimeLogView, error) {
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

	loc, err := s.orgLocation(ctx, id.OrganizationID)
	if err != nil {
		return nil, err
	}

	logs, err := s.repo.ListTimeLogs(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return nil, err
	}

	views := make([]models.TimeLogView, 0, len(logs))
	for i := range logs {
		tl := &logs[i]
		v := models.TimeLogView{
			TimeLog: tl,
			Date:    domain.FormatLocalDate(tl.LogDate, loc),
		}
		if tl.StartedAt != nil {
			v.StartTime = domain.FormatLocalClock(*tl.StartedAt, loc)
		}
		if tl.EndedAt != nil {
			v.EndTime = domain.FormatLocalClock(*tl.EndedAt, loc)
		}
		views = append(views, v)
	}
	return views, nil
}

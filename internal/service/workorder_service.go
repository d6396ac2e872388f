package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/external"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stagebill/stagebill-server/internal/repository"
)

// WorkOrderService drives the work-order lifecycle. Status moves are
// compare-and-set at the repository so concurrent staff actions cannot
// skip states.
type WorkOrderService struct {
	repo           repository.Repository
	email          external.EmailSender
	log            zerolog.Logger
	approveBaseURL string
}

// NewWorkOrderService creates a WorkOrderService. approveBaseURL is
// the public prefix approval links are built on.
func NewWorkOrderService(repo repository.Repository, email external.EmailSender, log zerolog.Logger, approveBaseURL string) *WorkOrderService {
	return &WorkOrderService{
		repo:           repo,
		email:          email,
		log:            log,
		approveBaseURL: approveBaseURL,
	}
}

// Create captures the organization's current default rate on the new
// order so later rate changes never reprice it.
func (s *WorkOrderService) Create(ctx context.Context, id domain.Identity, req *models.CreateWorkOrderRequest) (*models.WorkOrder, error) {
	if !domain.Can(id, domain.ActionCreateWorkOrder) {
		return nil, domain.ErrForbidden
	}

	org, err := s.repo.GetOrganization(ctx, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}

	if err := domain.ValidateEstimate(req.EstimateType, req.HoursMin, req.HoursMax, req.HoursFixed); err != nil {
		return nil, err
	}

	loc, err := domain.OrgLocation(org.Timezone)
	if err != nil {
		return nil, err
	}
	eventDate, err := domain.ParseLocalDate(req.EventDate, loc)
	if err != nil {
		return nil, err
	}

	if req.SeriesID != nil {
		series, err := s.repo.GetSeries(ctx, *req.SeriesID, id.OrganizationID)
		if err != nil {
			return nil, err
		}
		if series == nil {
			return nil, fmt.Errorf("%w: series not found", domain.ErrNotFound)
		}
	}

	wo := &models.WorkOrder{
		OrganizationID: id.OrganizationID,
		SeriesID:       req.SeriesID,
		EventName:      req.EventName,
		EventDate:      eventDate,
		Venue:          req.Venue,
		EventType:      req.EventType,
		RequesterID:    id.UserID,
		ApproverID:     req.ApproverID,
		EstimateType:   req.EstimateType,
		HoursMin:       req.HoursMin,
		HoursMax:       req.HoursMax,
		HoursFixed:     req.HoursFixed,
		RateSnapshot:   org.DefaultRate,
		ServiceRefs:    req.ServiceRefs,
		ScopeNotes:     req.ScopeNotes,
		Notes:          req.Notes,
		Status:         models.WorkOrderDraft,
	}

	if err := s.repo.CreateWorkOrder(ctx, wo); err != nil {
		return nil, err
	}

	s.log.Info().Str("work_order_id", wo.ID).Str("org_id", wo.OrganizationID).Msg("work order created")
	return wo, nil
}

// Get returns the order with its derived financials. Internal notes
// are blanked for identities without staff access.
func (s *WorkOrderService) Get(ctx context.Context, id domain.Identity, workOrderID string) (*models.WorkOrderResponse, error) {
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

	if !domain.Can(id, domain.ActionViewInternal) {
		wo.InternalNotes = ""
	}

	changeOrders, err := s.repo.ListChangeOrders(ctx, wo.ID, id.OrganizationID)
	if err != nil {
		return nil, err
	}

	return &models.WorkOrderResponse{
		Status:                  "success",
		WorkOrder:               wo,
		Estimate:                domain.EstimateCost(wo),
		AdditionalApprovedHours: domain.ApprovedExtraHours(changeOrders),
		AdditionalApprovedCost:  domain.ApprovedExtraCost(changeOrders, wo.RateSnapshot),
	}, nil
}

// List returns the organization's work orders, optionally narrowed to
// a status set.
func (s *WorkOrderService) List(ctx context.Context, id domain.Identity, statuses []models.WorkOrderStatus) ([]models.WorkOrder, error) {
	if !domain.Can(id, domain.ActionViewWorkOrders) {
		return nil, domain.ErrForbidden
	}

	orders, err := s.repo.ListWorkOrders(ctx, id.OrganizationID, statuses)
	if err != nil {
		return nil, err
	}

	if !id.IsStaff() {
		// drafts are staff-internal until submitted
		visible := orders[:0]
		for _, wo := range orders {
			if wo.Status != models.WorkOrderDraft {
				visible = append(visible, wo)
			}
		}
		orders = visible
	}

	if !domain.Can(id, domain.ActionViewInternal) {
		for i := range orders {
			orders[i].InternalNotes = ""
		}
	}

	return orders, nil
}

// Update replaces the editable fields of a draft or pending-approval
// order. The estimate stays with the order's original rate snapshot.
func (s *WorkOrderService) Update(ctx context.Context, id domain.Identity, workOrderID string, req *models.UpdateWorkOrderRequest) (*models.WorkOrder, error) {
	if !domain.Can(id, domain.ActionEditWorkOrder) {
		return nil, domain.ErrForbidden
	}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, domain.ErrNotFound
	}
	if !domain.WorkOrderEditable(wo.Status) {
		return nil, fmt.Errorf("%w: work order is %s and can no longer be edited", domain.ErrStateConflict, wo.Status)
	}

	if err := domain.ValidateEstimate(req.EstimateType, req.HoursMin, req.HoursMax, req.HoursFixed); err != nil {
		return nil, err
	}

	org, err := s.repo.GetOrganization(ctx, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	loc, err := domain.OrgLocation(org.Timezone)
	if err != nil {
		return nil, err
	}
	eventDate, err := domain.ParseLocalDate(req.EventDate, loc)
	if err != nil {
		return nil, err
	}

	wo.EventName = req.EventName
	wo.EventDate = eventDate
	wo.Venue = req.Venue
	wo.EventType = req.EventType
	wo.ApproverID = req.ApproverID
	wo.EstimateType = req.EstimateType
	wo.HoursMin = req.HoursMin
	wo.HoursMax = req.HoursMax
	wo.HoursFixed = req.HoursFixed
	wo.ServiceRefs = req.ServiceRefs
	wo.ScopeNotes = req.ScopeNotes
	wo.Notes = req.Notes

	if err := s.repo.UpdateWorkOrderFields(ctx, wo); err != nil {
		return nil, err
	}

	return wo, nil
}

// Delete removes a draft order together with its dependents.
func (s *WorkOrderService) Delete(ctx context.Context, id domain.Identity, workOrderID string) error {
	if !domain.Can(id, domain.ActionDeleteWorkOrder) {
		return domain.ErrForbidden
	}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return err
	}
	if wo == nil {
		return domain.ErrNotFound
	}

	ok, err := s.repo.DeleteWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: only draft work orders can be deleted", domain.ErrStateConflict)
	}

	s.log.Info().Str("work_order_id", workOrderID).Msg("work order deleted")
	return nil
}

// SubmitForApproval moves draft → pending_approval and issues the
// single-use signing link. If the token cannot be persisted the status
// move is reverted so the order is not stranded without a link.
func (s *WorkOrderService) SubmitForApproval(ctx context.Context, id domain.Identity, workOrderID string) (*models.ApprovalToken, error) {
	if !domain.Can(id, domain.ActionDriveLifecycle) {
		return nil, domain.ErrForbidden
	}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, domain.ErrNotFound
	}

	moved, err := s.repo.UpdateWorkOrderStatus(ctx, workOrderID, id.OrganizationID,
		models.WorkOrderDraft, models.WorkOrderPendingApproval)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, domain.CheckWorkOrderTransition(wo.Status, models.WorkOrderPendingApproval)
	}

	tok := &models.ApprovalToken{
		Token:          domain.NewOpaqueToken(),
		OrganizationID: id.OrganizationID,
		WorkOrderID:    workOrderID,
		ExpiresAt:      time.Now().UTC().Add(domain.TokenTTL),
	}
	if err := s.repo.CreateApprovalToken(ctx, tok); err != nil {
		if _, revertErr := s.repo.UpdateWorkOrderStatus(ctx, workOrderID, id.OrganizationID,
			models.WorkOrderPendingApproval, models.WorkOrderDraft); revertErr != nil {
			s.log.Error().Err(revertErr).Str("work_order_id", workOrderID).Msg("failed to revert submit after token error")
		}
		return nil, err
	}

	s.notifyApprover(ctx, wo, tok)
	return tok, nil
}

// notifyApprover mails the signing link to the designated approver, or
// the organization contact when none is set. Fire-and-forget.
func (s *WorkOrderService) notifyApprover(ctx context.Context, wo *models.WorkOrder, tok *models.ApprovalToken) {
	to := ""
	if wo.ApproverID != nil {
		if approver, err := s.repo.GetUser(ctx, *wo.ApproverID, wo.OrganizationID); err == nil && approver != nil {
			to = approver.Email
		}
	}
	if to == "" {
		if org, err := s.repo.GetOrganization(ctx, wo.OrganizationID); err == nil && org != nil {
			to = org.ContactEmail
		}
	}
	if to == "" {
		return
	}

	link := fmt.Sprintf("%s/approve/%s", s.approveBaseURL, tok.Token)
	subject := fmt.Sprintf("Sign-off requested: %s", wo.EventName)
	body := fmt.Sprintf("A work order is awaiting your approval.\n\n%s\n", link)
	if err := s.email.Send(ctx, to, subject, body); err != nil {
		s.log.Warn().Err(err).Str("work_order_id", wo.ID).Msg("approval email failed")
	}
}

// CancelApproval withdraws a pending sign-off request, returning the
// order to draft and invalidating the outstanding link.
func (s *WorkOrderService) CancelApproval(ctx context.Context, id domain.Identity, workOrderID string) error {
	if !domain.Can(id, domain.ActionDriveLifecycle) {
		return domain.ErrForbidden
	}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return err
	}
	if wo == nil {
		return domain.ErrNotFound
	}

	moved, err := s.repo.UpdateWorkOrderStatus(ctx, workOrderID, id.OrganizationID,
		models.WorkOrderPendingApproval, models.WorkOrderDraft)
	if err != nil {
		return err
	}
	if !moved {
		return domain.CheckWorkOrderTransition(wo.Status, models.WorkOrderDraft)
	}

	return s.repo.DeleteWorkOrderToken(ctx, workOrderID)
}

// Start moves an approved order into in_progress.
func (s *WorkOrderService) Start(ctx context.Context, id domain.Identity, workOrderID string) error {
	if !domain.Can(id, domain.ActionDriveLifecycle) {
		return domain.ErrForbidden
	}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return err
	}
	if wo == nil {
		return domain.ErrNotFound
	}

	moved, err := s.repo.UpdateWorkOrderStatus(ctx, workOrderID, id.OrganizationID,
		models.WorkOrderApproved, models.WorkOrderInProgress)
	if err != nil {
		return err
	}
	if !moved {
		return domain.CheckWorkOrderTransition(wo.Status, models.WorkOrderInProgress)
	}

	return nil
}

// Complete closes out the event. Approved orders may complete directly
// without passing through in_progress. Completion notes are appended
// to the order's notes rather than replacing them.
func (s *WorkOrderService) Complete(ctx context.Context, id domain.Identity, workOrderID string, req *models.CompleteWorkOrderRequest) error {
	if !domain.Can(id, domain.ActionDriveLifecycle) {
		return domain.ErrForbidden
	}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return err
	}
	if wo == nil {
		return domain.ErrNotFound
	}
	if err := domain.CheckWorkOrderTransition(wo.Status, models.WorkOrderCompleted); err != nil {
		return err
	}

	moved, err := s.repo.UpdateWorkOrderStatus(ctx, workOrderID, id.OrganizationID,
		wo.Status, models.WorkOrderCompleted)
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("%w: work order status changed concurrently", domain.ErrStateConflict)
	}

	if req != nil && req.CompletionNotes != "" {
		notes := wo.Notes
		if notes != "" {
			notes += "\n\n"
		}
		notes += req.CompletionNotes
		if err := s.repo.UpdateWorkOrderNotes(ctx, workOrderID, id.OrganizationID, notes); err != nil {
			return err
		}
	}

	return nil
}

// SetInternalNotes updates the staff-only notes. No status guard;
// internal notes stay editable for the order's whole life.
func (s *WorkOrderService) SetInternalNotes(ctx context.Context, id domain.Identity, workOrderID string, req *models.InternalNotesRequest) error {
	if !domain.Can(id, domain.ActionViewInternal) {
		return domain.ErrForbidden
	}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return err
	}
	if wo == nil {
		return domain.ErrNotFound
	}

	return s.repo.UpdateWorkOrderInternalNotes(ctx, workOrderID, id.OrganizationID, req.InternalNotes)
}

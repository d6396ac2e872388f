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

// ChangeOrderService manages additional-hours requests. Each change
// order is born with its own single-use signing token so the client
// can approve it independently of the parent order.
type ChangeOrderService struct {
	repo           repository.Repository
	email          external.EmailSender
	log            zerolog.Logger
	approveBaseURL string
}

// NewChangeOrderService creates a ChangeOrderService.
func NewChangeOrderService(repo repository.Repository, email external.EmailSender, log zerolog.Logger, approveBaseURL string) *ChangeOrderService {
	return &ChangeOrderService{
		repo:           repo,
		email:          email,
		log:            log,
		approveBaseURL: approveBaseURL,
	}
}

// Create raises a change order against an approved, in-progress or
// completed work order and mails the signing link.
func (s *ChangeOrderService) Create(ctx context.Context, id domain.Identity, workOrderID string, req *models.CreateChangeOrderRequest) (*models.ChangeOrder, error) {
	if !domain.Can(id, domain.ActionManageChangeOrd) {
		return nil, domain.ErrForbidden
	}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, domain.ErrNotFound
	}
	if !domain.ChangeOrderAllowed(wo.Status) {
		return nil, fmt.Errorf("%w: work order is %s, change orders need an approved order", domain.ErrStateConflict, wo.Status)
	}

	if req.AdditionalHours <= 0 {
		return nil, fmt.Errorf("%w: additional hours must be positive", domain.ErrValidation)
	}

	co := &models.ChangeOrder{
		WorkOrderID:     workOrderID,
		OrganizationID:  id.OrganizationID,
		AdditionalHours: req.AdditionalHours,
		ReasonCode:      req.ReasonCode,
		ReasonText:      req.ReasonText,
		Notes:           req.Notes,
		CreatedBy:       id.UserID,
	}
	tok := &models.ApprovalToken{
		Token:          domain.NewOpaqueToken(),
		OrganizationID: id.OrganizationID,
		WorkOrderID:    workOrderID,
		ExpiresAt:      time.Now().UTC().Add(domain.TokenTTL),
	}

	if err := s.repo.CreateChangeOrder(ctx, co, tok); err != nil {
		return nil, err
	}

	s.notifyApprover(ctx, wo, co, tok)
	return co, nil
}

func (s *ChangeOrderService) notifyApprover(ctx context.Context, wo *models.WorkOrder, co *models.ChangeOrder, tok *models.ApprovalToken) {
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
	subject := fmt.Sprintf("Change order: %s", wo.EventName)
	body := fmt.Sprintf("%.2f additional hours have been requested for %s.\n\nReview and sign: %s\n",
		co.AdditionalHours, wo.EventName, link)
	if err := s.email.Send(ctx, to, subject, body); err != nil {
		s.log.Warn().Err(err).Str("change_order_id", co.ID).Msg("change order email failed")
	}
}

// List returns a work order's change orders.
func (s *ChangeOrderService) List(ctx context.Context, id domain.Identity, workOrderID string) ([]models.ChangeOrder, error) {
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

	return s.repo.ListChangeOrders(ctx, workOrderID, id.OrganizationID)
}

// Delete withdraws an unapproved change order and its signing token.
// Approved change orders are immutable.
func (s *ChangeOrderService) Delete(ctx context.Context, id domain.Identity, changeOrderID string) error {
	if !domain.Can(id, domain.ActionManageChangeOrd) {
		return domain.ErrForbidden
	}

	co, err := s.repo.GetChangeOrder(ctx, changeOrderID, id.OrganizationID)
	if err != nil {
		return err
	}
	if co == nil {
		return domain.ErrNotFound
	}

	ok, err := s.repo.DeleteChangeOrder(ctx, changeOrderID, id.OrganizationID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: approved change orders cannot be deleted", domain.ErrStateConflict)
	}
	return nil
}

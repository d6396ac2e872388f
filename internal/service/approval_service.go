package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/external"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stagebill/stagebill-server/internal/repository"
)

// ApprovalService redeems signing tokens. The token itself is the
// credential on the public path; bulk signing is the one authenticated
// variant.
type ApprovalService struct {
	repo    repository.Repository
	storage external.ObjectStorage
	log     zerolog.Logger
}

// NewApprovalService creates an ApprovalService.
func NewApprovalService(repo repository.Repository, storage external.ObjectStorage, log zerolog.Logger) *ApprovalService {
	return &ApprovalService{repo: repo, storage: storage, log: log}
}

// loadTargets resolves the token row and the entities it claims to
// cover. Missing rows come back nil for ValidateToken to reject.
func (s *ApprovalService) loadTargets(ctx context.Context, token string) (*models.ApprovalToken, *models.WorkOrder, *models.ChangeOrder, error) {
	tok, err := s.repo.GetApprovalToken(ctx, token)
	if err != nil {
		return nil, nil, nil, err
	}
	if tok == nil {
		return nil, nil, nil, nil
	}

	wo, err := s.repo.GetWorkOrder(ctx, tok.WorkOrderID, tok.OrganizationID)
	if err != nil {
		return nil, nil, nil, err
	}

	var co *models.ChangeOrder
	if tok.ChangeOrderID != nil {
		co, err = s.repo.GetChangeOrder(ctx, *tok.ChangeOrderID, tok.OrganizationID)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	return tok, wo, co, nil
}

// SigningContext returns what the public approval page renders for a
// token: the target order, the change order when the token covers one,
// and the organization's display name.
func (s *ApprovalService) SigningContext(ctx context.Context, token string) (*models.SigningContext, error) {
	tok, wo, co, err := s.loadTargets(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateToken(tok, wo, co, time.Now().UTC()); err != nil {
		return nil, err
	}

	org, err := s.repo.GetOrganization(ctx, tok.OrganizationID)
	if err != nil {
		return nil, err
	}

	sc := &models.SigningContext{
		Status:      "success",
		WorkOrder:   wo,
		ChangeOrder: co,
	}
	if org != nil {
		sc.OrganizationName = org.Name
	}
	sc.WorkOrder.InternalNotes = ""
	return sc, nil
}

// decodeSignature accepts a raw or data-URL-prefixed base64 PNG.
func decodeSignature(image string) ([]byte, error) {
	if i := strings.Index(image, ","); i >= 0 && strings.HasPrefix(image, "data:") {
		image = image[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("%w: signature image must be base64 PNG", domain.ErrValidation)
	}
	return data, nil
}

// Sign redeems a token: validate, store the signature image, then
// consume the token, record the approval and advance the target in one
// repository transaction. A replay of the same token loses at the
// consume step no matter how the race lands.
func (s *ApprovalService) Sign(ctx context.Context, token string, req *models.SignRequest, deviceInfo string) (*models.Approval, error) {
	tok, wo, co, err := s.loadTargets(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateToken(tok, wo, co, time.Now().UTC()); err != nil {
		return nil, err
	}

	data, err := decodeSignature(req.SignatureImage)
	if err != nil {
		return nil, err
	}
	sigURL, err := s.storage.PutSignature(ctx, "sig-"+token+".png", data)
	if err != nil {
		return nil, err
	}

	approval := &models.Approval{
		OrganizationID: tok.OrganizationID,
		WorkOrderID:    tok.WorkOrderID,
		SignerName:     req.SignerName,
		SignerTitle:    req.SignerTitle,
		SignatureURL:   sigURL,
		SignedAt:       time.Now().UTC(),
		DeviceInfo:     deviceInfo,
	}

	if tok.ChangeOrderID != nil {
		approval.ChangeOrderID = tok.ChangeOrderID
		approval.IsChangeOrder = true
		approval.ContentHash = domain.ChangeOrderContentHash(co, wo)
		err = s.repo.RedeemChangeOrderToken(ctx, token, approval, *tok.ChangeOrderID)
	} else {
		approval.ContentHash = domain.WorkOrderContentHash(wo)
		err = s.repo.RedeemWorkOrderToken(ctx, token, approval)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("work_order_id", tok.WorkOrderID).Bool("change_order", approval.IsChangeOrder).Msg("approval recorded")
	return approval, nil
}

// BulkSign signs a set of pending work orders with one signature and
// one signer identity. Each order is redeemed through its own
// outstanding token; failures are reported per order and never abort
// the rest.
func (s *ApprovalService) BulkSign(ctx context.Context, id domain.Identity, user *models.User, req *models.BulkSignRequest, deviceInfo string) ([]models.BulkSignResult, error) {
	if id.IsStaff() || !id.IsApprover {
		return nil, domain.ErrForbidden
	}

	data, err := decodeSignature(req.SignatureImage)
	if err != nil {
		return nil, err
	}
	sigURL, err := s.storage.PutSignature(ctx, "sig-bulk-"+domain.NewOpaqueToken()[:16]+".png", data)
	if err != nil {
		return nil, err
	}

	signerName := req.SignerName
	signerTitle := req.SignerTitle
	if signerName == "" && user != nil {
		signerName = user.Name
	}
	if signerTitle == "" && user != nil {
		signerTitle = user.Title
	}

	results := make([]models.BulkSignResult, 0, len(req.WorkOrderIDs))
	for _, woID := range req.WorkOrderIDs {
		results = append(results, s.bulkSignOne(ctx, id, woID, signerName, signerTitle, sigURL, deviceInfo))
	}
	return results, nil
}

func (s *ApprovalService) bulkSignOne(ctx context.Context, id domain.Identity, workOrderID, signerName, signerTitle, sigURL, deviceInfo string) models.BulkSignResult {
	res := models.BulkSignResult{WorkOrderID: workOrderID}

	wo, err := s.repo.GetWorkOrder(ctx, workOrderID, id.OrganizationID)
	if err != nil {
		res.Reason = "lookup failed"
		return res
	}
	if wo == nil {
		res.Reason = "not found"
		return res
	}

	tok, err := s.repo.GetTokenForWorkOrder(ctx, workOrderID)
	if err != nil {
		res.Reason = "lookup failed"
		return res
	}
	if err := domain.ValidateToken(tok, wo, nil, time.Now().UTC()); err != nil {
		res.Reason = err.Error()
		return res
	}

	approval := &models.Approval{
		OrganizationID: id.OrganizationID,
		WorkOrderID:    workOrderID,
		SignerUserID:   &id.UserID,
		SignerName:     signerName,
		SignerTitle:    signerTitle,
		SignatureURL:   sigURL,
		SignedAt:       time.Now().UTC(),
		DeviceInfo:     deviceInfo,
		ContentHash:    domain.WorkOrderContentHash(wo),
	}
	if err := s.repo.RedeemWorkOrderToken(ctx, tok.Token, approval); err != nil {
		res.Reason = err.Error()
		return res
	}

	res.Signed = true
	return res
}

// ListApprovals returns the signed record trail for a work order.
func (s *ApprovalService) ListApprovals(ctx context.Context, id domain.Identity, workOrderID string) ([]models.Approval, error) {
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

	return s.repo.ListApprovals(ctx, workOrderID, id.OrganizationID)
}

package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stagebill/stagebill-server/internal/repository"
)

// PaymentService reconciles processor webhook events against invoices.
// Replays are absorbed by the unique processor payment id; a failed
// attempt is recorded but never touches invoice money fields.
type PaymentService struct {
	repo repository.Repository
	log  zerolog.Logger
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(repo repository.Repository, log zerolog.Logger) *PaymentService {
	return &PaymentService{repo: repo, log: log}
}

// HandleWebhook processes one verified processor event. The HMAC check
// happened at the transport; by the time an event reaches here it is
// trusted.
func (s *PaymentService) HandleWebhook(ctx context.Context, event *models.PaymentWebhookEvent) error {
	var status models.PaymentStatus
	switch event.Type {
	case "completed", "async_succeeded":
		status = models.PaymentSucceeded
	case "async_failed":
		status = models.PaymentFailed
	default:
		return fmt.Errorf("%w: unknown event type %q", domain.ErrValidation, event.Type)
	}

	inv, err := s.repo.FindInvoice(ctx, event.InvoiceID)
	if err != nil {
		return err
	}
	if inv == nil {
		return fmt.Errorf("%w: invoice not found", domain.ErrNotFound)
	}

	p := &models.Payment{
		InvoiceID:          inv.ID,
		OrganizationID:     inv.OrganizationID,
		ProcessorPaymentID: event.ProcessorPaymentID,
		Amount:             event.Amount,
		Method:             event.Method,
		Status:             status,
		ReceiptURL:         event.ReceiptURL,
	}

	recorded, err := s.repo.RecordPayment(ctx, p)
	if err != nil {
		return err
	}
	if !recorded {
		s.log.Info().Str("processor_payment_id", event.ProcessorPaymentID).Msg("duplicate payment event ignored")
		return nil
	}

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("processor_payment_id", event.ProcessorPaymentID).
		Str("payment_status", string(status)).
		Float64("amount", event.Amount).
		Msg("payment recorded")
	return nil
}

// List returns an invoice's payment history.
func (s *PaymentService) List(ctx context.Context, id domain.Identity, invoiceID string) ([]models.Payment, error) {
	if !domain.Can(id, domain.ActionViewInvoices) {
		return nil, domain.ErrForbidden
	}

	inv, err := s.repo.GetInvoice(ctx, invoiceID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}

	return s.repo.ListPayments(ctx, invoiceID, id.OrganizationID)
}

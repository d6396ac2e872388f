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

// viewTokenTTL is the lifetime of a public invoice view link.
const viewTokenTTL = 90 * 24 * time.Hour

// InvoiceService assembles, sends and settles invoices. Numbering is
// allocated inside the create transaction; totals are recomputed from
// line items on every write.
type InvoiceService struct {
	repo        repository.Repository
	pdf         external.PDFRenderer
	checkout    external.CheckoutProvider
	email       external.EmailSender
	log         zerolog.Logger
	viewBaseURL string
}

// NewInvoiceService creates an InvoiceService. viewBaseURL is the
// public prefix invoice view links are built on.
func NewInvoiceService(repo repository.Repository, pdf external.PDFRenderer, checkout external.CheckoutProvider, email external.EmailSender, log zerolog.Logger, viewBaseURL string) *InvoiceService {
	return &InvoiceService{
		repo:        repo,
		pdf:         pdf,
		checkout:    checkout,
		email:       email,
		log:         log,
		viewBaseURL: viewBaseURL,
	}
}

// buildLineItems converts request lines, always recomputing amounts as
// quantity × unit price. Client-sent amounts are never trusted.
func buildLineItems(lines []models.LineItemRequest) []models.InvoiceLineItem {
	items := make([]models.InvoiceLineItem, 0, len(lines))
	for i, l := range lines {
		sort := l.SortOrder
		if sort == 0 {
			sort = i
		}
		items = append(items, models.InvoiceLineItem{
			WorkOrderID: l.WorkOrderID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Amount:      l.Quantity * l.UnitPrice,
			IsRetainer:  l.IsRetainer,
			IsCustom:    l.IsCustom,
			SortOrder:   sort,
		})
	}
	return items
}

func collectWorkOrderIDs(items []models.InvoiceLineItem) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, it := range items {
		if it.WorkOrderID == nil || seen[*it.WorkOrderID] {
			continue
		}
		seen[*it.WorkOrderID] = true
		ids = append(ids, *it.WorkOrderID)
	}
	return ids
}

func (s *InvoiceService) parseDates(ctx context.Context, orgID, invoiceDate, dueDate, periodStart, periodEnd string) (*models.Invoice, error) {
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	loc, err := domain.OrgLocation(org.Timezone)
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{OrganizationID: orgID}
	if inv.InvoiceDate, err = domain.ParseLocalDate(invoiceDate, loc); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw string
		dst **time.Time
	}{
		{dueDate, &inv.DueDate},
		{periodStart, &inv.PeriodStart},
		{periodEnd, &inv.PeriodEnd},
	} {
		if f.raw == "" {
			continue
		}
		t, err := domain.ParseLocalDate(f.raw, loc)
		if err != nil {
			return nil, err
		}
		*f.dst = &t
	}
	return inv, nil
}

func applyTotals(inv *models.Invoice, discountType models.DiscountType, discountValue float64) error {
	totals := domain.ComputeInvoiceTotals(inv.LineItems, discountType, discountValue)
	if err := domain.ValidateDiscount(discountType, discountValue, totals.Subtotal); err != nil {
		return err
	}
	inv.DiscountType = discountType
	inv.DiscountValue = discountValue
	inv.Subtotal = totals.Subtotal
	inv.DiscountAmount = totals.DiscountAmount
	inv.Total = totals.Total
	inv.AmountDue = totals.Total - inv.AmountPaid
	if inv.AmountDue < 0 {
		inv.AmountDue = 0
	}
	return nil
}

// Create assembles a draft invoice from explicit line items. Lines
// that reference work orders stamp those orders invoiced; every
// referenced order must be completed or the whole create fails.
func (s *InvoiceService) Create(ctx context.Context, id domain.Identity, req *models.CreateInvoiceRequest) (*models.Invoice, error) {
	if !domain.Can(id, domain.ActionManageInvoices) {
		return nil, domain.ErrForbidden
	}
	if len(req.LineItems) == 0 {
		return nil, fmt.Errorf("%w: invoice needs at least one line item", domain.ErrValidation)
	}

	inv, err := s.parseDates(ctx, id.OrganizationID, req.InvoiceDate, req.DueDate, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}

	inv.LineItems = buildLineItems(req.LineItems)
	inv.Notes = req.Notes
	if err := applyTotals(inv, req.DiscountType, req.DiscountValue); err != nil {
		return nil, err
	}
	inv.ViewToken = domain.NewOpaqueToken()
	inv.ViewTokenExpiresAt = time.Now().UTC().Add(viewTokenTTL)

	if err := s.repo.CreateInvoice(ctx, inv, collectWorkOrderIDs(inv.LineItems)); err != nil {
		return nil, err
	}

	s.log.Info().Str("invoice_id", inv.ID).Str("number", inv.Number).Msg("invoice created")
	return inv, nil
}

// BuildFromWorkOrders assembles a draft invoice from completed work
// orders: one line per order, actual hours priced at each order's own
// rate snapshot, plus the monthly retainer line when requested.
func (s *InvoiceService) BuildFromWorkOrders(ctx context.Context, id domain.Identity, req *models.BuildInvoiceRequest) (*models.Invoice, error) {
	if !domain.Can(id, domain.ActionManageInvoices) {
		return nil, domain.ErrForbidden
	}
	if len(req.WorkOrderIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one work order is required", domain.ErrValidation)
	}

	org, err := s.repo.GetOrganization(ctx, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	loc, err := domain.OrgLocation(org.Timezone)
	if err != nil {
		return nil, err
	}

	inv, err := s.parseDates(ctx, id.OrganizationID, req.InvoiceDate, req.DueDate, "", "")
	if err != nil {
		return nil, err
	}

	for i, woID := range req.WorkOrderIDs {
		wo, err := s.repo.GetWorkOrder(ctx, woID, id.OrganizationID)
		if err != nil {
			return nil, err
		}
		if wo == nil {
			return nil, fmt.Errorf("%w: work order not found", domain.ErrNotFound)
		}
		if wo.Status != models.WorkOrderCompleted {
			return nil, fmt.Errorf("%w: work order %s is %s, only completed orders can be invoiced", domain.ErrStateConflict, wo.ID, wo.Status)
		}

		woRef := wo.ID
		inv.LineItems = append(inv.LineItems, models.InvoiceLineItem{
			WorkOrderID: &woRef,
			Description: fmt.Sprintf("%s (%s)", wo.EventName, domain.FormatLocalDate(wo.EventDate, loc)),
			Quantity:    wo.ActualHours,
			UnitPrice:   wo.RateSnapshot,
			Amount:      wo.ActualHours * wo.RateSnapshot,
			SortOrder:   i,
		})
	}

	if req.IncludeRetainer && org.MonthlyRetainer > 0 {
		inv.LineItems = append(inv.LineItems, models.InvoiceLineItem{
			Description: "Monthly retainer",
			Quantity:    1,
			UnitPrice:   org.MonthlyRetainer,
			Amount:      org.MonthlyRetainer,
			IsRetainer:  true,
			SortOrder:   len(inv.LineItems),
		})
	}

	inv.Notes = req.Notes
	if err := applyTotals(inv, req.DiscountType, req.DiscountValue); err != nil {
		return nil, err
	}
	inv.ViewToken = domain.NewOpaqueToken()
	inv.ViewTokenExpiresAt = time.Now().UTC().Add(viewTokenTTL)

	if err := s.repo.CreateInvoice(ctx, inv, req.WorkOrderIDs); err != nil {
		return nil, err
	}

	s.log.Info().Str("invoice_id", inv.ID).Str("number", inv.Number).Int("work_orders", len(req.WorkOrderIDs)).Msg("invoice built from work orders")
	return inv, nil
}

// Get returns one invoice with line items.
func (s *InvoiceService) Get(ctx context.Context, id domain.Identity, invoiceID string) (*models.Invoice, error) {
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
	return inv, nil
}

// List returns the organization's invoices, optionally filtered by
// status.
func (s *InvoiceService) List(ctx context.Context, id domain.Identity, status *models.InvoiceStatus) ([]models.Invoice, error) {
	if !domain.Can(id, domain.ActionViewInvoices) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListInvoices(ctx, id.OrganizationID, status)
}

// Update fully replaces a draft invoice's lines and discount. The
// amount already paid is preserved and the due amount re-derived.
func (s *InvoiceService) Update(ctx context.Context, id domain.Identity, invoiceID string, req *models.UpdateInvoiceRequest) (*models.Invoice, error) {
	if !domain.Can(id, domain.ActionManageInvoices) {
		return nil, domain.ErrForbidden
	}

	stored, err := s.repo.GetInvoice(ctx, invoiceID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, domain.ErrNotFound
	}
	if !domain.InvoiceEditable(stored.Status) {
		return nil, fmt.Errorf("%w: invoice is %s, only drafts can be edited", domain.ErrStateConflict, stored.Status)
	}
	if len(req.LineItems) == 0 {
		return nil, fmt.Errorf("%w: invoice needs at least one line item", domain.ErrValidation)
	}

	inv, err := s.parseDates(ctx, id.OrganizationID, req.InvoiceDate, req.DueDate, "", "")
	if err != nil {
		return nil, err
	}
	inv.ID = stored.ID
	inv.AmountPaid = stored.AmountPaid
	inv.Notes = req.Notes
	inv.LineItems = buildLineItems(req.LineItems)
	if err := applyTotals(inv, req.DiscountType, req.DiscountValue); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceInvoiceLines(ctx, inv); err != nil {
		return nil, err
	}

	return s.repo.GetInvoice(ctx, invoiceID, id.OrganizationID)
}

// Send moves a draft invoice to sent and mails the view link to the
// organization contact. Sending is one-way.
func (s *InvoiceService) Send(ctx context.Context, id domain.Identity, invoiceID string) error {
	if !domain.Can(id, domain.ActionManageInvoices) {
		return domain.ErrForbidden
	}

	inv, err := s.repo.GetInvoice(ctx, invoiceID, id.OrganizationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return domain.ErrNotFound
	}
	if !domain.InvoiceSendable(inv.Status) {
		return fmt.Errorf("%w: invoice is %s and cannot be sent", domain.ErrStateConflict, inv.Status)
	}

	moved, err := s.repo.UpdateInvoiceStatus(ctx, invoiceID, id.OrganizationID, models.InvoiceDraft, models.InvoiceSent)
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("%w: invoice status changed concurrently", domain.ErrStateConflict)
	}

	if org, err := s.repo.GetOrganization(ctx, id.OrganizationID); err == nil && org != nil && org.ContactEmail != "" {
		link := fmt.Sprintf("%s/invoice/%s", s.viewBaseURL, inv.ViewToken)
		subject := fmt.Sprintf("Invoice %s", inv.Number)
		body := fmt.Sprintf("Invoice %s for %.2f is ready.\n\n%s\n", inv.Number, inv.Total, link)
		if err := s.email.Send(ctx, org.ContactEmail, subject, body); err != nil {
			s.log.Warn().Err(err).Str("invoice_id", invoiceID).Msg("invoice email failed")
		}
	}

	return nil
}

// Delete removes a draft invoice, reverting its work orders to
// completed.
func (s *InvoiceService) Delete(ctx context.Context, id domain.Identity, invoiceID string) error {
	if !domain.Can(id, domain.ActionManageInvoices) {
		return domain.ErrForbidden
	}

	inv, err := s.repo.GetInvoice(ctx, invoiceID, id.OrganizationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return domain.ErrNotFound
	}

	ok, err := s.repo.DeleteInvoice(ctx, invoiceID, id.OrganizationID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: only draft invoices can be deleted", domain.ErrStateConflict)
	}

	s.log.Info().Str("invoice_id", invoiceID).Msg("invoice deleted")
	return nil
}

// ViewByToken serves the public invoice page. The token is the only
// credential; expiry fails closed.
func (s *InvoiceService) ViewByToken(ctx context.Context, token string) (*models.Invoice, error) {
	inv, err := s.repo.GetInvoiceByViewToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil || !time.Now().UTC().Before(inv.ViewTokenExpiresAt) {
		return nil, domain.ErrTokenInvalid
	}
	return inv, nil
}

// RenderPDF produces the printable rendition of an invoice.
func (s *InvoiceService) RenderPDF(ctx context.Context, id domain.Identity, invoiceID string) ([]byte, error) {
	inv, err := s.Get(ctx, id, invoiceID)
	if err != nil {
		return nil, err
	}
	org, err := s.repo.GetOrganization(ctx, id.OrganizationID)
	if err != nil {
		return nil, err
	}

	data, err := s.pdf.RenderInvoice(ctx, inv, org)
	if err != nil {
		return nil, fmt.Errorf("%w: render invoice pdf: %v", domain.ErrUpstream, err)
	}
	return data, nil
}

// Checkout creates a hosted checkout session for an outstanding
// invoice. Settlement arrives later through the payment webhook.
func (s *InvoiceService) Checkout(ctx context.Context, id domain.Identity, invoiceID string) (string, error) {
	if !domain.Can(id, domain.ActionPayInvoice) {
		return "", domain.ErrForbidden
	}

	inv, err := s.repo.GetInvoice(ctx, invoiceID, id.OrganizationID)
	if err != nil {
		return "", err
	}
	if inv == nil {
		return "", domain.ErrNotFound
	}
	if inv.Status != models.InvoiceSent && inv.Status != models.InvoicePastDue {
		return "", fmt.Errorf("%w: invoice is %s and cannot be paid", domain.ErrStateConflict, inv.Status)
	}

	org, err := s.repo.GetOrganization(ctx, id.OrganizationID)
	if err != nil {
		return "", err
	}

	url, err := s.checkout.CreateCheckout(ctx, inv, org)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", domain.ErrUpstream, err)
	}
	return url, nil
}

// AddComment attaches a discussion note to an invoice.
func (s *InvoiceService) AddComment(ctx context.Context, id domain.Identity, invoiceID string, req *models.CommentRequest) (*models.InvoiceComment, error) {
	if !domain.Can(id, domain.ActionCommentOnInvoice) {
		return nil, domain.ErrForbidden
	}

	inv, err := s.repo.GetInvoice(ctx, invoiceID, id.OrganizationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}

	c := &models.InvoiceComment{
		InvoiceID:      invoiceID,
		OrganizationID: id.OrganizationID,
		AuthorID:       id.UserID,
		Body:           req.Body,
	}
	if err := s.repo.CreateInvoiceComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListComments returns an invoice's discussion thread.
func (s *InvoiceService) ListComments(ctx context.Context, id domain.Identity, invoiceID string) ([]models.InvoiceComment, error) {
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

	return s.repo.ListInvoiceComments(ctx, invoiceID, id.OrganizationID)
}

// DeleteComment removes a comment. Authors may delete their own;
// staff may delete any comment in their organization.
func (s *InvoiceService) DeleteComment(ctx context.Context, id domain.Identity, invoiceID, commentID string) error {
	comments, err := s.ListComments(ctx, id, invoiceID)
	if err != nil {
		return err
	}

	for _, c := range comments {
		if c.ID != commentID {
			continue
		}
		if !id.IsStaff() && c.AuthorID != id.UserID {
			return domain.ErrForbidden
		}
		return s.repo.DeleteInvoiceComment(ctx, commentID, id.OrganizationID)
	}
	return domain.ErrNotFound
}

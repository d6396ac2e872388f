package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
)

// MemoryRepository is an in-memory Repository with the same
// conditional-update semantics as the PostgreSQL implementation. It
// backs unit tests and local development without a database.
type MemoryRepository struct {
	mu sync.Mutex

	orgs        map[string]models.Organization
	users       map[string]models.User
	series      map[string]models.Series
	workOrders  map[string]models.WorkOrder
	timeLogs    map[string]models.TimeLog
	changeOrds  map[string]models.ChangeOrder
	tokens      map[string]models.ApprovalToken
	approvals   map[string]models.Approval
	invoices    map[string]models.Invoice
	payments    map[string]models.Payment
	paymentByPP map[string]string
	incidents   map[string]models.IncidentReport
	comments    map[string]models.InvoiceComment
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orgs:        make(map[string]models.Organization),
		users:       make(map[string]models.User),
		series:      make(map[string]models.Series),
		workOrders:  make(map[string]models.WorkOrder),
		timeLogs:    make(map[string]models.TimeLog),
		changeOrds:  make(map[string]models.ChangeOrder),
		tokens:      make(map[string]models.ApprovalToken),
		approvals:   make(map[string]models.Approval),
		invoices:    make(map[string]models.Invoice),
		payments:    make(map[string]models.Payment),
		paymentByPP: make(map[string]string),
		incidents:   make(map[string]models.IncidentReport),
		comments:    make(map[string]models.InvoiceComment),
	}
}

// SeedOrganization installs a tenant row directly.
func (r *MemoryRepository) SeedOrganization(org models.Organization) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgs[org.ID] = org
}

// FindChangeOrderToken returns the signing token issued for a change
// order. In production the token only ever travels by email; tests use
// this to follow the link.
func (r *MemoryRepository) FindChangeOrderToken(changeOrderID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tok := range r.tokens {
		if tok.ChangeOrderID != nil && *tok.ChangeOrderID == changeOrderID {
			return tok.Token
		}
	}
	return ""
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

// Organizations

func (r *MemoryRepository) GetOrganization(_ context.Context, id string) (*models.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if org, ok := r.orgs[id]; ok {
		return &org, nil
	}
	return nil, nil
}

func (r *MemoryRepository) UpdateOrganization(_ context.Context, org *models.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orgs[org.ID]
	if !ok {
		return domain.ErrNotFound
	}
	org.NextInvoiceNumber = stored.NextInvoiceNumber
	org.UpdatedAt = time.Now().UTC()
	r.orgs[org.ID] = *org
	return nil
}

// Users

func (r *MemoryRepository) CreateUser(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ensureID(&u.ID)
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryRepository) GetUser(_ context.Context, id, orgID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok && u.OrganizationID == orgID {
		return &u, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListUsers(_ context.Context, orgID string) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.User
	for _, u := range r.users {
		if u.OrganizationID == orgID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *MemoryRepository) UpdateUser(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.users[u.ID]; ok && stored.OrganizationID == u.OrganizationID {
		u.UpdatedAt = time.Now().UTC()
		r.users[u.ID] = *u
	}
	return nil
}

// Series

func (r *MemoryRepository) CreateSeries(_ context.Context, s *models.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ensureID(&s.ID)
	s.CreatedAt = time.Now().UTC()
	r.series[s.ID] = *s
	return nil
}

func (r *MemoryRepository) GetSeries(_ context.Context, id, orgID string) (*models.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.series[id]; ok && s.OrganizationID == orgID {
		return &s, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListSeries(_ context.Context, orgID string) ([]models.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Series
	for _, s := range r.series {
		if s.OrganizationID == orgID {
			out = append(out, s)
		}
	}
	return out, nil
}

// Work orders

func (r *MemoryRepository) CreateWorkOrder(_ context.Context, wo *models.WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ensureID(&wo.ID)
	now := time.Now().UTC()
	wo.CreatedAt = now
	wo.UpdatedAt = now
	wo.Status = models.WorkOrderDraft
	r.workOrders[wo.ID] = *wo
	return nil
}

func (r *MemoryRepository) GetWorkOrder(_ context.Context, id, orgID string) (*models.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wo, ok := r.workOrders[id]; ok && wo.OrganizationID == orgID {
		return &wo, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListWorkOrders(_ context.Context, orgID string, statuses []models.WorkOrderStatus) ([]models.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.WorkOrder
	for _, wo := range r.workOrders {
		if wo.OrganizationID != orgID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, s := range statuses {
				if wo.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, wo)
	}
	return out, nil
}

func (r *MemoryRepository) UpdateWorkOrderFields(_ context.Context, wo *models.WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.workOrders[wo.ID]
	if !ok || stored.OrganizationID != wo.OrganizationID {
		return nil
	}

	stored.EventName = wo.EventName
	stored.EventDate = wo.EventDate
	stored.Venue = wo.Venue
	stored.EventType = wo.EventType
	stored.ApproverID = wo.ApproverID
	stored.EstimateType = wo.EstimateType
	stored.HoursMin = wo.HoursMin
	stored.HoursMax = wo.HoursMax
	stored.HoursFixed = wo.HoursFixed
	stored.ServiceRefs = wo.ServiceRefs
	stored.ScopeNotes = wo.ScopeNotes
	stored.Notes = wo.Notes
	stored.UpdatedAt = time.Now().UTC()
	r.workOrders[wo.ID] = stored
	return nil
}

func (r *MemoryRepository) UpdateWorkOrderStatus(_ context.Context, id, orgID string, from, to models.WorkOrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wo, ok := r.workOrders[id]
	if !ok || wo.OrganizationID != orgID || wo.Status != from {
		return false, nil
	}
	wo.Status = to
	wo.UpdatedAt = time.Now().UTC()
	r.workOrders[id] = wo
	return true, nil
}

func (r *MemoryRepository) UpdateWorkOrderNotes(_ context.Context, id, orgID, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wo, ok := r.workOrders[id]; ok && wo.OrganizationID == orgID {
		wo.Notes = notes
		wo.UpdatedAt = time.Now().UTC()
		r.workOrders[id] = wo
	}
	return nil
}

func (r *MemoryRepository) UpdateWorkOrderInternalNotes(_ context.Context, id, orgID, internalNotes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wo, ok := r.workOrders[id]; ok && wo.OrganizationID == orgID {
		wo.InternalNotes = internalNotes
		wo.UpdatedAt = time.Now().UTC()
		r.workOrders[id] = wo
	}
	return nil
}

func (r *MemoryRepository) DeleteWorkOrder(_ context.Context, id, orgID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wo, ok := r.workOrders[id]
	if !ok || wo.OrganizationID != orgID || wo.Status != models.WorkOrderDraft {
		return false, nil
	}

	delete(r.workOrders, id)
	for k, tl := range r.timeLogs {
		if tl.WorkOrderID == id {
			delete(r.timeLogs, k)
		}
	}
	for k, tok := range r.tokens {
		if tok.WorkOrderID == id {
			delete(r.tokens, k)
		}
	}
	for k, rep := range r.incidents {
		if rep.WorkOrderID == id {
			delete(r.incidents, k)
		}
	}
	return true, nil
}

// Time logs

func (r *MemoryRepository) recomputeActualHoursLocked(workOrderID string) {
	wo, ok := r.workOrders[workOrderID]
	if !ok {
		return
	}
	var total float64
	for _, tl := range r.timeLogs {
		if tl.WorkOrderID == workOrderID {
			total += tl.Hours
		}
	}
	wo.ActualHours = total
	wo.UpdatedAt = time.Now().UTC()
	r.workOrders[workOrderID] = wo
}

func (r *MemoryRepository) CreateTimeLog(_ context.Context, tl *models.TimeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ensureID(&tl.ID)
	now := time.Now().UTC()
	tl.CreatedAt = now
	tl.UpdatedAt = now
	r.timeLogs[tl.ID] = *tl
	r.recomputeActualHoursLocked(tl.WorkOrderID)
	return nil
}

func (r *MemoryRepository) GetTimeLog(_ context.Context, id, orgID string) (*models.TimeLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tl, ok := r.timeLogs[id]; ok && tl.OrganizationID == orgID {
		return &tl, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListTimeLogs(_ context.Context, workOrderID, orgID string) ([]models.TimeLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.TimeLog
	for _, tl := range r.timeLogs {
		if tl.WorkOrderID == workOrderID && tl.OrganizationID == orgID {
			out = append(out, tl)
		}
	}
	return out, nil
}

func (r *MemoryRepository) UpdateTimeLog(_ context.Context, tl *models.TimeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.timeLogs[tl.ID]; ok && stored.OrganizationID == tl.OrganizationID {
		tl.UpdatedAt = time.Now().UTC()
		r.timeLogs[tl.ID] = *tl
		r.recomputeActualHoursLocked(tl.WorkOrderID)
	}
	return nil
}

func (r *MemoryRepository) DeleteTimeLog(_ context.Context, id, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tl, ok := r.timeLogs[id]
	if !ok || tl.OrganizationID != orgID {
		return nil
	}
	delete(r.timeLogs, id)
	r.recomputeActualHoursLocked(tl.WorkOrderID)
	return nil
}

// Change orders

func (r *MemoryRepository) CreateChangeOrder(_ context.Context, co *models.ChangeOrder, tok *models.ApprovalToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ensureID(&co.ID)
	now := time.Now().UTC()
	co.CreatedAt = now
	co.UpdatedAt = now
	co.IsApproved = false
	r.changeOrds[co.ID] = *co

	tok.ChangeOrderID = &co.ID
	tok.WorkOrderID = co.WorkOrderID
	tok.OrganizationID = co.OrganizationID
	tok.CreatedAt = now
	r.tokens[tok.Token] = *tok
	return nil
}

func (r *MemoryRepository) GetChangeOrder(_ context.Context, id, orgID string) (*models.ChangeOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if co, ok := r.changeOrds[id]; ok && co.OrganizationID == orgID {
		return &co, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListChangeOrders(_ context.Context, workOrderID, orgID string) ([]models.ChangeOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ChangeOrder
	for _, co := range r.changeOrds {
		if co.WorkOrderID == workOrderID && co.OrganizationID == orgID {
			out = append(out, co)
		}
	}
	return out, nil
}

func (r *MemoryRepository) DeleteChangeOrder(_ context.Context, id, orgID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	co, ok := r.changeOrds[id]
	if !ok || co.OrganizationID != orgID || co.IsApproved {
		return false, nil
	}

	delete(r.changeOrds, id)
	for k, tok := range r.tokens {
		if tok.ChangeOrderID != nil && *tok.ChangeOrderID == id {
			delete(r.tokens, k)
		}
	}
	return true, nil
}

// Approval tokens and approvals

func (r *MemoryRepository) CreateApprovalToken(_ context.Context, tok *models.ApprovalToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok.CreatedAt = time.Now().UTC()
	r.tokens[tok.Token] = *tok
	return nil
}

func (r *MemoryRepository) GetApprovalToken(_ context.Context, token string) (*models.ApprovalToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tok, ok := r.tokens[token]; ok {
		return &tok, nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetTokenForWorkOrder(_ context.Context, workOrderID string) (*models.ApprovalToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tok := range r.tokens {
		if tok.WorkOrderID == workOrderID && tok.ChangeOrderID == nil && tok.UsedAt == nil {
			t := tok
			return &t, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) DeleteWorkOrderToken(_ context.Context, workOrderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, tok := range r.tokens {
		if tok.WorkOrderID == workOrderID && tok.ChangeOrderID == nil {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *MemoryRepository) consumeTokenLocked(token string, at time.Time) error {
	tok, ok := r.tokens[token]
	if !ok || tok.UsedAt != nil {
		return domain.ErrTokenUsed
	}
	tok.UsedAt = &at
	r.tokens[token] = tok
	return nil
}

func (r *MemoryRepository) RedeemWorkOrderToken(_ context.Context, token string, approval *models.Approval) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.consumeTokenLocked(token, approval.SignedAt); err != nil {
		return err
	}

	wo, ok := r.workOrders[approval.WorkOrderID]
	if !ok || wo.OrganizationID != approval.OrganizationID || wo.Status != models.WorkOrderPendingApproval {
		// undo the token consumption: the transaction fails as a whole
		tok := r.tokens[token]
		tok.UsedAt = nil
		r.tokens[token] = tok
		return fmt.Errorf("%w: work order is no longer pending approval", domain.ErrStateConflict)
	}

	ensureID(&approval.ID)
	approval.CreatedAt = time.Now().UTC()
	r.approvals[approval.ID] = *approval

	wo.Status = models.WorkOrderApproved
	wo.UpdatedAt = time.Now().UTC()
	r.workOrders[wo.ID] = wo
	return nil
}

func (r *MemoryRepository) RedeemChangeOrderToken(_ context.Context, token string, approval *models.Approval, changeOrderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.consumeTokenLocked(token, approval.SignedAt); err != nil {
		return err
	}

	co, ok := r.changeOrds[changeOrderID]
	if !ok || co.OrganizationID != approval.OrganizationID || co.IsApproved {
		tok := r.tokens[token]
		tok.UsedAt = nil
		r.tokens[token] = tok
		return fmt.Errorf("%w: change order already approved", domain.ErrStateConflict)
	}

	ensureID(&approval.ID)
	approval.CreatedAt = time.Now().UTC()
	r.approvals[approval.ID] = *approval

	co.IsApproved = true
	co.ApprovalID = &approval.ID
	co.UpdatedAt = time.Now().UTC()
	r.changeOrds[co.ID] = co
	return nil
}

func (r *MemoryRepository) ListApprovals(_ context.Context, workOrderID, orgID string) ([]models.Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Approval
	for _, a := range r.approvals {
		if a.WorkOrderID == workOrderID && a.OrganizationID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Invoices

func (r *MemoryRepository) CreateInvoice(_ context.Context, inv *models.Invoice, workOrderIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	org, ok := r.orgs[inv.OrganizationID]
	if !ok {
		return domain.ErrNotFound
	}

	// all referenced work orders must be completed before anything is
	// stamped
	for _, id := range workOrderIDs {
		wo, ok := r.workOrders[id]
		if !ok || wo.OrganizationID != inv.OrganizationID || wo.Status != models.WorkOrderCompleted {
			return fmt.Errorf("%w: a referenced work order is not completed", domain.ErrStateConflict)
		}
	}

	counter := org.NextInvoiceNumber
	org.NextInvoiceNumber++
	r.orgs[org.ID] = org

	inv.Number = domain.FormatInvoiceNumber(org.InvoicePrefix, counter)
	ensureID(&inv.ID)
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	inv.Status = models.InvoiceDraft
	for i := range inv.LineItems {
		ensureID(&inv.LineItems[i].ID)
		inv.LineItems[i].InvoiceID = inv.ID
	}
	r.invoices[inv.ID] = *inv

	for _, id := range workOrderIDs {
		wo := r.workOrders[id]
		wo.Status = models.WorkOrderInvoiced
		wo.InvoiceID = &inv.ID
		wo.UpdatedAt = now
		r.workOrders[id] = wo
	}
	return nil
}

func (r *MemoryRepository) GetInvoice(_ context.Context, id, orgID string) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inv, ok := r.invoices[id]; ok && inv.OrganizationID == orgID {
		return &inv, nil
	}
	return nil, nil
}

func (r *MemoryRepository) FindInvoice(_ context.Context, id string) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inv, ok := r.invoices[id]; ok {
		return &inv, nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetInvoiceByViewToken(_ context.Context, token string) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inv := range r.invoices {
		if inv.ViewToken == token {
			i := inv
			return &i, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListInvoices(_ context.Context, orgID string, status *models.InvoiceStatus) ([]models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Invoice
	for _, inv := range r.invoices {
		if inv.OrganizationID != orgID {
			continue
		}
		if status != nil && inv.Status != *status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *MemoryRepository) ReplaceInvoiceLines(_ context.Context, inv *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.invoices[inv.ID]
	if !ok || stored.OrganizationID != inv.OrganizationID || stored.Status != models.InvoiceDraft {
		return fmt.Errorf("%w: only draft invoices can be edited", domain.ErrStateConflict)
	}

	stored.InvoiceDate = inv.InvoiceDate
	stored.DueDate = inv.DueDate
	stored.DiscountType = inv.DiscountType
	stored.DiscountValue = inv.DiscountValue
	stored.Subtotal = inv.Subtotal
	stored.DiscountAmount = inv.DiscountAmount
	stored.Total = inv.Total
	stored.AmountDue = inv.AmountDue
	stored.Notes = inv.Notes
	stored.UpdatedAt = time.Now().UTC()
	for i := range inv.LineItems {
		ensureID(&inv.LineItems[i].ID)
		inv.LineItems[i].InvoiceID = inv.ID
	}
	stored.LineItems = inv.LineItems
	r.invoices[inv.ID] = stored
	return nil
}

func (r *MemoryRepository) UpdateInvoiceStatus(_ context.Context, id, orgID string, from, to models.InvoiceStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok || inv.OrganizationID != orgID || inv.Status != from {
		return false, nil
	}
	inv.Status = to
	inv.UpdatedAt = time.Now().UTC()
	r.invoices[id] = inv
	return true, nil
}

func (r *MemoryRepository) DeleteInvoice(_ context.Context, id, orgID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok || inv.OrganizationID != orgID || inv.Status != models.InvoiceDraft {
		return false, nil
	}

	for k, wo := range r.workOrders {
		if wo.InvoiceID != nil && *wo.InvoiceID == id && wo.Status == models.WorkOrderInvoiced {
			wo.Status = models.WorkOrderCompleted
			wo.InvoiceID = nil
			wo.UpdatedAt = time.Now().UTC()
			r.workOrders[k] = wo
		}
	}
	for k, c := range r.comments {
		if c.InvoiceID == id {
			delete(r.comments, k)
		}
	}
	delete(r.invoices, id)
	return true, nil
}

func (r *MemoryRepository) MarkInvoicesPastDue(_ context.Context, asOf time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, inv := range r.invoices {
		if inv.Status == models.InvoiceSent && inv.DueDate != nil && inv.DueDate.Before(asOf) {
			inv.Status = models.InvoicePastDue
			inv.UpdatedAt = time.Now().UTC()
			r.invoices[k] = inv
			n++
		}
	}
	return n, nil
}

// Payments

func (r *MemoryRepository) RecordPayment(_ context.Context, p *models.Payment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.paymentByPP[p.ProcessorPaymentID]; seen {
		return false, nil
	}

	ensureID(&p.ID)
	p.CreatedAt = time.Now().UTC()
	r.payments[p.ID] = *p
	r.paymentByPP[p.ProcessorPaymentID] = p.ID

	if p.Status == models.PaymentSucceeded {
		if inv, ok := r.invoices[p.InvoiceID]; ok && inv.OrganizationID == p.OrganizationID {
			paid, due, status := domain.ApplyPayment(&inv, p.Amount)
			inv.AmountPaid = paid
			inv.AmountDue = due
			inv.Status = status
			inv.UpdatedAt = time.Now().UTC()
			r.invoices[inv.ID] = inv
		}
	}
	return true, nil
}

func (r *MemoryRepository) ListPayments(_ context.Context, invoiceID, orgID string) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Payment
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID && p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Incident reports

func (r *MemoryRepository) CreateIncidentReport(_ context.Context, rep *models.IncidentReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ensureID(&rep.ID)
	now := time.Now().UTC()
	rep.CreatedAt = now
	rep.UpdatedAt = now
	r.incidents[rep.ID] = *rep
	return nil
}

func (r *MemoryRepository) GetIncidentReport(_ context.Context, id, orgID string) (*models.IncidentReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rep, ok := r.incidents[id]; ok && rep.OrganizationID == orgID {
		return &rep, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListIncidentReports(_ context.Context, workOrderID, orgID string) ([]models.IncidentReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.IncidentReport
	for _, rep := range r.incidents {
		if rep.WorkOrderID == workOrderID && rep.OrganizationID == orgID {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *MemoryRepository) UpdateIncidentReport(_ context.Context, rep *models.IncidentReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.incidents[rep.ID]; ok && stored.OrganizationID == rep.OrganizationID {
		stored.Title = rep.Title
		stored.Description = rep.Description
		stored.Severity = rep.Severity
		stored.UpdatedAt = time.Now().UTC()
		r.incidents[rep.ID] = stored
	}
	return nil
}

func (r *MemoryRepository) ResolveIncidentReport(_ context.Context, id, orgID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rep, ok := r.incidents[id]; ok && rep.OrganizationID == orgID {
		rep.IsResolved = true
		rep.ResolvedAt = &at
		rep.UpdatedAt = at
		r.incidents[id] = rep
	}
	return nil
}

func (r *MemoryRepository) DeleteIncidentReport(_ context.Context, id, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rep, ok := r.incidents[id]; ok && rep.OrganizationID == orgID {
		delete(r.incidents, id)
	}
	return nil
}

// Invoice comments

func (r *MemoryRepository) CreateInvoiceComment(_ context.Context, c *models.InvoiceComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ensureID(&c.ID)
	c.CreatedAt = time.Now().UTC()
	r.comments[c.ID] = *c
	return nil
}

func (r *MemoryRepository) ListInvoiceComments(_ context.Context, invoiceID, orgID string) ([]models.InvoiceComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.InvoiceComment
	for _, c := range r.comments {
		if c.InvoiceID == invoiceID && c.OrganizationID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepository) DeleteInvoiceComment(_ context.Context, id, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.comments[id]; ok && c.OrganizationID == orgID {
		delete(r.comments, id)
	}
	return nil
}

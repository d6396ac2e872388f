package models

import (
	"time"

	"github.com/lib/pq"
)

// Role is the closed set of user roles across both sides of the portal.
type Role string

const (
	RoleVendorAdmin    Role = "vendor_admin"
	RoleVendorStaff    Role = "vendor_staff"
	RoleClientAdmin    Role = "client_admin"
	RoleClientApprover Role = "client_approver"
	RoleClientViewer   Role = "client_viewer"
)

// WorkOrderStatus is the work-order lifecycle state.
type WorkOrderStatus string

const (
	WorkOrderDraft           WorkOrderStatus = "draft"
	WorkOrderPendingApproval WorkOrderStatus = "pending_approval"
	WorkOrderApproved        WorkOrderStatus = "approved"
	WorkOrderInProgress      WorkOrderStatus = "in_progress"
	WorkOrderCompleted       WorkOrderStatus = "completed"
	WorkOrderInvoiced        WorkOrderStatus = "invoiced"
	WorkOrderPaid            WorkOrderStatus = "paid"
)

// EstimateType describes how a work order's estimate is expressed.
type EstimateType string

const (
	EstimateRange       EstimateType = "range"
	EstimateFixed       EstimateType = "fixed"
	EstimateNotToExceed EstimateType = "not_to_exceed"
)

// InvoiceStatus is the invoice lifecycle state.
type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceSent    InvoiceStatus = "sent"
	InvoicePastDue InvoiceStatus = "past_due"
	InvoicePaid    InvoiceStatus = "paid"
)

// DiscountType describes how an invoice discount is applied.
type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountFlat       DiscountType = "flat"
	DiscountPercentage DiscountType = "percentage"
)

// TimeLogCategory classifies a time-log entry.
type TimeLogCategory string

const (
	TimeLogOnSite         TimeLogCategory = "on_site"
	TimeLogRemote         TimeLogCategory = "remote"
	TimeLogPostProduction TimeLogCategory = "post_production"
	TimeLogAdmin          TimeLogCategory = "admin"
)

// PaymentStatus is the outcome of a payment attempt.
type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
)

// Organization is the tenant boundary. Every other entity belongs to
// exactly one organization.
type Organization struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	InvoicePrefix     string    `db:"invoice_prefix" json:"invoicePrefix"`
	NextInvoiceNumber int64     `db:"next_invoice_number" json:"nextInvoiceNumber"`
	DefaultRate       float64   `db:"default_rate" json:"defaultRate"`
	MonthlyRetainer   float64   `db:"monthly_retainer" json:"monthlyRetainer"`
	PaymentTerms      string    `db:"payment_terms" json:"paymentTerms"`
	ContactName       string    `db:"contact_name" json:"contactName"`
	ContactEmail      string    `db:"contact_email" json:"contactEmail"`
	ContactPhone      string    `db:"contact_phone" json:"contactPhone"`
	Timezone          string    `db:"timezone" json:"timezone"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// User is a portal user. Users are deactivated, never hard-deleted.
type User struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	Title          string    `db:"title" json:"title"`
	Role           Role      `db:"role" json:"role"`
	IsApprover     bool      `db:"is_approver" json:"isApprover"`
	CanPay         bool      `db:"can_pay" json:"canPay"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Series groups work orders sharing common event details but
// individual dates (e.g. a weekly speaker series).
type Series struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	Name           string    `db:"name" json:"name"`
	Venue          string    `db:"venue" json:"venue"`
	EventType      string    `db:"event_type" json:"eventType"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// WorkOrder is the central billable entity. RateSnapshot is captured
// at creation so later organization rate changes never retroactively
// alter existing orders. ActualHours is denormalized and recomputed
// whenever the order's time logs change.
type WorkOrder struct {
	ID             string          `db:"id" json:"id"`
	OrganizationID string          `db:"organization_id" json:"organizationId"`
	SeriesID       *string         `db:"series_id" json:"seriesId,omitempty"`
	EventName      string          `db:"event_name" json:"eventName"`
	EventDate      time.Time       `db:"event_date" json:"eventDate"`
	Venue          string          `db:"venue" json:"venue"`
	EventType      string          `db:"event_type" json:"eventType"`
	RequesterID    string          `db:"requester_id" json:"requesterId"`
	ApproverID     *string         `db:"approver_id" json:"approverId,omitempty"`
	EstimateType   EstimateType    `db:"estimate_type" json:"estimateType"`
	HoursMin       float64         `db:"hours_min" json:"hoursMin"`
	HoursMax       float64         `db:"hours_max" json:"hoursMax"`
	HoursFixed     float64         `db:"hours_fixed" json:"hoursFixed"`
	RateSnapshot   float64         `db:"rate_snapshot" json:"rateSnapshot"`
	ActualHours    float64         `db:"actual_hours" json:"actualHours"`
	ServiceRefs    pq.StringArray  `db:"service_refs" json:"serviceRefs"`
	ScopeNotes     string          `db:"scope_notes" json:"scopeNotes"`
	Notes          string          `db:"notes" json:"notes"`
	InternalNotes  string          `db:"internal_notes" json:"internalNotes,omitempty"`
	Status         WorkOrderStatus `db:"status" json:"status"`
	InvoiceID      *string         `db:"invoice_id" json:"invoiceId,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

// TimeLog is a dated, categorized duration entry against one work
// order. StartedAt/EndedAt are stored UTC; entry and display use the
// organization's fixed timezone.
type TimeLog struct {
	ID             string          `db:"id" json:"id"`
	WorkOrderID    string          `db:"work_order_id" json:"workOrderId"`
	OrganizationID string          `db:"organization_id" json:"organizationId"`
	LogDate        time.Time       `db:"log_date" json:"logDate"`
	Category       TimeLogCategory `db:"category" json:"category"`
	Hours          float64         `db:"hours" json:"hours"`
	StartedAt      *time.Time      `db:"started_at" json:"startedAt,omitempty"`
	EndedAt        *time.Time      `db:"ended_at" json:"endedAt,omitempty"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedBy      string          `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

// ChangeOrder is a request for additional hours beyond a work order's
// original estimate. Approval is one-way.
type ChangeOrder struct {
	ID              string    `db:"id" json:"id"`
	WorkOrderID     string    `db:"work_order_id" json:"workOrderId"`
	OrganizationID  string    `db:"organization_id" json:"organizationId"`
	AdditionalHours float64   `db:"additional_hours" json:"additionalHours"`
	ReasonCode      string    `db:"reason_code" json:"reasonCode"`
	ReasonText      string    `db:"reason_text" json:"reasonText"`
	Notes           string    `db:"notes" json:"notes"`
	IsApproved      bool      `db:"is_approved" json:"isApproved"`
	ApprovalID      *string   `db:"approval_id" json:"approvalId,omitempty"`
	CreatedBy       string    `db:"created_by" json:"createdBy"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// ApprovalToken is a single-use, time-limited bearer capability
// granting the holder the right to sign exactly one target: a work
// order, or one specific change order when ChangeOrderID is set.
type ApprovalToken struct {
	Token          string     `db:"token" json:"token"`
	OrganizationID string     `db:"organization_id" json:"organizationId"`
	WorkOrderID    string     `db:"work_order_id" json:"workOrderId"`
	ChangeOrderID  *string    `db:"change_order_id" json:"changeOrderId,omitempty"`
	ExpiresAt      time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt         *time.Time `db:"used_at" json:"usedAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// Approval is an immutable signed record of consent. ContentHash
// covers the target's key fields at signing time for tamper evidence.
type Approval struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	WorkOrderID    string    `db:"work_order_id" json:"workOrderId"`
	ChangeOrderID  *string   `db:"change_order_id" json:"changeOrderId,omitempty"`
	IsChangeOrder  bool      `db:"is_change_order" json:"isChangeOrder"`
	SignerUserID   *string   `db:"signer_user_id" json:"signerUserId,omitempty"`
	SignerName     string    `db:"signer_name" json:"signerName"`
	SignerTitle    string    `db:"signer_title" json:"signerTitle"`
	SignatureURL   string    `db:"signature_url" json:"signatureUrl"`
	SignedAt       time.Time `db:"signed_at" json:"signedAt"`
	DeviceInfo     string    `db:"device_info" json:"deviceInfo"`
	ContentHash    string    `db:"content_hash" json:"contentHash"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Invoice is a billing document. Number is allocated atomically from
// the organization's counter at creation.
type Invoice struct {
	ID                 string        `db:"id" json:"id"`
	OrganizationID     string        `db:"organization_id" json:"organizationId"`
	Number             string        `db:"number" json:"number"`
	InvoiceDate        time.Time     `db:"invoice_date" json:"invoiceDate"`
	PeriodStart        *time.Time    `db:"period_start" json:"periodStart,omitempty"`
	PeriodEnd          *time.Time    `db:"period_end" json:"periodEnd,omitempty"`
	DueDate            *time.Time    `db:"due_date" json:"dueDate,omitempty"`
	Status             InvoiceStatus `db:"status" json:"status"`
	DiscountType       DiscountType  `db:"discount_type" json:"discountType"`
	DiscountValue      float64       `db:"discount_value" json:"discountValue"`
	Subtotal           float64       `db:"subtotal" json:"subtotal"`
	DiscountAmount     float64       `db:"discount_amount" json:"discountAmount"`
	Total              float64       `db:"total" json:"total"`
	AmountPaid         float64       `db:"amount_paid" json:"amountPaid"`
	AmountDue          float64       `db:"amount_due" json:"amountDue"`
	ViewToken          string        `db:"view_token" json:"-"`
	ViewTokenExpiresAt time.Time     `db:"view_token_expires_at" json:"-"`
	Notes              string        `db:"notes" json:"notes"`
	CreatedAt          time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updatedAt"`

	LineItems []InvoiceLineItem `db:"-" json:"lineItems,omitempty"`
}

// InvoiceLineItem is one line on an invoice. Amount is always
// Quantity × UnitPrice.
type InvoiceLineItem struct {
	ID          string  `db:"id" json:"id"`
	InvoiceID   string  `db:"invoice_id" json:"invoiceId"`
	WorkOrderID *string `db:"work_order_id" json:"workOrderId,omitempty"`
	Description string  `db:"description" json:"description"`
	Quantity    float64 `db:"quantity" json:"quantity"`
	UnitPrice   float64 `db:"unit_price" json:"unitPrice"`
	Amount      float64 `db:"amount" json:"amount"`
	IsRetainer  bool    `db:"is_retainer" json:"isRetainer"`
	IsCustom    bool    `db:"is_custom" json:"isCustom"`
	SortOrder   int     `db:"sort_order" json:"sortOrder"`
}

// Payment records one payment attempt against an invoice.
// ProcessorPaymentID is unique and keys webhook replay detection.
type Payment struct {
	ID                 string        `db:"id" json:"id"`
	InvoiceID          string        `db:"invoice_id" json:"invoiceId"`
	OrganizationID     string        `db:"organization_id" json:"organizationId"`
	ProcessorPaymentID string        `db:"processor_payment_id" json:"processorPaymentId"`
	Amount             float64       `db:"amount" json:"amount"`
	Method             string        `db:"method" json:"method"`
	Status             PaymentStatus `db:"status" json:"status"`
	ReceiptURL         string        `db:"receipt_url" json:"receiptUrl"`
	CreatedAt          time.Time     `db:"created_at" json:"createdAt"`
}

// IncidentReport is a secondary record attached to a work order.
type IncidentReport struct {
	ID             string     `db:"id" json:"id"`
	WorkOrderID    string     `db:"work_order_id" json:"workOrderId"`
	OrganizationID string     `db:"organization_id" json:"organizationId"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description"`
	Severity       string     `db:"severity" json:"severity"`
	IsResolved     bool       `db:"is_resolved" json:"isResolved"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolvedAt,omitempty"`
	CreatedBy      string     `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// InvoiceComment is a discussion note attached to an invoice.
type InvoiceComment struct {
	ID             string    `db:"id" json:"id"`
	InvoiceID      string    `db:"invoice_id" json:"invoiceId"`
	OrganizationID string    `db:"organization_id" json:"organizationId"`
	AuthorID       string    `db:"author_id" json:"authorId"`
	Body           string    `db:"body" json:"body"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

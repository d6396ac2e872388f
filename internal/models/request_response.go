package models

// ErrorResponse is the common error body
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusResponse is the common success body for actions with no payload
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// CreateWorkOrderRequest is the payload for creating a work order
type CreateWorkOrderRequest struct {
	SeriesID     *string      `json:"seriesId"`
	EventName    string       `json:"eventName" binding:"required"`
	EventDate    string       `json:"eventDate" binding:"required"` // YYYY-MM-DD, org timezone
	Venue        string       `json:"venue"`
	EventType    string       `json:"eventType"`
	ApproverID   *string      `json:"approverId"`
	EstimateType EstimateType `json:"estimateType" binding:"required"`
	HoursMin     float64      `json:"hoursMin"`
	HoursMax     float64      `json:"hoursMax"`
	HoursFixed   float64      `json:"hoursFixed"`
	ServiceRefs  []string     `json:"serviceRefs"`
	ScopeNotes   string       `json:"scopeNotes"`
	Notes        string       `json:"notes"`
}

// UpdateWorkOrderRequest is the payload for editing a draft or
// pending-approval work order
type UpdateWorkOrderRequest struct {
	EventName    string       `json:"eventName" binding:"required"`
	EventDate    string       `json:"eventDate" binding:"required"`
	Venue        string       `json:"venue"`
	EventType    string       `json:"eventType"`
	ApproverID   *string      `json:"approverId"`
	EstimateType EstimateType `json:"estimateType" binding:"required"`
	HoursMin     float64      `json:"hoursMin"`
	HoursMax     float64      `json:"hoursMax"`
	HoursFixed   float64      `json:"hoursFixed"`
	ServiceRefs  []string     `json:"serviceRefs"`
	ScopeNotes   string       `json:"scopeNotes"`
	Notes        string       `json:"notes"`
}

// CompleteWorkOrderRequest carries optional completion notes appended
// to the work order's notes
type CompleteWorkOrderRequest struct {
	CompletionNotes string `json:"completionNotes"`
}

// InternalNotesRequest updates staff-only notes
type InternalNotesRequest struct {
	InternalNotes string `json:"internalNotes"`
}

// EstimateDisplay is the computed cost presentation of an estimate
type EstimateDisplay struct {
	Kind      EstimateType `json:"kind"`
	AmountMin float64      `json:"amountMin"`
	AmountMax float64      `json:"amountMax"`
	Label     string       `json:"label"`
}

// WorkOrderResponse wraps a work order with its derived financials
type WorkOrderResponse struct {
	Status                  string          `json:"status"`
	WorkOrder               *WorkOrder      `json:"workOrder"`
	Estimate                EstimateDisplay `json:"estimate"`
	AdditionalApprovedHours float64         `json:"additionalApprovedHours"`
	AdditionalApprovedCost  float64         `json:"additionalApprovedCost"`
}

// CreateSeriesRequest is the payload for creating a series
type CreateSeriesRequest struct {
	Name      string `json:"name" binding:"required"`
	Venue     string `json:"venue"`
	EventType string `json:"eventType"`
	Notes     string `json:"notes"`
}

// TimeLogRequest is the payload for creating or updating a time log.
// Date and clock times are interpreted in the organization's fixed
// timezone.
type TimeLogRequest struct {
	Date      string          `json:"date" binding:"required"` // YYYY-MM-DD
	Category  TimeLogCategory `json:"category" binding:"required"`
	Hours     float64         `json:"hours" binding:"required"`
	StartTime string          `json:"startTime"` // HH:MM, optional
	EndTime   string          `json:"endTime"`   // HH:MM, optional
	Notes     string          `json:"notes"`
}

// TimeLogView is a time log rendered back in the organization's
// timezone for editing
type TimeLogView struct {
	TimeLog   *TimeLog `json:"timeLog"`
	Date      string   `json:"date"`
	StartTime string   `json:"startTime,omitempty"`
	EndTime   string   `json:"endTime,omitempty"`
}

// CreateChangeOrderRequest is the payload for creating a change order
type CreateChangeOrderRequest struct {
	AdditionalHours float64 `json:"additionalHours" binding:"required"`
	ReasonCode      string  `json:"reasonCode" binding:"required"`
	ReasonText      string  `json:"reasonText"`
	Notes           string  `json:"notes"`
}

// SignRequest is the payload for redeeming an approval token
type SignRequest struct {
	SignerName     string `json:"signerName"`
	SignerTitle    string `json:"signerTitle"`
	SignatureImage string `json:"signatureImage" binding:"required"` // base64 PNG
}

// BulkSignRequest signs a set of pending work orders with one
// signature and identity
type BulkSignRequest struct {
	WorkOrderIDs   []string `json:"workOrderIds" binding:"required"`
	SignerName     string   `json:"signerName"`
	SignerTitle    string   `json:"signerTitle"`
	SignatureImage string   `json:"signatureImage" binding:"required"`
}

// BulkSignResult reports the outcome for one work order in a bulk
// signing action
type BulkSignResult struct {
	WorkOrderID string `json:"workOrderId"`
	Signed      bool   `json:"signed"`
	Reason      string `json:"reason,omitempty"`
}

// SigningContext is what the public approval page needs to render
type SigningContext struct {
	Status           string       `json:"status"`
	OrganizationName string       `json:"organizationName"`
	WorkOrder        *WorkOrder   `json:"workOrder"`
	ChangeOrder      *ChangeOrder `json:"changeOrder,omitempty"`
}

// LineItemRequest is one line in an invoice create/update payload
type LineItemRequest struct {
	WorkOrderID *string `json:"workOrderId"`
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required"`
	UnitPrice   float64 `json:"unitPrice"`
	IsRetainer  bool    `json:"isRetainer"`
	IsCustom    bool    `json:"isCustom"`
	SortOrder   int     `json:"sortOrder"`
}

// CreateInvoiceRequest is the payload for creating an invoice
type CreateInvoiceRequest struct {
	InvoiceDate   string            `json:"invoiceDate" binding:"required"` // YYYY-MM-DD
	DueDate       string            `json:"dueDate"`
	PeriodStart   string            `json:"periodStart"`
	PeriodEnd     string            `json:"periodEnd"`
	DiscountType  DiscountType      `json:"discountType"`
	DiscountValue float64           `json:"discountValue"`
	Notes         string            `json:"notes"`
	LineItems     []LineItemRequest `json:"lineItems" binding:"required"`
}

// BuildInvoiceRequest assembles a draft invoice from completed work
// orders, one line item per order, optionally with a retainer line
type BuildInvoiceRequest struct {
	WorkOrderIDs    []string     `json:"workOrderIds" binding:"required"`
	InvoiceDate     string       `json:"invoiceDate" binding:"required"`
	DueDate         string       `json:"dueDate"`
	IncludeRetainer bool         `json:"includeRetainer"`
	DiscountType    DiscountType `json:"discountType"`
	DiscountValue   float64      `json:"discountValue"`
	Notes           string       `json:"notes"`
}

// UpdateInvoiceRequest fully replaces a draft invoice's line items and
// discount
type UpdateInvoiceRequest struct {
	InvoiceDate   string            `json:"invoiceDate" binding:"required"`
	DueDate       string            `json:"dueDate"`
	DiscountType  DiscountType      `json:"discountType"`
	DiscountValue float64           `json:"discountValue"`
	Notes         string            `json:"notes"`
	LineItems     []LineItemRequest `json:"lineItems" binding:"required"`
}

// PaymentWebhookEvent is the processor's asynchronous notification
type PaymentWebhookEvent struct {
	Type               string  `json:"type" binding:"required"` // completed, async_succeeded, async_failed
	ProcessorPaymentID string  `json:"processorPaymentId" binding:"required"`
	InvoiceID          string  `json:"invoiceId" binding:"required"`
	Amount             float64 `json:"amount"`
	Method             string  `json:"method"`
	ReceiptURL         string  `json:"receiptUrl"`
}

// CheckoutResponse carries the hosted checkout redirect URL
type CheckoutResponse struct {
	Status      string `json:"status"`
	CheckoutURL string `json:"checkoutUrl"`
}

// CreateUserRequest is the payload for creating a user
type CreateUserRequest struct {
	Email      string `json:"email" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Title      string `json:"title"`
	Role       Role   `json:"role" binding:"required"`
	IsApprover bool   `json:"isApprover"`
	CanPay     bool   `json:"canPay"`
}

// UpdateUserRequest is the payload for editing a user
type UpdateUserRequest struct {
	Name       string `json:"name" binding:"required"`
	Title      string `json:"title"`
	Role       Role   `json:"role" binding:"required"`
	IsApprover bool   `json:"isApprover"`
	CanPay     bool   `json:"canPay"`
	IsActive   bool   `json:"isActive"`
}

// UpdateOrganizationRequest edits tenant settings
type UpdateOrganizationRequest struct {
	Name            string  `json:"name" binding:"required"`
	InvoicePrefix   string  `json:"invoicePrefix" binding:"required"`
	DefaultRate     float64 `json:"defaultRate"`
	MonthlyRetainer float64 `json:"monthlyRetainer"`
	PaymentTerms    string  `json:"paymentTerms"`
	ContactName     string  `json:"contactName"`
	ContactEmail    string  `json:"contactEmail"`
	ContactPhone    string  `json:"contactPhone"`
	Timezone        string  `json:"timezone"`
}

// IncidentReportRequest creates or updates an incident report
type IncidentReportRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// CommentRequest creates an invoice comment
type CommentRequest struct {
	Body string `json:"body" binding:"required"`
}

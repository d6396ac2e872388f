package domain

import "github.com/stagebill/stagebill-server/internal/models"

// Action is one authorizable operation in the portal.
type Action string

const (
	ActionManageOrg        Action = "manage_org"
	ActionManageUsers      Action = "manage_users"
	ActionCreateWorkOrder  Action = "create_work_order"
	ActionEditWorkOrder    Action = "edit_work_order"
	ActionDeleteWorkOrder  Action = "delete_work_order"
	ActionDriveLifecycle   Action = "drive_lifecycle" // submit/cancel/start/complete
	ActionViewInternal     Action = "view_internal_notes"
	ActionLogTime          Action = "log_time"
	ActionManageChangeOrd  Action = "manage_change_orders"
	ActionManageInvoices   Action = "manage_invoices"
	ActionPayInvoice       Action = "pay_invoice"
	ActionCommentOnInvoice Action = "comment_on_invoice"
	ActionManageIncidents  Action = "manage_incidents"
	ActionViewWorkOrders   Action = "view_work_orders"
	ActionViewInvoices     Action = "view_invoices"
)

// staffActions are permitted to both vendor roles.
var staffActions = map[Action]bool{
	ActionCreateWorkOrder:  true,
	ActionEditWorkOrder:    true,
	ActionDeleteWorkOrder:  true,
	ActionDriveLifecycle:   true,
	ActionViewInternal:     true,
	ActionLogTime:          true,
	ActionManageChangeOrd:  true,
	ActionManageInvoices:   true,
	ActionManageIncidents:  true,
	ActionViewWorkOrders:   true,
	ActionViewInvoices:     true,
	ActionCommentOnInvoice: true,
}

// Identity is the trusted per-request identity supplied by the
// external session provider. The core never re-derives it.
type Identity struct {
	UserID         string
	OrganizationID string
	Role           models.Role
	IsApprover     bool
	CanPay         bool
}

// IsStaff reports whether the identity belongs to the vendor side.
func (id Identity) IsStaff() bool {
	return id.Role == models.RoleVendorAdmin || id.Role == models.RoleVendorStaff
}

// Can is the authorization policy: a pure function of role and
// capability flags, testable without any transport concerns.
func Can(id Identity, action Action) bool {
	switch id.Role {
	case models.RoleVendorAdmin:
		if action == ActionManageOrg || action == ActionManageUsers {
			return true
		}
		return staffActions[action]
	case models.RoleVendorStaff:
		return staffActions[action]
	case models.RoleClientAdmin:
		switch action {
		case ActionManageUsers, ActionViewWorkOrders, ActionViewInvoices, ActionCommentOnInvoice:
			return true
		case ActionPayInvoice:
			return id.CanPay
		}
	case models.RoleClientApprover:
		switch action {
		case ActionViewWorkOrders, ActionViewInvoices, ActionCommentOnInvoice:
			return true
		case ActionPayInvoice:
			return id.CanPay
		}
	case models.RoleClientViewer:
		switch action {
		case ActionViewWorkOrders, ActionViewInvoices:
			return true
		}
	}
	return false
}

package domain

import (
	"fmt"

	"github.com/stagebill/stagebill-server/internal/models"
)

// workOrderTransitions enumerates the legal staff-driven status moves.
// Approval (pending_approval → approved) happens only through token
// redemption, and invoiced/paid are set implicitly by invoicing and
// payment reconciliation, so none of those appear here.
var workOrderTransitions = map[models.WorkOrderStatus][]models.WorkOrderStatus{
	models.WorkOrderDraft:           {models.WorkOrderPendingApproval},
	models.WorkOrderPendingApproval: {models.WorkOrderDraft},
	models.WorkOrderApproved:        {models.WorkOrderInProgress, models.WorkOrderCompleted},
	models.WorkOrderInProgress:      {models.WorkOrderCompleted},
}

// CanTransitionWorkOrder reports whether a staff action may move a
// work order from one status to another.
func CanTransitionWorkOrder(from, to models.WorkOrderStatus) bool {
	for _, next := range workOrderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckWorkOrderTransition returns a state-conflict error describing
// the violated invariant when the move is illegal.
func CheckWorkOrderTransition(from, to models.WorkOrderStatus) error {
	if !CanTransitionWorkOrder(from, to) {
		return fmt.Errorf("%w: work order is %s, cannot move to %s", ErrStateConflict, from, to)
	}
	return nil
}

// WorkOrderEditable reports whether core fields may still be edited.
// Once an order is approved the only sanctioned way to add scope or
// cost is a change order.
func WorkOrderEditable(status models.WorkOrderStatus) bool {
	return status == models.WorkOrderDraft || status == models.WorkOrderPendingApproval
}

// WorkOrderDeletable reports whether the order may be deleted.
func WorkOrderDeletable(status models.WorkOrderStatus) bool {
	return status == models.WorkOrderDraft
}

// TimeLogAllowed reports whether time logs may be added or edited for
// a work order in the given status. Logging closes once the order is
// invoiced.
func TimeLogAllowed(status models.WorkOrderStatus) bool {
	switch status {
	case models.WorkOrderDraft, models.WorkOrderPendingApproval, models.WorkOrderApproved,
		models.WorkOrderInProgress, models.WorkOrderCompleted:
		return true
	}
	return false
}

// ChangeOrderAllowed reports whether a change order may be created
// against a work order in the given status.
func ChangeOrderAllowed(status models.WorkOrderStatus) bool {
	switch status {
	case models.WorkOrderApproved, models.WorkOrderInProgress, models.WorkOrderCompleted:
		return true
	}
	return false
}

// EstimateCost computes the display presentation of a work order's
// estimate from its type, hour bounds and rate snapshot. It is a pure
// function of the order; nothing is stored.
func EstimateCost(wo *models.WorkOrder) models.EstimateDisplay {
	switch wo.EstimateType {
	case models.EstimateRange:
		return models.EstimateDisplay{
			Kind:      models.EstimateRange,
			AmountMin: wo.HoursMin * wo.RateSnapshot,
			AmountMax: wo.HoursMax * wo.RateSnapshot,
			Label:     fmt.Sprintf("$%.2f - $%.2f", wo.HoursMin*wo.RateSnapshot, wo.HoursMax*wo.RateSnapshot),
		}
	case models.EstimateNotToExceed:
		nte := wo.HoursFixed * wo.RateSnapshot
		return models.EstimateDisplay{
			Kind:      models.EstimateNotToExceed,
			AmountMin: 0,
			AmountMax: nte,
			Label:     fmt.Sprintf("up to $%.2f", nte),
		}
	default: // fixed
		amount := wo.HoursFixed * wo.RateSnapshot
		return models.EstimateDisplay{
			Kind:      models.EstimateFixed,
			AmountMin: amount,
			AmountMax: amount,
			Label:     fmt.Sprintf("$%.2f", amount),
		}
	}
}

// ValidateEstimate checks the estimate fields of a create/update
// request for internal consistency.
func ValidateEstimate(estimateType models.EstimateType, hoursMin, hoursMax, hoursFixed float64) error {
	switch estimateType {
	case models.EstimateRange:
		if hoursMin < 0 || hoursMax <= 0 || hoursMax < hoursMin {
			return fmt.Errorf("%w: estimate range requires 0 <= min <= max", ErrValidation)
		}
	case models.EstimateFixed, models.EstimateNotToExceed:
		if hoursFixed <= 0 {
			return fmt.Errorf("%w: estimate requires positive hours", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown estimate type %q", ErrValidation, estimateType)
	}
	return nil
}

// ApprovedExtraHours sums additional hours over the approved change
// orders of a work order.
func ApprovedExtraHours(changeOrders []models.ChangeOrder) float64 {
	var total float64
	for _, co := range changeOrders {
		if co.IsApproved {
			total += co.AdditionalHours
		}
	}
	return total
}

// ApprovedExtraCost is ApprovedExtraHours priced at the work order's
// rate snapshot.
func ApprovedExtraCost(changeOrders []models.ChangeOrder, rateSnapshot float64) float64 {
	return ApprovedExtraHours(changeOrders) * rateSnapshot
}

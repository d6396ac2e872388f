package domain

import (
	"testing"

	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestWorkOrderTransitions(t *testing.T) {
	cases := []struct {
		from, to models.WorkOrderStatus
		allowed  bool
	}{
		{models.WorkOrderDraft, models.WorkOrderPendingApproval, true},
		{models.WorkOrderPendingApproval, models.WorkOrderDraft, true},
		{models.WorkOrderApproved, models.WorkOrderInProgress, true},
		{models.WorkOrderApproved, models.WorkOrderCompleted, true},
		{models.WorkOrderInProgress, models.WorkOrderCompleted, true},

		// approval only happens via token redemption
		{models.WorkOrderPendingApproval, models.WorkOrderApproved, false},
		// invoiced/paid are set implicitly, never by direct action
		{models.WorkOrderCompleted, models.WorkOrderInvoiced, false},
		{models.WorkOrderInvoiced, models.WorkOrderPaid, false},
		{models.WorkOrderDraft, models.WorkOrderCompleted, false},
		{models.WorkOrderCompleted, models.WorkOrderDraft, false},
		{models.WorkOrderPaid, models.WorkOrderDraft, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, CanTransitionWorkOrder(c.from, c.to),
			"%s -> %s", c.from, c.to)
		err := CheckWorkOrderTransition(c.from, c.to)
		if c.allowed {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrStateConflict)
		}
	}
}

func TestWorkOrderEditGuard(t *testing.T) {
	editable := []models.WorkOrderStatus{models.WorkOrderDraft, models.WorkOrderPendingApproval}
	frozen := []models.WorkOrderStatus{
		models.WorkOrderApproved, models.WorkOrderInProgress, models.WorkOrderCompleted,
		models.WorkOrderInvoiced, models.WorkOrderPaid,
	}

	for _, s := range editable {
		assert.True(t, WorkOrderEditable(s), "status %s should be editable", s)
	}
	for _, s := range frozen {
		assert.False(t, WorkOrderEditable(s), "status %s should be frozen", s)
	}
}

func TestWorkOrderDeleteGuard(t *testing.T) {
	assert.True(t, WorkOrderDeletable(models.WorkOrderDraft))
	for _, s := range []models.WorkOrderStatus{
		models.WorkOrderPendingApproval, models.WorkOrderApproved, models.WorkOrderInProgress,
		models.WorkOrderCompleted, models.WorkOrderInvoiced, models.WorkOrderPaid,
	} {
		assert.False(t, WorkOrderDeletable(s), "status %s should not be deletable", s)
	}
}

func TestTimeLogAllowed(t *testing.T) {
	for _, s := range []models.WorkOrderStatus{
		models.WorkOrderDraft, models.WorkOrderPendingApproval, models.WorkOrderApproved,
		models.WorkOrderInProgress, models.WorkOrderCompleted,
	} {
		assert.True(t, TimeLogAllowed(s), "status %s should accept time logs", s)
	}
	assert.False(t, TimeLogAllowed(models.WorkOrderInvoiced))
	assert.False(t, TimeLogAllowed(models.WorkOrderPaid))
}

func TestChangeOrderAllowed(t *testing.T) {
	assert.False(t, ChangeOrderAllowed(models.WorkOrderDraft))
	assert.False(t, ChangeOrderAllowed(models.WorkOrderPendingApproval))
	assert.True(t, ChangeOrderAllowed(models.WorkOrderApproved))
	assert.True(t, ChangeOrderAllowed(models.WorkOrderInProgress))
	assert.True(t, ChangeOrderAllowed(models.WorkOrderCompleted))
	assert.False(t, ChangeOrderAllowed(models.WorkOrderInvoiced))
}

func TestEstimateCost(t *testing.T) {
	rangeOrder := &models.WorkOrder{
		EstimateType: models.EstimateRange,
		HoursMin:     4, HoursMax: 8,
		RateSnapshot: 95,
	}
	d := EstimateCost(rangeOrder)
	assert.Equal(t, 380.0, d.AmountMin)
	assert.Equal(t, 760.0, d.AmountMax)

	fixedOrder := &models.WorkOrder{
		EstimateType: models.EstimateFixed,
		HoursFixed:   6,
		RateSnapshot: 100,
	}
	d = EstimateCost(fixedOrder)
	assert.Equal(t, 600.0, d.AmountMin)
	assert.Equal(t, 600.0, d.AmountMax)
	assert.Equal(t, "$600.00", d.Label)

	nteOrder := &models.WorkOrder{
		EstimateType: models.EstimateNotToExceed,
		HoursFixed:   10,
		RateSnapshot: 80,
	}
	d = EstimateCost(nteOrder)
	assert.Equal(t, 800.0, d.AmountMax)
	assert.Equal(t, "up to $800.00", d.Label)
}

func TestValidateEstimate(t *testing.T) {
	assert.NoError(t, ValidateEstimate(models.EstimateRange, 2, 6, 0))
	assert.ErrorIs(t, ValidateEstimate(models.EstimateRange, 6, 2, 0), ErrValidation)
	assert.ErrorIs(t, ValidateEstimate(models.EstimateFixed, 0, 0, 0), ErrValidation)
	assert.NoError(t, ValidateEstimate(models.EstimateNotToExceed, 0, 0, 12))
	assert.ErrorIs(t, ValidateEstimate("hourly", 1, 2, 3), ErrValidation)
}

func TestApprovedChangeOrderRollup(t *testing.T) {
	changeOrders := []models.ChangeOrder{
		{AdditionalHours: 2, IsApproved: true},
		{AdditionalHours: 3, IsApproved: false},
		{AdditionalHours: 1.5, IsApproved: true},
	}

	assert.Equal(t, 3.5, ApprovedExtraHours(changeOrders))
	assert.Equal(t, 3.5*120, ApprovedExtraCost(changeOrders, 120))
	assert.Equal(t, 0.0, ApprovedExtraHours(nil))
}

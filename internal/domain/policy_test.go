package domain

import (
	"testing"

	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestVendorRoles(t *testing.T) {
	admin := Identity{Role: models.RoleVendorAdmin}
	staff := Identity{Role: models.RoleVendorStaff}

	assert.True(t, admin.IsStaff())
	assert.True(t, staff.IsStaff())

	assert.True(t, Can(admin, ActionManageOrg))
	assert.True(t, Can(admin, ActionManageUsers))
	assert.True(t, Can(admin, ActionManageInvoices))

	assert.False(t, Can(staff, ActionManageOrg), "staff cannot edit tenant settings")
	assert.False(t, Can(staff, ActionManageUsers))
	assert.True(t, Can(staff, ActionCreateWorkOrder))
	assert.True(t, Can(staff, ActionDriveLifecycle))
	assert.True(t, Can(staff, ActionLogTime))
	assert.True(t, Can(staff, ActionViewInternal))
}

func TestClientRoles(t *testing.T) {
	clientAdmin := Identity{Role: models.RoleClientAdmin}
	approver := Identity{Role: models.RoleClientApprover}
	viewer := Identity{Role: models.RoleClientViewer}

	for _, id := range []Identity{clientAdmin, approver, viewer} {
		assert.False(t, id.IsStaff())
		assert.True(t, Can(id, ActionViewWorkOrders))
		assert.True(t, Can(id, ActionViewInvoices))
		assert.False(t, Can(id, ActionCreateWorkOrder))
		assert.False(t, Can(id, ActionManageInvoices))
		assert.False(t, Can(id, ActionViewInternal))
		assert.False(t, Can(id, ActionLogTime))
	}

	assert.True(t, Can(clientAdmin, ActionManageUsers))
	assert.False(t, Can(approver, ActionManageUsers))
	assert.False(t, Can(viewer, ActionCommentOnInvoice))
}

func TestCanPayRequiresCapability(t *testing.T) {
	payer := Identity{Role: models.RoleClientAdmin, CanPay: true}
	nonPayer := Identity{Role: models.RoleClientAdmin, CanPay: false}

	assert.True(t, Can(payer, ActionPayInvoice))
	assert.False(t, Can(nonPayer, ActionPayInvoice))
	assert.False(t, Can(Identity{Role: models.RoleClientViewer, CanPay: true}, ActionPayInvoice),
		"viewers cannot pay regardless of the flag")
}

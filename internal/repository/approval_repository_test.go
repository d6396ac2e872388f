package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workOrderApproval() *models.Approval {
	return &models.Approval{
		OrganizationID: "org-1",
		WorkOrderID:    "wo-1",
		SignerName:     "Dana Approver",
		SignerTitle:    "Events Director",
		SignatureURL:   "https://storage.example/sig.png",
		SignedAt:       time.Now().UTC(),
		DeviceInfo:     "test-agent",
		ContentHash:    "abc123",
	}
}

func TestRedeemWorkOrderTokenHappyPath(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE approval_tokens SET used_at = \$2 WHERE token = \$1 AND used_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO approvals`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE work_orders SET status`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RedeemWorkOrderToken(context.Background(), "tok-1", workOrderApproval())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemWorkOrderTokenAlreadyUsed(t *testing.T) {
	repo, mock := newMockRepo(t)

	// the conditional update matches no rows: the token was consumed
	// by a concurrent redemption and nothing else may happen
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE approval_tokens SET used_at = \$2 WHERE token = \$1 AND used_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.RedeemWorkOrderToken(context.Background(), "tok-1", workOrderApproval())
	assert.ErrorIs(t, err, domain.ErrTokenUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemWorkOrderTokenRollsBackWhenNotPending(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE approval_tokens SET used_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO approvals`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE work_orders SET status`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.RedeemWorkOrderToken(context.Background(), "tok-1", workOrderApproval())
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemChangeOrderToken(t *testing.T) {
	repo, mock := newMockRepo(t)

	approval := workOrderApproval()
	coID := "co-1"
	approval.ChangeOrderID = &coID
	approval.IsChangeOrder = true

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE approval_tokens SET used_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO approvals`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE change_orders SET is_approved = TRUE, approval_id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RedeemChangeOrderToken(context.Background(), "tok-2", approval, coID)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemChangeOrderTokenAlreadyApproved(t *testing.T) {
	repo, mock := newMockRepo(t)

	approval := workOrderApproval()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE approval_tokens SET used_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO approvals`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE change_orders SET is_approved = TRUE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.RedeemChangeOrderToken(context.Background(), "tok-2", approval, "co-1")
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWorkOrderTokenOnlyTouchesWorkOrderLinks(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM approval_tokens WHERE work_order_id = \$1 AND change_order_id IS NULL`).
		WithArgs("wo-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteWorkOrderToken(context.Background(), "wo-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successfulPayment() *models.Payment {
	return &models.Payment{
		InvoiceID:          "inv-1",
		OrganizationID:     "org-1",
		ProcessorPaymentID: "pay_abc123",
		Amount:             180,
		Method:             "card",
		Status:             models.PaymentSucceeded,
	}
}

func TestRecordPaymentCreditsInvoice(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO payments .* ON CONFLICT \(processor_payment_id\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE invoices\s+SET amount_paid = amount_paid \+ \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := repo.RecordPayment(context.Background(), successfulPayment())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPaymentReplayIsIdempotent(t *testing.T) {
	repo, mock := newMockRepo(t)

	// the replayed processor payment id hits the conflict arm; no
	// invoice update may follow
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	applied, err := repo.RecordPayment(context.Background(), successfulPayment())
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFailedPaymentDoesNotTouchInvoice(t *testing.T) {
	repo, mock := newMockRepo(t)

	p := successfulPayment()
	p.Status = models.PaymentFailed

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := repo.RecordPayment(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

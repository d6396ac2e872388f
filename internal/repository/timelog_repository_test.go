package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTimeLogRecomputesActualHoursInTx(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO time_logs`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE work_orders\s+SET actual_hours = COALESCE\(\(SELECT SUM\(hours\) FROM time_logs WHERE work_order_id = \$1\), 0\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tl := &models.TimeLog{
		WorkOrderID:    "wo-1",
		OrganizationID: "org-1",
		LogDate:        time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC),
		Category:       models.TimeLogOnSite,
		Hours:          3.25,
		CreatedBy:      "user-1",
	}

	require.NoError(t, repo.CreateTimeLog(context.Background(), tl))
	assert.NotEmpty(t, tl.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTimeLogRecomputesActualHours(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM time_logs WHERE id = \$1 AND organization_id = \$2 RETURNING work_order_id`).
		WithArgs("tl-1", "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"work_order_id"}).AddRow("wo-1"))
	mock.ExpectExec(`UPDATE work_orders\s+SET actual_hours`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteTimeLog(context.Background(), "tl-1", "org-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

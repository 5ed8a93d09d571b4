package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplyAdjustmentCommitsBothWrites(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewPointLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET total_points = total_points + $1, updated_at = $2 WHERE id = $3 RETURNING total_points")).
		WithArgs(15, sqlmock.AnyArg(), "student-1").
		WillReturnRows(sqlmock.NewRows([]string{"total_points"}).AddRow(15))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO point_logs (id, student_id, amount, reason, created_at) VALUES ($1, $2, $3, $4, $5)")).
		WithArgs(sqlmock.AnyArg(), "student-1", 15, "참여 우수", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	balance, entry, err := repo.ApplyAdjustment(context.Background(), "student-1", 15, "참여 우수")
	require.NoError(t, err)
	assert.Equal(t, 15, balance)
	require.NotNil(t, entry)
	assert.Equal(t, 15, entry.Amount)
	assert.Equal(t, "참여 우수", entry.Reason)
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAdjustmentRollsBackWhenLogInsertFails(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewPointLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE students SET total_points").
		WithArgs(-5, sqlmock.AnyArg(), "student-1").
		WillReturnRows(sqlmock.NewRows([]string{"total_points"}).AddRow(10))
	mock.ExpectExec("INSERT INTO point_logs").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, _, err := repo.ApplyAdjustment(context.Background(), "student-1", -5, "지각")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAdjustmentUnknownStudent(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewPointLogRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE students SET total_points").
		WithArgs(10, sqlmock.AnyArg(), "missing").
		WillReturnRows(sqlmock.NewRows([]string{"total_points"}))
	mock.ExpectRollback()

	_, _, err := repo.ApplyAdjustment(context.Background(), "missing", 10, "칭찬")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStudentNewestFirst(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewPointLogRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "amount", "reason", "created_at"}).
		AddRow("log-2", "student-1", -5, "지각", now).
		AddRow("log-1", "student-1", 15, "참여 우수", now.Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, amount, reason, created_at\nFROM point_logs WHERE student_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs("student-1").
		WillReturnRows(rows)

	entries, err := repo.ListByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, -5, entries[0].Amount)
	assert.Equal(t, 15, entries[1].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumByStudentEmptyLog(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewPointLogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM point_logs WHERE student_id = $1")).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	sum, err := repo.SumByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, 0, sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetBalanceUnknownStudent(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewPointLogRepository(db)

	mock.ExpectExec("UPDATE students SET total_points").
		WithArgs(25, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetBalance(context.Background(), "missing", 25)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

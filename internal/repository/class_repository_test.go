package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geulbit/geulbit-api/internal/models"
)

func TestClassRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{TeacherID: "teacher-1", Name: "3학년 2반", InviteCode: "AB12CD"}
	err := repo.Create(context.Background(), class)
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByTeacherMissing(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery("SELECT id, teacher_id, name, invite_code, created_at FROM classes WHERE teacher_id").
		WithArgs("teacher-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByTeacher(context.Background(), "teacher-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByInviteCode(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "name", "invite_code", "created_at"}).
		AddRow("class-1", "teacher-1", "3학년 2반", "AB12CD", time.Now().UTC())
	mock.ExpectQuery("SELECT id, teacher_id, name, invite_code, created_at FROM classes WHERE invite_code").
		WithArgs("AB12CD").
		WillReturnRows(rows)

	class, err := repo.FindByInviteCode(context.Background(), "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, "class-1", class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

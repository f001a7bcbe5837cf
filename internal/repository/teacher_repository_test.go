package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-bk-api/internal/models"
)

func newTeacherRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestTeacherRepositoryAll(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	rows := sqlmock.NewRows([]string{"id", "nip", "full_name", "role", "active", "absent_on", "backup_on", "tester_on", "yearly_load", "created_at", "updated_at"}).
		AddRow("guru-1", nil, "Bu Sari", "GURU_BK", true, nil, nil, "2025-01-10", 12, time.Now(), time.Now()).
		AddRow("guru-2", "19820101", "Pak Budi", "GURU_BK", true, "2025-01-10", nil, nil, 9, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, nip, full_name").
		WillReturnRows(rows)

	teachers, err := repo.All(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "Bu Sari", teachers[0].FullName)
	require.NotNil(t, teachers[0].TesterOn)
	assert.Equal(t, "2025-01-10", *teachers[0].TesterOn)
	require.NotNil(t, teachers[1].AbsentOn)
	assert.Equal(t, 9, teachers[1].YearlyLoad)
}

func TestTeacherRepositoryUpsertAssignsID(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	mock.ExpectExec("INSERT INTO teachers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := &models.Teacher{FullName: "Bu Sari", Role: models.TeacherRoleCounselor, Active: true}
	require.NoError(t, repo.Upsert(context.Background(), teacher))
	assert.NotEmpty(t, teacher.ID)
	assert.False(t, teacher.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

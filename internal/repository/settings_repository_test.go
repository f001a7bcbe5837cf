package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestSettingsRepositoryLoad(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("dailyCaseLimit", "4").
		AddRow("settledDate", "2025-01-09")
	mock.ExpectQuery("SELECT key, value FROM settings").
		WillReturnRows(rows)

	result, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4", result["dailyCaseLimit"])
	assert.Equal(t, "2025-01-09", result["settledDate"])
}

func TestSettingsRepositorySet(t *testing.T) {
	db, mock, cleanup := newSettingsRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectExec("INSERT INTO settings").
		WithArgs("backupBonusAmount", "5", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Set(context.Background(), "backupBonusAmount", "5"))
	require.NoError(t, mock.ExpectationsWereMet())
}

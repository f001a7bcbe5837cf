package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/engine"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

func newRosterServiceForTest(g *StateGuard) (*RosterService, *teacherStoreStub) {
	teachers := &teacherStoreStub{}
	svc := NewRosterService(g, teachers, nil, nil, nil, nil)
	return svc, teachers
}

func TestRosterCreateDefaultsToCounselor(t *testing.T) {
	guard := newTestGuard()
	svc, store := newRosterServiceForTest(guard)

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{FullName: "  Bu Sari  "})
	require.NoError(t, err)
	assert.NotEmpty(t, teacher.ID)
	assert.Equal(t, "Bu Sari", teacher.FullName)
	assert.Equal(t, models.TeacherRoleCounselor, teacher.Role)
	assert.True(t, teacher.Active)
	require.Len(t, store.upserts, 1)

	var onState *models.Teacher
	_ = guard.Do(func(st *engine.State) error {
		onState = st.Teacher(teacher.ID)
		return nil
	})
	require.NotNil(t, onState)
}

func TestRosterCreateRejectsEmptyName(t *testing.T) {
	guard := newTestGuard()
	svc, _ := newRosterServiceForTest(guard)

	_, err := svc.Create(context.Background(), CreateTeacherRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRosterUpdateFlagsSetAndClear(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 0, func(tc *models.Teacher) {
		tc.BackupOn = dayPtr("2025-01-09")
	})
	svc, store := newRosterServiceForTest(guard)

	updated, err := svc.UpdateFlags(context.Background(), "guru-1", dto.UpdateTeacherFlagsRequest{
		AbsentOn: dayPtr("2025-01-10"),
		BackupOn: dayPtr(""),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.AbsentOn)
	assert.Equal(t, "2025-01-10", *updated.AbsentOn)
	assert.Nil(t, updated.BackupOn)
	// TesterOn untouched when omitted.
	assert.Nil(t, updated.TesterOn)
	require.Len(t, store.upserts, 1)
}

func TestRosterUpdateFlagsUnknownTeacher(t *testing.T) {
	guard := newTestGuard()
	svc, _ := newRosterServiceForTest(guard)

	_, err := svc.UpdateFlags(context.Background(), "missing", dto.UpdateTeacherFlagsRequest{}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRosterListIncludesTodayCount(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 0, nil)
	guardTeacher(guard, "guru-2", 0, nil)
	seedOpenCase(guard, "guru-1", 3, time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))
	seedOpenCase(guard, "guru-1", 2, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))
	svc, _ := newRosterServiceForTest(guard)

	out, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "guru-1", out[0].ID)
	assert.Equal(t, 2, out[0].TodayCount)
	assert.Equal(t, 0, out[1].TodayCount)
	// Listing reconciles the cached loads against the log.
	assert.Equal(t, 5, out[0].YearlyLoad)
}

func TestRosterLoadForYearAndMonth(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 0, nil)
	seedOpenCase(guard, "guru-1", 3, time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))
	svc, _ := newRosterServiceForTest(guard)

	year, err := svc.LoadFor(context.Background(), "guru-1", "2025")
	require.NoError(t, err)
	assert.Equal(t, 3, year.Load)

	month, err := svc.LoadFor(context.Background(), "guru-1", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, 3, month.Load)

	empty, err := svc.LoadFor(context.Background(), "guru-1", "2024-12")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Load)
}

func TestRosterLoadForBadPeriod(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 0, nil)
	svc, _ := newRosterServiceForTest(guard)

	_, err := svc.LoadFor(context.Background(), "guru-1", "Januari")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

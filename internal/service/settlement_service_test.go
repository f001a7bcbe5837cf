package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-bk-api/internal/engine"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

func seedOpenCase(g *StateGuard, teacherID string, score int, at time.Time) {
	_ = g.Do(func(st *engine.State) error {
		st.UpsertOpenCase(&models.CaseFile{
			ID:         uuid.NewString(),
			Score:      score,
			CreatedAt:  at,
			AssignedTo: &teacherID,
			CaseType:   models.CaseTypeSupport,
		})
		teacher := st.Teacher(teacherID)
		if teacher != nil {
			teacher.YearlyLoad += score
		}
		return nil
	})
}

func newSettlementServiceForTest(g *StateGuard) (*SettlementService, *caseStoreStub, *teacherStoreStub, *settingsStoreStub) {
	cases := &caseStoreStub{}
	teachers := &teacherStoreStub{}
	settings := &settingsStoreStub{}
	svc := NewSettlementService(g, cases, teachers, settings, nil, nil, nil)
	return svc, cases, teachers, settings
}

func TestSettlementRunPersistsArchiveAndMarker(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 0, nil)
	guardTeacher(guard, "guru-2", 0, func(tc *models.Teacher) {
		tc.AbsentOn = dayPtr("2025-01-09")
	})
	yesterday := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	seedOpenCase(guard, "guru-1", 5, yesterday)
	svc, cases, teachers, settings := newSettlementServiceForTest(guard)

	summary, err := svc.Run(context.Background(), "2025-01-09", SettlementTriggerManual)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-09", summary.Day)
	assert.Equal(t, 1, summary.PenaltyCount)
	assert.Equal(t, 2, summary.ArchivedCount)
	assert.Equal(t, "2025-01-09", summary.SettledDate)

	require.Contains(t, cases.archived, "2025-01-09")
	assert.Len(t, cases.archived["2025-01-09"], 2)
	assert.Len(t, teachers.upserts, 2)
	assert.Equal(t, "2025-01-09", settings.values[models.SettingSettledDate])
}

func TestSettlementRunIsRepeatable(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 0, nil)
	seedOpenCase(guard, "guru-1", 5, time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC))
	svc, cases, _, settings := newSettlementServiceForTest(guard)

	first, err := svc.Run(context.Background(), "2025-01-09", SettlementTriggerManual)
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), "2025-01-09", SettlementTriggerManual)
	require.NoError(t, err)

	assert.Equal(t, first.ArchivedCount, second.ArchivedCount)
	assert.Equal(t, first.SettledDate, second.SettledDate)
	assert.Len(t, cases.archived["2025-01-09"], first.ArchivedCount)
	assert.Equal(t, "2025-01-09", settings.values[models.SettingSettledDate])

	var load int
	_ = guard.Do(func(st *engine.State) error {
		load = st.Teacher("guru-1").YearlyLoad
		return nil
	})
	assert.Equal(t, 5, load)
}

func TestSettlementRunRejectsFutureDay(t *testing.T) {
	guard := newTestGuard()
	svc, _, _, _ := newSettlementServiceForTest(guard)

	_, err := svc.Run(context.Background(), "2025-01-11", SettlementTriggerManual)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSettlementRunAmbiguousWithoutDayOrState(t *testing.T) {
	guard := newTestGuard()
	svc, _, _, _ := newSettlementServiceForTest(guard)

	_, err := svc.Run(context.Background(), "", SettlementTriggerManual)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAmbiguousSettlementDay.Code, appErrors.FromError(err).Code)
}

func TestRunPendingSettlesBacklogUpToYesterday(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 0, nil)
	seedOpenCase(guard, "guru-1", 3, time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC))
	seedOpenCase(guard, "guru-1", 2, time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC))
	seedOpenCase(guard, "guru-1", 4, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))
	svc, cases, _, settings := newSettlementServiceForTest(guard)

	summaries, err := svc.RunPending(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "2025-01-08", summaries[0].Day)
	assert.Equal(t, "2025-01-09", summaries[1].Day)
	assert.Equal(t, "2025-01-09", settings.values[models.SettingSettledDate])

	// Today's case is left open for intake.
	assert.NotContains(t, cases.archived, "2025-01-10")
	var openToday int
	_ = guard.Do(func(st *engine.State) error {
		openToday = len(st.OpenOn("2025-01-10"))
		return nil
	})
	assert.Equal(t, 1, openToday)
}

func TestRunPendingNothingToSettle(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 0, nil)
	svc, _, _, _ := newSettlementServiceForTest(guard)

	summaries, err := svc.RunPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

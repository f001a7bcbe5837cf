package engine

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-bk-api/internal/models"
)

var testClock = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

func defaultTestSettings() models.Settings {
	return models.Settings{
		DailyCaseLimit:       4,
		ScoreTest:            2,
		ScoreNewBonus:        1,
		ScoreTypeReferral:    3,
		ScoreTypeSupport:     2,
		ScoreTypeBoth:        4,
		BackupBonusAmount:    3,
		AbsencePenaltyAmount: 3,
	}
}

func newTestState(settings models.Settings) *State {
	return NewState(settings,
		WithClock(func() time.Time { return testClock }),
		WithLocation(time.UTC),
		WithRand(rand.New(rand.NewSource(42))),
	)
}

func addTeacher(s *State, id string) *models.Teacher {
	t := &models.Teacher{
		ID:       id,
		FullName: "Guru " + id,
		Role:     models.TeacherRoleCounselor,
		Active:   true,
	}
	s.UpsertTeacher(t)
	return t
}

func strPtr(v string) *string {
	return &v
}

// addOpenCase seeds an assigned, committed case without going through the
// selector, offset minutes after the test clock's midnight.
func addOpenCase(s *State, teacherID string, score int, at time.Time) *models.CaseFile {
	c := &models.CaseFile{
		ID:         uuid.NewString(),
		Score:      score,
		CreatedAt:  at,
		AssignedTo: &teacherID,
		CaseType:   models.CaseTypeSupport,
	}
	s.UpsertOpenCase(c)
	return c
}

func addArchivedCase(s *State, teacherID string, score int, at time.Time) models.CaseFile {
	c := models.CaseFile{
		ID:         uuid.NewString(),
		Score:      score,
		CreatedAt:  at,
		AssignedTo: &teacherID,
		CaseType:   models.CaseTypeSupport,
	}
	day := c.Day()
	s.Archive[day] = append(s.Archive[day], c)
	return c
}

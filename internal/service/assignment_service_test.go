package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-bk-api/internal/dto"
	"github.com/noah-isme/sma-bk-api/internal/engine"
	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

var serviceTestClock = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)

func serviceTestSettings() models.Settings {
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

func newTestGuard() *StateGuard {
	state := engine.NewState(serviceTestSettings(),
		engine.WithClock(func() time.Time { return serviceTestClock }),
		engine.WithLocation(time.UTC),
		engine.WithRand(rand.New(rand.NewSource(42))),
	)
	return NewStateGuard(state)
}

func guardTeacher(g *StateGuard, id string, load int, mutate func(*models.Teacher)) *models.Teacher {
	t := &models.Teacher{
		ID:         id,
		FullName:   "Guru " + id,
		Role:       models.TeacherRoleCounselor,
		Active:     true,
		YearlyLoad: load,
	}
	if mutate != nil {
		mutate(t)
	}
	_ = g.Do(func(st *engine.State) error {
		st.UpsertTeacher(t)
		return nil
	})
	return t
}

type caseStoreStub struct {
	upserts  []models.CaseFile
	archived map[string][]models.CaseFile
	err      error
}

func (s *caseStoreStub) UpsertOpen(ctx context.Context, c *models.CaseFile) error {
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, *c)
	return nil
}

func (s *caseStoreStub) ArchiveDay(ctx context.Context, day string, cases []models.CaseFile) error {
	if s.err != nil {
		return s.err
	}
	if s.archived == nil {
		s.archived = make(map[string][]models.CaseFile)
	}
	s.archived[day] = cases
	return nil
}

type teacherStoreStub struct {
	upserts []models.Teacher
	err     error
}

func (s *teacherStoreStub) Upsert(ctx context.Context, t *models.Teacher) error {
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, *t)
	return nil
}

type settingsStoreStub struct {
	values map[string]string
	err    error
}

func (s *settingsStoreStub) Set(ctx context.Context, key, value string) error {
	if s.err != nil {
		return s.err
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

type notifierStub struct {
	sent []Notification
}

func (s *notifierStub) NotifyAssignment(teacherID, title, message, priority string) {
	s.sent = append(s.sent, Notification{
		TeacherID: teacherID,
		Title:     title,
		Message:   message,
		Priority:  priority,
	})
}

func dayPtr(v string) *string {
	return &v
}

func newAssignmentServiceForTest(g *StateGuard) (*AssignmentService, *caseStoreStub, *teacherStoreStub, *notifierStub) {
	cases := &caseStoreStub{}
	teachers := &teacherStoreStub{}
	notifier := &notifierStub{}
	svc := NewAssignmentService(g, cases, teachers, notifier, nil, nil, nil, nil)
	return svc, cases, teachers, notifier
}

func TestIntakeAssignsLowestYearlyLoad(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 12, nil)
	guardTeacher(guard, "guru-2", 9, nil)
	svc, cases, teachers, notifier := newAssignmentServiceForTest(guard)

	outcome, err := svc.Intake(context.Background(), dto.IntakeCaseRequest{
		CaseType: "REFERRAL",
		IsNew:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, string(engine.OutcomeAssigned), outcome.Status)
	require.NotNil(t, outcome.Teacher)
	assert.Equal(t, "guru-2", outcome.Teacher.ID)
	assert.Equal(t, 4, outcome.Case.Score)

	require.Len(t, cases.upserts, 1)
	require.Len(t, teachers.upserts, 1)
	assert.Equal(t, 10, teachers.upserts[0].YearlyLoad)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Penugasan kasus baru", notifier.sent[0].Title)
	assert.Equal(t, NotificationPriorityNormal, notifier.sent[0].Priority)
}

func TestIntakeRejectsInvalidCaseType(t *testing.T) {
	guard := newTestGuard()
	svc, _, _, _ := newAssignmentServiceForTest(guard)

	_, err := svc.Intake(context.Background(), dto.IntakeCaseRequest{CaseType: "UNKNOWN"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestIntakeNoCandidatePersistsUnassigned(t *testing.T) {
	guard := newTestGuard()
	svc, cases, _, notifier := newAssignmentServiceForTest(guard)

	outcome, err := svc.Intake(context.Background(), dto.IntakeCaseRequest{CaseType: "SUPPORT"})
	require.NoError(t, err)
	assert.Equal(t, string(engine.OutcomeNoCandidate), outcome.Status)
	require.Len(t, cases.upserts, 1)
	assert.Nil(t, cases.upserts[0].AssignedTo)
	assert.Empty(t, notifier.sent)
}

func TestIntakeDefersForTesterProtection(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 5, func(tc *models.Teacher) {
		tc.TesterOn = dayPtr("2025-01-10")
	})
	svc, cases, teachers, _ := newAssignmentServiceForTest(guard)

	outcome, err := svc.Intake(context.Background(), dto.IntakeCaseRequest{CaseType: "REFERRAL"})
	require.NoError(t, err)
	assert.Equal(t, string(engine.OutcomePending), outcome.Status)
	assert.Equal(t, engine.PendingReasonTesterProtection, outcome.Reason)

	// Nothing committed yet.
	assert.Empty(t, cases.upserts)
	assert.Empty(t, teachers.upserts)

	pending := svc.Pending(context.Background())
	require.Len(t, pending, 1)
	assert.Equal(t, outcome.Case.ID, pending[0].Case.ID)
}

func TestConfirmCommitsHeldCandidate(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 5, func(tc *models.Teacher) {
		tc.TesterOn = dayPtr("2025-01-10")
	})
	svc, cases, teachers, notifier := newAssignmentServiceForTest(guard)

	outcome, err := svc.Intake(context.Background(), dto.IntakeCaseRequest{CaseType: "REFERRAL"})
	require.NoError(t, err)
	require.Equal(t, string(engine.OutcomePending), outcome.Status)

	confirmed, err := svc.Confirm(context.Background(), outcome.Case.ID)
	require.NoError(t, err)
	assert.Equal(t, string(engine.OutcomeAssigned), confirmed.Status)
	assert.Equal(t, "guru-1", confirmed.Teacher.ID)
	assert.Equal(t, 3, confirmed.Case.Score)
	require.Len(t, cases.upserts, 1)
	require.Len(t, teachers.upserts, 1)
	require.Len(t, notifier.sent, 1)

	assert.Empty(t, svc.Pending(context.Background()))
}

func TestConfirmUnknownCaseNotPending(t *testing.T) {
	guard := newTestGuard()
	svc, _, _, _ := newAssignmentServiceForTest(guard)

	_, err := svc.Confirm(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotPending.Code, appErrors.FromError(err).Code)
}

func TestRejectReassignsExcludingCandidate(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 5, func(tc *models.Teacher) {
		tc.TesterOn = dayPtr("2025-01-10")
	})
	guardTeacher(guard, "guru-2", 9, nil)
	svc, cases, _, _ := newAssignmentServiceForTest(guard)

	outcome, err := svc.Intake(context.Background(), dto.IntakeCaseRequest{CaseType: "REFERRAL"})
	require.NoError(t, err)
	require.Equal(t, string(engine.OutcomePending), outcome.Status)
	require.Equal(t, "guru-1", outcome.Teacher.ID)

	reassigned, err := svc.Reject(context.Background(), outcome.Case.ID)
	require.NoError(t, err)
	assert.Equal(t, string(engine.OutcomeAssigned), reassigned.Status)
	assert.Equal(t, "guru-2", reassigned.Teacher.ID)
	require.Len(t, cases.upserts, 1)
	assert.Empty(t, svc.Pending(context.Background()))
}

func TestRejectLastCandidateEndsNoCandidate(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 5, func(tc *models.Teacher) {
		tc.TesterOn = dayPtr("2025-01-10")
	})
	svc, cases, _, _ := newAssignmentServiceForTest(guard)

	outcome, err := svc.Intake(context.Background(), dto.IntakeCaseRequest{CaseType: "REFERRAL"})
	require.NoError(t, err)
	require.Equal(t, string(engine.OutcomePending), outcome.Status)

	final, err := svc.Reject(context.Background(), outcome.Case.ID)
	require.NoError(t, err)
	assert.Equal(t, string(engine.OutcomeNoCandidate), final.Status)
	require.Len(t, cases.upserts, 1)
	assert.Nil(t, cases.upserts[0].AssignedTo)
	assert.Empty(t, svc.Pending(context.Background()))
}

func TestIntakeSurfacesPersistenceFailure(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 5, nil)
	cases := &caseStoreStub{err: errors.New("db down")}
	svc := NewAssignmentService(guard, cases, &teacherStoreStub{}, nil, nil, nil, nil, nil)

	_, err := svc.Intake(context.Background(), dto.IntakeCaseRequest{CaseType: "SUPPORT"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestIntakeTestCaseNotifiesHighPriority(t *testing.T) {
	guard := newTestGuard()
	guardTeacher(guard, "guru-1", 5, func(tc *models.Teacher) {
		tc.TesterOn = dayPtr("2025-01-10")
	})
	svc, _, _, notifier := newAssignmentServiceForTest(guard)

	outcome, err := svc.Intake(context.Background(), dto.IntakeCaseRequest{
		CaseType:   "REFERRAL",
		IsTestCase: true,
	})
	require.NoError(t, err)
	assert.Equal(t, string(engine.OutcomeAssigned), outcome.Status)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, NotificationPriorityHigh, notifier.sent[0].Priority)
}

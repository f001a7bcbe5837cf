package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-bk-api/internal/models"
)

func TestEvaluateTesterProtectionDefersCommit(t *testing.T) {
	s := newTestState(defaultTestSettings())
	x := addTeacher(s, "X")
	x.TesterOn = strPtr(s.Today())

	outcome := s.Evaluate(&models.CaseFile{CaseType: models.CaseTypeSupport}, nil)

	require.Equal(t, OutcomePending, outcome.Status)
	assert.Equal(t, PendingReasonTesterProtection, outcome.Reason)
	require.NotNil(t, outcome.Teacher)
	assert.Equal(t, "X", outcome.Teacher.ID)
	// nothing committed
	assert.Empty(t, s.Open)
	assert.Equal(t, 0, x.YearlyLoad)
}

func TestEvaluateTestNotFinishedDefersCommit(t *testing.T) {
	s := newTestState(defaultTestSettings())
	x := addTeacher(s, "X")
	x.TesterOn = strPtr(s.Today())

	testCase := &models.CaseFile{CaseType: models.CaseTypeSupport, IsTestCase: true, CreatedAt: testClock}
	s.CommitAssignment(testCase, x, nil)

	outcome := s.Evaluate(&models.CaseFile{CaseType: models.CaseTypeSupport}, nil)

	require.Equal(t, OutcomePending, outcome.Status)
	assert.Equal(t, PendingReasonTestNotFinished, outcome.Reason)
}

func TestEvaluateTestCasesBypassTheGate(t *testing.T) {
	s := newTestState(defaultTestSettings())
	x := addTeacher(s, "X")
	x.TesterOn = strPtr(s.Today())

	outcome := s.Evaluate(&models.CaseFile{CaseType: models.CaseTypeSupport, IsTestCase: true}, nil)
	assert.Equal(t, OutcomeAssigned, outcome.Status)
}

func TestEvaluateRejectionReevaluatesWithExclusion(t *testing.T) {
	s := newTestState(defaultTestSettings())
	x := addTeacher(s, "X")
	x.TesterOn = strPtr(s.Today())
	addTeacher(s, "Y")

	first := s.Evaluate(&models.CaseFile{CaseType: models.CaseTypeSupport}, nil)
	// X has zero load, so the tester is ranked on top and deferred.
	if first.Status == OutcomePending {
		second := s.Evaluate(&models.CaseFile{CaseType: models.CaseTypeSupport}, map[string]bool{first.Teacher.ID: true})
		require.Equal(t, OutcomeAssigned, second.Status)
		assert.Equal(t, "Y", second.Teacher.ID)
	} else {
		assert.Equal(t, "Y", first.Teacher.ID)
	}
}

func TestEvaluateExhaustionYieldsNoCandidate(t *testing.T) {
	s := newTestState(defaultTestSettings())
	addTeacher(s, "X")

	outcome := s.Evaluate(&models.CaseFile{CaseType: models.CaseTypeSupport}, map[string]bool{"X": true})
	assert.Equal(t, OutcomeNoCandidate, outcome.Status)
	assert.Nil(t, outcome.Teacher)
}

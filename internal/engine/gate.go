package engine

import "github.com/noah-isme/sma-bk-api/internal/models"

// OutcomeStatus classifies the result of evaluating a case draft.
type OutcomeStatus string

const (
	OutcomeAssigned    OutcomeStatus = "ASSIGNED"
	OutcomePending     OutcomeStatus = "PENDING_CONFIRM"
	OutcomeNoCandidate OutcomeStatus = "NO_CANDIDATE"
)

// Deferral reasons reported with a pending outcome.
const (
	PendingReasonTestNotFinished  = "testNotFinished"
	PendingReasonTesterProtection = "testerProtection"
)

// Outcome is the selector + escalation-gate verdict for a case draft. A
// pending outcome holds the candidate without committing; the caller either
// confirms (committing exactly that candidate) or rejects (re-evaluating with
// the candidate excluded).
type Outcome struct {
	Status  OutcomeStatus
	Reason  string
	Teacher *models.Teacher
}

// escalationReason inspects a picked candidate for a non-test case. The two
// deferrals are mutually exclusive: a tester who already got their test case
// today falls under testNotFinished, one still waiting under testerProtection.
func (s *State) escalationReason(c *models.CaseFile, t *models.Teacher) string {
	if c.IsTestCase {
		return ""
	}
	today := s.Today()
	if s.hasTestCaseOn(t.ID, today) {
		return PendingReasonTestNotFinished
	}
	if t.TesterToday(today) {
		return PendingReasonTesterProtection
	}
	return ""
}

// Evaluate runs the selector and escalation gate without committing anything.
// Re-evaluation after a rejection is a full pass over current state, never a
// resumption of a prior ranking.
func (s *State) Evaluate(c *models.CaseFile, excluded map[string]bool) Outcome {
	t, err := s.Pick(c, excluded)
	if err != nil {
		return Outcome{Status: OutcomeNoCandidate}
	}
	if reason := s.escalationReason(c, t); reason != "" {
		return Outcome{Status: OutcomePending, Reason: reason, Teacher: t}
	}
	return Outcome{Status: OutcomeAssigned, Teacher: t}
}

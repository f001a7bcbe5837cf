package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

// ScoreHook optionally contributes additional score from case attributes, e.g.
// a deployment that wants diagnosis counts to weigh in. Nil disables the hook.
type ScoreHook func(*models.CaseFile) int

// EligibleFor filters the roster down to teachers allowed to receive the case
// today. Hard constraints only; tie-breaking happens in Pick.
func (s *State) EligibleFor(c *models.CaseFile, excluded map[string]bool) []*models.Teacher {
	today := s.Today()
	var out []*models.Teacher
	for _, t := range s.SortedTeachers() {
		if !t.Assignable() || excluded[t.ID] {
			continue
		}
		if t.AbsentToday(today) || t.BackupToday(today) {
			continue
		}
		if s.countAssignments(t.ID, today, false) >= s.Settings.DailyCaseLimit {
			continue
		}
		if c.IsTestCase {
			if !t.TesterToday(today) || s.hasTestCaseOn(t.ID, today) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Pick applies the tie-break chain to the eligible set and returns the chosen
// teacher. An empty eligible set is terminal and reported as NoEligibleStaff.
func (s *State) Pick(c *models.CaseFile, excluded map[string]bool) (*models.Teacher, error) {
	pool := s.EligibleFor(c, excluded)
	if len(pool) == 0 {
		return nil, appErrors.ErrNoEligibleStaff
	}

	// 1. Drop the most recent assignee today unless the pool would empty.
	if last := s.lastAssigneeOn(s.Today()); last != "" {
		trimmed := pool[:0:0]
		for _, t := range pool {
			if t.ID != last {
				trimmed = append(trimmed, t)
			}
		}
		if len(trimmed) > 0 {
			pool = trimmed
		}
	}

	now := s.Now()
	today := s.Today()
	monthPeriod := MonthPeriod(now.Year(), now.Month())

	// 2. Lowest yearly load.
	pool = keepMin(pool, func(t *models.Teacher) int {
		return s.LoadFor(t.ID, YearPeriod(now.Year()))
	})
	// 3. Fewest assignments today.
	if len(pool) > 1 {
		pool = keepMin(pool, func(t *models.Teacher) int {
			return s.countAssignments(t.ID, today, false)
		})
	}
	// 4. Fewest assignments this month.
	if len(pool) > 1 {
		pool = keepMin(pool, func(t *models.Teacher) int {
			return s.countAssignmentsInPeriod(t.ID, monthPeriod)
		})
	}
	// 5. Uniform random among the remainder.
	if len(pool) > 1 {
		return pool[s.rng.Intn(len(pool))], nil
	}
	return pool[0], nil
}

// CommitAssignment finalises the decision: computes the score, stamps the
// assignee, stores the case in the open set and bumps the load caches.
// Notification dispatch is the caller's concern and never rolls this back.
func (s *State) CommitAssignment(c *models.CaseFile, t *models.Teacher, hook ScoreHook) *models.CaseFile {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.Now()
	}
	if c.DiagnosisCount > models.MaxDiagnosisCount {
		c.DiagnosisCount = models.MaxDiagnosisCount
	}
	if c.DiagnosisCount < 0 {
		c.DiagnosisCount = 0
	}

	score := s.Settings.TypeWeight(c.CaseType)
	if c.IsNew {
		score += s.Settings.ScoreNewBonus
	}
	if c.IsTestCase {
		score += s.Settings.ScoreTest
	}
	if hook != nil {
		score += hook(c)
	}

	c.Score = score
	id := t.ID
	c.AssignedTo = &id
	s.UpsertOpenCase(c)

	t.YearlyLoad += score
	if t.MonthlyLoad == nil {
		t.MonthlyLoad = make(map[string]int)
	}
	t.MonthlyLoad[models.MonthOf(c.CreatedAt)] += score
	return c
}

// lastAssigneeOn returns the teacher who received the most recent non-synthetic
// case on the given day, "" when the day has no assignments yet.
func (s *State) lastAssigneeOn(day string) string {
	var latest time.Time
	var latestID, teacherID string
	visit := func(c *models.CaseFile) {
		if c.AssignedTo == nil || c.Synthetic() || c.Day() != day {
			return
		}
		if c.CreatedAt.After(latest) || (c.CreatedAt.Equal(latest) && c.ID > latestID) {
			latest = c.CreatedAt
			latestID = c.ID
			teacherID = *c.AssignedTo
		}
	}
	for _, c := range s.Open {
		visit(c)
	}
	for i := range s.Archive[day] {
		visit(&s.Archive[day][i])
	}
	return teacherID
}

func (s *State) countAssignmentsInPeriod(teacherID string, p Period) int {
	count := 0
	seen := make(map[string]struct{})
	visit := func(c *models.CaseFile) {
		if !c.AssignedToTeacher(teacherID) || c.Synthetic() || !p.Contains(c.CreatedAt.In(s.loc)) {
			return
		}
		if _, ok := seen[c.ID]; ok {
			return
		}
		seen[c.ID] = struct{}{}
		count++
	}
	for _, c := range s.Open {
		visit(c)
	}
	for day := range s.Archive {
		for i := range s.Archive[day] {
			visit(&s.Archive[day][i])
		}
	}
	return count
}

// keepMin retains the teachers sharing the minimum key value, preserving order.
func keepMin(pool []*models.Teacher, key func(*models.Teacher) int) []*models.Teacher {
	if len(pool) <= 1 {
		return pool
	}
	best := key(pool[0])
	values := make([]int, len(pool))
	values[0] = best
	for i := 1; i < len(pool); i++ {
		values[i] = key(pool[i])
		if values[i] < best {
			best = values[i]
		}
	}
	out := pool[:0:0]
	for i, t := range pool {
		if values[i] == best {
			out = append(out, t)
		}
	}
	return out
}

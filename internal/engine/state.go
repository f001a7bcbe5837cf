package engine

import (
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-bk-api/internal/models"
)

// State is the in-memory case-log snapshot the engine operates on: roster,
// open (not yet archived) cases, the per-day archive, settings and the settled
// day marker. It is single-writer and carries no locking of its own; callers
// serialise access. All mutation goes through id-keyed upserts so every
// operation stays retryable.
type State struct {
	Teachers    map[string]*models.Teacher
	Open        map[string]*models.CaseFile
	Archive     map[string][]models.CaseFile
	Settings    models.Settings
	SettledDate string

	now    func() time.Time
	loc    *time.Location
	rng    *rand.Rand
	logger *zap.Logger
}

// Option customises State construction.
type Option func(*State)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithLocation sets the timezone used for day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *State) { s.loc = loc }
}

// WithRand seeds the tie-break randomiser.
func WithRand(rng *rand.Rand) Option {
	return func(s *State) { s.rng = rng }
}

// WithLogger attaches a logger for ledger reconciliation reports.
func WithLogger(logger *zap.Logger) Option {
	return func(s *State) { s.logger = logger }
}

// NewState builds an empty snapshot with default settings.
func NewState(settings models.Settings, opts ...Option) *State {
	s := &State{
		Teachers: make(map[string]*models.Teacher),
		Open:     make(map[string]*models.CaseFile),
		Archive:  make(map[string][]models.CaseFile),
		Settings: settings,
		loc:      time.Local,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Now returns the current engine time in the configured location.
func (s *State) Now() time.Time {
	return s.now().In(s.loc)
}

// Today returns the current day key.
func (s *State) Today() string {
	return models.DayOf(s.Now())
}

// Location exposes the configured timezone.
func (s *State) Location() *time.Location {
	return s.loc
}

// UpsertTeacher inserts or replaces a roster entry keyed by id.
func (s *State) UpsertTeacher(t *models.Teacher) {
	if t == nil || t.ID == "" {
		return
	}
	if t.MonthlyLoad == nil {
		t.MonthlyLoad = make(map[string]int)
	}
	s.Teachers[t.ID] = t
}

// Teacher returns the roster entry for an id, nil when unknown.
func (s *State) Teacher(id string) *models.Teacher {
	return s.Teachers[id]
}

// UpsertOpenCase inserts or replaces an open case keyed by id.
func (s *State) UpsertOpenCase(c *models.CaseFile) {
	if c == nil || c.ID == "" {
		return
	}
	s.Open[c.ID] = c
}

// SortedTeachers returns the roster ordered by id for deterministic iteration.
func (s *State) SortedTeachers() []*models.Teacher {
	out := make([]*models.Teacher, 0, len(s.Teachers))
	for _, t := range s.Teachers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OpenOn returns open cases dated the given day, ordered by creation time.
func (s *State) OpenOn(day string) []models.CaseFile {
	var out []models.CaseFile
	for _, c := range s.Open {
		if c.Day() == day {
			out = append(out, *c)
		}
	}
	sortCases(out)
	return out
}

// ArchiveOn returns the archived entries for a day.
func (s *State) ArchiveOn(day string) []models.CaseFile {
	out := make([]models.CaseFile, len(s.Archive[day]))
	copy(out, s.Archive[day])
	return out
}

// EarliestOpenDay returns the oldest day among open cases, "" when none exist.
func (s *State) EarliestOpenDay() string {
	earliest := ""
	for _, c := range s.Open {
		day := c.Day()
		if earliest == "" || day < earliest {
			earliest = day
		}
	}
	return earliest
}

// AssignmentCount returns a teacher's non-synthetic case count for a day.
func (s *State) AssignmentCount(teacherID, day string) int {
	return s.countAssignments(teacherID, day, false)
}

// countAssignments counts a teacher's cases on a day across open and archived
// entries, de-duplicated by id. Synthetic entries are skipped unless included.
func (s *State) countAssignments(teacherID, day string, includeSynthetic bool) int {
	count := 0
	seen := make(map[string]struct{})
	visit := func(c *models.CaseFile) {
		if !c.AssignedToTeacher(teacherID) || c.Day() != day {
			return
		}
		if c.Synthetic() && !includeSynthetic {
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
	for i := range s.Archive[day] {
		visit(&s.Archive[day][i])
	}
	return count
}

// hasTestCaseOn reports whether the teacher already received a test case that day.
func (s *State) hasTestCaseOn(teacherID, day string) bool {
	for _, c := range s.Open {
		if c.IsTestCase && c.AssignedToTeacher(teacherID) && c.Day() == day {
			return true
		}
	}
	for i := range s.Archive[day] {
		c := &s.Archive[day][i]
		if c.IsTestCase && c.AssignedToTeacher(teacherID) {
			return true
		}
	}
	return false
}

// dayTotals sums non-synthetic scores per teacher for a day, de-duplicated by
// id across the open set and the archive partition.
func (s *State) dayTotals(day string) map[string]int {
	totals := make(map[string]int)
	seen := make(map[string]struct{})
	visit := func(c *models.CaseFile) {
		if c.AssignedTo == nil || c.Synthetic() || c.Day() != day {
			return
		}
		if _, ok := seen[c.ID]; ok {
			return
		}
		seen[c.ID] = struct{}{}
		totals[*c.AssignedTo] += c.Score
	}
	for _, c := range s.Open {
		visit(c)
	}
	for i := range s.Archive[day] {
		visit(&s.Archive[day][i])
	}
	return totals
}

func sortCases(cases []models.CaseFile) {
	sort.Slice(cases, func(i, j int) bool {
		if cases[i].CreatedAt.Equal(cases[j].CreatedAt) {
			return cases[i].ID < cases[j].ID
		}
		return cases[i].CreatedAt.Before(cases[j].CreatedAt)
	})
}

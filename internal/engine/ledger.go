package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-bk-api/internal/models"
)

// Period identifies a ledger accumulation window: a whole year, or one month.
type Period struct {
	Year  int
	Month time.Month // zero means the whole year
}

// YearPeriod covers an entire calendar year.
func YearPeriod(year int) Period {
	return Period{Year: year}
}

// MonthPeriod covers a single month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Year: year, Month: month}
}

// Contains reports whether the timestamp falls inside the period.
func (p Period) Contains(t time.Time) bool {
	if t.Year() != p.Year {
		return false
	}
	return p.Month == 0 || t.Month() == p.Month
}

// LoadFor recomputes a teacher's load for a period from the authoritative case
// log: archived entries in the period plus open entries, de-duplicated by id.
// It never fails and returns 0 for unknown teachers.
func (s *State) LoadFor(teacherID string, p Period) int {
	total := 0
	seen := make(map[string]struct{})
	add := func(c *models.CaseFile) {
		if !c.AssignedToTeacher(teacherID) || !p.Contains(c.CreatedAt.In(s.loc)) {
			return
		}
		if _, ok := seen[c.ID]; ok {
			return
		}
		seen[c.ID] = struct{}{}
		total += c.Score
	}
	for _, c := range s.Open {
		add(c)
	}
	for day := range s.Archive {
		for i := range s.Archive[day] {
			add(&s.Archive[day][i])
		}
	}
	return total
}

// ReconcileLoads opportunistically reconciles the cached load totals against
// full recomputation. A mismatch is logged and the cache overwritten; the
// recomputation always wins. Returns the number of repaired caches.
func (s *State) ReconcileLoads() int {
	repaired := 0
	now := s.Now()
	year := now.Year()
	monthKey := models.MonthOf(now)
	for _, t := range s.SortedTeachers() {
		yearly := s.LoadFor(t.ID, YearPeriod(year))
		if t.YearlyLoad != yearly {
			s.logger.Warn("ledger cache inconsistency",
				zap.String("teacher_id", t.ID),
				zap.String("scope", "yearly"),
				zap.Int("cached", t.YearlyLoad),
				zap.Int("recomputed", yearly))
			t.YearlyLoad = yearly
			repaired++
		}
		monthly := s.LoadFor(t.ID, MonthPeriod(year, now.Month()))
		if t.MonthlyLoad == nil {
			t.MonthlyLoad = make(map[string]int)
		}
		if t.MonthlyLoad[monthKey] != monthly {
			s.logger.Warn("ledger cache inconsistency",
				zap.String("teacher_id", t.ID),
				zap.String("scope", "monthly"),
				zap.Int("cached", t.MonthlyLoad[monthKey]),
				zap.Int("recomputed", monthly))
			t.MonthlyLoad[monthKey] = monthly
			repaired++
		}
	}
	return repaired
}

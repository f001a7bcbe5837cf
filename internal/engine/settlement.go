package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-bk-api/internal/models"
	appErrors "github.com/noah-isme/sma-bk-api/pkg/errors"
)

// SettlementResult summarises one day's rollover.
type SettlementResult struct {
	Day        string
	Penalties  []models.CaseFile
	Bonuses    []models.CaseFile
	Archived   []models.CaseFile
	FlagsReset bool
}

// NextSettlementDay determines the day to settle: the earliest day among open
// cases, else the day after the marker. With neither signal the caller must
// supply the day explicitly; the engine never guesses.
func (s *State) NextSettlementDay() (string, error) {
	if day := s.EarliestOpenDay(); day != "" {
		return day, nil
	}
	if s.SettledDate != "" {
		marker, err := time.ParseInLocation(models.DayLayout, s.SettledDate, s.loc)
		if err == nil {
			return models.DayOf(marker.AddDate(0, 0, 1)), nil
		}
	}
	return "", appErrors.ErrAmbiguousSettlementDay
}

// Settle runs the end-of-day rollover for a day: absence penalties, backup
// bonuses, archive merge, conditional flag reset, marker advance. Every step
// is an id- or key-addressed upsert, so re-running against the same day yields
// identical archive contents and ledger totals. A failure before the marker
// advance leaves the whole procedure retryable from the first step.
func (s *State) Settle(day string) (*SettlementResult, error) {
	if day == "" {
		next, err := s.NextSettlementDay()
		if err != nil {
			return nil, err
		}
		day = next
	}
	parsed, err := time.ParseInLocation(models.DayLayout, day, s.loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "settlement day must be YYYY-MM-DD")
	}
	today := s.Today()
	if day > today {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot settle a future day")
	}

	res := &SettlementResult{Day: day}
	totals := s.dayTotals(day)

	// Absence penalty: floor of everyone who worked, minus the configured amount.
	if min, ok := s.baselineExtreme(day, totals, false); ok {
		penalty := min - s.Settings.AbsencePenaltyAmount
		if penalty < 0 {
			penalty = 0
		}
		for _, t := range s.SortedTeachers() {
			if !t.Assignable() || !t.AbsentToday(day) {
				continue
			}
			entry := s.upsertSynthetic(t, parsed, day, penalty, true)
			res.Penalties = append(res.Penalties, *entry)
		}
	}

	// Backup bonus: ceiling of the other teachers' day totals, plus the bonus.
	for _, t := range s.SortedTeachers() {
		if !t.Assignable() || !t.BackupToday(day) {
			continue
		}
		max := 0
		for _, other := range s.SortedTeachers() {
			if other.ID == t.ID || !other.Assignable() {
				continue
			}
			if v := totals[other.ID]; v > max {
				max = v
			}
		}
		bonus := max + s.Settings.BackupBonusAmount
		entry := s.upsertSynthetic(t, parsed, day, bonus, false)
		res.Bonuses = append(res.Bonuses, *entry)
	}

	// Archive: move every case dated day into the partition, merging by id.
	existing := make(map[string]struct{}, len(s.Archive[day]))
	for i := range s.Archive[day] {
		existing[s.Archive[day][i].ID] = struct{}{}
	}
	for id, c := range s.Open {
		if c.Day() != day {
			continue
		}
		if _, ok := existing[c.ID]; !ok {
			s.Archive[day] = append(s.Archive[day], *c)
			existing[c.ID] = struct{}{}
		}
		delete(s.Open, id)
	}
	sortCases(s.Archive[day])
	res.Archived = s.ArchiveOn(day)

	// Reset day-scoped flags only when settling the real current day, so
	// catch-up settlement of past days leaves today's live flags untouched.
	if day == today {
		for _, t := range s.Teachers {
			clearFlagThrough(&t.AbsentOn, day)
			clearFlagThrough(&t.BackupOn, day)
			clearFlagThrough(&t.TesterOn, day)
		}
		res.FlagsReset = true
	}
	if day > s.SettledDate {
		s.SettledDate = day
	}
	return res, nil
}

// baselineExtreme computes the minimum (or maximum) day total over assignable
// teachers that are neither absent nor on backup duty for the day. Teachers
// without cases count as zero. ok is false when no baseline teacher exists.
func (s *State) baselineExtreme(day string, totals map[string]int, max bool) (int, bool) {
	found := false
	extreme := 0
	for _, t := range s.SortedTeachers() {
		if !t.Assignable() || t.AbsentToday(day) || t.BackupToday(day) {
			continue
		}
		v := totals[t.ID]
		if !found || (max && v > extreme) || (!max && v < extreme) {
			extreme = v
			found = true
		}
	}
	return extreme, found
}

// upsertSynthetic writes the penalty/bonus entry keyed by (teacher, day),
// updating in place when one already exists in the open set or the archive.
// The cache delta is the new score minus the previous synthetic score.
func (s *State) upsertSynthetic(t *models.Teacher, dayStart time.Time, day string, score int, penalty bool) *models.CaseFile {
	match := func(c *models.CaseFile) bool {
		if !c.AssignedToTeacher(t.ID) || c.Day() != day {
			return false
		}
		if penalty {
			return c.IsAbsencePenalty
		}
		return c.IsBackupBonus
	}

	var entry *models.CaseFile
	for _, c := range s.Open {
		if match(c) {
			entry = c
			break
		}
	}
	if entry == nil {
		for i := range s.Archive[day] {
			if match(&s.Archive[day][i]) {
				entry = &s.Archive[day][i]
				break
			}
		}
	}

	delta := score
	if entry != nil {
		delta = score - entry.Score
		entry.Score = score
	} else {
		id := t.ID
		reason := "bonus piket cadangan"
		if penalty {
			reason = "penalti absen"
		}
		entry = &models.CaseFile{
			ID:               uuid.NewString(),
			Score:            score,
			CreatedAt:        dayStart,
			AssignedTo:       &id,
			IsAbsencePenalty: penalty,
			IsBackupBonus:    !penalty,
			Reason:           reason,
		}
		s.UpsertOpenCase(entry)
	}

	if delta != 0 {
		now := s.Now()
		if dayStart.Year() == now.Year() {
			t.YearlyLoad += delta
		}
		if t.MonthlyLoad == nil {
			t.MonthlyLoad = make(map[string]int)
		}
		t.MonthlyLoad[models.MonthOf(dayStart)] += delta
	}
	return entry
}

func clearFlagThrough(flag **string, day string) {
	if *flag != nil && **flag <= day {
		*flag = nil
	}
}

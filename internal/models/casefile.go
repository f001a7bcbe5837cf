package models

import "time"

// DayLayout is the canonical YYYY-MM-DD representation used for day keys,
// day-scoped teacher flags and archive partitions.
const DayLayout = "2006-01-02"

// MonthLayout keys the per-month ledger cache.
const MonthLayout = "2006-01"

// MaxDiagnosisCount caps the informational diagnosis counter on a case.
const MaxDiagnosisCount = 6

// DayOf returns the day key for a timestamp.
func DayOf(t time.Time) string {
	return t.Format(DayLayout)
}

// MonthOf returns the month cache key for a timestamp.
func MonthOf(t time.Time) string {
	return t.Format(MonthLayout)
}

// CaseType distinguishes referral and support workloads for scoring.
type CaseType string

const (
	CaseTypeReferral CaseType = "REFERRAL"
	CaseTypeSupport  CaseType = "SUPPORT"
	CaseTypeBoth     CaseType = "BOTH"
)

// ValidCaseType reports whether the value is a recognised case type.
func ValidCaseType(t CaseType) bool {
	switch t {
	case CaseTypeReferral, CaseTypeSupport, CaseTypeBoth:
		return true
	}
	return false
}

// CaseFile is one entry in the case log: either a real counseling case or a
// synthetic settlement adjustment (absence penalty / backup bonus). Synthetic
// flags are mutually exclusive and at most one of each exists per teacher and
// day. A committed entry is never reinterpreted; score and assignee are set
// only through the dedicated assignment and settlement paths.
type CaseFile struct {
	ID               string    `db:"id" json:"id"`
	Score            int       `db:"score" json:"score"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	AssignedTo       *string   `db:"assigned_to" json:"assigned_to,omitempty"`
	CaseType         CaseType  `db:"case_type" json:"case_type"`
	IsNew            bool      `db:"is_new" json:"is_new"`
	DiagnosisCount   int       `db:"diagnosis_count" json:"diagnosis_count"`
	IsTestCase       bool      `db:"is_test_case" json:"is_test_case"`
	IsAbsencePenalty bool      `db:"is_absence_penalty" json:"is_absence_penalty"`
	IsBackupBonus    bool      `db:"is_backup_bonus" json:"is_backup_bonus"`
	Reason           string    `db:"reason" json:"reason,omitempty"`
}

// Day returns the archive partition key the entry belongs to.
func (c *CaseFile) Day() string {
	return DayOf(c.CreatedAt)
}

// Synthetic reports whether the entry was generated by settlement rather than
// by case intake.
func (c *CaseFile) Synthetic() bool {
	return c.IsAbsencePenalty || c.IsBackupBonus
}

// AssignedToTeacher reports whether the entry counts toward the given teacher.
func (c *CaseFile) AssignedToTeacher(teacherID string) bool {
	return c.AssignedTo != nil && *c.AssignedTo == teacherID
}

package models

import "time"

// TeacherRole categorises roster members for assignment eligibility.
type TeacherRole string

const (
	// TeacherRoleCounselor marks assignable counseling teachers.
	TeacherRoleCounselor TeacherRole = "GURU_BK"
	// TeacherRoleSupport marks support staff that never receive automatic assignments.
	TeacherRoleSupport TeacherRole = "STAF_PENDUKUNG"
)

// Teacher represents a counseling staff member on the assignment roster.
//
// Day-scoped flags (absence, backup duty, tester duty) carry the day they apply
// to in YYYY-MM-DD form; nil means unset. YearlyLoad and MonthlyLoad are derived
// caches and must stay reconstructible from the case log; the ledger never
// treats them as authoritative.
type Teacher struct {
	ID          string         `db:"id" json:"id"`
	NIP         *string        `db:"nip" json:"nip,omitempty"`
	FullName    string         `db:"full_name" json:"full_name"`
	Role        TeacherRole    `db:"role" json:"role"`
	Active      bool           `db:"active" json:"active"`
	AbsentOn    *string        `db:"absent_on" json:"absent_on,omitempty"`
	BackupOn    *string        `db:"backup_on" json:"backup_on,omitempty"`
	TesterOn    *string        `db:"tester_on" json:"tester_on,omitempty"`
	YearlyLoad  int            `db:"yearly_load" json:"yearly_load"`
	MonthlyLoad map[string]int `db:"-" json:"monthly_load,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AbsentToday reports whether the absence flag applies to the given day.
func (t *Teacher) AbsentToday(day string) bool {
	return t.AbsentOn != nil && *t.AbsentOn == day
}

// BackupToday reports whether the teacher is on backup duty for the given day.
func (t *Teacher) BackupToday(day string) bool {
	return t.BackupOn != nil && *t.BackupOn == day
}

// TesterToday reports whether the teacher is the designated tester for the given day.
func (t *Teacher) TesterToday(day string) bool {
	return t.TesterOn != nil && *t.TesterOn == day
}

// Assignable reports whether the teacher may ever receive automatic assignments.
func (t *Teacher) Assignable() bool {
	return t.Active && t.Role != TeacherRoleSupport
}

// TeacherFilter captures filtering options for listing roster members.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Role      TeacherRole
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

package dto

import "github.com/noah-isme/sma-bk-api/internal/models"

// UpdateTeacherFlagsRequest patches the day-scoped roster flags. Each field is
// the day the flag applies to; an empty string clears the flag, nil leaves it
// unchanged.
type UpdateTeacherFlagsRequest struct {
	AbsentOn *string `json:"absent_on" validate:"omitempty,datetime=2006-01-02"`
	BackupOn *string `json:"backup_on" validate:"omitempty,datetime=2006-01-02"`
	TesterOn *string `json:"tester_on" validate:"omitempty,datetime=2006-01-02"`
}

// TeacherWithLoad decorates a roster entry with its recomputed period load.
type TeacherWithLoad struct {
	models.Teacher
	TodayCount int `json:"today_count"`
}

// TeacherLoadResponse answers a ledger query for one teacher and period.
type TeacherLoadResponse struct {
	TeacherID string `json:"teacher_id"`
	Period    string `json:"period"`
	Load      int    `json:"load"`
}

package dto

import "github.com/noah-isme/sma-bk-api/internal/models"

// IntakeCaseRequest is the case draft supplied by intake: classification only,
// score and assignee are computed by the engine.
type IntakeCaseRequest struct {
	CaseType       string `json:"case_type" validate:"required,oneof=REFERRAL SUPPORT BOTH"`
	IsNew          bool   `json:"is_new"`
	IsTestCase     bool   `json:"is_test_case"`
	DiagnosisCount int    `json:"diagnosis_count" validate:"min=0,max=6"`
	Reason         string `json:"reason" validate:"max=2000"`
}

// TeacherSummary is the roster slice returned with assignment outcomes.
type TeacherSummary struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	YearlyLoad int    `json:"yearly_load"`
}

// AssignmentOutcome reports the selector + escalation-gate verdict for a case.
// PENDING_CONFIRM outcomes are not committed; the case id doubles as the
// confirmation handle.
type AssignmentOutcome struct {
	Status  string           `json:"status"`
	Reason  string           `json:"reason,omitempty"`
	Case    *models.CaseFile `json:"case,omitempty"`
	Teacher *TeacherSummary  `json:"teacher,omitempty"`
}

package dto

// UpdateSettingsRequest carries partial updates for recognised settings keys.
// Nil fields stay untouched. Score type weights accept any integer; the other
// fields must be non-negative.
type UpdateSettingsRequest struct {
	DailyCaseLimit       *int `json:"dailyCaseLimit" validate:"omitempty,min=0"`
	ScoreTest            *int `json:"scoreTest" validate:"omitempty,min=0"`
	ScoreNewBonus        *int `json:"scoreNewBonus" validate:"omitempty,min=0"`
	ScoreTypeReferral    *int `json:"scoreTypeReferral"`
	ScoreTypeSupport     *int `json:"scoreTypeSupport"`
	ScoreTypeBoth        *int `json:"scoreTypeBoth"`
	BackupBonusAmount    *int `json:"backupBonusAmount" validate:"omitempty,min=0"`
	AbsencePenaltyAmount *int `json:"absencePenaltyAmount" validate:"omitempty,min=0"`
}

package models

import "strconv"

// Recognised engine settings keys. Unknown keys are rejected by the settings
// service and ignored by the engine.
const (
	SettingDailyCaseLimit       = "dailyCaseLimit"
	SettingScoreTest            = "scoreTest"
	SettingScoreNewBonus        = "scoreNewBonus"
	SettingScoreTypeReferral    = "scoreTypeReferral"
	SettingScoreTypeSupport     = "scoreTypeSupport"
	SettingScoreTypeBoth        = "scoreTypeBoth"
	SettingBackupBonusAmount    = "backupBonusAmount"
	SettingAbsencePenaltyAmount = "absencePenaltyAmount"

	// SettingSettledDate tracks the most recently settled day and is managed
	// exclusively by the settlement procedure.
	SettingSettledDate = "settledDate"
)

// RecognizedSettingKeys lists updatable settings keys in a stable order.
func RecognizedSettingKeys() []string {
	return []string{
		SettingDailyCaseLimit,
		SettingScoreTest,
		SettingScoreNewBonus,
		SettingScoreTypeReferral,
		SettingScoreTypeSupport,
		SettingScoreTypeBoth,
		SettingBackupBonusAmount,
		SettingAbsencePenaltyAmount,
	}
}

// Settings carries the tunables of the assignment and settlement engine.
// Score type weights may be any integer; the remaining fields are non-negative.
type Settings struct {
	DailyCaseLimit       int `json:"dailyCaseLimit" validate:"min=0"`
	ScoreTest            int `json:"scoreTest" validate:"min=0"`
	ScoreNewBonus        int `json:"scoreNewBonus" validate:"min=0"`
	ScoreTypeReferral    int `json:"scoreTypeReferral"`
	ScoreTypeSupport     int `json:"scoreTypeSupport"`
	ScoreTypeBoth        int `json:"scoreTypeBoth"`
	BackupBonusAmount    int `json:"backupBonusAmount" validate:"min=0"`
	AbsencePenaltyAmount int `json:"absencePenaltyAmount" validate:"min=0"`
}

// TypeWeight resolves the base score weight for a case type.
func (s Settings) TypeWeight(t CaseType) int {
	switch t {
	case CaseTypeReferral:
		return s.ScoreTypeReferral
	case CaseTypeSupport:
		return s.ScoreTypeSupport
	case CaseTypeBoth:
		return s.ScoreTypeBoth
	}
	return 0
}

// ToMap flattens settings into the persisted key/value representation.
func (s Settings) ToMap() map[string]string {
	return map[string]string{
		SettingDailyCaseLimit:       strconv.Itoa(s.DailyCaseLimit),
		SettingScoreTest:            strconv.Itoa(s.ScoreTest),
		SettingScoreNewBonus:        strconv.Itoa(s.ScoreNewBonus),
		SettingScoreTypeReferral:    strconv.Itoa(s.ScoreTypeReferral),
		SettingScoreTypeSupport:     strconv.Itoa(s.ScoreTypeSupport),
		SettingScoreTypeBoth:        strconv.Itoa(s.ScoreTypeBoth),
		SettingBackupBonusAmount:    strconv.Itoa(s.BackupBonusAmount),
		SettingAbsencePenaltyAmount: strconv.Itoa(s.AbsencePenaltyAmount),
	}
}

// ApplyMap overlays persisted key/value pairs onto the settings, ignoring
// unknown keys and unparsable values.
func (s *Settings) ApplyMap(values map[string]string) {
	for key, raw := range values {
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		switch key {
		case SettingDailyCaseLimit:
			s.DailyCaseLimit = n
		case SettingScoreTest:
			s.ScoreTest = n
		case SettingScoreNewBonus:
			s.ScoreNewBonus = n
		case SettingScoreTypeReferral:
			s.ScoreTypeReferral = n
		case SettingScoreTypeSupport:
			s.ScoreTypeSupport = n
		case SettingScoreTypeBoth:
			s.ScoreTypeBoth = n
		case SettingBackupBonusAmount:
			s.BackupBonusAmount = n
		case SettingAbsencePenaltyAmount:
			s.AbsencePenaltyAmount = n
		}
	}
}

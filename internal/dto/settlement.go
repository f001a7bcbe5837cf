package dto

// RunSettlementRequest optionally pins the day to settle. Leaving Day empty
// lets the engine infer it from open cases or the settled-day marker.
type RunSettlementRequest struct {
	Day string `json:"day" validate:"omitempty,datetime=2006-01-02"`
}

// SettlementSummary reports one settlement run.
type SettlementSummary struct {
	Day           string `json:"day"`
	PenaltyCount  int    `json:"penalty_count"`
	BonusCount    int    `json:"bonus_count"`
	ArchivedCount int    `json:"archived_count"`
	FlagsReset    bool   `json:"flags_reset"`
	SettledDate   string `json:"settled_date"`
}

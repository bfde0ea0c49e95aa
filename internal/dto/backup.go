package dto

// ClearAllRequest must echo the configured confirmation phrase.
type ClearAllRequest struct {
	Confirmation string `json:"confirmation" validate:"required"`
}

// ImportResult summarises a completed import.
type ImportResult struct {
	Plans          int    `json:"plans"`
	StudyRecords   int    `json:"studyRecords"`
	SelectedPlanID string `json:"selectedPlanId,omitempty"`
}

package models

import "time"

const (
	BackupApp     = "ouroboros"
	BackupVersion = 1
)

// Snapshot is the self-describing backup document holding every collection.
type Snapshot struct {
	App            string        `json:"app"`
	Version        int           `json:"version"`
	ExportedAt     time.Time     `json:"exportedAt"`
	SelectedPlanID string        `json:"selectedPlanId,omitempty"`
	Plans          []Plan        `json:"plans"`
	StudyRecords   []StudyRecord `json:"studyRecords"`
}

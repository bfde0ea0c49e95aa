package dto

import (
	"time"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

// PlanRequest is the full body of POST /plans and PUT /plans/:id.
type PlanRequest struct {
	Name              string              `json:"name" validate:"required,max=200"`
	Observations      string              `json:"observations" validate:"max=4000"`
	Cargo             string              `json:"cargo" validate:"max=200"`
	Edital            string              `json:"edital" validate:"max=200"`
	Subjects          []models.Subject    `json:"subjects" validate:"dive"`
	BancaTopicWeights models.TopicWeights `json:"bancaTopicWeights"`
}

// PlanSummary is the list view of a plan.
type PlanSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Cargo      string    `json:"cargo,omitempty"`
	Edital     string    `json:"edital,omitempty"`
	SourceFile string    `json:"sourceFile,omitempty"`
	Subjects   int       `json:"subjects"`
	Topics     int       `json:"topics"`
	Selected   bool      `json:"selected"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SyllabusSource describes a file available for import.
type SyllabusSource struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"sizeBytes"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

package dto

import "github.com/ouroboros-study/ouroboros-api/internal/models"

// StudyRecordRequest is the body of POST /study-records and PUT /study-records/:id.
// Updates replace the stored record entirely.
type StudyRecordRequest struct {
	PlanID           string               `json:"planId"`
	Date             string               `json:"date" validate:"required,datetime=2006-01-02"`
	Subject          string               `json:"subject" validate:"required,max=300"`
	Topic            string               `json:"topic" validate:"max=1000"`
	SubjectID        string               `json:"subjectId"`
	TopicID          string               `json:"topicId"`
	StudyTime        int64                `json:"studyTime" validate:"gte=0"`
	Questions        models.Questions     `json:"questions"`
	Pages            []models.PageRange   `json:"pages" validate:"dive"`
	Videos           []models.Video       `json:"videos" validate:"dive"`
	Notes            string               `json:"notes"`
	Category         models.StudyCategory `json:"category" validate:"required,oneof=teoria revisao questoes leitura_lei jurisprudencia"`
	ReviewPeriods    []string             `json:"reviewPeriods"`
	TeoriaFinalizada bool                 `json:"teoriaFinalizada"`
	CountInPlanning  bool                 `json:"countInPlanning"`
}

// ToggleCompletionRequest identifies the leaf topic whose completion flips.
type ToggleCompletionRequest struct {
	PlanID    string `json:"planId"`
	Subject   string `json:"subject" validate:"required"`
	Topic     string `json:"topic" validate:"required"`
	SubjectID string `json:"subjectId"`
	TopicID   string `json:"topicId"`
}

// ToggleCompletionResult reports how the toggle was applied.
type ToggleCompletionResult struct {
	Completed bool                 `json:"completed"`
	Created   bool                 `json:"created"`
	Records   []models.StudyRecord `json:"records"`
}

// StudyRecordQuery carries the history filter as query parameters. Dates are
// YYYY-MM-DD, durations are minutes and performance is a 0-100 percentage.
type StudyRecordQuery struct {
	PlanID         string   `form:"planId" json:"planId"`
	Subject        string   `form:"subject" json:"subject"`
	Category       string   `form:"category" json:"category" validate:"omitempty,oneof=teoria revisao questoes leitura_lei jurisprudencia"`
	StartDate      string   `form:"startDate" json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string   `form:"endDate" json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	MinDuration    *int     `form:"minDuration" json:"minDuration" validate:"omitempty,gte=0"`
	MaxDuration    *int     `form:"maxDuration" json:"maxDuration" validate:"omitempty,gte=0"`
	MinPerformance *int     `form:"minPerformance" json:"minPerformance" validate:"omitempty,gte=0,lte=100"`
	MaxPerformance *int     `form:"maxPerformance" json:"maxPerformance" validate:"omitempty,gte=0,lte=100"`
	Subjects       []string `form:"subjects" json:"subjects"`
	Topics         []string `form:"topics" json:"topics"`
}

// HistoryDay groups the records studied on one calendar day.
type HistoryDay struct {
	Date      string               `json:"date"`
	StudyTime int64                `json:"studyTime"`
	Questions models.Questions     `json:"questions"`
	Records   []models.StudyRecord `json:"records"`
}

// History is the filtered, grouped study history.
type History struct {
	Days      []HistoryDay     `json:"days"`
	Records   int              `json:"records"`
	StudyTime int64            `json:"studyTime"`
	Questions models.Questions `json:"questions"`
}

package dto

import (
	"time"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
	"github.com/ouroboros-study/ouroboros-api/internal/syllabus"
)

// SubjectStatistics is the annotated tree and roll-up for one subject.
type SubjectStatistics struct {
	ID                   string               `json:"id,omitempty"`
	Subject              string               `json:"subject"`
	Color                string               `json:"color,omitempty"`
	Counts               syllabus.TopicCounts `json:"counts"`
	CompletionPercentage int                  `json:"completionPercentage"`
	Performance          int                  `json:"performance"`
	StudyTime            int64                `json:"studyTime"`
	Records              int                  `json:"records"`
	Topics               []models.Topic       `json:"topics"`
	Rows                 []syllabus.Row       `json:"rows"`
}

// PlanStatistics is the statistics pass over one plan.
type PlanStatistics struct {
	PlanID               string               `json:"planId"`
	PlanName             string               `json:"planName"`
	Subjects             []SubjectStatistics  `json:"subjects"`
	Overall              syllabus.TopicCounts `json:"overall"`
	CompletionPercentage int                  `json:"completionPercentage"`
	Performance          int                  `json:"performance"`
	StudyTime            int64                `json:"studyTime"`
	OrphanedRecords      int                  `json:"orphanedRecords"`
	GeneratedAt          time.Time            `json:"generatedAt"`
}

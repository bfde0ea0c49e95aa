package dto

import "time"

// ReportRequest captures POST /reports. The filter narrows the exported history.
type ReportRequest struct {
	Format string           `json:"format" validate:"required,oneof=csv pdf"`
	Title  string           `json:"title" validate:"max=200"`
	Filter StudyRecordQuery `json:"filter"`
}

// ReportResponse points at the generated file.
type ReportResponse struct {
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	Rows      int       `json:"rows"`
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

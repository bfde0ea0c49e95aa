package models

import "time"

// StudyCategory classifies what kind of study a record logs.
type StudyCategory string

const (
	CategoryTeoria         StudyCategory = "teoria"
	CategoryRevisao        StudyCategory = "revisao"
	CategoryQuestoes       StudyCategory = "questoes"
	CategoryLeituraLei     StudyCategory = "leitura_lei"
	CategoryJurisprudencia StudyCategory = "jurisprudencia"
)

// DateLayout is the calendar-day format used by study records.
const DateLayout = "2006-01-02"

// Questions counts answered questions.
type Questions struct {
	Correct int `json:"correct" validate:"gte=0"`
	Total   int `json:"total" validate:"gte=0,gtefield=Correct"`
}

// PageRange is an inclusive range of pages read.
type PageRange struct {
	Start int `json:"start" validate:"gte=0"`
	End   int `json:"end" validate:"gtefield=Start"`
}

// Video is a watched video segment; Start and End are HH:MM:SS or MM:SS offsets.
type Video struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// StudyRecord is one logged study session. Subject and Topic are matched by text
// against the selected plan; SubjectID/TopicID take precedence when set.
type StudyRecord struct {
	ID               string        `json:"id"`
	PlanID           string        `json:"planId,omitempty"`
	Date             string        `json:"date" validate:"required,datetime=2006-01-02"`
	Subject          string        `json:"subject" validate:"required"`
	Topic            string        `json:"topic"`
	SubjectID        string        `json:"subjectId,omitempty"`
	TopicID          string        `json:"topicId,omitempty"`
	StudyTime        int64         `json:"studyTime" validate:"gte=0"`
	Questions        Questions     `json:"questions"`
	Pages            []PageRange   `json:"pages" validate:"dive"`
	Videos           []Video       `json:"videos" validate:"dive"`
	Notes            string        `json:"notes"`
	Category         StudyCategory `json:"category" validate:"required,oneof=teoria revisao questoes leitura_lei jurisprudencia"`
	ReviewPeriods    []string      `json:"reviewPeriods,omitempty"`
	TeoriaFinalizada bool          `json:"teoriaFinalizada"`
	CountInPlanning  bool          `json:"countInPlanning"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Performance returns the rounded percentage of correct answers, 0 when no questions were answered.
func (r StudyRecord) Performance() int {
	if r.Questions.Total <= 0 {
		return 0
	}
	return int(float64(r.Questions.Correct)*100/float64(r.Questions.Total) + 0.5)
}

// StudyDuration converts StudyTime (milliseconds) to a time.Duration.
func (r StudyRecord) StudyDuration() time.Duration {
	return time.Duration(r.StudyTime) * time.Millisecond
}

// Day parses Date in the given location.
func (r StudyRecord) Day(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, r.Date, loc)
}

// StudyRecordFilter narrows the record history. Every set field must hold.
type StudyRecordFilter struct {
	PlanID         string
	Subject        string
	Category       StudyCategory
	StartDate      *time.Time
	EndDate        *time.Time
	MinDuration    *time.Duration
	MaxDuration    *time.Duration
	MinPerformance *int
	MaxPerformance *int
	Subjects       []string
	Topics         []string
}

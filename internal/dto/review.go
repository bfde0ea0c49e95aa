package dto

// ReviewItem is one scheduled revisit of a studied topic.
type ReviewItem struct {
	RecordID  string `json:"recordId"`
	Subject   string `json:"subject"`
	Topic     string `json:"topic"`
	Period    string `json:"period"`
	StudyDate string `json:"studyDate"`
	DueDate   string `json:"dueDate"`
}

// ReviewSchedule lists reviews relative to a reference day.
type ReviewSchedule struct {
	Date     string       `json:"date"`
	Due      []ReviewItem `json:"due"`
	Overdue  []ReviewItem `json:"overdue"`
	Upcoming []ReviewItem `json:"upcoming"`
}

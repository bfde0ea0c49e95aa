// Package syllabus holds the syllabus ("edital") tree walk shared by every view:
// aggregation, flattening for display, normalisation and the topic/record join.
package syllabus

import (
	"math"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

// TopicCounts is the roll-up of a topic forest.
type TopicCounts struct {
	Total            int `json:"total"`
	Completed        int `json:"completed"`
	TotalQuestions   int `json:"totalQuestions"`
	CorrectQuestions int `json:"correctQuestions"`
}

// Add returns the element-wise sum of two counts.
func (c TopicCounts) Add(o TopicCounts) TopicCounts {
	return TopicCounts{
		Total:            c.Total + o.Total,
		Completed:        c.Completed + o.Completed,
		TotalQuestions:   c.TotalQuestions + o.TotalQuestions,
		CorrectQuestions: c.CorrectQuestions + o.CorrectQuestions,
	}
}

// CompletionPercentage is round(100*completed/total), 0 for an empty forest.
func (c TopicCounts) CompletionPercentage() int {
	return Percentage(c.Completed, c.Total)
}

// Performance is round(100*correct/totalQuestions), 0 when nothing was answered.
func (c TopicCounts) Performance() int {
	return Percentage(c.CorrectQuestions, c.TotalQuestions)
}

// CountTopics sums a forest. Leaves count once each and contribute their own
// question counters; groups contribute only their children, never their own fields.
func CountTopics(topics []models.Topic) TopicCounts {
	var out TopicCounts
	for i := range topics {
		out = out.Add(countTopic(&topics[i]))
	}
	return out
}

func countTopic(t *models.Topic) TopicCounts {
	if t.IsGroup() {
		return CountTopics(t.SubTopics)
	}
	c := TopicCounts{
		Total:            1,
		TotalQuestions:   t.Total,
		CorrectQuestions: t.Completed,
	}
	if t.IsCompleted {
		c.Completed = 1
	}
	return c
}

// CountSubjects sums every subject of a plan.
func CountSubjects(subjects []models.Subject) TopicCounts {
	var out TopicCounts
	for i := range subjects {
		out = out.Add(CountTopics(subjects[i].Topics))
	}
	return out
}

// Percentage returns round(100*part/whole) and 0 when whole is not positive.
func Percentage(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

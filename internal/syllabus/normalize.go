package syllabus

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

// Normalize trims names, derives is_grouping_topic and clears the counters a
// grouping topic must never carry. It mutates subjects in place.
func Normalize(subjects []models.Subject) {
	for i := range subjects {
		subjects[i].Subject = strings.TrimSpace(subjects[i].Subject)
		Walk(subjects[i].Topics, func(t *models.Topic, _ int, _ []string) bool {
			t.TopicText = strings.TrimSpace(t.TopicText)
			t.TopicNumber = strings.TrimSpace(t.TopicNumber)
			if !t.IsLeaf() {
				t.IsGroupingTopic = true
			}
			if t.IsGroup() {
				t.IsCompleted = false
				t.Completed = 0
				t.Total = 0
				t.LastStudy = ""
			}
			return true
		})
	}
}

// AssignIDs gives every subject and topic without one a fresh stable id.
// Existing ids are kept so records joined by id survive renames.
func AssignIDs(subjects []models.Subject) {
	for i := range subjects {
		if subjects[i].ID == "" {
			subjects[i].ID = uuid.NewString()
		}
		Walk(subjects[i].Topics, func(t *models.Topic, _ int, _ []string) bool {
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			return true
		})
	}
}

// ResetProgress zeroes the derived counters of every leaf, leaving structure
// and manual completion flags intact.
func ResetProgress(subjects []models.Subject) {
	for i := range subjects {
		for _, leaf := range Leaves(subjects[i].Topics) {
			leaf.Completed = 0
			leaf.Total = 0
			leaf.LastStudy = ""
		}
	}
}

// Clone deep-copies a subject list so annotations never leak into the stored plan.
func Clone(subjects []models.Subject) []models.Subject {
	if subjects == nil {
		return nil
	}
	out := make([]models.Subject, len(subjects))
	for i, s := range subjects {
		out[i] = s
		out[i].Topics = cloneTopics(s.Topics)
	}
	return out
}

func cloneTopics(topics []models.Topic) []models.Topic {
	if topics == nil {
		return nil
	}
	out := make([]models.Topic, len(topics))
	for i, t := range topics {
		out[i] = t
		out[i].SubTopics = cloneTopics(t.SubTopics)
	}
	return out
}

// InheritIDs copies ids from prev onto nodes of next that lack one, matching
// subjects by name and topics by topic_text within the same parent. It lets a
// client that resends a tree without ids keep the join keys of existing records.
func InheritIDs(next, prev []models.Subject) {
	byName := make(map[string]*models.Subject, len(prev))
	for i := range prev {
		byName[prev[i].Subject] = &prev[i]
	}
	for i := range next {
		old, ok := byName[next[i].Subject]
		if !ok {
			continue
		}
		if next[i].ID == "" {
			next[i].ID = old.ID
		}
		inheritTopicIDs(next[i].Topics, old.Topics)
	}
}

func inheritTopicIDs(next, prev []models.Topic) {
	byText := make(map[string]*models.Topic, len(prev))
	for i := range prev {
		if _, dup := byText[prev[i].TopicText]; !dup {
			byText[prev[i].TopicText] = &prev[i]
		}
	}
	for i := range next {
		old, ok := byText[next[i].TopicText]
		if !ok {
			continue
		}
		if next[i].ID == "" {
			next[i].ID = old.ID
		}
		inheritTopicIDs(next[i].SubTopics, old.SubTopics)
	}
}

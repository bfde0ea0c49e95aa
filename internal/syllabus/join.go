package syllabus

import (
	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

// Index attributes study records to the nodes of one plan. A record matches by
// subject/topic id when the id exists in the plan, otherwise by exact
// (case-sensitive) subject and topic_text. A text match belongs to the first leaf
// in display order carrying that text, so each record reaches at most one leaf.
type Index struct {
	subjects []subjectBucket
	orphaned []*models.StudyRecord
}

type subjectBucket struct {
	subject   *models.Subject
	byTopicID map[string][]*models.StudyRecord
	byText    map[string][]*models.StudyRecord
	textOwner map[string]*models.Topic
	all       []*models.StudyRecord
}

// NewIndex builds the join once so later probes are O(1).
func NewIndex(subjects []models.Subject, records []models.StudyRecord) *Index {
	ix := &Index{subjects: make([]subjectBucket, len(subjects))}
	subjectByID := make(map[string]int, len(subjects))
	subjectByName := make(map[string]int, len(subjects))
	topicIDs := make([]map[string]struct{}, len(subjects))

	for i := range subjects {
		s := &subjects[i]
		ix.subjects[i] = subjectBucket{
			subject:   s,
			byTopicID: make(map[string][]*models.StudyRecord),
			byText:    make(map[string][]*models.StudyRecord),
			textOwner: make(map[string]*models.Topic),
		}
		if s.ID != "" {
			subjectByID[s.ID] = i
		}
		if _, dup := subjectByName[s.Subject]; !dup {
			subjectByName[s.Subject] = i
		}
		ids := make(map[string]struct{})
		Walk(s.Topics, func(t *models.Topic, _ int, _ []string) bool {
			if t.ID != "" {
				ids[t.ID] = struct{}{}
			}
			if _, taken := ix.subjects[i].textOwner[t.TopicText]; !taken && !t.IsGroup() {
				ix.subjects[i].textOwner[t.TopicText] = t
			}
			return true
		})
		topicIDs[i] = ids
	}

	for i := range records {
		rec := &records[i]
		idx, ok := -1, false
		if rec.SubjectID != "" {
			idx, ok = subjectByID[rec.SubjectID]
		}
		if !ok {
			idx, ok = subjectByName[rec.Subject]
		}
		if !ok {
			ix.orphaned = append(ix.orphaned, rec)
			continue
		}
		bucket := &ix.subjects[idx]
		bucket.all = append(bucket.all, rec)
		if rec.TopicID != "" {
			if _, known := topicIDs[idx][rec.TopicID]; known {
				bucket.byTopicID[rec.TopicID] = append(bucket.byTopicID[rec.TopicID], rec)
				continue
			}
		}
		bucket.byText[rec.Topic] = append(bucket.byText[rec.Topic], rec)
	}
	return ix
}

// RecordsFor returns the records attributed to a topic of the given subject.
func (ix *Index) RecordsFor(subjectIdx int, t *models.Topic) []*models.StudyRecord {
	if subjectIdx < 0 || subjectIdx >= len(ix.subjects) || t == nil {
		return nil
	}
	b := &ix.subjects[subjectIdx]
	var out []*models.StudyRecord
	if t.ID != "" {
		out = append(out, b.byTopicID[t.ID]...)
	}
	if b.textOwner[t.TopicText] == t {
		out = append(out, b.byText[t.TopicText]...)
	}
	return out
}

// SubjectRecords returns every record attributed to the subject, including
// those whose topic no longer exists in it.
func (ix *Index) SubjectRecords(subjectIdx int) []*models.StudyRecord {
	if subjectIdx < 0 || subjectIdx >= len(ix.subjects) {
		return nil
	}
	return ix.subjects[subjectIdx].all
}

// Studied reports whether any record exists for the topic.
func (ix *Index) Studied(subjectIdx int, t *models.Topic) bool {
	return len(ix.RecordsFor(subjectIdx, t)) > 0
}

// SubjectIndex returns the position of the subject matching id or name, or -1.
func (ix *Index) SubjectIndex(id, name string) int {
	if id != "" {
		for i := range ix.subjects {
			if ix.subjects[i].subject.ID == id {
				return i
			}
		}
	}
	for i := range ix.subjects {
		if ix.subjects[i].subject.Subject == name {
			return i
		}
	}
	return -1
}

// SubjectActivity is the effort attributed to one subject.
type SubjectActivity struct {
	StudyTime int64 `json:"studyTime"`
	Records   int   `json:"records"`
}

// Attribution is the result of projecting records onto a plan.
type Attribution struct {
	Subjects []models.Subject
	Activity []SubjectActivity
	Orphaned []models.StudyRecord
}

// Attribute returns an annotated copy of subjects: each leaf's question counters
// are the sum of its records, last_study is the latest record date and
// is_completed follows the records' teoriaFinalizada when any record exists
// (the stored flag otherwise). Records that reach no leaf are reported as
// orphaned, except subject-level records of a subject without topics.
func Attribute(subjects []models.Subject, records []models.StudyRecord) Attribution {
	annotated := Clone(subjects)
	Normalize(annotated)
	ResetProgress(annotated)
	ix := NewIndex(annotated, records)

	out := Attribution{
		Subjects: annotated,
		Activity: make([]SubjectActivity, len(annotated)),
	}
	for _, rec := range ix.orphaned {
		out.Orphaned = append(out.Orphaned, *rec)
	}

	for i := range annotated {
		attributed := make(map[*models.StudyRecord]struct{})
		for _, leaf := range Leaves(annotated[i].Topics) {
			recs := ix.RecordsFor(i, leaf)
			if len(recs) == 0 {
				continue
			}
			finalized := false
			for _, rec := range recs {
				attributed[rec] = struct{}{}
				leaf.Completed += rec.Questions.Correct
				leaf.Total += rec.Questions.Total
				if rec.Date > leaf.LastStudy {
					leaf.LastStudy = rec.Date
				}
				if rec.TeoriaFinalizada {
					finalized = true
				}
			}
			leaf.IsCompleted = finalized
		}

		hasTopics := len(annotated[i].Topics) > 0
		for _, rec := range ix.SubjectRecords(i) {
			out.Activity[i].StudyTime += rec.StudyTime
			out.Activity[i].Records++
			if _, ok := attributed[rec]; ok {
				continue
			}
			if !hasTopics && rec.Topic == "" {
				continue
			}
			out.Orphaned = append(out.Orphaned, *rec)
		}
	}
	return out
}

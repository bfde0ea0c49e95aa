package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Topic is a node of the syllabus tree. Grouping topics only organise their
// children; leaves carry the authoritative question counters.
type Topic struct {
	ID              string  `json:"id,omitempty" yaml:"id,omitempty"`
	TopicNumber     string  `json:"topic_number,omitempty" yaml:"topic_number,omitempty"`
	TopicText       string  `json:"topic_text" yaml:"topic_text" validate:"required"`
	SubTopics       []Topic `json:"sub_topics,omitempty" yaml:"sub_topics,omitempty" validate:"dive"`
	IsGroupingTopic bool    `json:"is_grouping_topic,omitempty" yaml:"is_grouping_topic,omitempty"`
	IsCompleted     bool    `json:"is_completed,omitempty" yaml:"is_completed,omitempty"`
	Completed       int     `json:"completed,omitempty" yaml:"completed,omitempty" validate:"gte=0"`
	Total           int     `json:"total,omitempty" yaml:"total,omitempty" validate:"gte=0"`
	LastStudy       string  `json:"last_study,omitempty" yaml:"last_study,omitempty"`
}

// IsLeaf reports whether the topic has no children. An empty sub_topics list is a leaf.
func (t Topic) IsLeaf() bool {
	return len(t.SubTopics) == 0
}

// IsGroup reports whether the topic only organises other topics.
func (t Topic) IsGroup() bool {
	return !t.IsLeaf() || t.IsGroupingTopic
}

// UnmarshalJSON accepts the legacy "reviewed" key as an alias of "total".
func (t *Topic) UnmarshalJSON(data []byte) error {
	type topicAlias Topic
	aux := struct {
		*topicAlias
		Reviewed *int `json:"reviewed"`
	}{topicAlias: (*topicAlias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Reviewed != nil && t.Total == 0 {
		t.Total = *aux.Reviewed
	}
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML syllabus documents.
func (t *Topic) UnmarshalYAML(value *yaml.Node) error {
	type topicAlias Topic
	var base topicAlias
	if err := value.Decode(&base); err != nil {
		return err
	}
	var extra struct {
		Reviewed *int `yaml:"reviewed"`
	}
	if err := value.Decode(&extra); err != nil {
		return err
	}
	*t = Topic(base)
	if extra.Reviewed != nil && t.Total == 0 {
		t.Total = *extra.Reviewed
	}
	return nil
}

// Subject is the root of one syllabus tree. Its name is the join key against
// study records' subject field.
type Subject struct {
	ID      string  `json:"id,omitempty" yaml:"id,omitempty"`
	Subject string  `json:"subject" yaml:"subject" validate:"required"`
	Topics  []Topic `json:"topics" yaml:"topics" validate:"dive"`
	Color   string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// Subjects is stored as a JSON document column.
type Subjects []Subject

// Value implements driver.Valuer.
func (s Subjects) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]Subject(s))
	if err != nil {
		return nil, fmt.Errorf("marshal subjects: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (s *Subjects) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// TopicWeights maps subject -> topic -> banca weight (1..5).
type TopicWeights map[string]map[string]int

// Value implements driver.Valuer.
func (w TopicWeights) Value() (driver.Value, error) {
	if w == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]map[string]int(w))
	if err != nil {
		return nil, fmt.Errorf("marshal topic weights: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (w *TopicWeights) Scan(src interface{}) error {
	return scanJSON(src, w)
}

func scanJSON(src interface{}, dest interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

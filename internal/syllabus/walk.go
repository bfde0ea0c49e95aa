package syllabus

import "github.com/ouroboros-study/ouroboros-api/internal/models"

// Visitor is called for every node in pre-order. Path holds the ancestors'
// topic_text, outermost first. Returning false skips the node's children.
type Visitor func(t *models.Topic, depth int, path []string) bool

// Walk visits a forest in pre-order. Nodes are passed by pointer so visitors may
// annotate them in place.
func Walk(topics []models.Topic, visit Visitor) {
	walk(topics, 0, nil, visit)
}

func walk(topics []models.Topic, depth int, path []string, visit Visitor) {
	for i := range topics {
		t := &topics[i]
		if !visit(t, depth, path) || t.IsLeaf() {
			continue
		}
		child := make([]string, len(path), len(path)+1)
		copy(child, path)
		walk(t.SubTopics, depth+1, append(child, t.TopicText), visit)
	}
}

// Leaves returns pointers to every countable leaf of the forest in display order.
// A childless topic marked is_grouping_topic is a section header, not a leaf.
func Leaves(topics []models.Topic) []*models.Topic {
	var out []*models.Topic
	Walk(topics, func(t *models.Topic, _ int, _ []string) bool {
		if !t.IsGroup() {
			out = append(out, t)
		}
		return true
	})
	return out
}

// Row is one line of a flattened tree, ready for rendering.
type Row struct {
	ID          string      `json:"id,omitempty"`
	TopicNumber string      `json:"topicNumber,omitempty"`
	TopicText   string      `json:"topicText"`
	Depth       int         `json:"depth"`
	Path        []string    `json:"path,omitempty"`
	IsGroup     bool        `json:"isGroup"`
	IsCompleted bool        `json:"isCompleted"`
	LastStudy   string      `json:"lastStudy,omitempty"`
	Counts      TopicCounts `json:"counts"`
	Performance int         `json:"performance"`
	Progress    int         `json:"progress"`
}

// Flatten renders the forest as rows. Group rows carry the aggregate of their
// subtree, leaf rows their own counters.
func Flatten(topics []models.Topic) []Row {
	var rows []Row
	Walk(topics, func(t *models.Topic, depth int, path []string) bool {
		counts := countTopic(t)
		row := Row{
			ID:          t.ID,
			TopicNumber: t.TopicNumber,
			TopicText:   t.TopicText,
			Depth:       depth,
			Path:        path,
			IsGroup:     t.IsGroup(),
			IsCompleted: counts.Total > 0 && counts.Completed == counts.Total,
			LastStudy:   lastStudy(t),
			Counts:      counts,
			Performance: counts.Performance(),
			Progress:    counts.CompletionPercentage(),
		}
		rows = append(rows, row)
		return true
	})
	return rows
}

// lastStudy is the latest last_study among a node's leaves. ISO dates compare lexically.
func lastStudy(t *models.Topic) string {
	if t.IsLeaf() {
		return t.LastStudy
	}
	latest := ""
	for i := range t.SubTopics {
		if d := lastStudy(&t.SubTopics[i]); d > latest {
			latest = d
		}
	}
	return latest
}

// FindTopic returns the first node matching id, or topic_text when id is empty or unknown.
func FindTopic(topics []models.Topic, id, text string) *models.Topic {
	var byID, byText *models.Topic
	Walk(topics, func(t *models.Topic, _ int, _ []string) bool {
		if id != "" && t.ID == id && byID == nil {
			byID = t
		}
		if t.TopicText == text && byText == nil {
			byText = t
		}
		return byID == nil
	})
	if byID != nil {
		return byID
	}
	return byText
}

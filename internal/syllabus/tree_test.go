package syllabus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
)

func scenarioForest() []models.Topic {
	return []models.Topic{
		{
			TopicText: "A",
			SubTopics: []models.Topic{
				{TopicText: "B", IsCompleted: true, Total: 10, Completed: 7},
				{TopicText: "C", IsCompleted: false, Total: 5, Completed: 2},
			},
		},
	}
}

func TestCountTopicsScenario(t *testing.T) {
	counts := CountTopics(scenarioForest())
	assert.Equal(t, TopicCounts{Total: 2, Completed: 1, TotalQuestions: 15, CorrectQuestions: 9}, counts)
	assert.Equal(t, 60, counts.Performance())
	assert.Equal(t, 50, counts.CompletionPercentage())
}

func TestCountTopicsIgnoresGroupCounters(t *testing.T) {
	zeroed := scenarioForest()
	dirty := scenarioForest()
	dirty[0].Completed = 99
	dirty[0].Total = 120
	dirty[0].IsCompleted = true

	assert.Equal(t, CountTopics(zeroed), CountTopics(dirty))
}

func TestCountTopicsIsLinear(t *testing.T) {
	forest := []models.Topic{
		scenarioForest()[0],
		{TopicText: "D", IsCompleted: true, Total: 4, Completed: 4},
		{TopicText: "E", SubTopics: []models.Topic{
			{TopicText: "E.1", SubTopics: []models.Topic{{TopicText: "E.1.a", Total: 3, Completed: 1}}},
		}},
	}

	var sum TopicCounts
	for _, topic := range forest {
		sum = sum.Add(CountTopics([]models.Topic{topic}))
	}
	assert.Equal(t, sum, CountTopics(forest))
}

func TestCountTopicsLeafCountsOnceAtAnyDepth(t *testing.T) {
	deep := []models.Topic{{TopicText: "1", SubTopics: []models.Topic{
		{TopicText: "1.1", SubTopics: []models.Topic{
			{TopicText: "1.1.1", SubTopics: []models.Topic{{TopicText: "leaf"}}},
		}},
	}}}
	assert.Equal(t, 1, CountTopics(deep).Total)
}

func TestCountTopicsEmptySubTopicsIsLeaf(t *testing.T) {
	forest := []models.Topic{{TopicText: "solo", SubTopics: []models.Topic{}, IsCompleted: true, Total: 2, Completed: 1}}
	assert.Equal(t, TopicCounts{Total: 1, Completed: 1, TotalQuestions: 2, CorrectQuestions: 1}, CountTopics(forest))
}

func TestPercentageGuardsZero(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 0, Percentage(5, 0))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 100, Percentage(4, 4))
}

func TestFlattenCarriesSubtreeAggregates(t *testing.T) {
	rows := Flatten(scenarioForest())
	require.Len(t, rows, 3)

	assert.Equal(t, "A", rows[0].TopicText)
	assert.True(t, rows[0].IsGroup)
	assert.Equal(t, 0, rows[0].Depth)
	assert.Equal(t, 60, rows[0].Performance)
	assert.Equal(t, 50, rows[0].Progress)
	assert.False(t, rows[0].IsCompleted)

	assert.Equal(t, "B", rows[1].TopicText)
	assert.Equal(t, 1, rows[1].Depth)
	assert.Equal(t, []string{"A"}, rows[1].Path)
	assert.True(t, rows[1].IsCompleted)
	assert.Equal(t, 70, rows[1].Performance)
}

func TestFindTopicPrefersID(t *testing.T) {
	forest := []models.Topic{
		{ID: "t1", TopicText: "Crase"},
		{ID: "t2", TopicText: "Grupo", SubTopics: []models.Topic{{ID: "t3", TopicText: "Crase"}}},
	}
	assert.Equal(t, "t3", FindTopic(forest, "t3", "Crase").ID)
	assert.Equal(t, "t1", FindTopic(forest, "", "Crase").ID)
	assert.Equal(t, "t1", FindTopic(forest, "gone", "Crase").ID)
	assert.Nil(t, FindTopic(forest, "", "Regência"))
}

func TestNormalizeClearsGroupCounters(t *testing.T) {
	subjects := []models.Subject{{Subject: "  Português ", Topics: scenarioForest()}}
	subjects[0].Topics[0].Total = 30
	subjects[0].Topics[0].SubTopics[0].TopicText = " B "

	Normalize(subjects)

	assert.Equal(t, "Português", subjects[0].Subject)
	group := subjects[0].Topics[0]
	assert.True(t, group.IsGroupingTopic)
	assert.Zero(t, group.Total)
	assert.Equal(t, "B", group.SubTopics[0].TopicText)
	assert.Equal(t, 10, group.SubTopics[0].Total)
}

func TestAssignIDsKeepsExisting(t *testing.T) {
	subjects := []models.Subject{{ID: "s1", Subject: "Português", Topics: []models.Topic{
		{ID: "keep", TopicText: "Crase"},
		{TopicText: "Regência"},
	}}}
	AssignIDs(subjects)
	assert.Equal(t, "s1", subjects[0].ID)
	assert.Equal(t, "keep", subjects[0].Topics[0].ID)
	assert.NotEmpty(t, subjects[0].Topics[1].ID)
}

func TestCloneIsDeep(t *testing.T) {
	original := []models.Subject{{Subject: "Português", Topics: scenarioForest()}}
	copied := Clone(original)
	copied[0].Topics[0].SubTopics[0].Total = 0
	assert.Equal(t, 10, original[0].Topics[0].SubTopics[0].Total)
}

func TestInheritIDsMatchesByNameAndParent(t *testing.T) {
	prev := []models.Subject{{ID: "s1", Subject: "Português", Topics: []models.Topic{
		{ID: "g1", TopicText: "Sintaxe", SubTopics: []models.Topic{{ID: "l1", TopicText: "Crase"}}},
		{ID: "l2", TopicText: "Crase"},
	}}}
	next := []models.Subject{{Subject: "Português", Topics: []models.Topic{
		{TopicText: "Sintaxe", SubTopics: []models.Topic{{TopicText: "Crase"}, {TopicText: "Regência"}}},
		{ID: "own", TopicText: "Crase"},
	}}, {Subject: "Direito"}}

	InheritIDs(next, prev)

	assert.Equal(t, "s1", next[0].ID)
	assert.Equal(t, "g1", next[0].Topics[0].ID)
	assert.Equal(t, "l1", next[0].Topics[0].SubTopics[0].ID)
	assert.Empty(t, next[0].Topics[0].SubTopics[1].ID)
	assert.Equal(t, "own", next[0].Topics[1].ID)
	assert.Empty(t, next[1].ID)
}

func TestCountTopicsChildlessGroupingTopicIsNotCounted(t *testing.T) {
	forest := []models.Topic{
		{TopicText: "Noções gerais", IsGroupingTopic: true, Total: 9, Completed: 9},
		{TopicText: "Princípios", IsCompleted: true},
	}
	counts := CountTopics(forest)
	assert.Equal(t, TopicCounts{Total: 1, Completed: 1}, counts)
	assert.Equal(t, 100, counts.CompletionPercentage())

	leaves := Leaves(forest)
	require.Len(t, leaves, 1)
	assert.Equal(t, "Princípios", leaves[0].TopicText)
}

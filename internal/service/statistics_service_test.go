package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
	"github.com/ouroboros-study/ouroboros-api/internal/syllabus"
)

func groupedPlan() *models.Plan {
	return &models.Plan{
		ID:   "plan-1",
		Name: "TRF 4",
		Subjects: models.Subjects{{
			Subject: "S",
			Topics: []models.Topic{{
				TopicText:       "A",
				IsGroupingTopic: true,
				SubTopics: []models.Topic{
					{TopicText: "B"},
					{TopicText: "C"},
				},
			}},
		}},
	}
}

func TestBuildPlanStatisticsAggregatesRecords(t *testing.T) {
	records := []models.StudyRecord{
		{ID: "r1", Date: "2024-03-01", Subject: "S", Topic: "B", Category: models.CategoryTeoria, StudyTime: 60000, Questions: models.Questions{Correct: 4, Total: 6}, TeoriaFinalizada: true},
		{ID: "r2", Date: "2024-03-02", Subject: "S", Topic: "B", Category: models.CategoryQuestoes, Questions: models.Questions{Correct: 3, Total: 4}},
		{ID: "r3", Date: "2024-03-03", Subject: "S", Topic: "C", Category: models.CategoryQuestoes, StudyTime: 30000, Questions: models.Questions{Correct: 2, Total: 5}},
		{ID: "r4", Date: "2024-03-03", Subject: "Outra", Topic: "X", Category: models.CategoryTeoria},
	}
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	stats := BuildPlanStatistics(groupedPlan(), records, now)

	require.Len(t, stats.Subjects, 1)
	subject := stats.Subjects[0]
	assert.Equal(t, syllabus.TopicCounts{Total: 2, Completed: 1, TotalQuestions: 15, CorrectQuestions: 9}, subject.Counts)
	assert.Equal(t, 60, subject.Performance)
	assert.Equal(t, 50, subject.CompletionPercentage)
	assert.EqualValues(t, 90000, subject.StudyTime)
	assert.Equal(t, 3, subject.Records)
	assert.Equal(t, 1, stats.OrphanedRecords)
	assert.Equal(t, subject.Counts, stats.Overall)
	assert.Equal(t, now, stats.GeneratedAt)
}

func TestBuildPlanStatisticsWithoutRecordsIsZero(t *testing.T) {
	stats := BuildPlanStatistics(groupedPlan(), nil, time.Now())
	require.Len(t, stats.Subjects, 1)
	assert.Equal(t, syllabus.TopicCounts{Total: 2}, stats.Subjects[0].Counts)
	assert.Zero(t, stats.Subjects[0].Performance)
	assert.Zero(t, stats.Subjects[0].CompletionPercentage)
	assert.Zero(t, stats.Performance)
}

func TestStatisticsServiceResolvesSelectedPlan(t *testing.T) {
	plan := groupedPlan()
	records := newStudyRecordRepoStub(models.StudyRecord{ID: "r1", Date: "2024-03-01", Subject: "S", Topic: "C", Category: models.CategoryTeoria, TeoriaFinalizada: true})
	svc := NewStatisticsService(planResolverStub{plan: plan}, records, nil, nil)

	stats, err := svc.PlanStatistics(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, plan.ID, stats.PlanID)
	assert.Equal(t, 50, stats.CompletionPercentage)

	_, err = svc.PlanStatistics(context.Background(), "other")
	require.Error(t, err)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	"github.com/ouroboros-study/ouroboros-api/internal/models"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
)

func dueDates(items []dto.ReviewItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Topic+"@"+item.DueDate)
	}
	return out
}

func TestBuildReviewSchedule(t *testing.T) {
	records := []models.StudyRecord{
		{ID: "a", Date: "2024-03-01", Subject: "S", Topic: "Atos", Category: models.CategoryTeoria, ReviewPeriods: []string{"1d", "9d", "12d"}},
		{ID: "b", Date: "2024-03-05", Subject: "S", Topic: "Poderes", Category: models.CategoryTeoria, ReviewPeriods: []string{"1d"}},
		{ID: "c", Date: "2024-03-06", Subject: "S", Topic: "Poderes", Category: models.CategoryRevisao},
		{ID: "d", Date: "2024-03-10", Subject: "S", Topic: "Contratos", Category: models.CategoryTeoria, ReviewPeriods: []string{"30d"}},
	}
	ref := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	schedule := BuildReviewSchedule(records, ref, 7, time.UTC)

	assert.Equal(t, "2024-03-10", schedule.Date)
	assert.Equal(t, []string{"Atos@2024-03-10"}, dueDates(schedule.Due))
	assert.Equal(t, []string{"Atos@2024-03-02"}, dueDates(schedule.Overdue))
	assert.Equal(t, []string{"Atos@2024-03-13"}, dueDates(schedule.Upcoming))
}

func TestReviewServiceValidatesInput(t *testing.T) {
	svc := NewReviewService(newStudyRecordRepoStub(), time.UTC)

	_, err := svc.Schedule(context.Background(), "10/03/2024", 0)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Schedule(context.Background(), "2024-03-10", 400)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	schedule, err := svc.Schedule(context.Background(), "2024-03-10", 0)
	require.NoError(t, err)
	assert.Empty(t, schedule.Due)
}

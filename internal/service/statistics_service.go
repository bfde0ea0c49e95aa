package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	"github.com/ouroboros-study/ouroboros-api/internal/models"
	"github.com/ouroboros-study/ouroboros-api/internal/syllabus"
)

type recordLister interface {
	List(ctx context.Context) ([]models.StudyRecord, error)
}

// StatisticsService projects the study history onto a plan.
type StatisticsService struct {
	plans   planResolver
	records recordLister
	cache   *CacheService
	logger  *zap.Logger
	now     func() time.Time
}

// NewStatisticsService constructs the service. cache may be nil.
func NewStatisticsService(plans planResolver, records recordLister, cache *CacheService, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{plans: plans, records: records, cache: cache, logger: logger, now: time.Now}
}

// PlanStatistics returns the statistics of planID, or of the selected plan when empty.
func (s *StatisticsService) PlanStatistics(ctx context.Context, planID string) (*dto.PlanStatistics, error) {
	plan, err := s.plans.ResolvePlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	key := statisticsKey(plan.ID)
	var cached dto.PlanStatistics
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	records, err := s.records.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list study records")
	}
	stats := BuildPlanStatistics(plan, records, s.now().UTC())
	_ = s.cache.Set(ctx, key, stats, 0)
	return &stats, nil
}

// BuildPlanStatistics attributes records to the plan's leaves and rolls the tree up.
func BuildPlanStatistics(plan *models.Plan, records []models.StudyRecord, now time.Time) dto.PlanStatistics {
	attribution := syllabus.Attribute(plan.Subjects, records)
	out := dto.PlanStatistics{
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		Subjects:        make([]dto.SubjectStatistics, 0, len(attribution.Subjects)),
		OrphanedRecords: len(attribution.Orphaned),
		GeneratedAt:     now,
	}
	for i, subject := range attribution.Subjects {
		counts := syllabus.CountTopics(subject.Topics)
		activity := attribution.Activity[i]
		topics := subject.Topics
		if topics == nil {
			topics = []models.Topic{}
		}
		rows := syllabus.Flatten(subject.Topics)
		if rows == nil {
			rows = []syllabus.Row{}
		}
		out.Subjects = append(out.Subjects, dto.SubjectStatistics{
			ID:                   subject.ID,
			Subject:              subject.Subject,
			Color:                subject.Color,
			Counts:               counts,
			CompletionPercentage: counts.CompletionPercentage(),
			Performance:          counts.Performance(),
			StudyTime:            activity.StudyTime,
			Records:              activity.Records,
			Topics:               topics,
			Rows:                 rows,
		})
		out.StudyTime += activity.StudyTime
	}
	out.Overall = syllabus.CountSubjects(attribution.Subjects)
	out.CompletionPercentage = out.Overall.CompletionPercentage()
	out.Performance = out.Overall.Performance()
	return out
}

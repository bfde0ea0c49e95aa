package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	"github.com/ouroboros-study/ouroboros-api/internal/models"
	"github.com/ouroboros-study/ouroboros-api/internal/syllabus"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
)

type studyRecordRepository interface {
	List(ctx context.Context) ([]models.StudyRecord, error)
	FindByID(ctx context.Context, id string) (*models.StudyRecord, error)
	Create(ctx context.Context, rec *models.StudyRecord) error
	Update(ctx context.Context, rec *models.StudyRecord) error
	UpdateMany(ctx context.Context, recs []models.StudyRecord) error
	Delete(ctx context.Context, id string) error
}

type planResolver interface {
	ResolvePlan(ctx context.Context, id string) (*models.Plan, error)
}

// StudyRecordServiceConfig tunes record handling.
type StudyRecordServiceConfig struct {
	// Location defines the local day used for "today". Defaults to time.Local.
	Location *time.Location
	Now      func() time.Time
}

// StudyRecordService implements the study history CRUD contract.
type StudyRecordService struct {
	repo      studyRecordRepository
	plans     planResolver
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewStudyRecordService constructs the service. plans, cache and metrics may be nil.
func NewStudyRecordService(repo studyRecordRepository, plans planResolver, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg StudyRecordServiceConfig) *StudyRecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &StudyRecordService{
		repo:      repo,
		plans:     plans,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		loc:       cfg.Location,
		now:       cfg.Now,
	}
}

// List returns the full history.
func (s *StudyRecordService) List(ctx context.Context) ([]models.StudyRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list study records")
	}
	return records, nil
}

// Get returns one record.
func (s *StudyRecordService) Get(ctx context.Context, id string) (*models.StudyRecord, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study record not found")
		}
		return nil, internalError(err, "failed to load study record")
	}
	return rec, nil
}

// Create validates and stores a new record under a fresh id.
func (s *StudyRecordService) Create(ctx context.Context, req dto.StudyRecordRequest) (*models.StudyRecord, error) {
	rec, err := s.buildRecord(ctx, req)
	if err != nil {
		return nil, err
	}
	rec.ID = uuid.NewString()
	now := s.now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, internalError(err, "failed to create study record")
	}
	s.afterWrite(ctx, "create")
	return rec, nil
}

// Update replaces the record with id. Unknown ids are rejected and nothing is written.
func (s *StudyRecordService) Update(ctx context.Context, id string, req dto.StudyRecordRequest) (*models.StudyRecord, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.buildRecord(ctx, req)
	if err != nil {
		return nil, err
	}
	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, rec); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study record not found")
		}
		return nil, internalError(err, "failed to update study record")
	}
	s.afterWrite(ctx, "update")
	return rec, nil
}

// Delete removes a record. Absent ids are not an error.
func (s *StudyRecordService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete study record")
	}
	s.afterWrite(ctx, "delete")
	return nil
}

// Filter returns the records matching q.
func (s *StudyRecordService) Filter(ctx context.Context, q dto.StudyRecordQuery) ([]models.StudyRecord, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Validation(err, "invalid filter")
	}
	f, err := ParseFilter(q, s.loc)
	if err != nil {
		return nil, err
	}
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterRecords(records, f), nil
}

// History returns the filtered records grouped by day.
func (s *StudyRecordService) History(ctx context.Context, q dto.StudyRecordQuery) (*dto.History, error) {
	records, err := s.Filter(ctx, q)
	if err != nil {
		return nil, err
	}
	history := GroupByDay(records)
	return &history, nil
}

// ToggleCompletion flips the completion of a leaf topic. With no record for the
// topic a zero-effort teoria record marked finalised is created; otherwise every
// record of the topic gets the negation of the current state.
func (s *StudyRecordService) ToggleCompletion(ctx context.Context, req dto.ToggleCompletionRequest) (*dto.ToggleCompletionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid toggle payload")
	}
	if s.plans == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no plan available")
	}
	plan, err := s.plans.ResolvePlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	subject := plan.FindSubject(req.SubjectID, strings.TrimSpace(req.Subject))
	if subject == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found in plan")
	}
	topic := syllabus.FindTopic(subject.Topics, req.TopicID, strings.TrimSpace(req.Topic))
	if topic == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "topic not found in plan")
	}
	if topic.IsGroup() {
		return nil, appErrors.WithField("topic", "grouping topics cannot be completed directly")
	}

	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ix := syllabus.NewIndex([]models.Subject{*subject}, records)
	matches := ix.RecordsFor(0, topic)

	if len(matches) == 0 {
		now := s.now()
		rec := &models.StudyRecord{
			ID:               uuid.NewString(),
			PlanID:           plan.ID,
			Date:             now.In(s.loc).Format(models.DateLayout),
			Subject:          subject.Subject,
			Topic:            topic.TopicText,
			SubjectID:        subject.ID,
			TopicID:          topic.ID,
			Pages:            []models.PageRange{},
			Videos:           []models.Video{},
			Category:         models.CategoryTeoria,
			TeoriaFinalizada: true,
			CreatedAt:        now.UTC(),
			UpdatedAt:        now.UTC(),
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return nil, internalError(err, "failed to create study record")
		}
		s.afterWrite(ctx, "toggle")
		return &dto.ToggleCompletionResult{Completed: true, Created: true, Records: []models.StudyRecord{*rec}}, nil
	}

	completed := false
	for _, rec := range matches {
		if rec.TeoriaFinalizada {
			completed = true
			break
		}
	}
	updated := make([]models.StudyRecord, 0, len(matches))
	for _, rec := range matches {
		next := *rec
		next.TeoriaFinalizada = !completed
		updated = append(updated, next)
	}
	if err := s.repo.UpdateMany(ctx, updated); err != nil {
		return nil, internalError(err, "failed to update study records")
	}
	s.afterWrite(ctx, "toggle")
	return &dto.ToggleCompletionResult{Completed: !completed, Records: updated}, nil
}

// ValidateRecord checks a record beyond what struct tags express.
func ValidateRecord(rec *models.StudyRecord) error {
	for i, page := range rec.Pages {
		if page.Start < 0 || page.End < page.Start {
			return appErrors.WithField(fmt.Sprintf("pages[%d]", i), "end must be greater than or equal to start")
		}
	}
	for i, video := range rec.Videos {
		start, ok := parseClock(video.Start)
		if !ok {
			return appErrors.WithField(fmt.Sprintf("videos[%d].start", i), "must be HH:MM:SS or MM:SS")
		}
		end, ok := parseClock(video.End)
		if !ok {
			return appErrors.WithField(fmt.Sprintf("videos[%d].end", i), "must be HH:MM:SS or MM:SS")
		}
		if end < start {
			return appErrors.WithField(fmt.Sprintf("videos[%d].end", i), "must not be before start")
		}
	}
	for i, period := range rec.ReviewPeriods {
		if _, ok := reviewOffset(period); !ok {
			return appErrors.WithField(fmt.Sprintf("reviewPeriods[%d]", i), `must look like "7d"`)
		}
	}
	if rec.Questions.Correct < 0 || rec.Questions.Total < rec.Questions.Correct {
		return appErrors.WithField("questions.total", "must be greater than or equal to correct")
	}
	return nil
}

func (s *StudyRecordService) buildRecord(ctx context.Context, req dto.StudyRecordRequest) (*models.StudyRecord, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	req.Topic = strings.TrimSpace(req.Topic)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid study record")
	}
	rec := &models.StudyRecord{
		PlanID:           strings.TrimSpace(req.PlanID),
		Date:             req.Date,
		Subject:          req.Subject,
		Topic:            req.Topic,
		SubjectID:        strings.TrimSpace(req.SubjectID),
		TopicID:          strings.TrimSpace(req.TopicID),
		StudyTime:        req.StudyTime,
		Questions:        req.Questions,
		Pages:            req.Pages,
		Videos:           req.Videos,
		Notes:            req.Notes,
		Category:         req.Category,
		ReviewPeriods:    req.ReviewPeriods,
		TeoriaFinalizada: req.TeoriaFinalizada,
		CountInPlanning:  req.CountInPlanning,
	}
	if rec.Pages == nil {
		rec.Pages = []models.PageRange{}
	}
	if rec.Videos == nil {
		rec.Videos = []models.Video{}
	}
	if err := ValidateRecord(rec); err != nil {
		return nil, err
	}
	if err := s.bindToPlan(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// bindToPlan fills subject/topic ids from the plan when the names resolve and
// rejects records aimed at a grouping topic. Unresolvable names are kept as-is.
func (s *StudyRecordService) bindToPlan(ctx context.Context, rec *models.StudyRecord) error {
	if s.plans == nil {
		return nil
	}
	plan, err := s.plans.ResolvePlan(ctx, rec.PlanID)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
			return nil
		}
		return err
	}
	subject := plan.FindSubject(rec.SubjectID, rec.Subject)
	if subject == nil {
		return nil
	}
	if rec.PlanID == "" {
		rec.PlanID = plan.ID
	}
	rec.SubjectID = subject.ID
	rec.Subject = subject.Subject
	if rec.Topic == "" && rec.TopicID == "" {
		return nil
	}
	topic := syllabus.FindTopic(subject.Topics, rec.TopicID, rec.Topic)
	if topic == nil {
		rec.TopicID = ""
		return nil
	}
	if topic.IsGroup() {
		return appErrors.WithField("topic", "grouping topics cannot receive study records")
	}
	rec.TopicID = topic.ID
	rec.Topic = topic.TopicText
	return nil
}

func (s *StudyRecordService) afterWrite(ctx context.Context, op string) {
	s.metrics.RecordStudyRecordWrite(op)
	s.cache.InvalidateStatistics(ctx)
}

package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	"github.com/ouroboros-study/ouroboros-api/internal/models"
	"github.com/ouroboros-study/ouroboros-api/internal/syllabus"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
	"github.com/ouroboros-study/ouroboros-api/pkg/storage"
)

type planRepository interface {
	List(ctx context.Context) ([]models.Plan, error)
	FindByID(ctx context.Context, id string) (*models.Plan, error)
	Create(ctx context.Context, plan *models.Plan) error
	Update(ctx context.Context, plan *models.Plan) error
	Delete(ctx context.Context, id string) error
}

type settingsRepository interface {
	Get(ctx context.Context, key string) (*models.AppSetting, error)
	Upsert(ctx context.Context, setting *models.AppSetting) error
	Delete(ctx context.Context, key string) error
}

type syllabusSources interface {
	List(exts ...string) ([]storage.FileInfo, error)
	Read(filename string) ([]byte, error)
}

// PlanService manages plans, the selected plan and syllabus source imports.
type PlanService struct {
	repo      planRepository
	settings  settingsRepository
	sources   syllabusSources
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlanService constructs a PlanService. sources and cache may be nil.
func NewPlanService(repo planRepository, settings settingsRepository, sources syllabusSources, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanService{
		repo:      repo,
		settings:  settings,
		sources:   sources,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns a summary of every plan, flagging the selected one.
func (s *PlanService) List(ctx context.Context) ([]dto.PlanSummary, error) {
	plans, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list plans")
	}
	selected, err := s.selectedID(ctx)
	if err != nil {
		return nil, err
	}
	if selected == "" && len(plans) > 0 {
		selected = plans[0].ID
	}
	out := make([]dto.PlanSummary, 0, len(plans))
	for _, plan := range plans {
		topics := 0
		for _, subject := range plan.Subjects {
			topics += len(syllabus.Leaves(subject.Topics))
		}
		out = append(out, dto.PlanSummary{
			ID:         plan.ID,
			Name:       plan.Name,
			Cargo:      plan.Cargo,
			Edital:     plan.Edital,
			SourceFile: plan.SourceFile,
			Subjects:   len(plan.Subjects),
			Topics:     topics,
			Selected:   plan.ID == selected,
			UpdatedAt:  plan.UpdatedAt,
		})
	}
	return out, nil
}

// Get returns a plan by id.
func (s *PlanService) Get(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plan not found")
		}
		return nil, internalError(err, "failed to load plan")
	}
	return plan, nil
}

// Create validates and stores a new plan. The first plan ever created becomes the selected one.
func (s *PlanService) Create(ctx context.Context, req dto.PlanRequest) (*models.Plan, error) {
	plan, err := s.buildPlan(req)
	if err != nil {
		return nil, err
	}
	syllabus.AssignIDs(plan.Subjects)
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, internalError(err, "failed to create plan")
	}
	s.selectIfNone(ctx, plan.ID)
	s.cache.InvalidateStatistics(ctx)
	s.logger.Info("plan created", zap.String("plan_id", plan.ID), zap.Int("subjects", len(plan.Subjects)))
	return plan, nil
}

// Update replaces a plan. Subjects and topics resent without ids keep the ids of
// their namesakes so existing records stay joined.
func (s *PlanService) Update(ctx context.Context, id string, req dto.PlanRequest) (*models.Plan, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.buildPlan(req)
	if err != nil {
		return nil, err
	}
	plan.ID = existing.ID
	plan.SourceFile = existing.SourceFile
	plan.CreatedAt = existing.CreatedAt
	syllabus.InheritIDs(plan.Subjects, existing.Subjects)
	syllabus.AssignIDs(plan.Subjects)

	if err := s.repo.Update(ctx, plan); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plan not found")
		}
		return nil, internalError(err, "failed to update plan")
	}
	s.cache.InvalidateStatistics(ctx)
	return plan, nil
}

// Delete removes a plan. Deleting the selected plan clears the selection; study
// records referencing it are kept.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete plan")
	}
	selected, err := s.selectedID(ctx)
	if err != nil {
		return err
	}
	if selected == id {
		if err := s.settings.Delete(ctx, models.SettingSelectedPlan); err != nil {
			return internalError(err, "failed to clear selected plan")
		}
	}
	s.cache.InvalidateStatistics(ctx)
	s.logger.Info("plan deleted", zap.String("plan_id", id))
	return nil
}

// Select persists id as the selected plan.
func (s *PlanService) Select(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.settings.Upsert(ctx, &models.AppSetting{Key: models.SettingSelectedPlan, Value: plan.ID}); err != nil {
		return nil, internalError(err, "failed to select plan")
	}
	return plan, nil
}

// Selected returns the selected plan, falling back to the first plan when the
// stored selection is missing or dangling.
func (s *PlanService) Selected(ctx context.Context) (*models.Plan, error) {
	id, err := s.selectedID(ctx)
	if err != nil {
		return nil, err
	}
	if id != "" {
		plan, err := s.repo.FindByID(ctx, id)
		if err == nil {
			return plan, nil
		}
		if !isNoRows(err) {
			return nil, internalError(err, "failed to load selected plan")
		}
	}
	plans, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list plans")
	}
	if len(plans) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no plan available")
	}
	return &plans[0], nil
}

// ResolvePlan returns the plan with id, or the selected plan when id is empty.
func (s *PlanService) ResolvePlan(ctx context.Context, id string) (*models.Plan, error) {
	if strings.TrimSpace(id) == "" {
		return s.Selected(ctx)
	}
	return s.Get(ctx, id)
}

// ListSources returns the syllabus documents available for import.
func (s *PlanService) ListSources(ctx context.Context) ([]dto.SyllabusSource, error) {
	if s.sources == nil {
		return []dto.SyllabusSource{}, nil
	}
	files, err := s.sources.List(syllabus.SupportedExtensions...)
	if err != nil {
		return nil, internalError(err, "failed to list syllabus sources")
	}
	out := make([]dto.SyllabusSource, 0, len(files))
	for _, f := range files {
		out = append(out, dto.SyllabusSource{Name: f.Name, SizeBytes: f.SizeBytes, ModifiedAt: f.ModifiedAt})
	}
	return out, nil
}

// ImportSource parses a syllabus document and stores it as a new plan.
func (s *PlanService) ImportSource(ctx context.Context, name string) (*models.Plan, error) {
	if s.sources == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "syllabus sources not configured")
	}
	name = filepath.Base(strings.TrimSpace(name))
	if !supportedSource(name) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported syllabus file type")
	}
	data, err := s.sources.Read(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "syllabus source not found")
	}
	doc, err := syllabus.ParseDocument(name, data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSyllabus.Code, appErrors.ErrInvalidSyllabus.Status, err.Error())
	}
	plan, err := s.buildPlan(dto.PlanRequest{
		Name:              doc.Name,
		Observations:      doc.Observations,
		Cargo:             doc.Cargo,
		Edital:            doc.Edital,
		Subjects:          doc.Subjects,
		BancaTopicWeights: doc.BancaTopicWeights,
	})
	if err != nil {
		return nil, err
	}
	plan.SourceFile = name
	syllabus.AssignIDs(plan.Subjects)
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, internalError(err, "failed to create plan")
	}
	s.selectIfNone(ctx, plan.ID)
	s.cache.InvalidateStatistics(ctx)
	s.logger.Info("syllabus imported", zap.String("source", name), zap.String("plan_id", plan.ID))
	return plan, nil
}

func (s *PlanService) buildPlan(req dto.PlanRequest) (*models.Plan, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid plan payload")
	}
	subjects := syllabus.Clone(req.Subjects)
	if subjects == nil {
		subjects = []models.Subject{}
	}
	syllabus.Normalize(subjects)
	if err := validateSubjects(subjects); err != nil {
		return nil, err
	}
	if err := validateWeights(req.BancaTopicWeights); err != nil {
		return nil, err
	}
	return &models.Plan{
		Name:              req.Name,
		Observations:      strings.TrimSpace(req.Observations),
		Cargo:             strings.TrimSpace(req.Cargo),
		Edital:            strings.TrimSpace(req.Edital),
		Subjects:          models.Subjects(subjects),
		BancaTopicWeights: req.BancaTopicWeights,
	}, nil
}

func (s *PlanService) selectedID(ctx context.Context) (string, error) {
	setting, err := s.settings.Get(ctx, models.SettingSelectedPlan)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", internalError(err, "failed to load selected plan")
	}
	return setting.Value, nil
}

func (s *PlanService) selectIfNone(ctx context.Context, id string) {
	current, err := s.selectedID(ctx)
	if err != nil || current != "" {
		return
	}
	if err := s.settings.Upsert(ctx, &models.AppSetting{Key: models.SettingSelectedPlan, Value: id}); err != nil {
		s.logger.Warn("failed to select first plan", zap.String("plan_id", id), zap.Error(err))
	}
}

// validateSubjects rejects duplicate subject names, which would make the text join ambiguous.
func validateSubjects(subjects []models.Subject) error {
	seen := make(map[string]struct{}, len(subjects))
	for i, subject := range subjects {
		field := fmt.Sprintf("subjects[%d].subject", i)
		if subject.Subject == "" {
			return appErrors.WithField(field, "is required")
		}
		if _, dup := seen[subject.Subject]; dup {
			return appErrors.WithField(field, fmt.Sprintf("duplicate subject %q", subject.Subject))
		}
		seen[subject.Subject] = struct{}{}
		var missing bool
		syllabus.Walk(subject.Topics, func(t *models.Topic, _ int, _ []string) bool {
			if t.TopicText == "" {
				missing = true
			}
			return !missing
		})
		if missing {
			return appErrors.WithField(fmt.Sprintf("subjects[%d].topics", i), "topic_text is required")
		}
	}
	return nil
}

func validateWeights(weights models.TopicWeights) error {
	for subject, topics := range weights {
		for topic, weight := range topics {
			if weight < 1 || weight > 5 {
				return appErrors.WithField(fmt.Sprintf("bancaTopicWeights.%s.%s", subject, topic), "must be between 1 and 5")
			}
		}
	}
	return nil
}

func supportedSource(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range syllabus.SupportedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

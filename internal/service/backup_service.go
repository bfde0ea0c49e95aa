package service

import (
	"bytes"
	"context"
	"encoding/json"
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

type backupRepository interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
	ReplaceAll(ctx context.Context, snap *models.Snapshot) error
	ClearAll(ctx context.Context) error
}

// BackupService exports, restores and wipes every collection.
type BackupService struct {
	repo      backupRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBackupService constructs the service.
func NewBackupService(repo backupRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BackupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// Export returns the full snapshot and its download filename.
func (s *BackupService) Export(ctx context.Context) (*models.Snapshot, string, error) {
	snap, err := s.repo.Snapshot(ctx)
	s.metrics.RecordBackupOperation("export", err)
	if err != nil {
		return nil, "", internalError(err, "failed to export data")
	}
	now := s.now()
	snap.ExportedAt = now.UTC()
	return snap, BackupFilename(now), nil
}

// Import validates the whole document and only then replaces every collection.
// Any failure leaves the stored data untouched.
func (s *BackupService) Import(ctx context.Context, data []byte) (*dto.ImportResult, error) {
	snap, err := s.Decode(data)
	if err == nil {
		err = s.repo.ReplaceAll(ctx, snap)
		if err != nil {
			err = internalError(err, "failed to import backup")
		}
	}
	s.metrics.RecordBackupOperation("import", err)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateStatistics(ctx)
	s.logger.Info("backup imported",
		zap.Int("plans", len(snap.Plans)),
		zap.Int("study_records", len(snap.StudyRecords)))
	return &dto.ImportResult{
		Plans:          len(snap.Plans),
		StudyRecords:   len(snap.StudyRecords),
		SelectedPlanID: snap.SelectedPlanID,
	}, nil
}

// Clear removes every plan, record and setting. Callers confirm beforehand.
func (s *BackupService) Clear(ctx context.Context) error {
	err := s.repo.ClearAll(ctx)
	s.metrics.RecordBackupOperation("clear", err)
	if err != nil {
		return internalError(err, "failed to clear data")
	}
	s.cache.InvalidateStatistics(ctx)
	s.logger.Info("all data cleared")
	return nil
}

// backupDocument distinguishes absent collections from empty ones.
type backupDocument struct {
	App            *string               `json:"app"`
	Version        *int                  `json:"version"`
	SelectedPlanID string                `json:"selectedPlanId"`
	Plans          *[]models.Plan        `json:"plans"`
	StudyRecords   *[]models.StudyRecord `json:"studyRecords"`
}

// Decode parses and validates a backup document into a snapshot ready to store.
// Documents without app/version markers are accepted when both collections are present.
func (s *BackupService) Decode(data []byte) (*models.Snapshot, error) {
	var doc backupDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidBackup.Code, appErrors.ErrInvalidBackup.Status, "backup is not valid JSON")
	}
	if doc.App != nil && *doc.App != models.BackupApp {
		return nil, appErrors.Clone(appErrors.ErrInvalidBackup, fmt.Sprintf("backup belongs to %q", *doc.App))
	}
	if doc.Version != nil && (*doc.Version < 1 || *doc.Version > models.BackupVersion) {
		return nil, appErrors.Clone(appErrors.ErrInvalidBackup, fmt.Sprintf("unsupported backup version %d", *doc.Version))
	}
	if doc.Plans == nil || doc.StudyRecords == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidBackup, "backup must contain plans and studyRecords")
	}

	snap := &models.Snapshot{
		App:          models.BackupApp,
		Version:      models.BackupVersion,
		Plans:        *doc.Plans,
		StudyRecords: *doc.StudyRecords,
	}
	now := s.now().UTC()
	fields := map[string]string{}

	planIDs := make(map[string]struct{}, len(snap.Plans))
	for i := range snap.Plans {
		if err := s.preparePlan(&snap.Plans[i], now); err != nil {
			mergeFields(fields, fmt.Sprintf("plans[%d]", i), err)
			continue
		}
		id := snap.Plans[i].ID
		if _, dup := planIDs[id]; dup {
			fields[fmt.Sprintf("plans[%d].id", i)] = "duplicate id"
		}
		planIDs[id] = struct{}{}
	}

	recordIDs := make(map[string]struct{}, len(snap.StudyRecords))
	for i := range snap.StudyRecords {
		if err := s.prepareRecord(&snap.StudyRecords[i], now); err != nil {
			mergeFields(fields, fmt.Sprintf("studyRecords[%d]", i), err)
			continue
		}
		id := snap.StudyRecords[i].ID
		if _, dup := recordIDs[id]; dup {
			fields[fmt.Sprintf("studyRecords[%d].id", i)] = "duplicate id"
		}
		recordIDs[id] = struct{}{}
	}

	if len(fields) > 0 {
		out := appErrors.Clone(appErrors.ErrInvalidBackup, "backup contains invalid entries")
		out.Fields = fields
		return nil, out
	}
	if _, ok := planIDs[doc.SelectedPlanID]; ok {
		snap.SelectedPlanID = doc.SelectedPlanID
	}
	return snap, nil
}

func (s *BackupService) preparePlan(plan *models.Plan, now time.Time) error {
	plan.Name = strings.TrimSpace(plan.Name)
	req := dto.PlanRequest{
		Name:              plan.Name,
		Observations:      plan.Observations,
		Cargo:             plan.Cargo,
		Edital:            plan.Edital,
		Subjects:          plan.Subjects,
		BancaTopicWeights: plan.BancaTopicWeights,
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid plan")
	}
	if plan.Subjects == nil {
		plan.Subjects = models.Subjects{}
	}
	syllabus.Normalize(plan.Subjects)
	if err := validateSubjects(plan.Subjects); err != nil {
		return err
	}
	if err := validateWeights(plan.BancaTopicWeights); err != nil {
		return err
	}
	syllabus.AssignIDs(plan.Subjects)
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	if plan.UpdatedAt.IsZero() {
		plan.UpdatedAt = plan.CreatedAt
	}
	return nil
}

func (s *BackupService) prepareRecord(rec *models.StudyRecord, now time.Time) error {
	rec.Subject = strings.TrimSpace(rec.Subject)
	rec.Topic = strings.TrimSpace(rec.Topic)
	if err := s.validator.Struct(rec); err != nil {
		return appErrors.Validation(err, "invalid study record")
	}
	if err := ValidateRecord(rec); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Pages == nil {
		rec.Pages = []models.PageRange{}
	}
	if rec.Videos == nil {
		rec.Videos = []models.Video{}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	return nil
}

// BackupFilename follows backup-ouroboros-completo-<YYYY-MM-DD>.json.
func BackupFilename(now time.Time) string {
	return fmt.Sprintf("backup-%s-completo-%s.json", models.BackupApp, now.Format(models.DateLayout))
}

func mergeFields(dst map[string]string, prefix string, err error) {
	appErr := appErrors.FromError(err)
	if len(appErr.Fields) == 0 {
		dst[prefix] = appErr.Message
		return
	}
	for field, msg := range appErr.Fields {
		dst[prefix+"."+field] = msg
	}
}

package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	"github.com/ouroboros-study/ouroboros-api/internal/models"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
	"github.com/ouroboros-study/ouroboros-api/pkg/export"
)

type recordFilterer interface {
	Filter(ctx context.Context, q dto.StudyRecordQuery) ([]models.StudyRecord, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type tokenSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportServiceConfig governs download links and retention.
type ReportServiceConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload is a resolved download.
type ReportDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

var reportHeaders = []string{
	"Data", "Matéria", "Tópico", "Categoria", "Tempo (min)",
	"Acertos", "Questões", "Desempenho (%)", "Páginas", "Anotações",
}

// ReportService renders the filtered history as CSV or PDF and hands out signed links.
type ReportService struct {
	records   recordFilterer
	storage   fileStorage
	signer    tokenSigner
	csv       csvRenderer
	pdf       pdfRenderer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// NewReportService constructs the service. Nil renderers fall back to the defaults.
func NewReportService(records recordFilterer, storage fileStorage, signer tokenSigner, csv csvRenderer, pdf pdfRenderer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter(0)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{
		records:   records,
		storage:   storage,
		signer:    signer,
		csv:       csv,
		pdf:       pdf,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate renders and stores a report, returning a signed download link.
func (s *ReportService) Generate(ctx context.Context, req dto.ReportRequest) (*dto.ReportResponse, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid report request")
	}
	records, err := s.records.Filter(ctx, req.Filter)
	if err != nil {
		return nil, err
	}

	dataset := BuildHistoryDataset(records)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Histórico de estudos"
	}

	var payload []byte
	switch req.Format {
	case "csv":
		payload, err = s.csv.Render(dataset)
	case "pdf":
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		return nil, internalError(err, "failed to render report")
	}

	id := uuid.NewString()
	filename := fmt.Sprintf("historico_%s_%s.%s", s.now().UTC().Format("20060102_150405"), id[:8], req.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, internalError(err, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, internalError(err, "failed to sign report link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.metrics.RecordReport(req.Format)
	s.logger.Info("report generated", zap.String("file", relPath), zap.Int("rows", len(records)))
	return &dto.ReportResponse{
		Filename:  relPath,
		Format:    req.Format,
		Rows:      len(records),
		URL:       prefix + "/reports/download?token=" + token,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveDownload validates the token and opens the stored file.
func (s *ReportService) ResolveDownload(token string) (*ReportDownload, error) {
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file not found")
	}
	return &ReportDownload{File: file, Filename: filepath.Base(relPath), ExpiresAt: expiresAt}, nil
}

// StartCleanup purges reports older than ResultTTL until ctx is done.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Cleanup removes expired report files once.
func (s *ReportService) Cleanup() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(removed)))
	}
}

// BuildHistoryDataset turns records into report rows, newest first as given.
func BuildHistoryDataset(records []models.StudyRecord) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]string{
			"Data":           rec.Date,
			"Matéria":        rec.Subject,
			"Tópico":         rec.Topic,
			"Categoria":      string(rec.Category),
			"Tempo (min)":    strconv.FormatInt(rec.StudyTime/int64(time.Minute/time.Millisecond), 10),
			"Acertos":        strconv.Itoa(rec.Questions.Correct),
			"Questões":       strconv.Itoa(rec.Questions.Total),
			"Desempenho (%)": strconv.Itoa(rec.Performance()),
			"Páginas":        formatPages(rec.Pages),
			"Anotações":      strings.ReplaceAll(rec.Notes, "\n", " "),
		})
	}
	return export.Dataset{Headers: reportHeaders, Rows: rows}
}

func formatPages(pages []models.PageRange) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, fmt.Sprintf("%d-%d", p.Start, p.End))
	}
	return strings.Join(parts, ", ")
}

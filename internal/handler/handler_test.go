package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros-study/ouroboros-api/internal/dto"
	"github.com/ouroboros-study/ouroboros-api/internal/models"
	"github.com/ouroboros-study/ouroboros-api/internal/service"
	"github.com/ouroboros-study/ouroboros-api/internal/timer"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
	"github.com/ouroboros-study/ouroboros-api/pkg/response"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type planServiceStub struct {
	created *models.Plan
	err     error
}

func (s *planServiceStub) List(ctx context.Context) ([]dto.PlanSummary, error) {
	return []dto.PlanSummary{{ID: "p1", Name: "TRF", Selected: true}}, s.err
}
func (s *planServiceStub) Get(ctx context.Context, id string) (*models.Plan, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "plan not found")
}
func (s *planServiceStub) Create(ctx context.Context, req dto.PlanRequest) (*models.Plan, error) {
	return s.created, s.err
}
func (s *planServiceStub) Update(ctx context.Context, id string, req dto.PlanRequest) (*models.Plan, error) {
	return s.created, s.err
}
func (s *planServiceStub) Delete(ctx context.Context, id string) error { return s.err }
func (s *planServiceStub) Select(ctx context.Context, id string) (*models.Plan, error) {
	return s.created, s.err
}
func (s *planServiceStub) Selected(ctx context.Context) (*models.Plan, error) {
	return s.created, s.err
}
func (s *planServiceStub) ListSources(ctx context.Context) ([]dto.SyllabusSource, error) {
	return nil, s.err
}
func (s *planServiceStub) ImportSource(ctx context.Context, name string) (*models.Plan, error) {
	return s.created, s.err
}

func TestPlanHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewPlanHandler(&planServiceStub{created: &models.Plan{ID: "p1", Name: "TRF"}})

	c, w := newGinContext(http.MethodPost, "/plans", []byte(`{"name":"TRF"}`))
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	c, w = newGinContext(http.MethodPost, "/plans", []byte(`{"name":`))
	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestPlanHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewPlanHandler(&planServiceStub{})
	c, w := newGinContext(http.MethodGet, "/plans/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlanHandlerListReportsTotal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewPlanHandler(&planServiceStub{})
	c, w := newGinContext(http.MethodGet, "/plans", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeEnvelope(t, w).Meta["total"])
}

type studyRecordServiceStub struct {
	toggle    *dto.ToggleCompletionResult
	lastQuery dto.StudyRecordQuery
}

func (s *studyRecordServiceStub) Get(ctx context.Context, id string) (*models.StudyRecord, error) {
	return nil, appErrors.ErrNotFound
}
func (s *studyRecordServiceStub) Create(ctx context.Context, req dto.StudyRecordRequest) (*models.StudyRecord, error) {
	return &models.StudyRecord{ID: "r1", Subject: req.Subject}, nil
}
func (s *studyRecordServiceStub) Update(ctx context.Context, id string, req dto.StudyRecordRequest) (*models.StudyRecord, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "study record not found")
}
func (s *studyRecordServiceStub) Delete(ctx context.Context, id string) error { return nil }
func (s *studyRecordServiceStub) Filter(ctx context.Context, q dto.StudyRecordQuery) ([]models.StudyRecord, error) {
	s.lastQuery = q
	return []models.StudyRecord{}, nil
}
func (s *studyRecordServiceStub) History(ctx context.Context, q dto.StudyRecordQuery) (*dto.History, error) {
	s.lastQuery = q
	return &dto.History{Days: []dto.HistoryDay{}}, nil
}
func (s *studyRecordServiceStub) ToggleCompletion(ctx context.Context, req dto.ToggleCompletionRequest) (*dto.ToggleCompletionResult, error) {
	return s.toggle, nil
}

func TestStudyRecordHandlerToggleCreatedReturns201(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &studyRecordServiceStub{toggle: &dto.ToggleCompletionResult{Completed: true, Created: true}}
	h := NewStudyRecordHandler(svc)

	c, w := newGinContext(http.MethodPost, "/study-records/toggle-completion", []byte(`{"subject":"Direito","topic":"Atos"}`))
	h.ToggleCompletion(c)
	require.Equal(t, http.StatusCreated, w.Code)

	svc.toggle = &dto.ToggleCompletionResult{Completed: false}
	c, w = newGinContext(http.MethodPost, "/study-records/toggle-completion", []byte(`{"subject":"Direito","topic":"Atos"}`))
	h.ToggleCompletion(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestStudyRecordHandlerBindsFilterQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &studyRecordServiceStub{}
	h := NewStudyRecordHandler(svc)

	c, w := newGinContext(http.MethodGet, "/study-records?startDate=2024-01-01&minDuration=30&subjects=A&subjects=B", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-01-01", svc.lastQuery.StartDate)
	require.NotNil(t, svc.lastQuery.MinDuration)
	assert.Equal(t, 30, *svc.lastQuery.MinDuration)
	assert.Equal(t, []string{"A", "B"}, svc.lastQuery.Subjects)

	c, w = newGinContext(http.MethodGet, "/study-records?minDuration=abc", nil)
	h.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudyRecordHandlerUpdateUnknownID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewStudyRecordHandler(&studyRecordServiceStub{})
	c, w := newGinContext(http.MethodPut, "/study-records/missing", []byte(`{"date":"2024-01-01","subject":"A","category":"teoria"}`))
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Update(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

type backupServiceStub struct {
	imported []byte
	cleared  bool
}

func (s *backupServiceStub) Export(ctx context.Context) (*models.Snapshot, string, error) {
	return &models.Snapshot{App: models.BackupApp, Version: models.BackupVersion, Plans: []models.Plan{}, StudyRecords: []models.StudyRecord{}},
		service.BackupFilename(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)), nil
}
func (s *backupServiceStub) Import(ctx context.Context, data []byte) (*dto.ImportResult, error) {
	s.imported = data
	return &dto.ImportResult{}, nil
}
func (s *backupServiceStub) Clear(ctx context.Context) error {
	s.cleared = true
	return nil
}

func TestBackupHandlerExportSetsAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewBackupHandler(&backupServiceStub{}, "APAGAR TODOS OS DADOS")
	c, w := newGinContext(http.MethodGet, "/backup", nil)
	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="backup-ouroboros-completo-2024-03-09.json"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), `"studyRecords": []`)
}

func TestBackupHandlerImportRequiresConfirmation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &backupServiceStub{}
	h := NewBackupHandler(svc, "APAGAR TODOS OS DADOS")
	body := []byte(`{"plans":[],"studyRecords":[]}`)

	c, w := newGinContext(http.MethodPost, "/backup/import", body)
	h.Import(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Nil(t, svc.imported)

	c, w = newGinContext(http.MethodPost, "/backup/import?confirm=true", body)
	h.Import(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, svc.imported)
}

func TestBackupHandlerClearChecksPhrase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &backupServiceStub{}
	h := NewBackupHandler(svc, "APAGAR TODOS OS DADOS")

	c, w := newGinContext(http.MethodPost, "/backup/clear", []byte(`{"confirmation":"apagar todos os dados"}`))
	h.Clear(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.False(t, svc.cleared)

	c, w = newGinContext(http.MethodPost, "/backup/clear", []byte(`{"confirmation":"APAGAR TODOS OS DADOS"}`))
	h.Clear(c)
	c.Writer.WriteHeaderNow() // flush the lazily-set status, as gin's engine does after handlers
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, svc.cleared)
}

type reportServiceStub struct {
	download *service.ReportDownload
	err      error
}

func (s *reportServiceStub) Generate(ctx context.Context, req dto.ReportRequest) (*dto.ReportResponse, error) {
	return &dto.ReportResponse{Format: req.Format}, nil
}
func (s *reportServiceStub) ResolveDownload(token string) (*service.ReportDownload, error) {
	return s.download, s.err
}

func TestReportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "historico.csv")
	require.NoError(t, os.WriteFile(path, []byte("Data;Matéria\n"), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)

	h := NewReportHandler(&reportServiceStub{download: &service.ReportDownload{File: f, Filename: "historico.csv"}})
	c, w := newGinContext(http.MethodGet, "/reports/download?token=abc", nil)
	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "historico.csv")
	assert.Equal(t, "Data;Matéria\n", w.Body.String())
}

func TestReportHandlerDownloadErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewReportHandler(&reportServiceStub{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")})

	c, w := newGinContext(http.MethodGet, "/reports/download", nil)
	h.Download(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodGet, "/reports/download?token=bad", nil)
	h.Download(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

type statisticsServiceStub struct{}

func (statisticsServiceStub) PlanStatistics(ctx context.Context, planID string) (*dto.PlanStatistics, error) {
	return &dto.PlanStatistics{PlanID: planID}, nil
}

type reviewServiceStub struct {
	days int
}

func (s *reviewServiceStub) Schedule(ctx context.Context, date string, days int) (*dto.ReviewSchedule, error) {
	s.days = days
	return &dto.ReviewSchedule{Date: date}, nil
}

func TestStatisticsHandlerReviewsParsesDays(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reviews := &reviewServiceStub{}
	h := NewStatisticsHandler(statisticsServiceStub{}, reviews)

	c, w := newGinContext(http.MethodGet, "/reviews?days=14", nil)
	h.Reviews(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 14, reviews.days)

	c, w = newGinContext(http.MethodGet, "/reviews?days=two", nil)
	h.Reviews(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Error.Fields, "days")
}

func TestTimerHandlerCommand(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tm := timer.New(time.Now)
	h := NewTimerHandler(tm, timer.NewHub(tm, nil, nil), []string{"*"}, nil)

	c, w := newGinContext(http.MethodPost, "/timer/start", nil)
	c.Params = gin.Params{{Key: "action", Value: "start"}}
	h.Command(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, timer.StateRunning, tm.Snapshot().State)

	c, w = newGinContext(http.MethodPost, "/timer/rewind", nil)
	c.Params = gin.Params{{Key: "action", Value: "rewind"}}
	h.Command(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := PingFunc(func(ctx context.Context) error { return nil })
	down := PingFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	c, w := newGinContext(http.MethodGet, "/ready", nil)
	NewHealthHandler(nil, map[string]Pinger{"database": ok}).Ready(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/ready", nil)
	NewHealthHandler(nil, map[string]Pinger{"database": ok, "cache": down}).Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

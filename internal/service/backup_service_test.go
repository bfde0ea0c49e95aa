package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros-study/ouroboros-api/internal/models"
	appErrors "github.com/ouroboros-study/ouroboros-api/pkg/errors"
)

type backupRepoStub struct {
	snapshot *models.Snapshot
	replaced *models.Snapshot
	cleared  bool
	err      error
}

func (b *backupRepoStub) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	return b.snapshot, b.err
}

func (b *backupRepoStub) ReplaceAll(ctx context.Context, snap *models.Snapshot) error {
	if b.err != nil {
		return b.err
	}
	b.replaced = snap
	return nil
}

func (b *backupRepoStub) ClearAll(ctx context.Context) error {
	b.cleared = true
	return b.err
}

func newBackupServiceForTest(repo *backupRepoStub) *BackupService {
	svc := NewBackupService(repo, nil, nil, validator.New(), nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC) }
	return svc
}

const validBackup = `{
  "app": "ouroboros",
  "version": 1,
  "selectedPlanId": "p1",
  "plans": [{"id": "p1", "name": "TRF 4", "subjects": [{"subject": "Direito", "topics": [{"topic_text": "Atos"}]}]}],
  "studyRecords": [{"id": "r1", "date": "2024-03-01", "subject": "Direito", "topic": "Atos", "category": "teoria", "questions": {"correct": 1, "total": 2}}]
}`

func TestBackupServiceExportFilename(t *testing.T) {
	repo := &backupRepoStub{snapshot: &models.Snapshot{App: models.BackupApp, Version: models.BackupVersion}}
	_, name, err := newBackupServiceForTest(repo).Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backup-ouroboros-completo-2024-03-09.json", name)
}

func TestBackupServiceImportValidBackup(t *testing.T) {
	repo := &backupRepoStub{}
	result, err := newBackupServiceForTest(repo).Import(context.Background(), []byte(validBackup))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Plans)
	assert.Equal(t, 1, result.StudyRecords)
	assert.Equal(t, "p1", result.SelectedPlanID)

	require.NotNil(t, repo.replaced)
	plan := repo.replaced.Plans[0]
	assert.NotEmpty(t, plan.Subjects[0].ID)
	assert.NotEmpty(t, plan.Subjects[0].Topics[0].ID)
	assert.False(t, plan.CreatedAt.IsZero())
	assert.NotNil(t, repo.replaced.StudyRecords[0].Pages)
}

func TestBackupServiceImportEmptyRecords(t *testing.T) {
	repo := &backupRepoStub{}
	doc := `{"plans": [{"name": "P", "subjects": [{"subject": "S", "topics": [{"topic_text": "A"}, {"topic_text": "B"}]}]}], "studyRecords": []}`
	_, err := newBackupServiceForTest(repo).Import(context.Background(), []byte(doc))
	require.NoError(t, err)

	stats := BuildPlanStatistics(&repo.replaced.Plans[0], repo.replaced.StudyRecords, time.Now())
	assert.Equal(t, 2, stats.Subjects[0].Counts.Total)
	assert.Zero(t, stats.Subjects[0].Counts.Completed)
	assert.Zero(t, stats.Subjects[0].Performance)
}

func TestBackupServiceDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"plans":`,
		"foreign app":       `{"app": "other", "plans": [], "studyRecords": []}`,
		"future version":    `{"app": "ouroboros", "version": 99, "plans": [], "studyRecords": []}`,
		"missing records":   `{"plans": []}`,
		"duplicate plan id": `{"plans": [{"id": "p", "name": "A"}, {"id": "p", "name": "B"}], "studyRecords": []}`,
		"bad record":        `{"plans": [], "studyRecords": [{"date": "2024-13-01", "subject": "A", "category": "teoria"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &backupRepoStub{}
			_, err := newBackupServiceForTest(repo).Import(context.Background(), []byte(doc))
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrInvalidBackup.Code, appErrors.FromError(err).Code)
			assert.Nil(t, repo.replaced)
		})
	}
}

func TestBackupServiceDecodeReportsEntryFields(t *testing.T) {
	doc := `{"plans": [], "studyRecords": [
		{"date": "2024-03-01", "subject": "A", "category": "teoria"},
		{"date": "2024-03-01", "subject": "", "category": "teoria"}
	]}`
	_, err := newBackupServiceForTest(&backupRepoStub{}).Decode([]byte(doc))
	require.Error(t, err)
	fields := appErrors.FromError(err).Fields
	require.NotEmpty(t, fields)
	for field := range fields {
		assert.Contains(t, field, "studyRecords[1]")
	}
}

func TestBackupServiceDropsDanglingSelection(t *testing.T) {
	doc := `{"selectedPlanId": "gone", "plans": [{"id": "p1", "name": "A"}], "studyRecords": []}`
	snap, err := newBackupServiceForTest(&backupRepoStub{}).Decode([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, snap.SelectedPlanID)
}

func TestBackupServiceClearPropagatesFailure(t *testing.T) {
	repo := &backupRepoStub{err: errors.New("disk full")}
	err := newBackupServiceForTest(repo).Clear(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
